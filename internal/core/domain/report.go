package domain

import (
	"errors"
	"fmt"
	"time"
)

// Stage names the pipeline step that raised a warning.
type Stage string

// Pipeline stages in execution order.
const (
	StageConvert  Stage = "convert"
	StageChunk    Stage = "chunk"
	StageDetect   Stage = "detect"
	StageSegment  Stage = "segment"
	StageLink     Stage = "link"
	StageConcepts Stage = "concepts"
	StageAssemble Stage = "assemble"
	StageExport   Stage = "export"
)

// Warning is a recovered failure surfaced in the run summary.
type Warning struct {
	// Kind is one of the domain sentinel errors, such as
	// ErrCollaboratorUnavailable or ErrSegmentationAmbiguity.
	Kind error

	// Stage is the pipeline step that recovered.
	Stage Stage

	// ChunkIndex is the affected chunk, or -1 for document-wide warnings.
	ChunkIndex int

	// TopicID is the affected topic, if any.
	TopicID string

	// Message describes what happened and how it was recovered.
	Message string
}

// String formats the warning for logs and the master index.
func (w Warning) String() string {
	prefix := string(w.Stage)
	if w.ChunkIndex >= 0 {
		prefix = fmt.Sprintf("%s, chunk_index %d", prefix, w.ChunkIndex)
	}
	if w.TopicID != "" {
		prefix = fmt.Sprintf("%s, topic %s", prefix, w.TopicID)
	}
	if w.Kind != nil {
		return fmt.Sprintf("[%s] %s: %s", prefix, w.Kind, w.Message)
	}
	return fmt.Sprintf("[%s] %s", prefix, w.Message)
}

// Is reports whether the warning is of the given kind.
func (w Warning) Is(kind error) bool {
	return w.Kind != nil && errors.Is(w.Kind, kind)
}

// Warn builds a document-wide warning.
func Warn(kind error, stage Stage, format string, args ...any) Warning {
	return Warning{Kind: kind, Stage: stage, ChunkIndex: -1, Message: fmt.Sprintf(format, args...)}
}

// WarnChunk builds a warning tied to one chunk.
func WarnChunk(kind error, stage Stage, chunk int, format string, args ...any) Warning {
	return Warning{Kind: kind, Stage: stage, ChunkIndex: chunk, Message: fmt.Sprintf(format, args...)}
}

// RunReport summarises one document run.
// Degraded behaviour is recorded here instead of being returned as an error.
type RunReport struct {
	// RunID identifies the run in logs. It never appears in output files.
	RunID string

	// Source is the document's file name.
	Source string

	// OutputDir is where files were written.
	OutputDir string

	// Words is the document word count.
	Words int

	// Chunks is the number of chunks produced.
	Chunks int

	// Topics is the number of non-empty topics written.
	Topics int

	// Links is the number of links in the similarity graph.
	Links int

	// DegradedBoundaries counts hard cuts made by the chunker.
	DegradedBoundaries int

	// FallbackChunks counts chunks whose topics came from the fallback path.
	FallbackChunks int

	// ExcludedTopics lists topics left out of linking after embedding failures.
	ExcludedTopics []string

	// KeyConcepts are document-wide concepts, when extraction is enabled.
	KeyConcepts []string

	// Files lists every file written, index last.
	Files []string

	// Warnings lists every recovered failure in the order it occurred.
	Warnings []Warning

	// StartedAt and Duration time the run.
	StartedAt time.Time
	Duration  time.Duration
}

// AddWarnings appends warnings to the report.
func (r *RunReport) AddWarnings(ws ...Warning) {
	r.Warnings = append(r.Warnings, ws...)
}

// Degraded reports whether any part of the run used a fallback path.
func (r *RunReport) Degraded() bool {
	return len(r.Warnings) > 0 || r.DegradedBoundaries > 0 || r.FallbackChunks > 0
}

// CountWarnings returns how many warnings are of the given kind.
func (r *RunReport) CountWarnings(kind error) int {
	n := 0
	for _, w := range r.Warnings {
		if w.Is(kind) {
			n++
		}
	}
	return n
}
