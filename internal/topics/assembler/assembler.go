// Package assembler writes the topic network to disk: one markdown file
// per non-empty topic and a master index for the document.
//
// Output carries no timestamps or run identifiers, so assembling the same
// input twice produces byte-identical files.
package assembler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/topicnet/internal/core/domain"
	"github.com/custodia-labs/topicnet/internal/logger"
)

// ManifestName is the file recording what the last run wrote.
const ManifestName = ".topicnet-manifest.json"

// Assembler renders and writes topic files.
type Assembler struct {
	outputDir string
	prune     bool
}

// Option configures the assembler.
type Option func(*Assembler)

// WithPrune removes files listed in the previous manifest that this run
// did not write.
func WithPrune(enabled bool) Option {
	return func(a *Assembler) {
		a.prune = enabled
	}
}

// New creates an assembler writing into outputDir.
func New(outputDir string, opts ...Option) *Assembler {
	a := &Assembler{outputDir: outputDir}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Input is everything rendered for one document.
type Input struct {
	Source string
	Chunks []domain.Chunk
	Topics []domain.Topic
	Links  []domain.Link

	// Report supplies word count, key concepts and processing notes.
	Report domain.RunReport
}

// IndexName returns the master index base name for a source, without extension.
// Topic IDs must never take this name.
func IndexName(source string) string {
	stem := domain.Slugify(domain.SourceStem(source))
	if stem == "" {
		stem = "document"
	}
	return stem + "_index"
}

// Assemble writes every file and returns their paths, index last.
func (a *Assembler) Assemble(ctx context.Context, in Input) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(a.outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	previous, err := readManifest(a.outputDir)
	if err != nil {
		logger.Debug("assembler: ignoring unreadable manifest: %v", err)
	}

	r := newRenderer(in)
	var written []string
	for _, t := range r.topics {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		body, err := r.topicFile(t)
		if err != nil {
			return written, err
		}
		path, err := a.write(t.ID+".md", body)
		if err != nil {
			return written, err
		}
		written = append(written, path)
	}

	body, err := r.indexFile()
	if err != nil {
		return written, err
	}
	path, err := a.write(r.index+".md", body)
	if err != nil {
		return written, err
	}
	written = append(written, path)

	names := make([]string, len(written))
	for i, p := range written {
		names[i] = filepath.Base(p)
	}
	tracked := names
	if a.prune {
		a.removeStale(previous.Files, names)
	} else {
		// Stale files stay tracked so a later pruning run can still remove them.
		tracked = a.carryOver(previous.Files, names)
	}
	if err := writeManifest(a.outputDir, manifest{Source: in.Source, Files: tracked}); err != nil {
		return written, err
	}

	logger.Debug("assembler: wrote %d files to %s", len(written), a.outputDir)
	return written, nil
}

func (a *Assembler) removeStale(old, current []string) {
	keep := make(map[string]bool, len(current))
	for _, name := range current {
		keep[name] = true
	}
	for _, name := range old {
		if keep[name] || name != filepath.Base(name) || !strings.HasSuffix(name, ".md") {
			continue
		}
		err := os.Remove(filepath.Join(a.outputDir, name))
		switch {
		case err == nil:
			logger.Debug("assembler: pruned %s", name)
		case !errors.Is(err, os.ErrNotExist):
			logger.Warn("assembler: could not prune %s: %v", name, err)
		}
	}
}

func (a *Assembler) write(name string, data []byte) (string, error) {
	return writeAtomic(a.outputDir, name, data)
}

func (a *Assembler) carryOver(old, current []string) []string {
	seen := make(map[string]bool, len(current))
	for _, name := range current {
		seen[name] = true
	}
	out := append([]string(nil), current...)
	for _, name := range old {
		if seen[name] || name != filepath.Base(name) {
			continue
		}
		if _, err := os.Stat(filepath.Join(a.outputDir, name)); err == nil {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// writeAtomic replaces dir/name through a temp file in the same directory.
func writeAtomic(dir, name string, data []byte) (string, error) {
	path := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, ".topicnet-*.tmp")
	if err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return path, nil
}

type manifest struct {
	Source string   `json:"source"`
	Files  []string `json:"files"`
}

func readManifest(dir string) (manifest, error) {
	var m manifest
	data, err := os.ReadFile(filepath.Join(dir, ManifestName))
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, err
	}
	err = json.Unmarshal(data, &m)
	return m, err
}

func writeManifest(dir string, m manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	_, err = writeAtomic(dir, ManifestName, append(data, '\n'))
	return err
}

// renderer holds the lookups shared by every file of one document.
type renderer struct {
	in     Input
	index  string
	stem   string
	multi  bool
	topics []domain.Topic
	byID   map[string]domain.Topic
	counts map[int]int
}

func newRenderer(in Input) *renderer {
	r := &renderer{
		in:     in,
		index:  IndexName(in.Source),
		stem:   domain.SourceStem(in.Source),
		multi:  len(in.Chunks) > 1,
		byID:   make(map[string]domain.Topic),
		counts: make(map[int]int),
	}
	if r.stem == "" {
		r.stem = "document"
	}
	for _, t := range in.Topics {
		if t.IsEmpty() {
			continue
		}
		r.topics = append(r.topics, t)
		r.byID[t.ID] = t
		r.counts[t.ChunkIndex]++
	}
	return r
}

type topicMeta struct {
	TopicID     string   `yaml:"topic_id"`
	Title       string   `yaml:"title"`
	Description string   `yaml:"description,omitempty"`
	Keywords    []string `yaml:"keywords,flow"`
	Source      string   `yaml:"source"`
	ChunkIndex  *int     `yaml:"chunk_index,omitempty"`
}

type indexMeta struct {
	Title  string `yaml:"title"`
	Source string `yaml:"source"`
	Chunks int    `yaml:"chunks"`
	Topics int    `yaml:"topics"`
	Words  int    `yaml:"words"`
}

func (r *renderer) topicFile(t domain.Topic) ([]byte, error) {
	meta := topicMeta{
		TopicID:     t.ID,
		Title:       t.Title,
		Description: t.Description,
		Keywords:    t.Keywords,
		Source:      r.in.Source,
	}
	if meta.Keywords == nil {
		meta.Keywords = []string{}
	}
	if r.multi {
		idx := t.ChunkIndex
		meta.ChunkIndex = &idx
	}

	var b strings.Builder
	if err := frontmatter(&b, meta); err != nil {
		return nil, fmt.Errorf("render %s: %w", t.ID, err)
	}
	fmt.Fprintf(&b, "# %s\n\n", t.Title)
	b.WriteString(strings.TrimSpace(t.Content))
	b.WriteString("\n\n---\n\n## Related Topics\n\n")

	related := domain.RelatedTopics(r.in.Links, t.ID)
	if len(related) == 0 {
		b.WriteString("*No related topics found.*\n")
	}
	for _, rel := range related {
		fmt.Fprintf(&b, "- %s (%s)\n", r.wikiLink(rel.TopicID), Percent(rel.Similarity))
	}

	fmt.Fprintf(&b, "\n---\n\n*Part of the [[%s|%s]] topic network.*\n", r.index, r.stem)
	return []byte(b.String()), nil
}

func (r *renderer) indexFile() ([]byte, error) {
	meta := indexMeta{
		Title:  r.stem + " index",
		Source: r.in.Source,
		Chunks: len(r.in.Chunks),
		Topics: len(r.topics),
		Words:  r.in.Report.Words,
	}

	var b strings.Builder
	if err := frontmatter(&b, meta); err != nil {
		return nil, fmt.Errorf("render index: %w", err)
	}
	fmt.Fprintf(&b, "# %s\n\n", r.stem)

	detected := plural(len(r.topics), "topic", "topics") + " detected"
	if r.multi {
		detected += " across " + plural(len(r.in.Chunks), "chunk", "chunks")
	}
	b.WriteString(detected + "\n")

	if len(r.in.Chunks) > 0 {
		b.WriteString("\n## Chunks\n\n")
		// Numbered like the chunk_index frontmatter key, from zero.
		b.WriteString("| chunk_index | Heading | Words | Topics | Boundary |\n")
		b.WriteString("| --- | --- | --- | --- | --- |\n")
		for _, c := range r.in.Chunks {
			heading := c.Heading
			if heading == "" {
				heading = "-"
			}
			fmt.Fprintf(&b, "| %d | %s | %d | %d | %s |\n",
				c.Index, strings.ReplaceAll(heading, "|", `\|`), c.WordCount, r.counts[c.Index], c.Boundary)
		}
	}

	b.WriteString("\n## Topics\n\n")
	if len(r.topics) == 0 {
		b.WriteString("*No topics.*\n")
	}
	for _, t := range r.topics {
		line := "- " + r.wikiLink(t.ID)
		if r.multi {
			line += fmt.Sprintf(" (chunk_index %d)", t.ChunkIndex)
		}
		if t.Description != "" {
			line += ": " + t.Description
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n## Topic Network\n\n")
	links := append([]domain.Link(nil), r.in.Links...)
	sort.SliceStable(links, func(i, j int) bool {
		if links[i].SourceID != links[j].SourceID {
			return links[i].SourceID < links[j].SourceID
		}
		return links[i].TargetID < links[j].TargetID
	})
	if len(links) == 0 {
		b.WriteString("*No links above the similarity threshold.*\n")
	}
	for _, l := range links {
		fmt.Fprintf(&b, "- %s ↔ %s (%s)\n", r.wikiLink(l.SourceID), r.wikiLink(l.TargetID), Percent(l.Similarity))
	}

	if concepts := r.in.Report.KeyConcepts; len(concepts) > 0 {
		b.WriteString("\n## Key Concepts\n\n")
		for _, c := range concepts {
			b.WriteString("- " + c + "\n")
		}
	}

	b.WriteString("\n## Processing Notes\n\n")
	if len(r.in.Report.Warnings) == 0 {
		b.WriteString("No issues.\n")
	}
	for _, w := range r.in.Report.Warnings {
		b.WriteString("- " + w.String() + "\n")
	}
	return []byte(b.String()), nil
}

func (r *renderer) wikiLink(id string) string {
	if t, ok := r.byID[id]; ok && t.Title != "" {
		return fmt.Sprintf("[[%s|%s]]", id, t.Title)
	}
	return fmt.Sprintf("[[%s]]", id)
}

func frontmatter(b *strings.Builder, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return err
	}
	b.WriteString("---\n")
	b.Write(data)
	b.WriteString("---\n\n")
	return nil
}

// Percent formats a similarity in [0,1] as a whole percentage, e.g. "82%".
func Percent(similarity float64) string {
	return fmt.Sprintf("%d%%", int(math.Round(similarity*100)))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, one)
	}
	return fmt.Sprintf("%d %s", n, many)
}
