package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/custodia-labs/topicnet/internal/core/domain"
)

// summaryStyles renders run reports. The renderer drops colour when the
// writer is not a terminal.
type summaryStyles struct {
	ok      lipgloss.Style
	warn    lipgloss.Style
	label   lipgloss.Style
	dim     lipgloss.Style
	warning lipgloss.Style
}

func newSummaryStyles(w io.Writer) summaryStyles {
	r := lipgloss.NewRenderer(w)
	s := summaryStyles{
		ok:      r.NewStyle().Bold(true).Foreground(lipgloss.Color("10")),
		warn:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		label:   r.NewStyle().Width(10).Foreground(lipgloss.Color("12")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("8")),
		warning: r.NewStyle().PaddingLeft(2).Foreground(lipgloss.Color("11")),
	}
	if width := terminalWidth(w); width > 20 {
		s.warning = s.warning.Width(width - 2)
	}
	return s
}

// terminalWidth returns the column count of w, or 0 when w is not a terminal.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// renderSummary writes a human-readable run summary.
func renderSummary(w io.Writer, r domain.RunReport) {
	s := newSummaryStyles(w)

	mark := s.ok.Render("✓")
	if r.Degraded() {
		mark = s.warn.Render("!")
	}
	fmt.Fprintf(w, "%s %s → %s\n", mark, r.Source, r.OutputDir)

	row := func(label, value string) {
		fmt.Fprintf(w, "  %s %s\n", s.label.Render(label), value)
	}
	row("Words", formatCount(r.Words))

	chunks := formatCount(r.Chunks)
	if r.DegradedBoundaries > 0 {
		chunks += s.dim.Render(fmt.Sprintf(" (%d hard %s)", r.DegradedBoundaries, plural(r.DegradedBoundaries, "cut", "cuts")))
	}
	row("Chunks", chunks)

	topics := formatCount(r.Topics)
	if r.FallbackChunks > 0 {
		topics += s.dim.Render(fmt.Sprintf(" (%d %s from headings)", r.FallbackChunks, plural(r.FallbackChunks, "chunk", "chunks")))
	}
	row("Topics", topics)

	links := formatCount(r.Links)
	if n := len(r.ExcludedTopics); n > 0 {
		links += s.dim.Render(fmt.Sprintf(" (%d %s not embedded)", n, plural(n, "topic", "topics")))
	}
	row("Links", links)

	if len(r.KeyConcepts) > 0 {
		row("Concepts", strings.Join(r.KeyConcepts, ", "))
	}
	row("Files", fmt.Sprintf("%d written", len(r.Files)))
	if len(r.Files) > 0 {
		row("Index", r.Files[len(r.Files)-1])
	}
	row("Time", r.Duration.Round(time.Millisecond).String())

	if len(r.Warnings) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", s.warn.Render(fmt.Sprintf("Warnings (%d)", len(r.Warnings))))
	for _, warning := range r.Warnings {
		fmt.Fprintln(w, s.warning.Render(warning.String()))
	}
}

// reportJSON is the --json form of a run report.
type reportJSON struct {
	RunID              string        `json:"run_id"`
	Source             string        `json:"source"`
	OutputDir          string        `json:"output_dir"`
	Words              int           `json:"words"`
	Chunks             int           `json:"chunks"`
	Topics             int           `json:"topics"`
	Links              int           `json:"links"`
	DegradedBoundaries int           `json:"degraded_boundaries"`
	FallbackChunks     int           `json:"fallback_chunks"`
	ExcludedTopics     []string      `json:"excluded_topics,omitempty"`
	KeyConcepts        []string      `json:"key_concepts,omitempty"`
	Files              []string      `json:"files"`
	Warnings           []warningJSON `json:"warnings"`
	Degraded           bool          `json:"degraded"`
	DurationMS         int64         `json:"duration_ms"`
}

type warningJSON struct {
	Kind    string `json:"kind,omitempty"`
	Stage   string `json:"stage"`
	Chunk   *int   `json:"chunk,omitempty"`
	TopicID string `json:"topic_id,omitempty"`
	Message string `json:"message"`
}

func writeReportJSON(w io.Writer, r domain.RunReport) error {
	out := reportJSON{
		RunID:              r.RunID,
		Source:             r.Source,
		OutputDir:          r.OutputDir,
		Words:              r.Words,
		Chunks:             r.Chunks,
		Topics:             r.Topics,
		Links:              r.Links,
		DegradedBoundaries: r.DegradedBoundaries,
		FallbackChunks:     r.FallbackChunks,
		ExcludedTopics:     r.ExcludedTopics,
		KeyConcepts:        r.KeyConcepts,
		Files:              make([]string, 0, len(r.Files)),
		Warnings:           make([]warningJSON, 0, len(r.Warnings)),
		Degraded:           r.Degraded(),
		DurationMS:         r.Duration.Milliseconds(),
	}
	for _, f := range r.Files {
		out.Files = append(out.Files, filepath.ToSlash(f))
	}
	for _, warning := range r.Warnings {
		wj := warningJSON{
			Stage:   string(warning.Stage),
			TopicID: warning.TopicID,
			Message: warning.Message,
		}
		if warning.Kind != nil {
			wj.Kind = warning.Kind.Error()
		}
		if warning.ChunkIndex >= 0 {
			chunk := warning.ChunkIndex
			wj.Chunk = &chunk
		}
		out.Warnings = append(out.Warnings, wj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// formatCount groups digits in thousands: 120000 → 120,000.
func formatCount(n int) string {
	s := fmt.Sprint(n)
	if n < 0 {
		return "-" + formatCount(-n)
	}
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
