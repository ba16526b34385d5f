package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/zjrosen/regcheck/internal/domain/history"
	"github.com/zjrosen/regcheck/internal/domain/violation"
)

// Format names accepted by NewFormatter.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Formatter writes reports and run summaries as JSON or styled text.
type Formatter struct {
	writer io.Writer
	format string
	color  bool
	gate   violation.Severity
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithFormat selects "text" (default) or "json" output.
func WithFormat(format string) FormatterOption {
	return func(f *Formatter) {
		f.format = format
	}
}

// WithColor enables lipgloss styling of text output.
func WithColor(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.color = enabled
	}
}

// WithGate sets the severity the report's failed flag is computed against.
func WithGate(gate violation.Severity) FormatterOption {
	return func(f *Formatter) {
		f.gate = gate
	}
}

// NewFormatter creates a formatter writing to writer.
func NewFormatter(writer io.Writer, opts ...FormatterOption) *Formatter {
	f := &Formatter{
		writer: writer,
		format: FormatText,
		gate:   violation.Hard,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// FormatReport writes a check report.
func (f *Formatter) FormatReport(r *violation.Report) error {
	if f.format == FormatJSON {
		return f.encode(FromReport(r, f.gate))
	}
	_, err := io.WriteString(f.writer, f.renderReport(FromReport(r, f.gate)))
	return err
}

// FormatRuns writes recorded run summaries, newest first.
func (f *Formatter) FormatRuns(runs []*history.Run) error {
	dtos := FromRuns(runs)
	if f.format == FormatJSON {
		return f.encode(dtos)
	}

	var b strings.Builder
	if len(dtos) == 0 {
		b.WriteString(f.style(summaryStyle, "No runs recorded") + "\n")
	}
	for _, run := range dtos {
		fmt.Fprintf(&b, "%s  %s  %d hard, %d soft  (%d checks)\n",
			f.style(entityStyle, run.ID),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			run.Hard, run.Soft, run.Checks)
	}
	_, err := io.WriteString(f.writer, b.String())
	return err
}

// FormatValue writes any value as indented JSON.
func (f *Formatter) FormatValue(v any) error {
	return f.encode(v)
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (f *Formatter) renderReport(r ReportDTO) string {
	var b strings.Builder

	if r.Total == 0 {
		fmt.Fprintf(&b, "%s %s\n", f.style(okStyle, "No violations"), f.style(summaryStyle, fmt.Sprintf("(%d checks)", len(r.Checks))))
		return b.String()
	}

	for _, g := range r.Groups {
		header := fmt.Sprintf("%s (%s, %d)", g.Kind, g.Severity, g.Count)
		b.WriteString(f.style(headerStyle(g.Severity == violation.Hard.String()), header) + "\n")
		for _, v := range g.Violations {
			entity := f.style(entityStyle, v.EntityID)
			if v.Name != "" {
				entity += " " + f.style(nameStyle, v.Name)
			}
			fmt.Fprintf(&b, "  %s: %s\n", entity, v.Detail)
		}
		b.WriteString("\n")
	}

	summary := fmt.Sprintf("%d violations (%d hard, %d soft) across %d checks", r.Total, r.Hard, r.Soft, len(r.Checks))
	b.WriteString(f.style(summaryStyle, summary) + "\n")
	return b.String()
}

func (f *Formatter) style(s lipgloss.Style, text string) string {
	if !f.color {
		return text
	}
	return s.Render(text)
}
