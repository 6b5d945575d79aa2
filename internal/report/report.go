// Package report prints operator-facing status lines and run summaries.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Status is the outcome shown next to a summary entry.
type Status string

const (
	StatusDone    Status = "done"
	StatusSkipped Status = "skipped"
	StatusPlanned Status = "planned"
	StatusFailed  Status = "failed"
	StatusFatal   Status = "fatal"
)

// Entry is one line of a Summary.
type Entry struct {
	Label  string
	Status Status
	Detail string
}

// Summary aggregates what a run did and what the operator still has to do.
type Summary struct {
	Title         string
	Entries       []Entry
	Failures      []string
	ManualActions []string
}

type styles struct {
	title   lipgloss.Style
	section lipgloss.Style
	step    lipgloss.Style
	success lipgloss.Style
	failure lipgloss.Style
	notice  lipgloss.Style
	muted   lipgloss.Style
}

func newStyles(r *lipgloss.Renderer) styles {
	return styles{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("205")),
		section: r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		step:    r.NewStyle().Foreground(lipgloss.Color("33")),
		success: r.NewStyle().Foreground(lipgloss.Color("42")),
		failure: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		notice:  r.NewStyle().Foreground(lipgloss.Color("214")),
		muted:   r.NewStyle().Foreground(lipgloss.Color("244")),
	}
}

func plainStyles() styles {
	s := lipgloss.NewStyle()
	return styles{title: s, section: s, step: s, success: s, failure: s, notice: s, muted: s}
}

// Printer writes status lines to out and diagnostics to errOut.
type Printer struct {
	out       io.Writer
	errOut    io.Writer
	outStyle  styles
	errStyles styles
}

// NewPrinter returns a Printer whose colours follow each writer's terminal profile.
func NewPrinter(out, errOut io.Writer) *Printer {
	return &Printer{
		out:       out,
		errOut:    errOut,
		outStyle:  newStyles(lipgloss.NewRenderer(out)),
		errStyles: newStyles(lipgloss.NewRenderer(errOut)),
	}
}

// Discard returns a Printer that drops everything.
func Discard() *Printer {
	return &Printer{out: io.Discard, errOut: io.Discard, outStyle: plainStyles(), errStyles: plainStyles()}
}

// Step announces that something is about to be checked or attempted.
func (p *Printer) Step(format string, args ...any) {
	if p == nil {
		return
	}
	p.line(p.out, p.outStyle.step.Render("→")+" "+fmt.Sprintf(format, args...))
}

// Info prints a finding.
func (p *Printer) Info(format string, args ...any) {
	if p == nil {
		return
	}
	p.line(p.out, "  "+fmt.Sprintf(format, args...))
}

// Success prints a completed action.
func (p *Printer) Success(format string, args ...any) {
	if p == nil {
		return
	}
	p.line(p.out, p.outStyle.success.Render("✓")+" "+fmt.Sprintf(format, args...))
}

// Failure prints a diagnostic on the error stream.
func (p *Printer) Failure(format string, args ...any) {
	if p == nil {
		return
	}
	p.line(p.errOut, p.errStyles.failure.Render("✗ "+fmt.Sprintf(format, args...)))
}

// Notice prints something the operator must act on.
func (p *Printer) Notice(format string, args ...any) {
	if p == nil {
		return
	}
	p.line(p.out, p.outStyle.notice.Render("! NOTE: "+fmt.Sprintf(format, args...)))
}

// Text prints s unchanged.
func (p *Printer) Text(s string) {
	if p == nil {
		return
	}
	p.line(p.out, s)
}

// Summary prints s with styling.
func (p *Printer) Summary(s Summary) {
	if p == nil {
		return
	}
	p.line(p.out, render(s, p.outStyle))
}

func (p *Printer) line(w io.Writer, s string) {
	if w == nil {
		return
	}
	fmt.Fprintln(w, s)
}

// View renders the summary without styling.
func (s Summary) View() string {
	return render(s, plainStyles())
}

func render(s Summary, st styles) string {
	var lines []string
	if s.Title != "" {
		lines = append(lines, st.title.Render(s.Title))
	}

	for _, e := range s.Entries {
		glyph, style := glyphFor(e.Status, st)
		line := fmt.Sprintf("  %s %-28s %s", style.Render(glyph), e.Label, style.Render(string(e.Status)))
		if e.Detail != "" {
			line += st.muted.Render(" (" + e.Detail + ")")
		}
		lines = append(lines, line)
	}

	if len(s.Failures) > 0 {
		lines = append(lines, st.section.Render("Reported failures:"))
		for _, f := range s.Failures {
			lines = append(lines, "  "+st.failure.Render("✗ "+f))
		}
	}

	if len(s.ManualActions) > 0 {
		lines = append(lines, st.section.Render("Manual action required:"))
		for _, a := range s.ManualActions {
			lines = append(lines, "  "+st.notice.Render("! "+a))
		}
	}

	return strings.Join(lines, "\n")
}

func glyphFor(status Status, st styles) (string, lipgloss.Style) {
	switch status {
	case StatusDone:
		return "✓", st.success
	case StatusSkipped:
		return "-", st.muted
	case StatusPlanned:
		return "•", st.step
	default:
		return "✗", st.failure
	}
}
