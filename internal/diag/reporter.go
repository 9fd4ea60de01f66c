// Package diag prints compiler and pipeline diagnostics for humans.
package diag

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"git.home.luguber.info/inful/pagepress/internal/document"
)

// Reporter receives the diagnostics of a revision.
type Reporter interface {
	Report(rev document.Revision, diags document.Diagnostics)
}

// ConsoleReporter writes diagnostics in a compact human-readable format.
// Colors are used only when out is a color-capable terminal.
type ConsoleReporter struct {
	mu    sync.Mutex
	out   io.Writer
	err   lipgloss.Style
	warn  lipgloss.Style
	dim   lipgloss.Style
	label lipgloss.Style
}

// NewConsoleReporter creates a reporter writing to out (stderr when nil).
func NewConsoleReporter(out io.Writer) *ConsoleReporter {
	if out == nil {
		out = os.Stderr
	}
	r := lipgloss.NewRenderer(out)
	return &ConsoleReporter{
		out:   out,
		err:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		warn:  r.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
		dim:   r.NewStyle().Faint(true),
		label: r.NewStyle().Foreground(lipgloss.Color("12")),
	}
}

// Report prints every diagnostic. Nothing is printed for an empty list.
func (c *ConsoleReporter) Report(rev document.Revision, diags document.Diagnostics) {
	if len(diags) == 0 {
		return
	}
	var b strings.Builder
	for _, d := range diags {
		c.format(&b, rev, d)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = io.WriteString(c.out, b.String())
}

func (c *ConsoleReporter) format(b *strings.Builder, rev document.Revision, d document.Diagnostic) {
	sev := c.err.Render(string(d.Severity))
	if d.Severity == document.SeverityWarning {
		sev = c.warn.Render(string(d.Severity))
	}
	b.WriteString(sev)
	if d.Source != "" {
		b.WriteString(c.label.Render("[" + d.Source + "]"))
	}
	fmt.Fprintf(b, ": %s %s\n", d.Message, c.dim.Render(fmt.Sprintf("(revision %d)", rev)))
	if d.Path != "" {
		loc := d.Path
		if d.Line > 0 {
			loc = fmt.Sprintf("%s:%d", d.Path, d.Line)
		}
		fmt.Fprintf(b, "  %s %s\n", c.dim.Render("-->"), loc)
	}
	if d.Hint != "" {
		fmt.Fprintf(b, "  %s %s\n", c.dim.Render("= hint:"), d.Hint)
	}
}
