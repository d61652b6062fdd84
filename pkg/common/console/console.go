// Package console renders the human-readable report both binaries print to
// stdout. Styling is only applied when the writer is a terminal.
package console

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Printer struct {
	w     io.Writer
	width int
	title lipgloss.Style
	warn  lipgloss.Style
	ok    lipgloss.Style
}

func New(w io.Writer, width int) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		w:     w,
		width: width,
		title: r.NewStyle().Bold(true),
		warn:  r.NewStyle().Foreground(lipgloss.Color("214")),
		ok:    r.NewStyle().Foreground(lipgloss.Color("42")),
	}
}

// Banner prints a title framed by two full-width rules.
func (p *Printer) Banner(title string) {
	p.Rule("=", p.width)
	fmt.Fprintln(p.w, p.title.Render(title))
	p.Rule("=", p.width)
}

func (p *Printer) Rule(char string, width int) {
	fmt.Fprintln(p.w, strings.Repeat(char, width))
}

func (p *Printer) Section(title string) {
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.title.Render(title))
}

func (p *Printer) Line(format string, args ...interface{}) {
	fmt.Fprintf(p.w, format+"\n", args...)
}

func (p *Printer) Field(label string, value interface{}) {
	fmt.Fprintf(p.w, "%s: %v\n", label, value)
}

func (p *Printer) Success(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.ok.Render("✓ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Warn(format string, args ...interface{}) {
	fmt.Fprintln(p.w, p.warn.Render("⚠ "+fmt.Sprintf(format, args...)))
}

func (p *Printer) Blank() {
	fmt.Fprintln(p.w)
}
