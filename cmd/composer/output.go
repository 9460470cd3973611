package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

// output provides styled output for commands
type output struct {
	out io.Writer
}

func newOutput(out io.Writer) *output {
	return &output{out: out}
}

func (o *output) Header(msg string) {
	style := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	fmt.Fprintln(o.out, style.Render(msg))
}

func (o *output) SuccessPath(label, path string) {
	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	pathStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	fmt.Fprintf(o.out, "  %s %s\n", labelStyle.Render("✓ "+label+":"), pathStyle.Render(path))
}

func (o *output) Error(msg string) {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	fmt.Fprintln(o.out, style.Render("  ✗ "+msg))
}

func (o *output) Cancelled(msg string) {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	fmt.Fprintln(o.out, style.Render("⚠ "+msg))
}

func (o *output) Warning(msg string) {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	fmt.Fprintln(o.out, style.Render("⚠ "+msg))
}
