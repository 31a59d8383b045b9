package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
)

// Check prints one "label... VERDICT" diagnostic line and returns ok
// unchanged so callers can accumulate an overall result.
func Check(out io.Writer, label string, ok bool, detail string) bool {
	verdict := okStyle.Render("OK")
	if !ok {
		verdict = failStyle.Render("FAILED")
	}
	if detail != "" {
		_, _ = fmt.Fprintf(out, "%s... %s (%s)\n", label, verdict, detail)
	} else {
		_, _ = fmt.Fprintf(out, "%s... %s\n", label, verdict)
	}
	return ok
}

// Warn prints a warning-styled message.
func Warn(out io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintln(out, warnStyle.Render(fmt.Sprintf(format, args...)))
}
