// Package termui holds the terminal styling shared by the command-line tools.
package termui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Semantic colors
var (
	Success = lipgloss.Color("#8BC34A")
	Pending = lipgloss.Color("#e53935")
	Warning = lipgloss.Color("#FFC107")
	Muted   = lipgloss.Color("#8a94a6")
)

// Styles groups the text styles used for report output.
type Styles struct {
	OK      lipgloss.Style
	Pending lipgloss.Style
	Warn    lipgloss.Style
	Header  lipgloss.Style
	Faint   lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		OK:      lipgloss.NewStyle().Foreground(Success),
		Pending: lipgloss.NewStyle().Foreground(Pending),
		Warn:    lipgloss.NewStyle().Foreground(Warning),
		Header:  lipgloss.NewStyle().Bold(true),
		Faint:   lipgloss.NewStyle().Foreground(Muted),
	}
}

// PlainStyles returns styles that render text unchanged.
func PlainStyles() Styles {
	s := lipgloss.NewStyle()
	return Styles{OK: s, Pending: s, Warn: s, Header: s, Faint: s}
}

// StylesFor picks colored styles when f is a terminal and NO_COLOR is unset.
func StylesFor(f *os.File) Styles {
	if os.Getenv("NO_COLOR") != "" || !isTerminal(f) {
		return PlainStyles()
	}
	return DefaultStyles()
}

func isTerminal(f *os.File) bool {
	if f == nil {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
