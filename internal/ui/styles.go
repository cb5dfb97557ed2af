// Package ui holds the terminal styling used by the CLI commands.
package ui

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Colors defines the color palette for CLI output.
var Colors = struct {
	Primary lipgloss.Color
	Muted   lipgloss.Color
	Error   lipgloss.Color
	Success lipgloss.Color
	Warning lipgloss.Color

	Open   lipgloss.Color
	Closed lipgloss.Color
}{
	Primary: lipgloss.Color("#6C5CE7"), // Purple
	Muted:   lipgloss.Color("#636E72"), // Gray
	Error:   lipgloss.Color("#D63031"), // Red
	Success: lipgloss.Color("#00B894"), // Green
	Warning: lipgloss.Color("#FDCB6E"), // Yellow

	Open:   lipgloss.Color("#00B894"), // Green
	Closed: lipgloss.Color("#636E72"), // Gray
}

// Styles contains the lipgloss styles for CLI output.
type Styles struct {
	Header lipgloss.Style
	Label  lipgloss.Style
	Value  lipgloss.Style
	Muted  lipgloss.Style

	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style

	StateOpen   lipgloss.Style
	StateClosed lipgloss.Style
}

// DefaultStyles returns the default styles for CLI output.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(Colors.Primary),

		Label: lipgloss.NewStyle().
			Foreground(Colors.Muted).
			Width(12),

		Value: lipgloss.NewStyle(),

		Muted: lipgloss.NewStyle().
			Foreground(Colors.Muted),

		Success: lipgloss.NewStyle().
			Foreground(Colors.Success),

		Warning: lipgloss.NewStyle().
			Foreground(Colors.Warning),

		Error: lipgloss.NewStyle().
			Foreground(Colors.Error).
			Bold(true),

		StateOpen: lipgloss.NewStyle().
			Foreground(Colors.Open),

		StateClosed: lipgloss.NewStyle().
			Foreground(Colors.Closed),
	}
}

// StateStyle returns the style for an issue state string.
func (s Styles) StateStyle(state string) lipgloss.Style {
	switch state {
	case "closed":
		return s.StateClosed
	default:
		return s.StateOpen
	}
}

// StateIcon returns an icon for an issue state string.
func StateIcon(state string) string {
	switch state {
	case "open":
		return "○"
	case "closed":
		return "●"
	default:
		return "?"
	}
}

// IsInteractive reports whether stdout is a terminal. Styling and
// interactive prompts are disabled when output is piped.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// Setup configures the color profile: full styling on a terminal,
// plain ASCII otherwise.
func Setup() {
	if !IsInteractive() {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}
