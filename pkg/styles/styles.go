// Package styles centralizes the adaptive colors and text styles used for
// dsr's human-mode terminal output, so that every rendering helper in
// pkg/console agrees on a single palette across light and dark terminals.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	ColorError = lipgloss.AdaptiveColor{Light: "#D73737", Dark: "#FF5555"}
	ColorWarn  = lipgloss.AdaptiveColor{Light: "#E67E22", Dark: "#FFB86C"}
	ColorOK    = lipgloss.AdaptiveColor{Light: "#27AE60", Dark: "#50FA7B"}
	ColorInfo  = lipgloss.AdaptiveColor{Light: "#2980B9", Dark: "#8BE9FD"}
	ColorMuted = lipgloss.AdaptiveColor{Light: "#6C7A89", Dark: "#6272A4"}
	ColorHi    = lipgloss.AdaptiveColor{Light: "#8E44AD", Dark: "#BD93F9"}
)

var (
	Error   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	Warning = lipgloss.NewStyle().Foreground(ColorWarn).Bold(true)
	Success = lipgloss.NewStyle().Foreground(ColorOK).Bold(true)
	Info    = lipgloss.NewStyle().Foreground(ColorInfo)
	Muted   = lipgloss.NewStyle().Foreground(ColorMuted)
	Command = lipgloss.NewStyle().Foreground(ColorHi).Bold(true)
)
