// Package shared provides the palette and styles shared by the composer,
// the tray and the chat screen.
package shared

import "github.com/charmbracelet/lipgloss"

// Color palette - a cohesive dark theme inspired by popular terminal themes.
var (
	// Primary colors
	ColorPrimary   = lipgloss.Color("#a78bfa") // Purple - main accent
	ColorSecondary = lipgloss.Color("#67e8f9") // Cyan - secondary accent
	ColorSuccess   = lipgloss.Color("#22c55e") // Green - sent state
	ColorError     = lipgloss.Color("#ef4444") // Red - errors
	ColorMuted     = lipgloss.Color("#6b7280") // Gray - muted text, placeholder
	ColorSubtle    = lipgloss.Color("#374151") // Dark gray - borders/backgrounds
	ColorInactive  = lipgloss.Color("#3f3f46") // Zinc - unfocused borders

	// Text colors
	ColorText       = lipgloss.Color("#e5e7eb") // Light gray - main text
	ColorTextDim    = lipgloss.Color("#9ca3af") // Medium gray - dim text
	ColorTextBright = lipgloss.Color("#f9fafb") // White - bright text

	// Background colors
	ColorBgDark   = lipgloss.Color("#1f2937") // Dark background
	ColorBgAccent = lipgloss.Color("#312e81") // Purple tinted background
)

// Reusable styles built on the palette.
var (
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	PrimaryStyle = lipgloss.NewStyle().Foreground(ColorPrimary)
	HeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	ButtonStyle  = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorError)
)
