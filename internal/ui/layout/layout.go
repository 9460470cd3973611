// Package layout provides core interfaces for composable TUI components:
// focus management, sizing and keybinding documentation.
package layout

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Focusable defines components that can receive and lose focus.
type Focusable interface {
	// Focus gives the component focus. Returns a command that may
	// be used to start cursor blink or other focus-related effects.
	Focus() tea.Cmd

	// Blur removes focus from the component.
	Blur() tea.Cmd

	// IsFocused returns whether the component currently has focus.
	IsFocused() bool
}

// Sizeable defines components that have configurable dimensions.
type Sizeable interface {
	// SetSize updates the component's dimensions. Returns a command
	// that may be used to trigger re-rendering or layout updates.
	SetSize(width, height int) tea.Cmd

	// GetSize returns the component's current dimensions.
	GetSize() (width, height int)
}

// Help defines components that provide keybinding documentation.
type Help interface {
	// Bindings returns the keybindings this component responds to.
	Bindings() []key.Binding
}

// Bindings collects the bindings of every component that documents them.
func Bindings(components ...any) []key.Binding {
	var out []key.Binding
	for _, c := range components {
		if h, ok := c.(Help); ok {
			out = append(out, h.Bindings()...)
		}
	}
	return out
}
