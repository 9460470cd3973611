package chat

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexcabrera/composer/internal/ui/shared"
)

// StatusBar displays draft position, tray state, scroll position and
// keyboard hints.
type StatusBar struct {
	width int

	// Draft state
	line, lines int

	// Tray state
	trayVisible  bool
	trayFloating bool

	// Transcript scroll position, 0 to 1; negative hides it
	scroll float64

	err   error
	help  help.Model
	hints string
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	h := help.New()
	h.ShortSeparator = " · "
	h.Styles.ShortKey = shared.MutedStyle
	h.Styles.ShortDesc = shared.MutedStyle
	h.Styles.ShortSeparator = shared.MutedStyle
	return &StatusBar{
		help:   h,
		scroll: -1,
		hints:  "enter send · ctrl+t replies · ctrl+c quit",
	}
}

// SetWidth sets the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.width = width
}

// SetDraft updates the cursor line display. line is zero-based.
func (s *StatusBar) SetDraft(line, lines int) {
	s.line = line
	s.lines = lines
}

// SetTray updates the tray indicator.
func (s *StatusBar) SetTray(visible, floating bool) {
	s.trayVisible = visible
	s.trayFloating = floating
}

// SetScroll updates the scroll indicator.
func (s *StatusBar) SetScroll(percent float64) {
	s.scroll = percent
}

// SetError shows err until cleared with nil.
func (s *StatusBar) SetError(err error) {
	s.err = err
}

// SetHints updates the keyboard hints.
func (s *StatusBar) SetHints(hints string) {
	s.hints = hints
}

// SetBindings renders bindings as the keyboard hints.
func (s *StatusBar) SetBindings(bindings []key.Binding) {
	s.hints = s.help.ShortHelpView(bindings)
}

// Render returns the status bar string.
func (s *StatusBar) Render() string {
	if s.width <= 0 {
		s.width = 80
	}

	style := shared.MutedStyle
	highlightStyle := shared.PrimaryStyle

	var parts []string

	if s.err != nil {
		parts = append(parts, shared.ErrorStyle.Render(s.truncate(s.err.Error(), 40)))
	}

	if s.lines > 1 {
		parts = append(parts, style.Render(fmt.Sprintf("ln %d/%d", s.line+1, s.lines)))
	}

	if s.trayVisible {
		icon := shared.IconDocked
		label := "docked"
		if s.trayFloating {
			icon = shared.IconFloating
			label = "floating"
		}
		parts = append(parts, highlightStyle.Render(icon)+style.Render(" replies "+label))
	}

	if s.scroll >= 0 {
		parts = append(parts, style.Render(fmt.Sprintf("%d%%", int(s.scroll*100+0.5))))
	}

	left := strings.Join(parts, " · ")

	// Right side: hints
	right := style.Render(s.hints)

	leftWidth := lipgloss.Width(left)
	rightWidth := lipgloss.Width(right)
	spacing := s.width - leftWidth - rightWidth - 4 // -4 for padding

	if spacing < 1 {
		// Not enough space: state wins over hints
		if left == "" {
			left = right
		}
		return lipgloss.NewStyle().MaxWidth(s.width).Render("  " + left)
	}

	spacer := strings.Repeat(" ", spacing)
	return "  " + left + spacer + right
}

// truncate shortens text to maxLen runes.
func (s *StatusBar) truncate(text string, maxLen int) string {
	r := []rune(text)
	if len(r) <= maxLen {
		return text
	}
	return string(r[:maxLen-3]) + "..."
}

// Update processes status bar messages.
func (s *StatusBar) Update(msg any) {
	switch m := msg.(type) {
	case HintsMsg:
		s.SetHints(m.Hints)
	case ErrorMsg:
		s.SetError(m.Error)
	}
}

// HintsMsg updates keyboard hints.
type HintsMsg struct {
	Hints string
}
