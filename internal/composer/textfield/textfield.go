// Package textfield provides the growable text field of the composer: a
// bubbles textarea with placeholder support.
//
// The placeholder is shown as the field's own text in the placeholder
// color. Whether it is showing is derived from the text and the color, not
// stored separately.
package textfield

import (
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/alexcabrera/composer/internal/ui/shared"
)

// DefaultPlaceholderColor is the placeholder color unless overridden.
var DefaultPlaceholderColor lipgloss.TerminalColor = shared.ColorMuted

// State is the field's placeholder state.
type State int

const (
	// EmptyUnfocused shows the placeholder, if any.
	EmptyUnfocused State = iota
	// EmptyFocused is empty and ready for input.
	EmptyFocused
	// HasText holds user text.
	HasText
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case EmptyFocused:
		return "empty-focused"
	case HasText:
		return "has-text"
	default:
		return "empty-unfocused"
	}
}

// TextDidChangeMsg is sent on the next cycle after the field's text
// changed, which may change its content height.
type TextDidChangeMsg struct {
	ID string
}

// Field is the composer's text field.
type Field struct {
	id               string
	ta               textarea.Model
	placeholder      *string
	textColor        lipgloss.TerminalColor
	originalColor    lipgloss.TerminalColor
	placeholderColor lipgloss.TerminalColor
}

// New creates an unfocused field with no placeholder.
func New() *Field {
	ta := textarea.New()
	ta.Placeholder = ""
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.ShowLineNumbers = false
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.KeyMap.InsertNewline.SetKeys("alt+enter", "ctrl+j")
	ta.Blur()

	f := &Field{
		id:               uuid.NewString(),
		ta:               ta,
		textColor:        lipgloss.NoColor{},
		originalColor:    lipgloss.NoColor{},
		placeholderColor: DefaultPlaceholderColor,
	}
	f.applyColor()
	return f
}

// ID identifies the field's messages.
func (f *Field) ID() string {
	return f.id
}

// Placeholder returns the placeholder and whether one is set.
func (f *Field) Placeholder() (string, bool) {
	if f.placeholder == nil {
		return "", false
	}
	return *f.placeholder, true
}

// SetPlaceholder sets the placeholder. While unfocused, an empty field or
// one showing the old placeholder switches to the new one.
func (f *Field) SetPlaceholder(s string) tea.Cmd {
	return f.setPlaceholder(&s)
}

// ClearPlaceholder removes the placeholder.
func (f *Field) ClearPlaceholder() tea.Cmd {
	return f.setPlaceholder(nil)
}

func (f *Field) setPlaceholder(p *string) tea.Cmd {
	old := f.placeholder
	wasShowing := f.IsShowingPlaceholder()
	if old == nil {
		f.originalColor = f.textColor
	}
	f.placeholder = p

	if f.ta.Focused() {
		return nil
	}
	text := f.ta.Value()
	if p == nil {
		if wasShowing {
			f.textColor = f.originalColor
			f.applyColor()
			return f.setText("")
		}
		return nil
	}
	if wasShowing || text == "" {
		f.textColor = f.placeholderColor
		f.applyColor()
		return f.setText(*p)
	}
	return nil
}

// SetPlaceholderColor changes the placeholder color, recoloring a showing
// placeholder.
func (f *Field) SetPlaceholderColor(c lipgloss.TerminalColor) {
	old := f.placeholderColor
	f.placeholderColor = c
	if f.ta.Focused() || f.placeholder == nil {
		return
	}
	if f.ta.Value() == *f.placeholder && f.textColor == old {
		f.textColor = c
		f.applyColor()
	}
}

// SetTextColor sets the color of user text.
func (f *Field) SetTextColor(c lipgloss.TerminalColor) {
	if f.IsShowingPlaceholder() {
		f.originalColor = c
		return
	}
	f.textColor = c
	f.originalColor = c
	f.applyColor()
}

// TextColor returns the color text is drawn in.
func (f *Field) TextColor() lipgloss.TerminalColor {
	return f.textColor
}

// IsShowingPlaceholder reports whether the field displays its placeholder.
func (f *Field) IsShowingPlaceholder() bool {
	if f.placeholder == nil {
		return false
	}
	return f.ta.Value() == *f.placeholder && f.textColor == f.placeholderColor
}

// State returns the placeholder state.
func (f *Field) State() State {
	switch {
	case f.IsShowingPlaceholder():
		return EmptyUnfocused
	case f.ta.Value() != "":
		return HasText
	case f.ta.Focused():
		return EmptyFocused
	default:
		return EmptyUnfocused
	}
}

// Text returns the displayed text, which may be the placeholder.
func (f *Field) Text() string {
	return f.ta.Value()
}

// Value returns the user's text.
func (f *Field) Value() string {
	if f.IsShowingPlaceholder() {
		return ""
	}
	return f.ta.Value()
}

// SetText replaces the text.
func (f *Field) SetText(s string) tea.Cmd {
	if f.IsShowingPlaceholder() {
		f.textColor = f.originalColor
		f.applyColor()
	}
	cmd := f.setText(s)
	f.configure()
	return cmd
}

// Reset clears the user's text.
func (f *Field) Reset() tea.Cmd {
	return f.SetText("")
}

// Focus focuses the field, clearing a showing placeholder.
func (f *Field) Focus() tea.Cmd {
	before := f.ta.Value()
	cmd := f.ta.Focus()
	f.configure()
	return tea.Batch(cmd, f.changedIf(before))
}

// Blur unfocuses the field, showing the placeholder when empty.
func (f *Field) Blur() tea.Cmd {
	before := f.ta.Value()
	f.ta.Blur()
	f.configure()
	return f.changedIf(before)
}

// Focused reports whether the field has focus.
func (f *Field) Focused() bool {
	return f.ta.Focused()
}

// Update forwards input to the textarea.
func (f *Field) Update(msg tea.Msg) tea.Cmd {
	before := f.ta.Value()
	var cmd tea.Cmd
	f.ta, cmd = f.ta.Update(msg)
	if f.ta.Value() == before {
		return cmd
	}
	f.configure()
	return tea.Batch(cmd, f.changed())
}

// InsertString inserts s at the cursor.
func (f *Field) InsertString(s string) tea.Cmd {
	before := f.ta.Value()
	if f.IsShowingPlaceholder() {
		f.textColor = f.originalColor
		f.applyColor()
		f.ta.SetValue("")
	}
	f.ta.InsertString(s)
	f.configure()
	return f.changedIf(before)
}

// SetWidth sets the wrap width in cells.
func (f *Field) SetWidth(w int) {
	f.ta.SetWidth(w)
}

// Width returns the wrap width.
func (f *Field) Width() int {
	return f.ta.Width()
}

// SetHeight sets the visible rows.
func (f *Field) SetHeight(h int) {
	f.ta.SetHeight(h)
}

// Height returns the visible rows.
func (f *Field) Height() int {
	return f.ta.Height()
}

// LineCount returns the number of logical lines.
func (f *Field) LineCount() int {
	return f.ta.LineCount()
}

// Line returns the cursor's logical line.
func (f *Field) Line() int {
	return f.ta.Line()
}

// View renders the textarea.
func (f *Field) View() string {
	return f.ta.View()
}

// configure swaps the placeholder in or out for the focus state.
func (f *Field) configure() {
	if f.ta.Focused() {
		if f.IsShowingPlaceholder() {
			f.textColor = f.originalColor
			f.applyColor()
			f.setText("")
		}
		return
	}
	if f.ta.Value() == "" && f.placeholder != nil {
		f.textColor = f.placeholderColor
		f.applyColor()
		f.setText(*f.placeholder)
	}
}

func (f *Field) setText(s string) tea.Cmd {
	before := f.ta.Value()
	f.ta.SetValue(s)
	return f.changedIf(before)
}

func (f *Field) changedIf(before string) tea.Cmd {
	if f.ta.Value() == before {
		return nil
	}
	return f.changed()
}

func (f *Field) changed() tea.Cmd {
	id := f.id
	return func() tea.Msg {
		return TextDidChangeMsg{ID: id}
	}
}

func (f *Field) applyColor() {
	f.ta.FocusedStyle.Text = f.ta.FocusedStyle.Text.Foreground(f.textColor)
	f.ta.BlurredStyle.Text = f.ta.BlurredStyle.Text.Foreground(f.textColor)
}
