package textfield

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newField(placeholder string) *Field {
	f := New()
	f.SetWidth(40)
	f.SetPlaceholder(placeholder)
	return f
}

func TestNew(t *testing.T) {
	f := New()

	if f.Focused() {
		t.Error("new field should not be focused")
	}
	if _, ok := f.Placeholder(); ok {
		t.Error("new field should have no placeholder")
	}
	if f.State() != EmptyUnfocused {
		t.Errorf("State() = %v, want empty-unfocused", f.State())
	}
	if f.IsShowingPlaceholder() {
		t.Error("no placeholder set, IsShowingPlaceholder should be false")
	}
}

func TestSetPlaceholder_ShowsWhenEmpty(t *testing.T) {
	f := newField("Message")

	if !f.IsShowingPlaceholder() {
		t.Fatal("placeholder should show on an empty unfocused field")
	}
	if f.Text() != "Message" {
		t.Errorf("Text() = %q, want %q", f.Text(), "Message")
	}
	if f.Value() != "" {
		t.Errorf("Value() = %q, want empty while placeholder shows", f.Value())
	}
	if f.TextColor() != DefaultPlaceholderColor {
		t.Errorf("TextColor() = %v, want placeholder color", f.TextColor())
	}
}

func TestFocus_ClearsPlaceholder(t *testing.T) {
	f := newField("Message")

	cmd := f.Focus()

	if f.IsShowingPlaceholder() {
		t.Error("focus should hide the placeholder")
	}
	if f.Text() != "" {
		t.Errorf("Text() = %q, want empty", f.Text())
	}
	if f.State() != EmptyFocused {
		t.Errorf("State() = %v, want empty-focused", f.State())
	}
	if f.TextColor() != (lipgloss.NoColor{}) {
		t.Errorf("TextColor() = %v, want the original color restored", f.TextColor())
	}
	if cmd == nil {
		t.Error("Focus should return a command")
	}
}

func TestBlur_RestoresPlaceholderWhenEmpty(t *testing.T) {
	f := newField("Message")
	f.Focus()

	f.Blur()

	if !f.IsShowingPlaceholder() {
		t.Error("blur on an empty field should show the placeholder")
	}
	if f.State() != EmptyUnfocused {
		t.Errorf("State() = %v, want empty-unfocused", f.State())
	}
}

func TestBlur_KeepsText(t *testing.T) {
	f := newField("Message")
	f.Focus()
	f.Update(runes("hi"))

	f.Blur()

	if f.IsShowingPlaceholder() || f.Value() != "hi" {
		t.Errorf("Value() = %q showing=%v, want user text kept", f.Value(), f.IsShowingPlaceholder())
	}
	if f.State() != HasText {
		t.Errorf("State() = %v, want has-text", f.State())
	}
}

func TestUpdate_EmitsTextDidChange(t *testing.T) {
	f := newField("Message")
	f.Focus()

	cmd := f.Update(runes("a"))
	if cmd == nil {
		t.Fatal("typing should return a command")
	}
	if !containsChange(cmd(), f.ID()) {
		t.Error("typing should emit TextDidChangeMsg")
	}
}

func TestUpdate_NoChangeNoSignal(t *testing.T) {
	f := newField("")
	f.Focus()

	cmd := f.Update(tea.KeyMsg{Type: tea.KeyLeft})
	if cmd != nil && containsChange(cmd(), f.ID()) {
		t.Error("cursor movement should not emit TextDidChangeMsg")
	}
}

// containsChange unwraps batches looking for the field's change message.
func containsChange(msg tea.Msg, id string) bool {
	switch m := msg.(type) {
	case TextDidChangeMsg:
		return m.ID == id
	case tea.BatchMsg:
		for _, c := range m {
			if c != nil && containsChange(c(), id) {
				return true
			}
		}
	}
	return false
}

func TestSetPlaceholder_SwapsOldPlaceholder(t *testing.T) {
	f := newField("Message")

	f.SetPlaceholder("Reply")

	if f.Text() != "Reply" || !f.IsShowingPlaceholder() {
		t.Errorf("Text() = %q showing=%v, want new placeholder showing", f.Text(), f.IsShowingPlaceholder())
	}
}

func TestSetPlaceholder_KeepsUserTextEqualToPlaceholder(t *testing.T) {
	f := newField("Message")
	f.Focus()
	f.Update(runes("Message"))
	f.Blur()

	f.SetPlaceholder("Reply")

	if f.Text() != "Message" {
		t.Errorf("user text in the normal color should survive a placeholder change, got %q", f.Text())
	}
	if f.IsShowingPlaceholder() {
		t.Error("user text should not count as the placeholder")
	}
}

func TestSetPlaceholder_WhileFocusedDoesNotSwap(t *testing.T) {
	f := newField("Message")
	f.Focus()

	f.SetPlaceholder("Reply")

	if f.Text() != "" {
		t.Errorf("Text() = %q, want empty while focused", f.Text())
	}
	f.Blur()
	if f.Text() != "Reply" {
		t.Errorf("Text() after blur = %q, want new placeholder", f.Text())
	}
}

func TestClearPlaceholder(t *testing.T) {
	f := newField("Message")

	f.ClearPlaceholder()

	if f.Text() != "" || f.IsShowingPlaceholder() {
		t.Errorf("Text() = %q, want cleared placeholder", f.Text())
	}
	if f.TextColor() != (lipgloss.NoColor{}) {
		t.Errorf("TextColor() = %v, want original color", f.TextColor())
	}
}

func TestSetPlaceholderColor(t *testing.T) {
	f := newField("Message")
	red := lipgloss.Color("#ff0000")

	f.SetPlaceholderColor(red)

	if f.TextColor() != red {
		t.Errorf("TextColor() = %v, want recolored placeholder", f.TextColor())
	}
	if !f.IsShowingPlaceholder() {
		t.Error("placeholder should still be showing after recolor")
	}
}

func TestSetText_EmptyShowsPlaceholder(t *testing.T) {
	f := newField("Message")
	f.SetText("draft")

	f.SetText("")

	if !f.IsShowingPlaceholder() {
		t.Error("clearing text while unfocused should show the placeholder")
	}
}
