package chat

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexcabrera/composer/internal/composer/scroll"
	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/anim"
)

// wheelDelta is the rows scrolled per wheel notch.
const wheelDelta = 3

// coastDuration is how long wheel scrolling counts as decelerating.
const coastDuration = 150 * time.Millisecond

var _ scroll.Region = (*transcript)(nil)

// transcript is the scrollable message history behind the input bar. Its
// bottom inset is the input bar's height; the screen's reserved space adds
// to it.
type transcript struct {
	vp        viewport.Model
	lines     []string
	offset    *anim.Value
	inset     float64
	indicator float64
	screen    *screen
	now       func() time.Time

	tracking   bool
	coastUntil time.Time
}

func newTranscript(e *anim.Engine, s *screen, now func() time.Time) *transcript {
	vp := viewport.New(0, 0)
	vp.MouseWheelEnabled = false
	return &transcript{
		vp:     vp,
		offset: e.NewValue(0),
		screen: s,
		now:    now,
	}
}

func (t *transcript) ContentOffsetY() float64 {
	return t.offset.Model()
}

func (t *transcript) SetContentOffsetY(y float64) {
	t.offset.Set(y)
}

func (t *transcript) ContentInsetBottom() float64 {
	return t.inset
}

func (t *transcript) SetContentInsetBottom(v float64) {
	t.inset = v
}

func (t *transcript) SetScrollIndicatorBottomInset(v float64) {
	t.indicator = v
}

func (t *transcript) ContentSizeHeight() float64 {
	return float64(len(t.lines))
}

func (t *transcript) ViewportHeight() float64 {
	return t.screen.Bounds().H
}

func (t *transcript) AdjustedBottomInset() float64 {
	return t.inset + t.screen.ReservedBottom()
}

func (t *transcript) IsTracking() bool {
	return t.tracking
}

func (t *transcript) IsDecelerating() bool {
	return t.now().Before(t.coastUntil)
}

// SetContent replaces the rendered history.
func (t *transcript) SetContent(s string) {
	if s == "" {
		t.lines = nil
		return
	}
	t.lines = strings.Split(s, "\n")
}

func (t *transcript) maxOffset() float64 {
	return max(0, t.ContentSizeHeight()-t.ViewportHeight()+t.AdjustedBottomInset())
}

// AtBottom reports whether the last line is visible above the input bar.
func (t *transcript) AtBottom() bool {
	return scroll.IsAtBottom(t)
}

// ScrollToBottom shows the end of the history.
func (t *transcript) ScrollToBottom() {
	t.offset.Set(t.maxOffset())
}

// ScrollBy scrolls by dy rows, clamped to the content.
func (t *transcript) ScrollBy(dy float64) {
	t.offset.Set(geom.Clamp(t.offset.Model()+dy, 0, t.maxOffset()))
}

// ScrollPercent is the scroll position against the indicator inset.
func (t *transcript) ScrollPercent() float64 {
	limit := t.ContentSizeHeight() - t.ViewportHeight() + t.indicator + t.screen.ReservedBottom()
	if limit <= 0 {
		return 1
	}
	return geom.Clamp(t.offset.Model()/limit, 0, 1)
}

// HandleMouse scrolls on the wheel and tracks presses as drags.
func (t *transcript) HandleMouse(msg tea.MouseMsg) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		t.ScrollBy(-wheelDelta)
		t.coastUntil = t.now().Add(coastDuration)
		return
	case tea.MouseButtonWheelDown:
		t.ScrollBy(wheelDelta)
		t.coastUntil = t.now().Add(coastDuration)
		return
	}
	switch msg.Action {
	case tea.MouseActionPress:
		t.tracking = true
	case tea.MouseActionRelease:
		if t.tracking {
			t.coastUntil = t.now().Add(coastDuration)
		}
		t.tracking = false
	}
}

// View renders height rows of history at the presented offset. The content
// is padded by the bottom inset so the last line can scroll above the bar.
func (t *transcript) View(width, height int) string {
	pad := geom.Round(t.AdjustedBottomInset())
	content := make([]string, 0, len(t.lines)+pad)
	content = append(content, t.lines...)
	for range pad {
		content = append(content, "")
	}

	t.vp.Width = width
	t.vp.Height = height
	t.vp.SetContent(strings.Join(content, "\n"))
	t.vp.SetYOffset(geom.Round(geom.Clamp(t.offset.Presented(), 0, t.maxOffset())))
	return t.vp.View()
}
