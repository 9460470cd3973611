// Package tray provides the quick-reply tray: a panel that slides up from
// the bottom of the screen and occludes whatever is below it, the way an
// on-screen keyboard does.
//
// A docked tray announces every show and hide as a keyboard frame change.
// A floating tray does not; it only notifies position observers, which is
// why it also acts as the keyboard surface.
package tray

import (
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alexcabrera/composer/internal/composer/keyboard"
	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/anim"
	"github.com/alexcabrera/composer/internal/ui/layout"
	"github.com/alexcabrera/composer/internal/ui/pubsub"
	"github.com/alexcabrera/composer/internal/ui/shared"
)

// Duration is the show and hide animation duration.
const Duration = 250 * time.Millisecond

// DefaultHeight is the docked tray's height in rows, border included.
const DefaultHeight = 6

// DefaultReplies are the quick replies offered unless configured.
var DefaultReplies = []string{"On my way", "Sounds good", "Thanks!", "Can't talk now"}

var (
	_ layout.Focusable        = (*Tray)(nil)
	_ layout.Help             = (*Tray)(nil)
	_ keyboard.Surface        = (*Tray)(nil)
	_ keyboard.SurfaceLocator = (*Tray)(nil)
)

// SelectMsg is sent when a quick reply is chosen.
type SelectMsg struct {
	Text string
}

// KeyMap defines the tray's keybindings.
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "previous"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "next"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "insert reply"),
		),
	}
}

// Tray is the quick-reply panel.
type Tray struct {
	replies       []string
	cursor        int
	height        float64
	screen        geom.Rect
	visible       bool
	floating      bool
	floatable     bool
	floatFrame    geom.Rect
	focused       bool
	notifications *pubsub.Broker[keyboard.FrameChange]
	observersMu   sync.Mutex
	observers     map[int]func(geom.Rect)
	nextObserver  int
	animator      anim.Animator
	y             *anim.Value
	keyMap        KeyMap
	logger        *slog.Logger
}

// Option configures a Tray.
type Option func(*Tray)

// WithReplies sets the quick replies.
func WithReplies(replies []string) Option {
	return func(t *Tray) {
		if len(replies) > 0 {
			t.replies = append([]string(nil), replies...)
		}
	}
}

// WithHeight sets the docked height in rows.
func WithHeight(h float64) Option {
	return func(t *Tray) {
		if h > 0 {
			t.height = h
		}
	}
}

// WithFloating allows the tray to float. A tray that cannot float does not
// offer itself as the keyboard surface.
func WithFloating(enabled bool) Option {
	return func(t *Tray) {
		t.floatable = enabled
	}
}

// WithAnimator sets the animator. An *anim.Engine also slides the tray.
func WithAnimator(a anim.Animator) Option {
	return func(t *Tray) {
		if a != nil {
			t.animator = a
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(t *Tray) {
		if l != nil {
			t.logger = l
		}
	}
}

// New creates a hidden tray that publishes frame changes on notifications.
func New(notifications *pubsub.Broker[keyboard.FrameChange], opts ...Option) *Tray {
	t := &Tray{
		replies:       DefaultReplies,
		height:        DefaultHeight,
		floatable:     true,
		notifications: notifications,
		observers:     make(map[int]func(geom.Rect)),
		animator:      anim.Immediate{},
		keyMap:        DefaultKeyMap(),
		logger:        slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(t)
	}
	if e, ok := t.animator.(*anim.Engine); ok {
		t.y = e.NewValue(0)
	}
	return t
}

// SetScreen sets the screen rectangle the tray docks into. A visible
// docked tray re-announces its frame.
func (t *Tray) SetScreen(screen geom.Rect) {
	t.screen = screen
	if t.floating {
		t.floatFrame = t.clampFloat(t.floatFrame)
		t.notify()
	} else if t.visible {
		t.publish(0, anim.EaseInOut)
	}
	t.setY(anim.Transaction{}, t.frame().Y)
}

// SetReplies replaces the quick replies.
func (t *Tray) SetReplies(replies []string) {
	if len(replies) == 0 {
		return
	}
	t.replies = append([]string(nil), replies...)
	if t.cursor >= len(t.replies) {
		t.cursor = len(t.replies) - 1
	}
}

// SetHeight changes the docked height.
func (t *Tray) SetHeight(h float64) {
	if h <= 0 || h == t.height {
		return
	}
	t.height = h
	t.SetScreen(t.screen)
}

// Replies returns the quick replies.
func (t *Tray) Replies() []string {
	return t.replies
}

// Cursor returns the selected reply index.
func (t *Tray) Cursor() int {
	return t.cursor
}

// Visible reports whether the tray is shown.
func (t *Tray) Visible() bool {
	return t.visible
}

// Floating reports whether the tray floats.
func (t *Tray) Floating() bool {
	return t.floating
}

// Show slides the tray in.
func (t *Tray) Show() {
	if t.visible {
		return
	}
	t.visible = true
	t.transition(anim.EaseOut)
}

// Hide slides the tray out and drops its focus.
func (t *Tray) Hide() {
	if !t.visible {
		return
	}
	t.visible = false
	t.focused = false
	t.transition(anim.EaseIn)
}

// Toggle shows a hidden tray and hides a visible one.
func (t *Tray) Toggle() {
	if t.visible {
		t.Hide()
	} else {
		t.Show()
	}
}

func (t *Tray) transition(curve anim.Curve) {
	tx := anim.Transaction{Duration: Duration, Curve: curve, BeginFromCurrentState: true}
	t.setY(tx, t.frame().Y)
	if t.floating {
		t.notify()
		return
	}
	t.publish(Duration, curve)
}

// Float detaches the tray from the bottom edge. It reports false when
// floating is disabled.
func (t *Tray) Float() bool {
	if !t.floatable {
		return false
	}
	if t.floating {
		return true
	}
	release := t.hiddenFrame()
	t.floating = true
	docked := t.dockedFrame()
	w := docked.W / 2
	t.floatFrame = t.clampFloat(geom.Rect{
		X: docked.X + (docked.W-w)/2,
		Y: docked.Y - t.height,
		W: w,
		H: t.height,
	})
	t.setY(anim.Transaction{}, t.frame().Y)
	if t.visible {
		// The docked frame no longer occludes anything.
		t.publish(0, anim.EaseInOut, release)
	}
	t.notify()
	return true
}

// Dock reattaches a floating tray to the bottom edge.
func (t *Tray) Dock() {
	if !t.floating {
		return
	}
	t.floating = false
	tx := anim.Transaction{Duration: Duration, Curve: anim.EaseOut, BeginFromCurrentState: true}
	t.setY(tx, t.frame().Y)
	t.publish(Duration, anim.EaseOut)
}

// MoveBy moves a floating tray, keeping it on screen. Only position
// observers hear about it.
func (t *Tray) MoveBy(dx, dy float64) {
	if !t.floating {
		return
	}
	t.floatFrame = t.clampFloat(t.floatFrame.Offset(dx, dy))
	t.setY(anim.Transaction{}, t.frame().Y)
	t.notify()
}

func (t *Tray) clampFloat(r geom.Rect) geom.Rect {
	r.H = t.height
	r.X = geom.Clamp(r.X, t.screen.X, t.screen.MaxX()-r.W)
	r.Y = geom.Clamp(r.Y, t.screen.Y, t.screen.MaxY()-r.H)
	return r
}

func (t *Tray) dockedFrame() geom.Rect {
	return geom.Rect{X: t.screen.X, Y: t.screen.MaxY() - t.height, W: t.screen.W, H: t.height}
}

func (t *Tray) hiddenFrame() geom.Rect {
	f := t.dockedFrame()
	f.Y = t.screen.MaxY()
	if t.floating {
		f = t.floatFrame
		f.Y = t.screen.MaxY()
	}
	return f
}

func (t *Tray) frame() geom.Rect {
	switch {
	case !t.visible:
		return t.hiddenFrame()
	case t.floating:
		return t.floatFrame
	default:
		return t.dockedFrame()
	}
}

// Frame returns the tray's target frame in screen coordinates.
func (t *Tray) Frame() geom.Rect {
	return t.frame()
}

// PresentedFrame is Frame as currently drawn.
func (t *Tray) PresentedFrame() geom.Rect {
	f := t.frame()
	if t.y != nil {
		f.Y = t.y.Presented()
	}
	return f
}

// OnScreen reports whether any part of the tray is drawn.
func (t *Tray) OnScreen() bool {
	return t.PresentedFrame().Y < t.screen.MaxY()
}

// ObservePosition registers fn for floating moves.
// The returned cancel func may be called from any goroutine.
func (t *Tray) ObservePosition(fn func(geom.Rect)) func() {
	t.observersMu.Lock()
	defer t.observersMu.Unlock()
	id := t.nextObserver
	t.nextObserver++
	t.observers[id] = fn
	return func() {
		t.observersMu.Lock()
		defer t.observersMu.Unlock()
		delete(t.observers, id)
	}
}

// KeyboardSurface offers the tray as the keyboard surface when it can float.
func (t *Tray) KeyboardSurface() (keyboard.Surface, bool) {
	if !t.floatable {
		return nil, false
	}
	return t, true
}

func (t *Tray) notify() {
	f := t.frame()
	t.observersMu.Lock()
	fns := make([]func(geom.Rect), 0, len(t.observers))
	for _, fn := range t.observers {
		fns = append(fns, fn)
	}
	t.observersMu.Unlock()
	for _, fn := range fns {
		fn(f)
	}
}

func (t *Tray) publish(d time.Duration, curve anim.Curve, frame ...geom.Rect) {
	if t.notifications == nil {
		return
	}
	f := t.frame()
	if len(frame) > 0 {
		f = frame[0]
	}
	t.logger.Debug("tray frame change", "y", f.Y, "height", f.H, "duration", d, "curve", curve.String())
	t.notifications.Publish(pubsub.Event[keyboard.FrameChange]{
		Type: pubsub.WillChangeEvent,
		Payload: keyboard.FrameChange{
			Frame:    &f,
			Duration: &d,
			Curve:    &curve,
			Source:   "tray",
		},
	})
}

func (t *Tray) setY(tx anim.Transaction, y float64) {
	if t.y == nil {
		return
	}
	t.animator.Animate(tx, func() {
		t.y.Set(y)
	})
}

// Focus gives the tray keyboard focus.
func (t *Tray) Focus() tea.Cmd {
	if t.visible {
		t.focused = true
	}
	return nil
}

// Blur removes keyboard focus.
func (t *Tray) Blur() tea.Cmd {
	t.focused = false
	return nil
}

// IsFocused reports whether the tray has keyboard focus.
func (t *Tray) IsFocused() bool {
	return t.focused
}

// Bindings returns the tray's keybindings.
func (t *Tray) Bindings() []key.Binding {
	return []key.Binding{t.keyMap.Up, t.keyMap.Down, t.keyMap.Select}
}

// Update moves the selection and emits SelectMsg while focused.
func (t *Tray) Update(msg tea.Msg) tea.Cmd {
	km, ok := msg.(tea.KeyMsg)
	if !ok || !t.focused || !t.visible {
		return nil
	}
	switch {
	case key.Matches(km, t.keyMap.Up):
		if t.cursor > 0 {
			t.cursor--
		}
	case key.Matches(km, t.keyMap.Down):
		if t.cursor < len(t.replies)-1 {
			t.cursor++
		}
	case key.Matches(km, t.keyMap.Select):
		text := t.replies[t.cursor]
		return func() tea.Msg {
			return SelectMsg{Text: text}
		}
	}
	return nil
}

// View renders the tray at its frame's size.
func (t *Tray) View() string {
	f := t.frame()
	w := geom.Round(f.W)
	h := geom.Round(f.H)
	if w < 4 || h < 3 {
		return ""
	}

	icon := shared.IconDocked
	if t.floating {
		icon = shared.IconFloating
	}
	title := shared.HeaderStyle.Render(icon + " Quick replies")

	rows := []string{title}
	for i, r := range t.replies {
		line := "  " + r
		if i == t.cursor {
			style := shared.MutedStyle
			if t.focused {
				style = shared.PrimaryStyle
			}
			line = style.Render(shared.IconSelected + " " + r)
		}
		rows = append(rows, line)
	}
	inner := h - 2
	if len(rows) > inner {
		start := 0
		if t.cursor+2 > inner {
			start = t.cursor + 2 - inner
		}
		rows = append(rows[:1], rows[1+start:]...)
		rows = rows[:inner]
	}

	border := shared.ColorSubtle
	if t.focused {
		border = shared.ColorPrimary
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(w-2).
		Height(inner).
		Padding(0, 1).
		Render(strings.Join(rows, "\n"))
}
