// Package composer provides a self-sizing message input bar for chat
// screens. The bar docks at the bottom of a host, grows with its text
// between a minimum and maximum height, and keeps the host's scroll
// region inset and offset in step with that growth.
//
// Height is re-checked on two triggers: after every text change, animated,
// and after every layout pass, on the following cycle, so that width
// changes re-wrap the text without an edit.
package composer

import (
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/alexcabrera/composer/internal/composer/height"
	"github.com/alexcabrera/composer/internal/composer/keyboard"
	"github.com/alexcabrera/composer/internal/composer/scroll"
	"github.com/alexcabrera/composer/internal/composer/textfield"
	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/anim"
	"github.com/alexcabrera/composer/internal/ui/layout"
	"github.com/alexcabrera/composer/internal/ui/shared"
)

const (
	// DefaultMinHeight is the default minimum text field height.
	DefaultMinHeight = 35.0
	// DefaultMaxHeight is the default maximum bar row height.
	DefaultMaxHeight = 170.0
	// DefaultPlaceholder is shown in an empty, unfocused field.
	DefaultPlaceholder = "Message"
	// DefaultButtonLabel is the trailing button's label.
	DefaultButtonLabel = "Send"
)

var (
	// DefaultMargins are the bar's layout margins.
	DefaultMargins = geom.Insets{Top: 5, Left: 8, Bottom: 5, Right: 8}
	// DefaultTextInsets are the field's border cells.
	DefaultTextInsets = geom.Insets{Top: 1, Left: 1, Bottom: 1, Right: 1}
	// DefaultBorderColor is the field's border color.
	DefaultBorderColor lipgloss.TerminalColor = shared.ColorPrimary
)

var (
	_ layout.Focusable = (*Input)(nil)
	_ layout.Help      = (*Input)(nil)
)

// Host is the container the bar docks into.
type Host interface {
	// Bounds is the host's rectangle in its own coordinates.
	Bounds() geom.Rect
	// SafeAreaInsets includes any space reserved for the keyboard.
	SafeAreaInsets() geom.Insets
}

// SendMsg is sent when the user submits the field's text.
type SendMsg struct {
	ID   string
	Text string
}

// KeyboardFrameMsg carries a keyboard frame change onto the UI loop.
type KeyboardFrameMsg struct {
	Change keyboard.FrameChange
}

type layoutCheckMsg struct {
	id string
}

// KeyMap defines the bar's keybindings.
type KeyMap struct {
	Send    key.Binding
	Newline key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Send: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "send"),
		),
		Newline: key.NewBinding(
			key.WithKeys("alt+enter", "ctrl+j"),
			key.WithHelp("alt+enter", "newline"),
		),
	}
}

// Input is the message input bar.
type Input struct {
	id          string
	field       *textfield.Field
	state       height.State
	measurer    height.Measurer
	textInsets  geom.Insets
	spacing     float64
	coordinator *scroll.Coordinator
	animator    anim.Animator
	tx          anim.Transaction
	presented   *anim.Value
	host        Host
	frame       geom.Rect

	borderColor lipgloss.TerminalColor
	buttonLabel string
	keyMap      KeyMap
	logger      *slog.Logger

	checkPending bool
	pendingBind  scroll.Binding
}

// Option configures an Input.
type Option func(*Input)

// WithMinHeight sets the minimum field height.
func WithMinHeight(h float64) Option {
	return func(in *Input) {
		in.state.MinHeight = h
	}
}

// WithMaxHeight sets the maximum bar row height.
func WithMaxHeight(h float64) Option {
	return func(in *Input) {
		in.state.MaxHeight = h
	}
}

// WithMargins sets the bar's layout margins.
func WithMargins(m geom.Insets) Option {
	return func(in *Input) {
		in.state.LayoutMargins = m
	}
}

// WithTextInsets sets the field's border and padding.
func WithTextInsets(i geom.Insets) Option {
	return func(in *Input) {
		in.textInsets = i
	}
}

// WithSpacing sets the gap between the field and the button.
func WithSpacing(s float64) Option {
	return func(in *Input) {
		in.spacing = s
	}
}

// WithBorderColor sets the field's border color. Nil leaves the terminal
// default.
func WithBorderColor(c lipgloss.TerminalColor) Option {
	return func(in *Input) {
		in.borderColor = c
	}
}

// WithPlaceholder sets the placeholder text.
func WithPlaceholder(s string) Option {
	return func(in *Input) {
		in.field.SetPlaceholder(s)
	}
}

// WithoutPlaceholder removes the placeholder.
func WithoutPlaceholder() Option {
	return func(in *Input) {
		in.field.ClearPlaceholder()
	}
}

// WithButtonLabel sets the trailing button's label.
func WithButtonLabel(s string) Option {
	return func(in *Input) {
		in.buttonLabel = s
	}
}

// WithHostScroll binds the scroll region the bar overlays.
func WithHostScroll(b scroll.Binding) Option {
	return func(in *Input) {
		in.pendingBind = b
	}
}

// WithMeasurer replaces the cell measurer.
func WithMeasurer(m height.Measurer) Option {
	return func(in *Input) {
		in.measurer = m
	}
}

// WithAnimator sets the animator. An *anim.Engine also animates the bar's
// presented height.
func WithAnimator(a anim.Animator) Option {
	return func(in *Input) {
		if a != nil {
			in.animator = a
		}
	}
}

// WithKeyMap replaces the keybindings.
func WithKeyMap(km KeyMap) Option {
	return func(in *Input) {
		in.keyMap = km
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Input) {
		if l != nil {
			in.logger = l
		}
	}
}

// New creates an input bar.
func New(opts ...Option) *Input {
	in := &Input{
		id:          uuid.NewString(),
		field:       textfield.New(),
		state:       height.NewState(DefaultMinHeight, DefaultMaxHeight, DefaultMargins),
		textInsets:  DefaultTextInsets,
		spacing:     1,
		animator:    anim.Immediate{},
		tx:          anim.SpringTransaction(),
		borderColor: DefaultBorderColor,
		buttonLabel: DefaultButtonLabel,
		keyMap:      DefaultKeyMap(),
		logger:      slog.New(slog.DiscardHandler),
	}
	in.field.SetPlaceholder(DefaultPlaceholder)
	for _, opt := range opts {
		opt(in)
	}
	in.state.CurrentHeight = in.state.MinHeight
	if in.measurer == nil {
		in.measurer = height.CellMeasurer{Insets: in.textInsets}
	}
	if e, ok := in.animator.(*anim.Engine); ok {
		in.presented = e.NewValue(in.state.Occupied())
	}
	in.coordinator = scroll.NewCoordinator(
		scroll.WithAnimator(in.animator),
		scroll.WithTransaction(in.tx),
		scroll.WithLogger(in.logger),
	)
	in.coordinator.Bind(in.pendingBind)
	in.pendingBind = nil
	in.field.SetHeight(in.fieldRows())
	return in
}

// ID identifies the bar's messages.
func (in *Input) ID() string {
	return in.id
}

// Field returns the text field.
func (in *Input) Field() *textfield.Field {
	return in.field
}

// State returns the height state.
func (in *Input) State() height.State {
	return in.state
}

// Coordinator returns the scroll coordinator.
func (in *Input) Coordinator() *scroll.Coordinator {
	return in.coordinator
}

// Dock attaches the bar to the bottom of host.
func (in *Input) Dock(host Host) tea.Cmd {
	in.host = host
	return in.Layout()
}

// Frame returns the bar's frame in host coordinates, including the safe
// area below its content.
func (in *Input) Frame() geom.Rect {
	return in.frame
}

// ContentFrame returns the part of the frame above the safe area.
func (in *Input) ContentFrame() geom.Rect {
	if in.host == nil {
		return in.frame
	}
	f := in.frame
	f.H -= in.host.SafeAreaInsets().Bottom
	if f.H < 0 {
		f.H = 0
	}
	return f
}

// Height returns the bar's content height plus margins.
func (in *Input) Height() float64 {
	return in.state.Occupied()
}

// PresentedHeight is Height as currently drawn.
func (in *Input) PresentedHeight() float64 {
	if in.presented == nil {
		return in.Height()
	}
	return in.presented.Presented()
}

// Layout positions the bar in its host and schedules a height re-check
// for the next cycle.
func (in *Input) Layout() tea.Cmd {
	if in.host == nil {
		return nil
	}
	in.field.SetWidth(in.textWidth())
	in.frame = in.computeFrame()
	return in.scheduleCheck()
}

func (in *Input) computeFrame() geom.Rect {
	b := in.host.Bounds()
	safe := in.host.SafeAreaInsets()
	h := in.state.Occupied() + safe.Bottom
	if limit := b.H - safe.Top; h > limit {
		h = limit
	}
	if h < 0 {
		h = 0
	}
	return geom.Rect{X: b.X, Y: b.MaxY() - h, W: b.W, H: h}
}

func (in *Input) scheduleCheck() tea.Cmd {
	if in.checkPending {
		return nil
	}
	in.checkPending = true
	id := in.id
	return func() tea.Msg {
		return layoutCheckMsg{id: id}
	}
}

// SafeAreaDidChange forwards the host's safe-area bottom to the scroll
// coordinator and re-lays out.
func (in *Input) SafeAreaDidChange() tea.Cmd {
	if in.host == nil {
		return nil
	}
	in.coordinator.SafeAreaChanged(in.host.SafeAreaInsets().Bottom)
	return in.Layout()
}

// Update handles text field input, height re-checks and sending.
func (in *Input) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case layoutCheckMsg:
		if msg.id != in.id {
			return nil
		}
		in.checkPending = false
		in.recompute(false)
		return nil

	case textfield.TextDidChangeMsg:
		if msg.ID != in.field.ID() {
			return nil
		}
		in.recompute(true)
		return nil

	case tea.KeyMsg:
		if key.Matches(msg, in.keyMap.Send) && in.field.Focused() {
			return in.send()
		}
	}
	return in.field.Update(msg)
}

// recompute measures the text at the current width and applies the new
// height to the field, the frame and the host scroll region.
func (in *Input) recompute(animated bool) {
	if in.host == nil {
		return
	}
	natural := in.measurer.NaturalHeight(in.field.Text(), in.fieldWidth())
	delta := in.state.Apply(natural)
	in.field.SetHeight(in.fieldRows())

	apply := func() {
		if in.presented != nil {
			in.presented.Set(in.state.Occupied())
		}
	}
	if animated {
		in.animator.Animate(in.tx, apply)
	} else {
		apply()
	}
	in.coordinator.ApplyHeight(in.state.CurrentHeight, delta, in.state.LayoutMargins)
	in.frame = in.computeFrame()

	if delta != 0 {
		in.logger.Debug("input bar height changed", "height", in.state.CurrentHeight, "delta", delta)
	}
}

func (in *Input) send() tea.Cmd {
	text := strings.TrimSpace(in.field.Value())
	if text == "" {
		return nil
	}
	id := in.id
	reset := in.field.Reset()
	return tea.Batch(reset, func() tea.Msg {
		return SendMsg{ID: id, Text: text}
	})
}

// Focus focuses the text field.
func (in *Input) Focus() tea.Cmd {
	return in.field.Focus()
}

// Blur unfocuses the text field.
func (in *Input) Blur() tea.Cmd {
	return in.field.Blur()
}

// IsFocused reports whether the text field has focus.
func (in *Input) IsFocused() bool {
	return in.field.Focused()
}

// Value returns the user's text.
func (in *Input) Value() string {
	return in.field.Value()
}

// SetValue replaces the user's text.
func (in *Input) SetValue(s string) tea.Cmd {
	return in.field.SetText(s)
}

// InsertString inserts s at the cursor.
func (in *Input) InsertString(s string) tea.Cmd {
	return in.field.InsertString(s)
}

// Bindings returns the bar's keybindings.
func (in *Input) Bindings() []key.Binding {
	return []key.Binding{in.keyMap.Send, in.keyMap.Newline}
}

// SetHostScroll binds the scroll region. Nil unbinds.
func (in *Input) SetHostScroll(b scroll.Binding) tea.Cmd {
	in.coordinator.Bind(b)
	return in.Layout()
}

// SetMinHeight changes the minimum field height.
func (in *Input) SetMinHeight(h float64) tea.Cmd {
	in.state.MinHeight = h
	return in.Layout()
}

// SetMaxHeight changes the maximum bar row height.
func (in *Input) SetMaxHeight(h float64) tea.Cmd {
	in.state.MaxHeight = h
	return in.Layout()
}

// SetMargins changes the layout margins.
func (in *Input) SetMargins(m geom.Insets) tea.Cmd {
	in.state.LayoutMargins = m
	return in.Layout()
}

// SetBorderColor changes the field's border color. Nil clears it.
func (in *Input) SetBorderColor(c lipgloss.TerminalColor) {
	in.borderColor = c
}

// SetPlaceholder changes the placeholder text.
func (in *Input) SetPlaceholder(s string) tea.Cmd {
	return in.field.SetPlaceholder(s)
}

// SetButtonLabel changes the trailing button's label.
func (in *Input) SetButtonLabel(s string) tea.Cmd {
	in.buttonLabel = s
	return in.Layout()
}

func (in *Input) buttonStyle() lipgloss.Style {
	return shared.ButtonStyle
}

func (in *Input) buttonWidth() float64 {
	return float64(lipgloss.Width(in.buttonStyle().Render(in.buttonLabel)))
}

// fieldWidth is the field's outer width, border included.
func (in *Input) fieldWidth() float64 {
	if in.host == nil {
		return 0
	}
	b := in.host.Bounds()
	safe := in.host.SafeAreaInsets()
	w := b.W - safe.Horizontal() - in.state.LayoutMargins.Horizontal() - in.spacing - in.buttonWidth()
	if w < in.textInsets.Horizontal()+1 {
		w = in.textInsets.Horizontal() + 1
	}
	return w
}

func (in *Input) textWidth() int {
	return geom.Round(in.fieldWidth() - in.textInsets.Horizontal())
}

func (in *Input) fieldRows() int {
	rows := geom.Round(in.state.CurrentHeight - in.textInsets.Vertical())
	if rows < 1 {
		rows = 1
	}
	return rows
}

// View renders the bar's content (without the safe area below it).
func (in *Input) View() string {
	border := lipgloss.NewStyle().Border(lipgloss.RoundedBorder())
	if in.borderColor != nil {
		border = border.BorderForeground(in.borderColor)
	}
	if !in.field.Focused() {
		border = border.BorderForeground(shared.ColorInactive)
	}
	field := border.Width(in.textWidth()).Render(in.field.View())

	spacer := strings.Repeat(" ", geom.Round(in.spacing))
	button := in.buttonStyle().Render(in.buttonLabel)
	row := lipgloss.JoinHorizontal(lipgloss.Center, field, spacer, button)

	m := in.state.LayoutMargins
	bar := lipgloss.NewStyle().
		Padding(geom.Round(m.Top), geom.Round(m.Right), geom.Round(m.Bottom), geom.Round(m.Left))
	if in.host != nil {
		safe := in.host.SafeAreaInsets()
		bar = bar.Width(geom.Round(in.frame.W - safe.Horizontal())).MarginLeft(geom.Round(safe.Left))
	}
	return bar.Render(row)
}

// ListenKeyboard waits for the next frame change on h's subscription.
// Hosts re-issue it after every KeyboardFrameMsg.
func ListenKeyboard(h *keyboard.Handle) tea.Cmd {
	ch := h.Events()
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return KeyboardFrameMsg{Change: ev.Payload}
	}
}
