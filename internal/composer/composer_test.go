package composer

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/alexcabrera/composer/internal/composer/keyboard"
	"github.com/alexcabrera/composer/internal/composer/scroll"
	"github.com/alexcabrera/composer/internal/composer/textfield"
	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/pubsub"
)

type fakeHost struct {
	bounds geom.Rect
	safe   geom.Insets
}

func (h *fakeHost) Bounds() geom.Rect           { return h.bounds }
func (h *fakeHost) SafeAreaInsets() geom.Insets { return h.safe }

type fakeRegion struct {
	offset, inset, indicator float64
	content, viewport        float64
	reserved                 float64
	tracking                 bool
}

func (r *fakeRegion) ContentOffsetY() float64                 { return r.offset }
func (r *fakeRegion) SetContentOffsetY(y float64)             { r.offset = y }
func (r *fakeRegion) ContentInsetBottom() float64             { return r.inset }
func (r *fakeRegion) SetContentInsetBottom(v float64)         { r.inset = v }
func (r *fakeRegion) SetScrollIndicatorBottomInset(v float64) { r.indicator = v }
func (r *fakeRegion) ContentSizeHeight() float64              { return r.content }
func (r *fakeRegion) ViewportHeight() float64                 { return r.viewport }
func (r *fakeRegion) AdjustedBottomInset() float64            { return r.inset + r.reserved }
func (r *fakeRegion) IsTracking() bool                        { return r.tracking }
func (r *fakeRegion) IsDecelerating() bool                    { return false }

type strong struct{ r scroll.Region }

func (s strong) Region() scroll.Region { return s.r }

func cellOptions() []Option {
	return []Option{
		WithMinHeight(3),
		WithMaxHeight(12),
		WithMargins(geom.Insets{Left: 1, Right: 1}),
	}
}

// newDocked returns a focused input docked in an 80x20 host over a region
// scrolled away from the bottom.
func newDocked(t *testing.T, opts ...Option) (*Input, *fakeHost, *fakeRegion) {
	t.Helper()
	region := &fakeRegion{offset: 10, content: 100, viewport: 20}
	host := &fakeHost{bounds: geom.Rect{W: 80, H: 20}}
	opts = append(cellOptions(), append(opts, WithHostScroll(strong{region}))...)
	in := New(opts...)
	in.Dock(host)
	in.Update(layoutCheckMsg{id: in.ID()})
	in.Focus()
	return in, host, region
}

func textChanged(in *Input) {
	in.Update(textfield.TextDidChangeMsg{ID: in.Field().ID()})
}

func TestNew_Defaults(t *testing.T) {
	in := New()
	s := in.State()

	if s.MinHeight != DefaultMinHeight || s.MaxHeight != DefaultMaxHeight {
		t.Errorf("bounds = (%v, %v), want (%v, %v)", s.MinHeight, s.MaxHeight, DefaultMinHeight, DefaultMaxHeight)
	}
	if s.CurrentHeight != DefaultMinHeight {
		t.Errorf("CurrentHeight = %v, want %v", s.CurrentHeight, DefaultMinHeight)
	}
	if s.LayoutMargins != DefaultMargins {
		t.Errorf("LayoutMargins = %+v, want %+v", s.LayoutMargins, DefaultMargins)
	}
	if p, ok := in.Field().Placeholder(); !ok || p != DefaultPlaceholder {
		t.Errorf("placeholder = %q, want %q", p, DefaultPlaceholder)
	}
}

func TestDock_SpansHostWidth(t *testing.T) {
	for _, width := range []float64{80, 160} {
		in := New(cellOptions()...)
		in.Dock(&fakeHost{bounds: geom.Rect{W: width, H: 30}})

		f := in.Frame()
		if f.W != width {
			t.Errorf("Frame().W = %v, want %v", f.W, width)
		}
		if f.MaxY() != 30 || f.H != 3 {
			t.Errorf("Frame() = %+v, want docked at the bottom with height 3", f)
		}
	}
}

func TestLayout_CoalescesFollowUp(t *testing.T) {
	in := New(cellOptions()...)
	host := &fakeHost{bounds: geom.Rect{W: 80, H: 20}}

	if in.Dock(host) == nil {
		t.Fatal("first layout should schedule a height re-check")
	}
	if in.Layout() != nil {
		t.Error("a pending re-check should not be scheduled twice")
	}
	in.Update(layoutCheckMsg{id: in.ID()})
	if in.Layout() == nil {
		t.Error("layout after the re-check ran should schedule another")
	}
}

func TestTextChange_GrowsAndAdjustsRegion(t *testing.T) {
	in, _, region := newDocked(t)

	in.InsertString("a\nb\nc")
	textChanged(in)

	if got := in.State().CurrentHeight; got != 5 {
		t.Errorf("CurrentHeight = %v, want 5", got)
	}
	if region.offset != 12 {
		t.Errorf("offset = %v, want 12 (10 + delta 2)", region.offset)
	}
	if region.inset != 5 || region.indicator != 5 {
		t.Errorf("inset = %v indicator = %v, want 5", region.inset, region.indicator)
	}
	if in.Frame().H != 5 {
		t.Errorf("Frame().H = %v, want 5", in.Frame().H)
	}
}

func TestNewlinesThenDeletesRestoreHeight(t *testing.T) {
	in, _, region := newDocked(t)
	startHeight := in.State().CurrentHeight
	startOffset := region.offset

	for i := 0; i < 5; i++ {
		in.InsertString("\n")
		textChanged(in)
	}
	if got := in.State().CurrentHeight; got != startHeight+5 {
		t.Fatalf("after newlines CurrentHeight = %v, want %v", got, startHeight+5)
	}

	for i := 0; i < 5; i++ {
		in.Update(tea.KeyMsg{Type: tea.KeyBackspace})
		textChanged(in)
	}
	if got := in.State().CurrentHeight; got != startHeight {
		t.Errorf("after deletes CurrentHeight = %v, want %v", got, startHeight)
	}
	if region.offset != startOffset {
		t.Errorf("offset = %v, want %v restored", region.offset, startOffset)
	}
}

func TestTextChange_ClampsAtMax(t *testing.T) {
	in, _, _ := newDocked(t, WithMargins(geom.Insets{Top: 1, Left: 1, Bottom: 1, Right: 1}))

	in.InsertString(strings.Repeat("\n", 20))
	textChanged(in)

	if got := in.State().CurrentHeight; got != 10 {
		t.Errorf("CurrentHeight = %v, want 10 (max 12 less margins)", got)
	}
	if got := in.Height(); got != 12 {
		t.Errorf("Height() = %v, want 12", got)
	}
}

func TestLayout_WidthChangeRewraps(t *testing.T) {
	in, host, _ := newDocked(t)
	in.InsertString(strings.Repeat("x", 100))
	textChanged(in)
	before := in.State().CurrentHeight

	host.bounds.W = 40
	in.Layout()
	in.Update(layoutCheckMsg{id: in.ID()})

	if got := in.State().CurrentHeight; got <= before {
		t.Errorf("CurrentHeight = %v after narrowing, want more than %v", got, before)
	}
	if in.Frame().W != 40 {
		t.Errorf("Frame().W = %v, want 40", in.Frame().W)
	}
}

func TestLayoutCheck_IgnoresOtherInputs(t *testing.T) {
	in, _, _ := newDocked(t)
	in.InsertString("a\nb")

	in.Update(layoutCheckMsg{id: "other"})

	if got := in.State().CurrentHeight; got != 3 {
		t.Errorf("CurrentHeight = %v, want 3 unchanged", got)
	}
}

func TestFrame_CappedToSafeContentHeight(t *testing.T) {
	in := New(WithMinHeight(3), WithMaxHeight(40))
	host := &fakeHost{bounds: geom.Rect{W: 80, H: 10}, safe: geom.Insets{Top: 1}}
	in.Dock(host)
	in.Focus()

	in.InsertString(strings.Repeat("\n", 20))
	textChanged(in)

	if f := in.Frame(); f.H != 9 || f.MaxY() != 10 {
		t.Errorf("Frame() = %+v, want height 9 docked at the bottom", f)
	}
}

func TestUnboundHostScroll(t *testing.T) {
	in := New(cellOptions()...)
	in.Dock(&fakeHost{bounds: geom.Rect{W: 80, H: 20}})
	in.Focus()

	in.InsertString("a\nb")
	textChanged(in)

	if got := in.State().CurrentHeight; got != 4 {
		t.Errorf("CurrentHeight = %v, want 4 without a scroll region", got)
	}
}

func TestSafeAreaDidChange_NudgesRegion(t *testing.T) {
	in, host, region := newDocked(t)

	host.safe.Bottom = 6
	in.SafeAreaDidChange()

	if region.offset != 16 {
		t.Errorf("offset = %v, want 16 after 6 rows of safe-area growth", region.offset)
	}
	if f := in.Frame(); f.H != 9 {
		t.Errorf("Frame().H = %v, want bar plus reserved space", f.H)
	}
	if c := in.ContentFrame(); c.H != 3 || c.MaxY() != 14 {
		t.Errorf("ContentFrame() = %+v, want 3 rows above the reserved space", c)
	}

	host.safe.Bottom = 0
	in.SafeAreaDidChange()
	if region.offset != 16 {
		t.Errorf("offset = %v, shrinking should not scroll", region.offset)
	}
}

func TestSend(t *testing.T) {
	in, _, _ := newDocked(t)
	in.InsertString("hello ")
	textChanged(in)

	cmd := in.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter with text should return a command")
	}

	var sent *SendMsg
	for _, msg := range flatten(cmd) {
		if m, ok := msg.(SendMsg); ok {
			sent = &m
		}
	}
	if sent == nil || sent.Text != "hello" || sent.ID != in.ID() {
		t.Errorf("SendMsg = %+v, want trimmed text from this input", sent)
	}
	if in.Value() != "" {
		t.Errorf("Value() = %q, want reset after send", in.Value())
	}
}

func TestSend_EmptyIsIgnored(t *testing.T) {
	in, _, _ := newDocked(t)

	if cmd := in.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		for _, msg := range flatten(cmd) {
			if _, ok := msg.(SendMsg); ok {
				t.Error("empty input should not send")
			}
		}
	}
}

func flatten(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	batch, ok := msg.(tea.BatchMsg)
	if !ok {
		return []tea.Msg{msg}
	}
	var out []tea.Msg
	for _, c := range batch {
		out = append(out, flatten(c)...)
	}
	return out
}

func TestView_ShowsButton(t *testing.T) {
	in, _, _ := newDocked(t, WithButtonLabel("Go"))

	if !strings.Contains(in.View(), "Go") {
		t.Error("View() should contain the button label")
	}
}

func TestListenKeyboard(t *testing.T) {
	if ListenKeyboard(nil) != nil {
		t.Error("nil handle should yield no command")
	}

	broker := pubsub.NewBroker[keyboard.FrameChange](4)
	c := &attached{}
	b := keyboard.NewBridge(c, broker)
	h := b.Start(t.Context())
	defer b.Stop(h)

	frame := geom.Rect{Y: 10, W: 80, H: 4}
	broker.Publish(pubsub.Event[keyboard.FrameChange]{Payload: keyboard.FrameChange{Frame: &frame}})

	msg, ok := ListenKeyboard(h)().(KeyboardFrameMsg)
	if !ok {
		t.Fatal("ListenKeyboard should deliver a KeyboardFrameMsg")
	}
	if msg.Change.Frame == nil || *msg.Change.Frame != frame {
		t.Errorf("frame = %v, want %v", msg.Change.Frame, frame)
	}

	b.Stop(h)
	if msg := ListenKeyboard(h)(); msg != nil {
		t.Errorf("closed subscription should yield nil, got %v", msg)
	}
}

type attached struct{ reserved float64 }

func (a *attached) ConvertFromScreen(r geom.Rect) geom.Rect { return r }
func (a *attached) SafeAreaFrame() geom.Rect                { return geom.Rect{W: 80, H: 20} }
func (a *attached) ReservedBottom() float64                 { return a.reserved }
func (a *attached) SetReservedBottom(v float64)             { a.reserved = v }
func (a *attached) Attached() bool                          { return true }
