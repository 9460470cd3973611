package keyboard

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/anim"
	"github.com/alexcabrera/composer/internal/ui/pubsub"
)

// fakeContainer is a container at screen origin (0, 2) with a 1-row top
// safe inset.
type fakeContainer struct {
	bounds   geom.Rect
	origin   geom.Rect
	reserved float64
	attached bool
	writes   int
}

func newContainer() *fakeContainer {
	return &fakeContainer{
		bounds:   geom.Rect{W: 80, H: 20},
		origin:   geom.Rect{X: 0, Y: 2},
		attached: true,
	}
}

func (c *fakeContainer) ConvertFromScreen(r geom.Rect) geom.Rect {
	return r.Offset(-c.origin.X, -c.origin.Y)
}

func (c *fakeContainer) SafeAreaFrame() geom.Rect {
	return c.bounds.Inset(geom.Insets{Top: 1, Bottom: c.reserved})
}

func (c *fakeContainer) ReservedBottom() float64 { return c.reserved }

func (c *fakeContainer) SetReservedBottom(v float64) {
	c.reserved = v
	c.writes++
}

func (c *fakeContainer) Attached() bool { return c.attached }

// fakeSurface records observers and lets tests move it.
type fakeSurface struct {
	mu        sync.Mutex
	frame     geom.Rect
	observers map[int]func(geom.Rect)
	next      int
}

func (s *fakeSurface) Frame() geom.Rect { return s.frame }

func (s *fakeSurface) ObservePosition(fn func(geom.Rect)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.observers == nil {
		s.observers = make(map[int]func(geom.Rect))
	}
	id := s.next
	s.next++
	s.observers[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.observers, id)
	}
}

func (s *fakeSurface) observerCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.observers)
}

func (s *fakeSurface) move(frame geom.Rect) {
	s.mu.Lock()
	s.frame = frame
	fns := make([]func(geom.Rect), 0, len(s.observers))
	for _, fn := range s.observers {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(frame)
	}
}

type locator struct{ s Surface }

func (l locator) KeyboardSurface() (Surface, bool) { return l.s, l.s != nil }

func ptr[T any](v T) *T { return &v }

// trayFrame is a docked keyboard of height h at the bottom of the
// container, in screen coordinates.
func trayFrame(h float64) geom.Rect {
	return geom.Rect{X: 0, Y: 22 - h, W: 80, H: h}
}

func TestNormalize(t *testing.T) {
	if _, ok := Normalize(FrameChange{}); ok {
		t.Error("frame change without a frame should be malformed")
	}

	ev, ok := Normalize(FrameChange{Frame: ptr(trayFrame(5))})
	if !ok {
		t.Fatal("frame-only change should normalize")
	}
	if ev.Duration != 0 || ev.Curve != anim.EaseInOut {
		t.Errorf("defaults = (%v, %v), want (0, ease-in-out)", ev.Duration, ev.Curve)
	}

	ev, _ = Normalize(FrameChange{
		Frame:    ptr(trayFrame(5)),
		Duration: ptr(250 * time.Millisecond),
		Curve:    ptr(anim.EaseOut),
	})
	if ev.Duration != 250*time.Millisecond || ev.Curve != anim.EaseOut {
		t.Errorf("reported values = (%v, %v), want (250ms, ease-out)", ev.Duration, ev.Curve)
	}
	if !ev.Transaction().BeginFromCurrentState {
		t.Error("keyboard transactions should begin from the current state")
	}
}

func TestOcclusion(t *testing.T) {
	tests := []struct {
		name  string
		frame geom.Rect
		want  float64
	}{
		{"docked", trayFrame(6), 6},
		{"hidden", geom.Rect{X: 0, Y: 22, W: 80, H: 6}, 0},
		{"taller than safe area", geom.Rect{X: 0, Y: 0, W: 80, H: 22}, 19},
		{"off to the side", geom.Rect{X: 100, Y: 16, W: 20, H: 6}, 0},
		{"floating mid screen", geom.Rect{X: 0, Y: 10, W: 80, H: 4}, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Occlusion(newContainer(), tt.frame); got != tt.want {
				t.Errorf("Occlusion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestBridge_ApplyIsIdempotent(t *testing.T) {
	c := newContainer()
	b := NewBridge(c, nil)
	ev := Event{Frame: trayFrame(6)}

	b.Apply(ev)
	once := c.reserved
	b.Apply(ev)

	if c.reserved != once || once != 6 {
		t.Errorf("reserved after twice = %v, after once = %v, want 6", c.reserved, once)
	}

	b.Apply(Event{Frame: geom.Rect{X: 0, Y: 22, W: 80, H: 6}})
	if c.reserved != 0 {
		t.Errorf("hiding should release reserved space, got %v", c.reserved)
	}
}

func TestBridge_HandleDropsMalformed(t *testing.T) {
	c := newContainer()
	c.reserved = 3
	b := NewBridge(c, nil)

	b.Handle(FrameChange{Source: "test"})

	if c.writes != 0 || c.reserved != 3 {
		t.Errorf("malformed event changed state: writes=%d reserved=%v", c.writes, c.reserved)
	}
}

func TestBridge_AnimatesWithEventCurve(t *testing.T) {
	c := newContainer()
	rec := &recordingAnimator{}
	b := NewBridge(c, nil, WithAnimator(rec))

	b.Handle(FrameChange{
		Frame:    ptr(trayFrame(4)),
		Duration: ptr(200 * time.Millisecond),
		Curve:    ptr(anim.EaseIn),
	})

	if len(rec.txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(rec.txs))
	}
	tx := rec.txs[0]
	if tx.Duration != 200*time.Millisecond || tx.Curve != anim.EaseIn || tx.Spring != nil {
		t.Errorf("transaction = %+v, want 200ms ease-in", tx)
	}
}

type recordingAnimator struct {
	txs []anim.Transaction
}

func (r *recordingAnimator) Animate(tx anim.Transaction, changes func()) {
	r.txs = append(r.txs, tx)
	changes()
}

func receive(t *testing.T, h *Handle) FrameChange {
	t.Helper()
	select {
	case ev, ok := <-h.Events():
		if !ok {
			t.Fatal("subscription closed")
		}
		return ev.Payload
	case <-time.After(time.Second):
		t.Fatal("no frame change received")
	}
	return FrameChange{}
}

func TestBridge_StartSubscribes(t *testing.T) {
	c := newContainer()
	broker := pubsub.NewBroker[FrameChange](4)
	b := NewBridge(c, broker)

	h := b.Start(context.Background())
	defer b.Stop(h)

	broker.Publish(pubsub.Event[FrameChange]{Payload: FrameChange{Frame: ptr(trayFrame(5))}})
	b.Handle(receive(t, h))

	if c.reserved != 5 {
		t.Errorf("reserved = %v, want 5", c.reserved)
	}
	if h.Observing() {
		t.Error("no surface locator: handle should not be observing")
	}
}

func TestBridge_StartBeforeAttachIsInert(t *testing.T) {
	c := newContainer()
	c.attached = false
	broker := pubsub.NewBroker[FrameChange](4)
	b := NewBridge(c, broker)

	h := b.Start(context.Background())

	if h.Events() != nil || broker.SubscriberCount() != 0 {
		t.Error("detached start should not subscribe")
	}
	b.Stop(h)
}

func TestBridge_SurfaceSynthesizesFrameChanges(t *testing.T) {
	c := newContainer()
	s := &fakeSurface{frame: trayFrame(5)}
	b := NewBridge(c, nil, WithSurfaceLocator(locator{s}))

	h := b.Start(context.Background())
	if !h.Observing() {
		t.Fatal("handle should observe the surface")
	}

	s.move(geom.Rect{X: 0, Y: 12, W: 80, H: 5})
	fc := receive(t, h)

	if fc.Duration == nil || *fc.Duration != 0 {
		t.Errorf("synthesized duration = %v, want 0", fc.Duration)
	}
	if fc.Curve == nil || *fc.Curve != anim.EaseInOut {
		t.Errorf("synthesized curve = %v, want ease-in-out", fc.Curve)
	}
	b.Handle(fc)
	if c.reserved != 5 {
		t.Errorf("reserved = %v, want 5", c.reserved)
	}

	b.Stop(h)
	if s.observerCount() != 0 {
		t.Errorf("observers after stop = %d, want 0", s.observerCount())
	}
	if _, ok := <-h.Events(); ok {
		t.Error("events channel should be closed after stop")
	}

	b.Stop(h)
}

func TestBridge_MissingSurface(t *testing.T) {
	c := newContainer()
	b := NewBridge(c, nil, WithSurfaceLocator(locator{}))

	h := b.Start(context.Background())
	defer b.Stop(h)

	if h.Observing() {
		t.Error("missing surface should leave the handle without an observation")
	}
	if h.Events() == nil {
		t.Error("frame-change subscription should still be active")
	}
}

func TestBridge_ContextCancelReleasesSubscription(t *testing.T) {
	c := newContainer()
	broker := pubsub.NewBroker[FrameChange](4)
	b := NewBridge(c, broker)
	ctx, cancel := context.WithCancel(context.Background())

	h := b.Start(ctx)
	cancel()

	select {
	case _, ok := <-h.Events():
		if ok {
			t.Error("unexpected event")
		}
	case <-time.After(time.Second):
		t.Fatal("subscription not closed on context cancel")
	}
	b.Stop(h)
}

func TestBridge_ContextCancelReleasesObservation(t *testing.T) {
	c := newContainer()
	s := &fakeSurface{frame: trayFrame(5)}
	b := NewBridge(c, pubsub.NewBroker[FrameChange](4), WithSurfaceLocator(locator{s}))
	ctx, cancel := context.WithCancel(context.Background())

	h := b.Start(ctx)
	if s.observerCount() != 1 {
		t.Fatalf("observers = %d, want 1", s.observerCount())
	}
	cancel()

	deadline := time.Now().Add(time.Second)
	for s.observerCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("observers after cancel = %d, want 0", s.observerCount())
		}
		time.Sleep(time.Millisecond)
	}
	for range h.Events() {
	}

	watch, stop := context.WithCancel(context.Background())
	defer stop()
	events := b.Notifications().Subscribe(watch)
	s.move(trayFrame(3))
	select {
	case ev := <-events:
		t.Errorf("surface move after cancel published %+v", ev.Payload)
	case <-time.After(20 * time.Millisecond):
	}
	b.Stop(h)
}
