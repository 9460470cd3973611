// Package keyboard bridges keyboard geometry into the reserved bottom space
// of the container that hosts the input bar.
//
// Frame changes arrive on a pubsub broker. A floating keyboard does not
// reliably publish them, so an optional auxiliary Surface is observed as
// well and its moves are republished as zero-duration frame changes. Each
// change is intersected with the container's safe area and the height of
// the overlap becomes the reserved space. The Bridge is the only writer of
// that space.
package keyboard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/anim"
	"github.com/alexcabrera/composer/internal/ui/pubsub"
)

// FrameChange is the raw notification payload.
type FrameChange = pubsub.KeyboardFrameEvent

// Event is a normalized occlusion event.
type Event struct {
	Frame    geom.Rect
	Duration time.Duration
	Curve    anim.Curve
}

// Normalize fills in defaults for a frame change. A change without a frame
// is malformed and reported as not ok.
func Normalize(fc FrameChange) (Event, bool) {
	if fc.Frame == nil {
		return Event{}, false
	}
	ev := Event{Frame: *fc.Frame, Curve: anim.EaseInOut}
	if fc.Duration != nil && *fc.Duration > 0 {
		ev.Duration = *fc.Duration
	}
	if fc.Curve != nil {
		ev.Curve = *fc.Curve
	}
	return ev, true
}

// Transaction returns the animation for applying ev.
func (ev Event) Transaction() anim.Transaction {
	return anim.Transaction{
		Duration:              ev.Duration,
		Curve:                 ev.Curve,
		BeginFromCurrentState: true,
	}
}

// Container is the view that reserves bottom space for the keyboard.
type Container interface {
	// ConvertFromScreen maps a screen rectangle into local coordinates.
	ConvertFromScreen(r geom.Rect) geom.Rect
	// SafeAreaFrame is the local safe-area rectangle, not counting the
	// currently reserved bottom space.
	SafeAreaFrame() geom.Rect
	ReservedBottom() float64
	SetReservedBottom(v float64)
	// Attached reports whether the container is on an active screen.
	Attached() bool
}

// Surface is the screen surface hosting the keyboard.
type Surface interface {
	Frame() geom.Rect
	// ObservePosition calls fn with the new frame whenever the surface
	// moves. The returned function stops the observation.
	ObservePosition(fn func(geom.Rect)) (cancel func())
}

// SurfaceLocator finds the keyboard host surface. It reports false when
// there is none.
type SurfaceLocator interface {
	KeyboardSurface() (Surface, bool)
}

// Occlusion returns the height of frame's overlap with the container's
// safe area, expanded downward by the space already reserved so that
// repeated events settle instead of compounding.
func Occlusion(c Container, frame geom.Rect) float64 {
	local := c.ConvertFromScreen(frame)
	safe := c.SafeAreaFrame().Inset(geom.Insets{Bottom: -c.ReservedBottom()})
	return safe.Intersect(local).H
}

// Handle is the scoped subscription returned by Start. It must be passed
// to Stop exactly once; extra calls are ignored.
type Handle struct {
	events  <-chan pubsub.Event[FrameChange]
	cancel  context.CancelFunc
	observe func()
	once    sync.Once
}

// Events returns the subscription channel. It is closed when the handle is
// released.
func (h *Handle) Events() <-chan pubsub.Event[FrameChange] {
	if h == nil {
		return nil
	}
	return h.events
}

// Observing reports whether an auxiliary surface is being observed.
func (h *Handle) Observing() bool {
	return h != nil && h.observe != nil
}

func (h *Handle) release() {
	if h == nil {
		return
	}
	h.once.Do(func() {
		if h.observe != nil {
			h.observe()
		}
		if h.cancel != nil {
			h.cancel()
		}
	})
}

// Bridge applies keyboard occlusion to a Container.
type Bridge struct {
	container     Container
	notifications *pubsub.Broker[FrameChange]
	locator       SurfaceLocator
	animator      anim.Animator
	logger        *slog.Logger
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithSurfaceLocator sets the auxiliary geometry source.
func WithSurfaceLocator(l SurfaceLocator) Option {
	return func(b *Bridge) {
		b.locator = l
	}
}

// WithAnimator sets the animator for reserved-space changes.
func WithAnimator(a anim.Animator) Option {
	return func(b *Bridge) {
		if a != nil {
			b.animator = a
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// NewBridge creates a bridge for c listening on notifications.
func NewBridge(c Container, notifications *pubsub.Broker[FrameChange], opts ...Option) *Bridge {
	b := &Bridge{
		container:     c,
		notifications: notifications,
		animator:      anim.Immediate{},
		logger:        slog.New(slog.DiscardHandler),
	}
	if b.notifications == nil {
		b.notifications = pubsub.NewBroker[FrameChange](16)
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Notifications returns the broker the bridge listens on.
func (b *Bridge) Notifications() *pubsub.Broker[FrameChange] {
	return b.notifications
}

// Start subscribes to frame changes and observes the keyboard surface.
// Call it once the container is attached; before that it returns an inert
// handle. Cancelling ctx releases the handle as Stop does.
func (b *Bridge) Start(ctx context.Context) *Handle {
	if !b.container.Attached() {
		b.logger.Debug("keyboard bridge started before attach")
		return &Handle{}
	}

	subCtx, cancel := context.WithCancel(ctx)
	h := &Handle{
		events: b.notifications.Subscribe(subCtx),
		cancel: cancel,
	}

	surface, ok := b.surface()
	if !ok {
		b.logger.Debug("keyboard surface unavailable, floating keyboards ignored")
		context.AfterFunc(subCtx, h.release)
		return h
	}
	h.observe = surface.ObservePosition(func(frame geom.Rect) {
		duration := time.Duration(0)
		curve := anim.EaseInOut
		b.notifications.Publish(pubsub.Event[FrameChange]{
			Type: pubsub.WillChangeEvent,
			Payload: FrameChange{
				Frame:    &frame,
				Duration: &duration,
				Curve:    &curve,
				Source:   "surface",
			},
		})
	})
	context.AfterFunc(subCtx, h.release)
	return h
}

func (b *Bridge) surface() (Surface, bool) {
	if b.locator == nil {
		return nil, false
	}
	s, ok := b.locator.KeyboardSurface()
	if !ok || s == nil {
		return nil, false
	}
	return s, true
}

// Stop releases the subscription and the observation.
func (b *Bridge) Stop(h *Handle) {
	h.release()
}

// Handle normalizes and applies a raw frame change. Malformed changes are
// dropped.
func (b *Bridge) Handle(fc FrameChange) {
	ev, ok := Normalize(fc)
	if !ok {
		b.logger.Debug("dropping malformed keyboard frame change", "source", fc.Source)
		return
	}
	b.Apply(ev)
}

// Apply sets the reserved bottom space to ev's occlusion, animated with
// the event's duration and curve.
func (b *Bridge) Apply(ev Event) {
	reserved := Occlusion(b.container, ev.Frame)
	b.logger.Debug("keyboard occlusion", "reserved", reserved, "duration", ev.Duration, "curve", ev.Curve.String())
	b.animator.Animate(ev.Transaction(), func() {
		b.container.SetReservedBottom(reserved)
	})
}
