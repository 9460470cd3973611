// Package scroll keeps a host scroll region's bottom inset and offset in
// step with the input bar that overlays it.
//
// The Coordinator is the only writer of the region's offset and inset.
// Keyboard occlusion never reaches it directly: it changes the host's
// reserved space, which the region reports through AdjustedBottomInset.
package scroll

import (
	"log/slog"
	"math"
	"weak"

	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/anim"
)

// Region is the scrollable region the input bar overlays.
type Region interface {
	ContentOffsetY() float64
	SetContentOffsetY(y float64)
	ContentInsetBottom() float64
	SetContentInsetBottom(v float64)
	SetScrollIndicatorBottomInset(v float64)
	ContentSizeHeight() float64
	ViewportHeight() float64
	// AdjustedBottomInset is the content inset plus any system-provided
	// bottom inset (reserved keyboard space, safe area).
	AdjustedBottomInset() float64
	// IsTracking reports a user drag in progress.
	IsTracking() bool
	// IsDecelerating reports scrolling momentum after a drag.
	IsDecelerating() bool
}

// IsAtBottom reports whether r is scrolled to the bottom of its content.
func IsAtBottom(r Region) bool {
	return r.ContentOffsetY() >= r.ContentSizeHeight()-r.ViewportHeight()+r.AdjustedBottomInset()
}

// Binding is a non-owning association with a Region. Region returns nil
// once the region is gone.
type Binding interface {
	Region() Region
}

type weakBinding[R any, P interface {
	*R
	Region
}] struct {
	ptr weak.Pointer[R]
}

func (b weakBinding[R, P]) Region() Region {
	p := b.ptr.Value()
	if p == nil {
		return nil
	}
	return P(p)
}

// Weak binds to p without keeping it alive.
func Weak[R any, P interface {
	*R
	Region
}](p P) Binding {
	if p == nil {
		return nil
	}
	return weakBinding[R, P]{ptr: weak.Make((*R)(p))}
}

// SafeAreaSnapshot is the safe-area bottom inset seen at the last change.
type SafeAreaSnapshot struct {
	BottomInset float64
}

// Coordinator applies input-bar height and safe-area changes to the bound
// region.
type Coordinator struct {
	binding  Binding
	animator anim.Animator
	tx       anim.Transaction
	previous SafeAreaSnapshot
	logger   *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithAnimator sets the animator used for offset and inset changes.
func WithAnimator(a anim.Animator) Option {
	return func(c *Coordinator) {
		if a != nil {
			c.animator = a
		}
	}
}

// WithTransaction overrides the spring transaction.
func WithTransaction(tx anim.Transaction) Option {
	return func(c *Coordinator) {
		c.tx = tx
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCoordinator creates a coordinator with no bound region.
func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		animator: anim.Immediate{},
		tx:       anim.SpringTransaction(),
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Bind sets the host region. A nil binding unbinds.
func (c *Coordinator) Bind(b Binding) {
	c.binding = b
}

// Region returns the bound region, or nil.
func (c *Coordinator) Region() Region {
	if c.binding == nil {
		return nil
	}
	return c.binding.Region()
}

// ApplyHeight reacts to a new input-bar content height. The offset moves
// by delta so the visible content stays put, and the bottom inset becomes
// the bar's total height. No-op without a region.
func (c *Coordinator) ApplyHeight(height, delta float64, margins geom.Insets) {
	r := c.Region()
	if r == nil {
		c.logger.Debug("height change without host scroll region", "height", height)
		return
	}
	inset := height + margins.Vertical()
	c.animator.Animate(c.tx, func() {
		if delta != 0 {
			r.SetContentOffsetY(r.ContentOffsetY() + delta)
		}
		r.SetContentInsetBottom(inset)
		r.SetScrollIndicatorBottomInset(inset)
	})
}

// SafeAreaChanged records the new safe-area bottom inset and nudges the
// region by any growth.
func (c *Coordinator) SafeAreaChanged(bottom float64) {
	delta := bottom - c.previous.BottomInset
	c.previous = SafeAreaSnapshot{BottomInset: bottom}
	c.NudgeForSafeAreaGrowth(delta)
}

// Snapshot returns the last recorded safe area.
func (c *Coordinator) Snapshot() SafeAreaSnapshot {
	return c.previous
}

// NudgeForSafeAreaGrowth scrolls by a positive safe-area growth so the
// reading position holds. It leaves the region alone while the user drags
// or it decelerates, and when it is already at the bottom.
func (c *Coordinator) NudgeForSafeAreaGrowth(delta float64) {
	r := c.Region()
	if r == nil {
		return
	}
	if r.IsTracking() || r.IsDecelerating() || IsAtBottom(r) {
		return
	}
	growth := math.Max(0, delta)
	if growth == 0 {
		return
	}
	c.animator.Animate(c.tx, func() {
		r.SetContentOffsetY(r.ContentOffsetY() + growth)
	})
}
