// Package anim provides animated transactions for the TUI. A transaction
// groups property changes that should settle over time with one timing
// curve; the Engine drives the in-flight values with frame ticks.
package anim

import (
	"math"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/google/uuid"
)

// Curve is a timing curve for duration-based transactions.
type Curve int

const (
	// EaseInOut accelerates then decelerates.
	EaseInOut Curve = iota
	// EaseIn accelerates from rest.
	EaseIn
	// EaseOut decelerates to rest.
	EaseOut
	// Linear moves at a constant rate.
	Linear
)

// String returns the curve name.
func (c Curve) String() string {
	switch c {
	case EaseIn:
		return "ease-in"
	case EaseOut:
		return "ease-out"
	case Linear:
		return "linear"
	default:
		return "ease-in-out"
	}
}

// Ease maps linear progress t in [0,1] onto the curve.
func (c Curve) Ease(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	switch c {
	case EaseIn:
		return t * t
	case EaseOut:
		return 1 - (1-t)*(1-t)
	case Linear:
		return t
	default:
		return t * t * (3 - 2*t)
	}
}

// Spring parameterizes a spring transaction. Damping 1 is critically
// damped. InitialVelocity is relative to the distance travelled, so 0.5
// covers half the distance per second at the start.
type Spring struct {
	Damping         float64
	InitialVelocity float64
}

// Transaction describes how the changes made inside Animate settle.
type Transaction struct {
	Duration time.Duration
	Curve    Curve
	// Spring, when set, replaces Curve with a spring that settles in
	// roughly Duration.
	Spring *Spring
	// BeginFromCurrentState starts each change from the presented value
	// instead of the previous model value.
	BeginFromCurrentState bool
}

// SpringTransaction is the transaction used for input-bar height changes.
func SpringTransaction() Transaction {
	return Transaction{
		Duration:              250 * time.Millisecond,
		Spring:                &Spring{Damping: 1, InitialVelocity: 0.5},
		BeginFromCurrentState: true,
	}
}

func (tx Transaction) instant() bool {
	return tx.Duration <= 0
}

// Animator runs property changes inside a transaction.
type Animator interface {
	Animate(tx Transaction, changes func())
}

// Immediate applies changes with no animation.
type Immediate struct{}

// Animate runs changes directly.
func (Immediate) Animate(_ Transaction, changes func()) {
	changes()
}

// FrameMsg advances the animations of the engine with the matching ID.
type FrameMsg struct {
	ID string
}

// settleFactor converts a transaction duration into a spring angular
// frequency: a critically damped spring is within 1% after 6.6/omega.
const settleFactor = 6.6

const epsilon = 0.01

// Engine owns animatable values and drives them with frame ticks.
type Engine struct {
	id      string
	fps     int
	now     func() time.Time
	values  []*Value
	current *Transaction
	ticking bool
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

// WithFPS sets the frame rate.
func WithFPS(fps int) EngineOption {
	return func(e *Engine) {
		if fps > 0 {
			e.fps = fps
		}
	}
}

// NewEngine creates an engine ticking at 60 frames per second.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		id:  uuid.NewString(),
		fps: 60,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ID returns the engine's unique identifier.
func (e *Engine) ID() string {
	return e.id
}

// Animate runs changes with tx as the current transaction. Values set
// inside changes animate toward their new model value.
func (e *Engine) Animate(tx Transaction, changes func()) {
	prev := e.current
	e.current = &tx
	defer func() { e.current = prev }()
	changes()
}

// NewValue creates a value owned by the engine.
func (e *Engine) NewValue(v float64) *Value {
	return &Value{engine: e, model: v, presented: v}
}

// Active reports whether any value is still animating.
func (e *Engine) Active() bool {
	return len(e.values) > 0
}

// Cmd returns a frame tick when animations are pending and no tick is
// already in flight. Hosts call it after every update.
func (e *Engine) Cmd() tea.Cmd {
	if e.ticking || !e.Active() {
		return nil
	}
	e.ticking = true
	return e.tick()
}

func (e *Engine) tick() tea.Cmd {
	id := e.id
	return tea.Tick(time.Second/time.Duration(e.fps), func(time.Time) tea.Msg {
		return FrameMsg{ID: id}
	})
}

// Update advances animations on this engine's frame messages.
func (e *Engine) Update(msg tea.Msg) tea.Cmd {
	frame, ok := msg.(FrameMsg)
	if !ok || frame.ID != e.id {
		return nil
	}
	e.Step()
	if !e.Active() {
		e.ticking = false
		return nil
	}
	return e.tick()
}

// Step advances every in-flight value by one frame.
func (e *Engine) Step() {
	now := e.now()
	live := e.values[:0]
	for _, v := range e.values {
		if v.step(now) {
			live = append(live, v)
		}
	}
	e.values = live
}

// Settle finishes every animation at its model value.
func (e *Engine) Settle() {
	for _, v := range e.values {
		v.finish()
	}
	e.values = nil
}

func (e *Engine) track(v *Value) {
	for _, existing := range e.values {
		if existing == v {
			return
		}
	}
	e.values = append(e.values, v)
}

// Value is an animatable float. The model value changes immediately; the
// presented value follows it according to the transaction in effect when
// it was set.
type Value struct {
	engine    *Engine
	model     float64
	presented float64
	from      float64
	velocity  float64
	started   time.Time
	tx        Transaction
	spring    harmonica.Spring
	active    bool
}

// Model returns the target value.
func (v *Value) Model() float64 {
	return v.model
}

// Presented returns the value as currently drawn.
func (v *Value) Presented() float64 {
	return v.presented
}

// Animating reports whether the value is in flight.
func (v *Value) Animating() bool {
	return v.active
}

// Set changes the model value. Inside a non-instant transaction the
// presented value animates; otherwise it snaps.
func (v *Value) Set(target float64) {
	prev := v.model
	v.model = target

	var tx *Transaction
	if v.engine != nil {
		tx = v.engine.current
	}
	if tx == nil || tx.instant() {
		v.finish()
		return
	}
	if prev == target && !v.active {
		return
	}

	start := prev
	if tx.BeginFromCurrentState {
		start = v.presented
	}
	wasActive := v.active

	v.from = start
	v.presented = start
	v.tx = *tx
	v.started = v.engine.now()
	v.active = true

	if tx.Spring != nil {
		omega := settleFactor / tx.Duration.Seconds()
		v.spring = harmonica.NewSpring(harmonica.FPS(v.engine.fps), omega, tx.Spring.Damping)
		if !(wasActive && tx.BeginFromCurrentState) {
			v.velocity = tx.Spring.InitialVelocity * (target - start)
		}
	}
	v.engine.track(v)
}

// step advances one frame and reports whether the value is still active.
func (v *Value) step(now time.Time) bool {
	if !v.active {
		return false
	}
	elapsed := now.Sub(v.started)

	if v.tx.Spring != nil {
		v.presented, v.velocity = v.spring.Update(v.presented, v.velocity, v.model)
		settled := math.Abs(v.model-v.presented) < epsilon && math.Abs(v.velocity) < epsilon
		if settled || elapsed >= 4*v.tx.Duration {
			v.finish()
			return false
		}
		return true
	}

	t := float64(elapsed) / float64(v.tx.Duration)
	if t >= 1 {
		v.finish()
		return false
	}
	v.presented = v.from + (v.model-v.from)*v.tx.Curve.Ease(t)
	return true
}

func (v *Value) finish() {
	v.presented = v.model
	v.velocity = 0
	v.active = false
}
