package chat

import (
	"github.com/alexcabrera/composer/internal/composer"
	"github.com/alexcabrera/composer/internal/composer/keyboard"
	"github.com/alexcabrera/composer/internal/geom"
	"github.com/alexcabrera/composer/internal/ui/anim"
)

var (
	_ composer.Host      = (*screen)(nil)
	_ keyboard.Container = (*screen)(nil)
)

// screen is the region between the header and the status bar. The input
// bar docks at its bottom and the keyboard bridge reserves space below the
// bar for the tray.
type screen struct {
	top      float64
	width    float64
	height   float64
	reserved *anim.Value
	attached bool
}

func newScreen(e *anim.Engine) *screen {
	return &screen{reserved: e.NewValue(0)}
}

// resize places the region at row top of the terminal.
func (s *screen) resize(top, width, height float64) {
	s.top = top
	s.width = width
	s.height = max(0, height)
	s.attached = true
}

// ScreenFrame is the region in terminal coordinates.
func (s *screen) ScreenFrame() geom.Rect {
	return geom.Rect{Y: s.top, W: s.width, H: s.height}
}

func (s *screen) Bounds() geom.Rect {
	return geom.Rect{W: s.width, H: s.height}
}

func (s *screen) SafeAreaInsets() geom.Insets {
	return geom.Insets{Bottom: s.reserved.Model()}
}

func (s *screen) ConvertFromScreen(r geom.Rect) geom.Rect {
	return r.Offset(0, -s.top)
}

func (s *screen) SafeAreaFrame() geom.Rect {
	return s.Bounds().Inset(s.SafeAreaInsets())
}

func (s *screen) ReservedBottom() float64 {
	return s.reserved.Model()
}

func (s *screen) SetReservedBottom(v float64) {
	s.reserved.Set(v)
}

// PresentedReserved is the reserved space as currently drawn.
func (s *screen) PresentedReserved() float64 {
	return s.reserved.Presented()
}

func (s *screen) Attached() bool {
	return s.attached
}
