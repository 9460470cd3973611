// Package geom provides the small amount of rectangle and inset arithmetic
// the composer needs. Coordinates grow down and to the right; units are
// whatever the host uses (terminal cells, points).
package geom

import "math"

// Rect is an axis-aligned rectangle.
type Rect struct {
	X, Y, W, H float64
}

// Insets are edge distances, as in a safe area or layout margins.
type Insets struct {
	Top, Left, Bottom, Right float64
}

// Vertical returns Top + Bottom.
func (i Insets) Vertical() float64 {
	return i.Top + i.Bottom
}

// Horizontal returns Left + Right.
func (i Insets) Horizontal() float64 {
	return i.Left + i.Right
}

// MinX returns the left edge.
func (r Rect) MinX() float64 { return r.X }

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MinY returns the top edge.
func (r Rect) MinY() float64 { return r.Y }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// IsEmpty reports whether the rectangle has no area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Offset moves the rectangle by dx, dy.
func (r Rect) Offset(dx, dy float64) Rect {
	r.X += dx
	r.Y += dy
	return r
}

// Inset shrinks the rectangle by i. Negative insets grow it.
func (r Rect) Inset(i Insets) Rect {
	r.X += i.Left
	r.Y += i.Top
	r.W -= i.Horizontal()
	r.H -= i.Vertical()
	if r.W < 0 {
		r.W = 0
	}
	if r.H < 0 {
		r.H = 0
	}
	return r
}

// Intersect returns the overlap of r and o. Disjoint or merely touching
// rectangles yield the zero Rect.
func (r Rect) Intersect(o Rect) Rect {
	x0 := math.Max(r.MinX(), o.MinX())
	y0 := math.Max(r.MinY(), o.MinY())
	x1 := math.Min(r.MaxX(), o.MaxX())
	y1 := math.Min(r.MaxY(), o.MaxY())
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Clamp limits v to [lo, hi]. NaN maps to lo, and lo wins when hi < lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Round returns v rounded to the nearest whole unit, for hosts that draw
// on an integer grid.
func Round(v float64) int {
	return int(math.Round(v))
}
