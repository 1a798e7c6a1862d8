// Package geometry holds the pure functions behind direct manipulation on the artboard:
// clamped dragging, aspect-preserving corner resize and stepped rotation.
package geometry

import "math"

// Point is a position in artboard-local coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Size is a width/height extent.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Bounds is the drawable area placements are clamped into while dragging.
type Bounds struct {
	Width  float64
	Height float64
}

// Rect is a top-left anchored rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Origin returns the top-left corner.
func (r Rect) Origin() Point {
	return Point{X: r.X, Y: r.Y}
}

// Size returns the extent of r.
func (r Rect) Size() Size {
	return Size{Width: r.Width, Height: r.Height}
}

// AspectRatio is width / height. Callers guarantee a positive height.
func (r Rect) AspectRatio() float64 {
	return r.Width / r.Height
}

// Finite reports whether every component of r is a finite number.
func (r Rect) Finite() bool {
	return IsFinite(r.X) && IsFinite(r.Y) && IsFinite(r.Width) && IsFinite(r.Height)
}

// IsFinite reports whether v is neither NaN nor infinite.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Clamp limits v to [lo, hi]. When hi < lo the lower bound wins, so oversized
// placements settle at the origin.
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
