package geometry

import (
	"fmt"
	"math"
)

// MinWidth is the hard floor for the width produced by a resize.
const MinWidth = 30.0

// Corner identifies the resize handle being dragged.
type Corner string

const (
	CornerSE Corner = "se"
	CornerSW Corner = "sw"
	CornerNE Corner = "ne"
	CornerNW Corner = "nw"
)

func (c Corner) String() string {
	return string(c)
}

// ParseCorner validates a handle name.
func ParseCorner(s string) (Corner, error) {
	switch c := Corner(s); c {
	case CornerSE, CornerSW, CornerNE, CornerNW:
		return c, nil
	}
	return "", fmt.Errorf("unknown resize corner %q", s)
}

// ResizeStart is the gesture snapshot taken when a corner handle is pressed.
type ResizeStart struct {
	Rect    Rect
	Pointer Point
}

// minWidthFor keeps both sides at or above MinWidth without bending the ratio.
func minWidthFor(aspect float64) float64 {
	return math.Max(MinWidth, MinWidth*aspect)
}

// Resize returns the rectangle for the current pointer position. Height is
// always derived from width so the start aspect ratio is kept; the corner
// opposite the dragged handle stays anchored. No bounds clamping happens here.
func Resize(start ResizeStart, corner Corner, pointer Point) Rect {
	init := start.Rect
	aspect := init.AspectRatio()
	deltaX := pointer.X - start.Pointer.X
	floor := minWidthFor(aspect)

	out := init
	switch corner {
	case CornerSE:
		out.Width = math.Max(floor, init.Width+deltaX)
		out.Height = out.Width / aspect
	case CornerSW:
		out.Width = math.Max(floor, init.Width-deltaX)
		out.Height = out.Width / aspect
		out.X = init.X + (init.Width - out.Width)
	case CornerNE:
		out.Width = math.Max(floor, init.Width+deltaX)
		out.Height = out.Width / aspect
		out.Y = init.Y + (init.Height - out.Height)
	case CornerNW:
		out.Width = math.Max(floor, init.Width-deltaX)
		out.Height = out.Width / aspect
		out.X = init.X + (init.Width - out.Width)
		out.Y = init.Y + (init.Height - out.Height)
	}
	return out
}
