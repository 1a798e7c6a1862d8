package geometry

// DragOffset is the pointer-to-origin offset captured when a drag starts.
func DragOffset(pointer, origin Point) Point {
	return pointer.Sub(origin)
}

// Drag computes the new top-left for a placement being dragged. The leading
// edges stay inside the bounds; extents larger than the bounds pin to zero.
func Drag(offset, pointer Point, size Size, b Bounds) Point {
	next := pointer.Sub(offset)
	return Point{
		X: Clamp(next.X, 0, b.Width-size.Width),
		Y: Clamp(next.Y, 0, b.Height-size.Height),
	}
}
