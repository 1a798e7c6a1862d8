package editor

import (
	"storyboard-backend/internal/geometry"
	"storyboard-backend/internal/model"
)

type gestureKind int

const (
	gestureDrag gestureKind = iota
	gestureResize
)

// gesture is the snapshot captured at pointer-down. Moves are computed from
// it alone and never from intermediate state.
type gesture struct {
	kind     gestureKind
	stageID  string
	placedID string

	// drag
	offset geometry.Point
	size   geometry.Size

	// resize
	corner geometry.Corner
	start  geometry.ResizeStart
}

func rectOf(pa *model.PlacedAsset) geometry.Rect {
	return geometry.Rect{X: pa.X, Y: pa.Y, Width: pa.Width, Height: pa.Height}
}

// BeginDrag starts dragging a placement on the active stage and selects it.
func (e *Editor) BeginDrag(placedID string, pointer geometry.Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	pa := e.placement(e.board.ActiveStageID, placedID)
	if pa == nil {
		return ErrGestureTarget
	}
	e.selected = pa.ID
	e.gesture = &gesture{
		kind:     gestureDrag,
		stageID:  e.board.ActiveStageID,
		placedID: pa.ID,
		offset:   geometry.DragOffset(pointer, geometry.Point{X: pa.X, Y: pa.Y}),
		size:     geometry.Size{Width: pa.Width, Height: pa.Height},
	}
	return nil
}

// BeginResize starts a corner resize of the selected placement.
func (e *Editor) BeginResize(corner geometry.Corner, pointer geometry.Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	pa := e.selection()
	if pa == nil {
		return ErrNoSelection
	}
	e.gesture = &gesture{
		kind:     gestureResize,
		stageID:  e.board.ActiveStageID,
		placedID: pa.ID,
		corner:   corner,
		start:    geometry.ResizeStart{Rect: rectOf(pa), Pointer: pointer},
	}
	return nil
}

// MoveTo advances the current gesture to pointer and returns the updated
// placement. Without a gesture it reports false and changes nothing.
func (e *Editor) MoveTo(pointer geometry.Point) (model.PlacedAsset, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	g := e.gesture
	if g == nil {
		return model.PlacedAsset{}, false
	}
	pa := e.placement(g.stageID, g.placedID)
	if pa == nil {
		e.gesture = nil
		return model.PlacedAsset{}, false
	}

	switch g.kind {
	case gestureDrag:
		at := geometry.Drag(g.offset, pointer, g.size, e.bounds)
		pa.X, pa.Y = at.X, at.Y
	case gestureResize:
		rectPatch(geometry.Resize(g.start, g.corner, pointer)).applyTo(pa)
	}
	return *pa, true
}

// EndGesture releases the pointer session.
func (e *Editor) EndGesture() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()
	e.gesture = nil
}

// InGesture reports whether a drag or resize is in progress.
func (e *Editor) InGesture() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.gesture != nil
}
