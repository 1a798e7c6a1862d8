package editor

import (
	"fmt"

	"storyboard-backend/internal/geometry"
	"storyboard-backend/internal/model"
)

// Patch carries the fields to merge into a placement. Nil fields are left alone.
type Patch struct {
	X          *float64              `json:"x,omitempty"`
	Y          *float64              `json:"y,omitempty"`
	Width      *float64              `json:"width,omitempty"`
	Height     *float64              `json:"height,omitempty"`
	Rotation   *int                  `json:"rotation,omitempty"`
	LayerOrder *int                  `json:"layerOrder,omitempty"`
	Animation  *model.AnimationStyle `json:"animationStyle,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p.X == nil && p.Y == nil && p.Width == nil && p.Height == nil &&
		p.Rotation == nil && p.LayerOrder == nil && p.Animation == nil
}

// Validate checks every present field before anything is applied.
func (p Patch) Validate() error {
	for name, v := range map[string]*float64{"x": p.X, "y": p.Y, "width": p.Width, "height": p.Height} {
		if v != nil && !geometry.IsFinite(*v) {
			return fmt.Errorf("%w: %s is not a finite number", ErrInvalidPatch, name)
		}
	}
	if p.Width != nil && *p.Width <= 0 {
		return fmt.Errorf("%w: width must be positive", ErrInvalidPatch)
	}
	if p.Height != nil && *p.Height <= 0 {
		return fmt.Errorf("%w: height must be positive", ErrInvalidPatch)
	}
	if p.Animation != nil && !p.Animation.Valid() {
		return fmt.Errorf("%w: unknown animation style %q", ErrInvalidPatch, string(*p.Animation))
	}
	return nil
}

func (p Patch) applyTo(pa *model.PlacedAsset) {
	if p.X != nil {
		pa.X = *p.X
	}
	if p.Y != nil {
		pa.Y = *p.Y
	}
	if p.Width != nil {
		pa.Width = *p.Width
	}
	if p.Height != nil {
		pa.Height = *p.Height
	}
	if p.Rotation != nil {
		pa.Rotation = geometry.NormalizeRotation(*p.Rotation)
	}
	if p.LayerOrder != nil {
		pa.LayerOrder = *p.LayerOrder
	}
	if p.Animation != nil {
		pa.Animation = *p.Animation
	}
}

func rectPatch(r geometry.Rect) Patch {
	return Patch{X: &r.X, Y: &r.Y, Width: &r.Width, Height: &r.Height}
}

// Place puts a copy of asset on the active stage, centered at the default
// size and painted above everything already there. The new placement becomes
// the selection.
func (e *Editor) Place(asset model.Asset) model.PlacedAsset {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	st := e.activeStage()
	size := model.DefaultPlacementSize
	pa := model.PlacedAsset{
		ID:         e.newID("placed"),
		AssetURL:   asset.SourceURL,
		Filename:   asset.Filename,
		X:          model.ArtboardWidth/2 - size/2,
		Y:          model.ArtboardHeight/2 - size/2,
		Width:      size,
		Height:     size,
		Rotation:   0,
		LayerOrder: len(st.Placements),
		Animation:  model.DefaultAnimation,
	}
	st.Placements = append(st.Placements, pa)
	e.selected = pa.ID
	e.gesture = nil
	return pa
}

// Patch merges p into the placement. Unknown stage or placement ids are a
// silent no-op. An invalid patch is rejected whole with ErrInvalidPatch.
func (e *Editor) Patch(stageID, placedID string, p Patch) error {
	if err := p.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	if pa := e.placement(stageID, placedID); pa != nil {
		p.applyTo(pa)
	}
	return nil
}

// Remove deletes the placement; unknown ids are ignored. Removing the
// selected placement clears the selection.
func (e *Editor) Remove(stageID, placedID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()
	e.remove(stageID, placedID)
}

func (e *Editor) remove(stageID, placedID string) bool {
	st := e.stage(stageID)
	if st == nil {
		return false
	}
	i := st.Find(placedID)
	if i < 0 {
		return false
	}
	st.Placements = append(st.Placements[:i], st.Placements[i+1:]...)
	if e.selected == placedID {
		e.clearSelection()
	}
	return true
}

// Selected returns the selected placement id.
func (e *Editor) Selected() (string, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selected, e.selected != ""
}

// SelectedPlacement returns a copy of the selected placement.
func (e *Editor) SelectedPlacement() (model.PlacedAsset, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if pa := e.selection(); pa != nil {
		return *pa, true
	}
	return model.PlacedAsset{}, false
}

// Select makes placedID the selection. Ids not on the active stage are ignored.
func (e *Editor) Select(placedID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	pa := e.placement(e.board.ActiveStageID, placedID)
	if pa == nil {
		return false
	}
	if e.selected != pa.ID {
		e.gesture = nil
	}
	e.selected = pa.ID
	return true
}

// ClearSelection empties the selection, as a click on the bare canvas does.
func (e *Editor) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()
	e.clearSelection()
}

// selection returns the selected placement on the active stage. Callers hold mu.
func (e *Editor) selection() *model.PlacedAsset {
	if e.selected == "" {
		return nil
	}
	return e.placement(e.board.ActiveStageID, e.selected)
}

// DeleteSelected removes the selected placement.
func (e *Editor) DeleteSelected() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	if e.selection() == nil {
		return ErrNoSelection
	}
	e.remove(e.board.ActiveStageID, e.selected)
	return nil
}

// Rotate turns the selected placement by one 45 degree step.
func (e *Editor) Rotate() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	pa := e.selection()
	if pa == nil {
		return 0, ErrNoSelection
	}
	pa.Rotation = geometry.Rotate(pa.Rotation)
	return pa.Rotation, nil
}

// SetAnimation sets the entry animation of the selected placement.
func (e *Editor) SetAnimation(style model.AnimationStyle) error {
	if !style.Valid() {
		return fmt.Errorf("%w: unknown animation style %q", ErrInvalidPatch, string(style))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	pa := e.selection()
	if pa == nil {
		return ErrNoSelection
	}
	pa.Animation = style
	return nil
}

// BringToFront lifts the selected placement above every other one on its stage.
func (e *Editor) BringToFront() (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	pa := e.selection()
	if pa == nil {
		return 0, ErrNoSelection
	}
	top := pa.LayerOrder
	for _, other := range e.activeStage().Placements {
		if other.ID != pa.ID && other.LayerOrder >= top {
			top = other.LayerOrder + 1
		}
	}
	pa.LayerOrder = top
	return top, nil
}
