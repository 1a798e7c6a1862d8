package editor

import (
	"fmt"
	"sync"
	"testing"
	"time"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storyboard-backend/internal/geometry"
	"storyboard-backend/internal/model"
)

func sequentialIDs() Option {
	var mu sync.Mutex
	n := 0
	return WithIDGenerator(func(prefix string) string {
		mu.Lock()
		defer mu.Unlock()
		n++
		if prefix == "" {
			return fmt.Sprintf("board-%d", n)
		}
		return fmt.Sprintf("%s-%d", prefix, n)
	})
}

var dog = model.Asset{
	ID:          "asset-1",
	SourceURL:   "https://example.com/dog.jpg",
	DisplayName: "Dog",
	Filename:    "dog.jpg",
}

func ptr[T any](v T) *T { return &v }

func TestNew_StartsWithOneActiveStage(t *testing.T) {
	e := New(sequentialIDs())
	sb := e.Snapshot()

	require.Len(t, sb.Stages, 1)
	assert.Equal(t, InitialStageName, sb.Stages[0].Name)
	assert.Equal(t, sb.Stages[0].ID, sb.ActiveStageID)
	assert.Empty(t, sb.Stages[0].Placements)
	assert.NotEmpty(t, sb.ID)
}

func TestPlace_DefaultsAndSelection(t *testing.T) {
	e := New(sequentialIDs())

	first := e.Place(dog)
	assert.Equal(t, 120.0, first.X)
	assert.Equal(t, 260.0, first.Y)
	assert.Equal(t, 120.0, first.Width)
	assert.Equal(t, 120.0, first.Height)
	assert.Equal(t, 0, first.Rotation)
	assert.Equal(t, 0, first.LayerOrder)
	assert.Equal(t, model.AnimationFadeIn, first.Animation)
	assert.Equal(t, dog.SourceURL, first.AssetURL)
	assert.Equal(t, dog.Filename, first.Filename)

	second := e.Place(dog)
	assert.Equal(t, 1, second.LayerOrder)
	assert.NotEqual(t, first.ID, second.ID)

	sel, ok := e.Selected()
	require.True(t, ok)
	assert.Equal(t, second.ID, sel)
}

func TestPatch_MergesAndIgnoresUnknownIDs(t *testing.T) {
	e := New(sequentialIDs())
	pa := e.Place(dog)
	stageID := e.Active().ID

	require.NoError(t, e.Patch(stageID, pa.ID, Patch{X: ptr(10.5), Rotation: ptr(405)}))
	got := e.Active().Placements[0]
	assert.Equal(t, 10.5, got.X)
	assert.Equal(t, 260.0, got.Y)
	assert.Equal(t, 45, got.Rotation)

	before := e.Snapshot()
	require.NoError(t, e.Patch("missing", pa.ID, Patch{X: ptr(1.0)}))
	require.NoError(t, e.Patch(stageID, "missing", Patch{X: ptr(1.0)}))
	assert.Equal(t, before, e.Snapshot())
}

func TestPatch_InvalidIsAllOrNothing(t *testing.T) {
	e := New(sequentialIDs())
	pa := e.Place(dog)
	stageID := e.Active().ID
	before := e.Snapshot()

	err := e.Patch(stageID, pa.ID, Patch{X: ptr(5.0), Width: ptr(-1.0)})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	bad := model.AnimationStyle("spin")
	err = e.Patch(stageID, pa.ID, Patch{Y: ptr(3.0), Animation: &bad})
	assert.ErrorIs(t, err, ErrInvalidPatch)

	assert.Equal(t, before, e.Snapshot())
}

func TestRemove_ClearsSelection(t *testing.T) {
	e := New(sequentialIDs())
	a := e.Place(dog)
	b := e.Place(dog)
	stageID := e.Active().ID

	e.Remove(stageID, a.ID)
	sel, ok := e.Selected()
	assert.True(t, ok)
	assert.Equal(t, b.ID, sel)

	e.Remove(stageID, b.ID)
	_, ok = e.Selected()
	assert.False(t, ok)
	assert.Empty(t, e.Active().Placements)

	e.Remove(stageID, "missing")
	e.Remove("missing", "missing")
}

func TestSelect_OnlyActiveStage(t *testing.T) {
	e := New(sequentialIDs())
	pa := e.Place(dog)
	e.AddStage()

	assert.False(t, e.Select(pa.ID))
	_, ok := e.Selected()
	assert.False(t, ok)
}

func TestSelectionOps_RequireSelection(t *testing.T) {
	e := New(sequentialIDs())

	_, err := e.Rotate()
	assert.ErrorIs(t, err, ErrNoSelection)
	assert.ErrorIs(t, e.SetAnimation(model.AnimationScaleUp), ErrNoSelection)
	assert.ErrorIs(t, e.DeleteSelected(), ErrNoSelection)
	_, err = e.BringToFront()
	assert.ErrorIs(t, err, ErrNoSelection)
}

func TestSetAnimationAndDeleteSelected(t *testing.T) {
	e := New(sequentialIDs())
	e.Place(dog)

	require.NoError(t, e.SetAnimation(model.AnimationWipeReveal))
	assert.Equal(t, model.AnimationWipeReveal, e.Active().Placements[0].Animation)
	assert.ErrorIs(t, e.SetAnimation("bogus"), ErrInvalidPatch)

	require.NoError(t, e.DeleteSelected())
	assert.Empty(t, e.Active().Placements)
}

func TestBringToFront(t *testing.T) {
	e := New(sequentialIDs())
	a := e.Place(dog)
	e.Place(dog)
	e.Place(dog)

	require.True(t, e.Select(a.ID))
	top, err := e.BringToFront()
	require.NoError(t, err)
	assert.Equal(t, 3, top)

	order := e.Active().PaintOrder()
	assert.Equal(t, a.ID, order[len(order)-1].ID)
}

func TestStageLifecycle(t *testing.T) {
	e := New(sequentialIDs())
	first := e.Active().ID

	added := e.AddStage()
	stages := e.Stages()
	require.Len(t, stages, 2)
	assert.Equal(t, "Stage 2", added.Name)
	assert.Equal(t, added.ID, e.Active().ID)
	assert.Empty(t, e.Active().Placements)

	assert.True(t, e.DeleteStage(first))
	stages = e.Stages()
	require.Len(t, stages, 1)
	assert.Equal(t, added.ID, e.Active().ID)

	assert.False(t, e.DeleteStage(added.ID))
	assert.Len(t, e.Stages(), 1)
}

func TestDeleteStage_ActiveFallsBackToFirst(t *testing.T) {
	e := New(sequentialIDs())
	first := e.Active().ID
	e.AddStage()
	third := e.AddStage()

	assert.False(t, e.DeleteStage("missing"))
	assert.True(t, e.DeleteStage(third.ID))
	assert.Equal(t, first, e.Active().ID)
}

func TestDeleteStage_InactiveKeepsActive(t *testing.T) {
	e := New(sequentialIDs())
	first := e.Active().ID
	second := e.AddStage()

	assert.True(t, e.DeleteStage(first))
	assert.Equal(t, second.ID, e.Active().ID)
}

func TestSelectStage_ClearsSelection(t *testing.T) {
	e := New(sequentialIDs())
	first := e.Active().ID
	e.Place(dog)

	assert.False(t, e.SelectStage("missing"))
	_, ok := e.Selected()
	assert.True(t, ok)

	assert.True(t, e.SelectStage(first))
	_, ok = e.Selected()
	assert.False(t, ok)
}

// 요청 버퍼를 재사용하는 호출자를 흉내낸다
func borrowed(b []byte) string {
	return unsafe.String(&b[0], len(b))
}

func TestSelectStage_DoesNotKeepCallerMemory(t *testing.T) {
	e := New(sequentialIDs())
	first := e.Active().ID
	e.AddStage()

	buf := []byte(first)
	require.True(t, e.SelectStage(borrowed(buf)))
	placed := e.Place(dog)
	copy(buf, "garbage")

	sb := e.Snapshot()
	assert.Equal(t, first, sb.ActiveStageID)
	assert.Equal(t, first, e.Active().ID)

	sel := []byte(placed.ID)
	require.True(t, e.Select(borrowed(sel)))
	copy(sel, "garbage")
	got, ok := e.Selected()
	require.True(t, ok)
	assert.Equal(t, placed.ID, got)

	dup := e.DuplicateStage()
	assert.Len(t, dup.Placements, 1)
}

func TestDuplicateStage(t *testing.T) {
	e := New(sequentialIDs())
	e.Place(dog)
	e.Place(dog)
	require.NoError(t, e.SetAnimation(model.AnimationScaleUp))
	e.AddStage()
	require.True(t, e.SelectStage(e.Stages()[0].ID))
	src := e.Active()

	dup := e.DuplicateStage()
	stages := e.Stages()
	require.Len(t, stages, 3)
	assert.Equal(t, dup.ID, stages[1].ID)
	assert.Equal(t, dup.ID, e.Active().ID)
	assert.Equal(t, src.Name+" (copy)", dup.Name)
	require.Len(t, dup.Placements, len(src.Placements))

	seen := map[string]bool{}
	for i, pa := range dup.Placements {
		orig := src.Placements[i]
		assert.NotEqual(t, orig.ID, pa.ID)
		assert.False(t, seen[pa.ID])
		seen[pa.ID] = true

		pa.ID = orig.ID
		assert.Equal(t, orig, pa)
	}

	// edits to the copy leave the source alone
	require.NoError(t, e.Patch(dup.ID, dup.Placements[0].ID, Patch{X: ptr(0.0)}))
	assert.Equal(t, src, e.Stages()[0])
}

func TestMoveAndRenameStage(t *testing.T) {
	e := New(sequentialIDs())
	first := e.Active().ID
	second := e.AddStage().ID
	third := e.AddStage().ID

	assert.True(t, e.MoveStage(third, 0))
	ids := func() []string {
		var out []string
		for _, s := range e.Stages() {
			out = append(out, s.ID)
		}
		return out
	}
	assert.Equal(t, []string{third, first, second}, ids())

	assert.True(t, e.MoveStage(third, 99))
	assert.Equal(t, []string{first, second, third}, ids())
	assert.False(t, e.MoveStage("missing", 0))

	assert.True(t, e.RenameStage(second, "Intro"))
	assert.False(t, e.RenameStage(second, ""))
	assert.Equal(t, "Intro", e.Stages()[1].Name)
}

func TestSnapshotIsACopy(t *testing.T) {
	e := New(sequentialIDs())
	pa := e.Place(dog)
	snap := e.Snapshot()

	require.NoError(t, e.Patch(snap.ActiveStageID, pa.ID, Patch{X: ptr(1.0)}))
	e.AddStage()

	assert.Equal(t, 120.0, snap.Stages[0].Placements[0].X)
	assert.Len(t, snap.Stages, 1)
}

func TestScenario_PlaceDragResizeRotate(t *testing.T) {
	e := New(sequentialIDs())
	pa := e.Place(dog)
	assert.Equal(t, 120.0, pa.X)
	assert.Equal(t, 260.0, pa.Y)

	// grab the asset 10,10 inside its origin and move left by 200
	require.NoError(t, e.BeginDrag(pa.ID, geometry.Point{X: 130, Y: 270}))
	got, ok := e.MoveTo(geometry.Point{X: -70, Y: 270})
	require.True(t, ok)
	assert.Equal(t, 0.0, got.X)
	assert.Equal(t, 260.0, got.Y)
	e.EndGesture()

	require.NoError(t, e.BeginResize(geometry.CornerSE, geometry.Point{X: 120, Y: 380}))
	got, ok = e.MoveTo(geometry.Point{X: 180, Y: 380})
	require.True(t, ok)
	assert.Equal(t, 180.0, got.Width)
	assert.Equal(t, 180.0, got.Height)
	assert.Equal(t, 0.0, got.X)
	assert.Equal(t, 260.0, got.Y)
	e.EndGesture()

	rot, err := e.Rotate()
	require.NoError(t, err)
	assert.Equal(t, 45, rot)
}

func TestGesture_UsesStartSnapshot(t *testing.T) {
	e := New(sequentialIDs())
	e.Place(dog)

	require.NoError(t, e.BeginResize(geometry.CornerSE, geometry.Point{X: 0, Y: 0}))
	for _, x := range []float64{10, 20, 30, 40} {
		_, ok := e.MoveTo(geometry.Point{X: x})
		require.True(t, ok)
	}
	got, _ := e.SelectedPlacement()
	assert.Equal(t, 160.0, got.Width)

	e.EndGesture()
	_, ok := e.MoveTo(geometry.Point{X: 500})
	assert.False(t, ok)
	assert.False(t, e.InGesture())
}

func TestGesture_Errors(t *testing.T) {
	e := New(sequentialIDs())
	assert.ErrorIs(t, e.BeginDrag("missing", geometry.Point{}), ErrGestureTarget)
	assert.ErrorIs(t, e.BeginResize(geometry.CornerNW, geometry.Point{}), ErrNoSelection)
}

func TestGesture_EndsWhenTargetRemoved(t *testing.T) {
	e := New(sequentialIDs())
	pa := e.Place(dog)
	require.NoError(t, e.BeginDrag(pa.ID, geometry.Point{X: 121, Y: 261}))

	require.NoError(t, e.DeleteSelected())
	_, ok := e.MoveTo(geometry.Point{X: 200, Y: 200})
	assert.False(t, ok)
}

func TestEditor_ConcurrentUse(t *testing.T) {
	e := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				e.Place(dog)
				_ = e.Snapshot()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, e.Active().Placements, 400)
}

func TestHub(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	h := NewHub(nil, WithClock(clock))

	a := h.Create()
	b := h.Create()
	assert.Equal(t, 2, h.Len())

	got, ok := h.Get(a.ID())
	require.True(t, ok)
	assert.Same(t, a, got)

	assert.True(t, h.Remove(b.ID()))
	assert.False(t, h.Remove(b.ID()))

	assert.Equal(t, 0, h.EvictIdle(now.Add(time.Minute), time.Hour))
	assert.Equal(t, 1, h.EvictIdle(now.Add(2*time.Hour), time.Hour))
	assert.Equal(t, 0, h.Len())
}
