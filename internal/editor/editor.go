// Package editor owns the authoritative storyboard state of one editing
// session: stages, placements, the single selection and the active gesture.
// Every mutation goes through a named operation on Editor.
package editor

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"storyboard-backend/internal/geometry"
	"storyboard-backend/internal/model"
)

var (
	ErrNoSelection   = errors.New("no placement selected")
	ErrGestureTarget = errors.New("gesture target not found on active stage")
	ErrInvalidPatch  = errors.New("invalid placement patch")
)

// InitialStageName is the name of the stage every storyboard starts with.
const InitialStageName = "Initial"

// Editor is the controller for a single storyboard. It is safe for
// concurrent use; operations are serialized and never block on I/O.
type Editor struct {
	mu       sync.Mutex
	board    model.Storyboard
	selected string
	gesture  *gesture

	bounds  geometry.Bounds
	newID   func(prefix string) string
	now     func() time.Time
	touched time.Time
}

// Option configures an Editor.
type Option func(*Editor)

// WithIDGenerator replaces the uuid based id generator.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(e *Editor) { e.newID = fn }
}

// WithClock replaces time.Now for idle tracking.
func WithClock(fn func() time.Time) Option {
	return func(e *Editor) { e.now = fn }
}

// WithStoryboardID fixes the storyboard id instead of generating one.
func WithStoryboardID(id string) Option {
	return func(e *Editor) { e.board.ID = id }
}

func uuidID(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "-" + uuid.NewString()
}

// New creates an editor holding a storyboard with one empty, active stage.
func New(opts ...Option) *Editor {
	e := &Editor{
		bounds: geometry.Bounds{Width: model.ArtboardWidth, Height: model.ArtboardHeight},
		newID:  uuidID,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.board.ID == "" {
		e.board.ID = e.newID("")
	}

	initial := model.Stage{
		ID:         e.newID("stage"),
		Name:       InitialStageName,
		Placements: []model.PlacedAsset{},
	}
	e.board.Stages = []model.Stage{initial}
	e.board.ActiveStageID = initial.ID
	e.touched = e.now()
	return e
}

// ID returns the storyboard id.
func (e *Editor) ID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.ID
}

// Snapshot returns a deep copy of the storyboard. Later edits never show up
// in a snapshot already taken.
func (e *Editor) Snapshot() model.Storyboard {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.Clone()
}

// State is a snapshot plus the process-local selection.
type State struct {
	Storyboard model.Storyboard `json:"storyboard"`
	SelectedID string           `json:"selectedId,omitempty"`
}

// State returns the storyboard snapshot together with the selection.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{Storyboard: e.board.Clone(), SelectedID: e.selected}
}

// Active returns a copy of the active stage.
func (e *Editor) Active() model.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeStage().Clone()
}

// LastTouched reports when the editor was last mutated or read through an operation.
func (e *Editor) LastTouched() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.touched
}

func (e *Editor) touch() {
	e.touched = e.now()
}

// activeStage returns a pointer into board.Stages. Callers hold mu.
func (e *Editor) activeStage() *model.Stage {
	i := e.board.StageIndex(e.board.ActiveStageID)
	return &e.board.Stages[i]
}

// stage returns a pointer to the stage with id, or nil. Callers hold mu.
func (e *Editor) stage(id string) *model.Stage {
	i := e.board.StageIndex(id)
	if i < 0 {
		return nil
	}
	return &e.board.Stages[i]
}

// placement returns a pointer to the placement, or nil. Callers hold mu.
func (e *Editor) placement(stageID, placedID string) *model.PlacedAsset {
	st := e.stage(stageID)
	if st == nil {
		return nil
	}
	i := st.Find(placedID)
	if i < 0 {
		return nil
	}
	return &st.Placements[i]
}

// clearSelection drops the selection and any gesture bound to it. Callers hold mu.
func (e *Editor) clearSelection() {
	e.selected = ""
	e.gesture = nil
}
