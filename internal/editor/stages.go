package editor

import (
	"fmt"

	"storyboard-backend/internal/model"
)

// Stages returns copies of every stage in storyboard order.
func (e *Editor) Stages() []model.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.board.Clone().Stages
}

// AddStage appends an empty stage named after its position and activates it.
func (e *Editor) AddStage() model.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	st := model.Stage{
		ID:         e.newID("stage"),
		Name:       fmt.Sprintf("Stage %d", len(e.board.Stages)+1),
		Placements: []model.PlacedAsset{},
	}
	e.board.Stages = append(e.board.Stages, st)
	e.board.ActiveStageID = st.ID
	e.clearSelection()
	return st.Clone()
}

// DuplicateStage copies the active stage right after itself with fresh
// placement ids and activates the copy.
func (e *Editor) DuplicateStage() model.Stage {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	idx := e.board.StageIndex(e.board.ActiveStageID)
	src := e.board.Stages[idx]

	dup := src.Clone()
	dup.ID = e.newID("stage")
	dup.Name = src.Name + " (copy)"
	for i := range dup.Placements {
		dup.Placements[i].ID = e.newID("placed")
	}

	stages := make([]model.Stage, 0, len(e.board.Stages)+1)
	stages = append(stages, e.board.Stages[:idx+1]...)
	stages = append(stages, dup)
	stages = append(stages, e.board.Stages[idx+1:]...)
	e.board.Stages = stages
	e.board.ActiveStageID = dup.ID
	e.clearSelection()
	return dup.Clone()
}

// DeleteStage removes a stage. The last remaining stage is never removed and
// unknown ids are ignored; both report false. Deleting the active stage
// activates the first remaining one.
func (e *Editor) DeleteStage(stageID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	if len(e.board.Stages) <= 1 {
		return false
	}
	idx := e.board.StageIndex(stageID)
	if idx < 0 {
		return false
	}

	e.board.Stages = append(e.board.Stages[:idx], e.board.Stages[idx+1:]...)
	if e.board.ActiveStageID == stageID {
		e.board.ActiveStageID = e.board.Stages[0].ID
	}
	e.clearSelection()
	return true
}

// SelectStage activates a stage and clears the selection. Unknown ids are ignored.
func (e *Editor) SelectStage(stageID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	i := e.board.StageIndex(stageID)
	if i < 0 {
		return false
	}
	// 호출자 문자열은 보관하지 않는다
	e.board.ActiveStageID = e.board.Stages[i].ID
	e.clearSelection()
	return true
}

// RenameStage changes a stage name. Blank names and unknown ids are ignored.
func (e *Editor) RenameStage(stageID, name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	st := e.stage(stageID)
	if st == nil || name == "" {
		return false
	}
	st.Name = name
	return true
}

// MoveStage moves a stage to index, clamped into the list.
func (e *Editor) MoveStage(stageID string, index int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.touch()

	from := e.board.StageIndex(stageID)
	if from < 0 {
		return false
	}
	if index < 0 {
		index = 0
	}
	if index >= len(e.board.Stages) {
		index = len(e.board.Stages) - 1
	}
	if index == from {
		return true
	}

	st := e.board.Stages[from]
	rest := append(e.board.Stages[:from:from], e.board.Stages[from+1:]...)
	stages := make([]model.Stage, 0, len(e.board.Stages))
	stages = append(stages, rest[:index]...)
	stages = append(stages, st)
	stages = append(stages, rest[index:]...)
	e.board.Stages = stages
	return true
}
