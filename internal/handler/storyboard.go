package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"storyboard-backend/internal/auth"
	"storyboard-backend/internal/editor"
	"storyboard-backend/internal/library"
	"storyboard-backend/internal/model"
)

// Notifier receives the editor state after every mutation.
type Notifier interface {
	Broadcast(storyboardID string, state editor.State)
}

// StoryboardHandler 스토리보드 편집 핸들러
type StoryboardHandler struct {
	hub      *editor.Hub
	library  *library.Library
	jwt      *auth.JWTManager
	notifier Notifier
	logger   *zap.Logger
}

// NewStoryboardHandler StoryboardHandler 생성
func NewStoryboardHandler(hub *editor.Hub, lib *library.Library, jwt *auth.JWTManager, notifier Notifier, logger *zap.Logger) *StoryboardHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StoryboardHandler{hub: hub, library: lib, jwt: jwt, notifier: notifier, logger: logger}
}

// CreateStoryboardResponse 세션 생성 응답
type CreateStoryboardResponse struct {
	editor.State
	Token string `json:"token"`
}

// DeleteStageResponse 스테이지 삭제 응답
type DeleteStageResponse struct {
	Deleted bool `json:"deleted"`
	editor.State
}

// PlaceResponse 배치 응답
type PlaceResponse struct {
	Placement model.PlacedAsset `json:"placement"`
	editor.State
}

// RenameStageRequest 스테이지 이름 변경 요청
type RenameStageRequest struct {
	Name string `json:"name"`
}

// MoveStageRequest 스테이지 순서 변경 요청
type MoveStageRequest struct {
	Index int `json:"index"`
}

// PlaceRequest 에셋 배치 요청
type PlaceRequest struct {
	AssetID string `json:"assetId"`
}

// SelectRequest 선택 요청
type SelectRequest struct {
	PlacedID string `json:"placedId"`
}

// AnimationRequest 애니메이션 변경 요청
type AnimationRequest struct {
	AnimationStyle string `json:"animationStyle"`
}

func storyboardNotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error": "storyboard not found",
	})
}

// changed 변경 사항 전파 후 상태 반환
func (h *StoryboardHandler) changed(e *editor.Editor) editor.State {
	state := e.State()
	if h.notifier != nil {
		h.notifier.Broadcast(state.Storyboard.ID, state)
	}
	return state
}

func (h *StoryboardHandler) respond(c *fiber.Ctx, e *editor.Editor) error {
	return c.JSON(h.changed(e))
}

// selectionError 선택 없음은 409, 잘못된 값은 400
func selectionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, editor.ErrNoSelection):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, editor.ErrInvalidPatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
}

// Create 새 편집 세션 생성
func (h *StoryboardHandler) Create(c *fiber.Ctx) error {
	e := h.hub.Create()

	token, err := h.jwt.GenerateSessionToken(e.ID())
	if err != nil {
		h.hub.Remove(e.ID())
		h.logger.Error("failed to issue session token", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to create session",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(CreateStoryboardResponse{
		State: e.State(),
		Token: token,
	})
}

// Get 스토리보드 상태 조회
func (h *StoryboardHandler) Get(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	return c.JSON(e.State())
}

// Close 편집 세션 종료
func (h *StoryboardHandler) Close(c *fiber.Ctx) error {
	if !h.hub.Remove(c.Params("id")) {
		return storyboardNotFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddStage 빈 스테이지 추가 (활성화)
func (h *StoryboardHandler) AddStage(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	e.AddStage()
	return c.Status(fiber.StatusCreated).JSON(h.changed(e))
}

// DuplicateStage 활성 스테이지 복제
func (h *StoryboardHandler) DuplicateStage(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	e.DuplicateStage()
	return c.Status(fiber.StatusCreated).JSON(h.changed(e))
}

// DeleteStage 스테이지 삭제. 마지막 스테이지는 거부
func (h *StoryboardHandler) DeleteStage(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	deleted := e.DeleteStage(c.Params("stageId"))
	return c.JSON(DeleteStageResponse{Deleted: deleted, State: h.changed(e)})
}

// ActivateStage 활성 스테이지 전환
func (h *StoryboardHandler) ActivateStage(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	e.SelectStage(utils.CopyString(c.Params("stageId")))
	return h.respond(c, e)
}

// RenameStage 스테이지 이름 변경
func (h *StoryboardHandler) RenameStage(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	var req RenameStageRequest
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "name is required",
		})
	}

	e.RenameStage(c.Params("stageId"), req.Name)
	return h.respond(c, e)
}

// MoveStage 스테이지 순서 변경
func (h *StoryboardHandler) MoveStage(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	var req MoveStageRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	e.MoveStage(c.Params("stageId"), req.Index)
	return h.respond(c, e)
}

// Place 라이브러리 에셋을 활성 스테이지에 배치
func (h *StoryboardHandler) Place(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	var req PlaceRequest
	if err := c.BodyParser(&req); err != nil || req.AssetID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "assetId is required",
		})
	}

	asset, ok := h.library.Get(req.AssetID)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "asset not found",
		})
	}

	placed := e.Place(asset)
	return c.Status(fiber.StatusCreated).JSON(PlaceResponse{
		Placement: placed,
		State:     h.changed(e),
	})
}

// PatchPlacement 배치 속성 부분 수정
func (h *StoryboardHandler) PatchPlacement(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	var patch editor.Patch
	if err := c.BodyParser(&patch); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := e.Patch(c.Params("stageId"), c.Params("placedId"), patch); err != nil {
		return selectionError(c, err)
	}
	return h.respond(c, e)
}

// RemovePlacement 배치 삭제
func (h *StoryboardHandler) RemovePlacement(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	e.Remove(c.Params("stageId"), c.Params("placedId"))
	return h.respond(c, e)
}

// Select 활성 스테이지의 배치 선택
func (h *StoryboardHandler) Select(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	var req SelectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	e.Select(req.PlacedID)
	return h.respond(c, e)
}

// ClearSelection 선택 해제
func (h *StoryboardHandler) ClearSelection(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	e.ClearSelection()
	return h.respond(c, e)
}

// DeleteSelected 선택된 배치 삭제
func (h *StoryboardHandler) DeleteSelected(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	if err := e.DeleteSelected(); err != nil {
		return selectionError(c, err)
	}
	return h.respond(c, e)
}

// Rotate 선택된 배치 45도 회전
func (h *StoryboardHandler) Rotate(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	if _, err := e.Rotate(); err != nil {
		return selectionError(c, err)
	}
	return h.respond(c, e)
}

// SetAnimation 선택된 배치의 등장 애니메이션 변경
func (h *StoryboardHandler) SetAnimation(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	var req AnimationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	style, ok := model.ParseAnimationStyle(req.AnimationStyle)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "unknown animation style",
			"allowed": model.AnimationStyles,
		})
	}

	if err := e.SetAnimation(style); err != nil {
		return selectionError(c, err)
	}
	return h.respond(c, e)
}

// BringToFront 선택된 배치를 맨 앞으로
func (h *StoryboardHandler) BringToFront(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	if _, err := e.BringToFront(); err != nil {
		return selectionError(c, err)
	}
	return h.respond(c, e)
}
