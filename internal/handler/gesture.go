package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"storyboard-backend/internal/editor"
	"storyboard-backend/internal/geometry"
	"storyboard-backend/internal/model"
)

// PointerRequest 포인터 좌표 (아트보드 기준)
type PointerRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p PointerRequest) point() geometry.Point {
	return geometry.Point{X: p.X, Y: p.Y}
}

// DragRequest 드래그 시작 요청
type DragRequest struct {
	PlacedID string `json:"placedId"`
	PointerRequest
}

// ResizeRequest 리사이즈 시작 요청
type ResizeRequest struct {
	Corner string `json:"corner"`
	PointerRequest
}

// MoveResponse 제스처 이동 응답
type MoveResponse struct {
	Active    bool               `json:"active"`
	Placement *model.PlacedAsset `json:"placement,omitempty"`
}

// BeginDrag 드래그 제스처 시작. 활성 스테이지에 없는 id 는 무시
func (h *StoryboardHandler) BeginDrag(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	var req DragRequest
	if err := c.BodyParser(&req); err != nil || req.PlacedID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "placedId is required",
		})
	}

	if err := e.BeginDrag(req.PlacedID, req.point()); err != nil && !errors.Is(err, editor.ErrGestureTarget) {
		return selectionError(c, err)
	}
	return h.respond(c, e)
}

// BeginResize 선택된 배치의 모서리 리사이즈 시작
func (h *StoryboardHandler) BeginResize(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	var req ResizeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}
	corner, err := geometry.ParseCorner(req.Corner)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	if err := e.BeginResize(corner, req.point()); err != nil {
		return selectionError(c, err)
	}
	return h.respond(c, e)
}

// Move 진행 중인 제스처에 포인터 이동 반영
func (h *StoryboardHandler) Move(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	var req PointerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	placed, active := e.MoveTo(req.point())
	if !active {
		return c.JSON(MoveResponse{Active: false})
	}
	h.changed(e)
	return c.JSON(MoveResponse{Active: true, Placement: &placed})
}

// EndGesture 제스처 종료
func (h *StoryboardHandler) EndGesture(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}
	e.EndGesture()
	return h.respond(c, e)
}
