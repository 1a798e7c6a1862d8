package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"storyboard-backend/internal/cache"
	"storyboard-backend/internal/editor"
	"storyboard-backend/internal/export"
	"storyboard-backend/internal/model"
	"storyboard-backend/internal/render"
	"storyboard-backend/internal/service"
)

// RenderStatusReader 마지막 렌더 상태 조회
type RenderStatusReader interface {
	GetRenderStatus(ctx context.Context, storyboardID string) (*cache.RenderStatus, error)
}

// ExportHandler 내보내기/렌더 핸들러
type ExportHandler struct {
	hub      *editor.Hub
	exporter *export.Exporter
	archive  *service.ExportArchive
	renders  *render.Service
	status   RenderStatusReader
	logger   *zap.Logger
}

// NewExportHandler ExportHandler 생성. archive 와 status 는 nil 허용
func NewExportHandler(hub *editor.Hub, exporter *export.Exporter, archive *service.ExportArchive, renders *render.Service, status RenderStatusReader, logger *zap.Logger) *ExportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportHandler{
		hub:      hub,
		exporter: exporter,
		archive:  archive,
		renders:  renders,
		status:   status,
		logger:   logger,
	}
}

// RenderResponse 렌더 결과 응답
type RenderResponse struct {
	Success  bool   `json:"success"`
	VideoURL string `json:"videoUrl,omitempty"`
	Logs     string `json:"logs,omitempty"`
	Error    string `json:"error,omitempty"`
}

// ExportSummary 보관 기록 요약
type ExportSummary struct {
	ID         int64  `json:"id"`
	Version    string `json:"version"`
	Purpose    string `json:"purpose"`
	StageCount int    `json:"stage_count"`
	ExportedAt string `json:"exported_at"`
}

func (h *ExportHandler) archiveDocument(c *fiber.Ctx, storyboardID, purpose string, doc *export.Document) {
	if h.archive == nil {
		return
	}
	if _, err := h.archive.Save(c.UserContext(), storyboardID, purpose, doc); err != nil {
		h.logger.Warn("failed to archive export",
			zap.String("storyboard", storyboardID),
			zap.String("purpose", purpose),
			zap.Error(err))
	}
}

// Export 인터체인지 문서 다운로드
func (h *ExportHandler) Export(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	doc := h.exporter.Export(e)
	data, err := doc.Marshal()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to encode document",
		})
	}
	h.archiveDocument(c, e.ID(), model.ExportPurposeDownload, doc)

	c.Attachment(export.Filename(doc.Time()))
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Send(data)
}

// ListExports 보관된 내보내기 목록
func (h *ExportHandler) ListExports(c *fiber.Ctx) error {
	if h.archive == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "export archive is not configured",
		})
	}

	records, err := h.archive.List(c.UserContext(), c.Params("id"), c.QueryInt("limit", 20))
	if err != nil {
		h.logger.Error("failed to list exports", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to list exports",
		})
	}

	out := make([]ExportSummary, len(records))
	for i, r := range records {
		out[i] = ExportSummary{
			ID:         r.ID,
			Version:    r.Version,
			Purpose:    r.Purpose,
			StageCount: r.StageCount,
			ExportedAt: r.ExportedAt.UTC().Format(export.TimeLayout),
		}
	}
	return c.JSON(out)
}

// GetExport 보관된 문서 조회
func (h *ExportHandler) GetExport(c *fiber.Ctx) error {
	if h.archive == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "export archive is not configured",
		})
	}
	exportID, err := c.ParamsInt("exportId")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid export id",
		})
	}

	doc, err := h.archive.Document(c.UserContext(), c.Params("id"), int64(exportID))
	if err != nil {
		if errors.Is(err, service.ErrExportNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "export not found",
			})
		}
		h.logger.Error("failed to load export", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to load export",
		})
	}
	return c.JSON(doc)
}

// Render 현재 스토리보드로 영상 렌더 요청. 요청 중에도 편집은 계속 가능
func (h *ExportHandler) Render(c *fiber.Ctx) error {
	e, ok := h.hub.Get(c.Params("id"))
	if !ok {
		return storyboardNotFound(c)
	}

	doc := h.exporter.ForRender(e)
	res, err := h.renders.Trigger(c.UserContext(), e.ID(), doc)
	if err != nil {
		if errors.Is(err, render.ErrRenderInProgress) {
			return c.Status(fiber.StatusConflict).JSON(RenderResponse{
				Success: false,
				Error:   err.Error(),
			})
		}
		var rerr *render.Error
		if errors.As(err, &rerr) {
			return c.Status(fiber.StatusBadGateway).JSON(RenderResponse{
				Success: false,
				Error:   rerr.Message,
				Logs:    rerr.Logs,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(RenderResponse{
			Success: false,
			Error:   err.Error(),
		})
	}

	// 렌더된 문서만 보관
	h.archiveDocument(c, e.ID(), model.ExportPurposeRender, doc)
	return c.JSON(RenderResponse{
		Success:  true,
		VideoURL: res.VideoURL,
		Logs:     res.Logs,
	})
}

// RenderStatus 마지막 렌더 상태 조회
func (h *ExportHandler) RenderStatus(c *fiber.Ctx) error {
	if h.status == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "render status is not tracked",
		})
	}

	st, err := h.status.GetRenderStatus(c.UserContext(), c.Params("id"))
	if err != nil {
		h.logger.Error("failed to read render status", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "failed to read render status",
		})
	}
	if st == nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "no render recorded",
		})
	}
	return c.JSON(st)
}
