package handler

import (
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"storyboard-backend/internal/library"
	"storyboard-backend/internal/model"
	"storyboard-backend/internal/storage"
)

// AssetHandler 에셋 라이브러리/업로드 핸들러
type AssetHandler struct {
	library  *library.Library
	ingestor storage.Ingestor
	local    *storage.LocalStore
	logger   *zap.Logger
}

// NewAssetHandler AssetHandler 생성. local 은 디스크 저장소일 때만 지정 (이미지 서빙용)
func NewAssetHandler(lib *library.Library, ingestor storage.Ingestor, local *storage.LocalStore, logger *zap.Logger) *AssetHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssetHandler{library: lib, ingestor: ingestor, local: local, logger: logger}
}

// UploadResponse 업로드 응답
type UploadResponse struct {
	Success  bool        `json:"success"`
	URL      string      `json:"url"`
	Filename string      `json:"filename"`
	Asset    model.Asset `json:"asset"`
}

// List 라이브러리 에셋 목록
func (h *AssetHandler) List(c *fiber.Ctx) error {
	return c.JSON(h.library.List())
}

// Upload 이미지 업로드 후 라이브러리에 추가
func (h *AssetHandler) Upload(c *fiber.Ctx) error {
	if h.ingestor == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"error": "upload storage is not configured",
		})
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "No file received.",
		})
	}

	f, err := fh.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read upload",
		})
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "failed to read upload",
		})
	}

	stored, err := h.ingestor.Store(c.UserContext(), storage.Upload{Filename: fh.Filename, Data: data})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrMissingFile):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "No file received.",
			})
		case errors.Is(err, storage.ErrNotImage), errors.Is(err, storage.ErrInvalidName):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		h.logger.Error("upload failed", zap.String("file", fh.Filename), zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   "upload failed",
		})
	}

	asset := h.library.AddUpload(fh.Filename, stored)
	return c.Status(fiber.StatusCreated).JSON(UploadResponse{
		Success:  true,
		URL:      stored.URL,
		Filename: stored.Filename,
		Asset:    asset,
	})
}

// Delete 라이브러리에서 에셋 제거. 이미 배치된 사본과 저장된 파일은 그대로 둠
func (h *AssetHandler) Delete(c *fiber.Ctx) error {
	if _, ok := h.library.Remove(c.Params("id")); !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "asset not found",
		})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Image 업로드된 이미지 파일 서빙
func (h *AssetHandler) Image(c *fiber.Ctx) error {
	if h.local == nil {
		return c.Status(fiber.StatusNotFound).SendString("File not found")
	}

	path, err := h.local.Path(c.Params("filename"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("File not found")
	}
	return c.SendFile(path)
}

// Thumbnail 썸네일 서빙
func (h *AssetHandler) Thumbnail(c *fiber.Ctx) error {
	if h.local == nil {
		return c.Status(fiber.StatusNotFound).SendString("File not found")
	}

	path, err := h.local.ThumbnailPath(c.Params("filename"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).SendString("File not found")
	}
	return c.SendFile(path)
}
