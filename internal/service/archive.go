package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"storyboard-backend/internal/export"
	"storyboard-backend/internal/model"
)

var ErrExportNotFound = errors.New("export not found")

// ExportArchive 내보낸 인터체인지 문서 보관소
type ExportArchive struct {
	db *gorm.DB
}

// NewExportArchive ExportArchive 생성
func NewExportArchive(db *gorm.DB) *ExportArchive {
	return &ExportArchive{db: db}
}

// Save 문서를 보관 기록으로 저장
func (s *ExportArchive) Save(ctx context.Context, storyboardID, purpose string, doc *export.Document) (*model.ExportRecord, error) {
	data, err := doc.Marshal()
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}

	exportedAt := doc.Time()
	if exportedAt.IsZero() {
		exportedAt = time.Now().UTC()
	}
	rec := &model.ExportRecord{
		StoryboardID: storyboardID,
		Version:      doc.Version,
		Purpose:      purpose,
		StageCount:   len(doc.Stages),
		Document:     string(data),
		ExportedAt:   exportedAt,
	}
	if err := s.db.WithContext(ctx).Create(rec).Error; err != nil {
		return nil, fmt.Errorf("failed to archive export: %w", err)
	}
	return rec, nil
}

// List 스토리보드의 최근 보관 기록 (최신순)
func (s *ExportArchive) List(ctx context.Context, storyboardID string, limit int) ([]model.ExportRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var records []model.ExportRecord
	err := s.db.WithContext(ctx).
		Where("storyboard_id = ?", storyboardID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	return records, nil
}

// Document 보관된 문서 복원
func (s *ExportArchive) Document(ctx context.Context, storyboardID string, id int64) (*export.Document, error) {
	var rec model.ExportRecord
	err := s.db.WithContext(ctx).
		Where("id = ? AND storyboard_id = ?", id, storyboardID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExportNotFound
		}
		return nil, fmt.Errorf("failed to load export: %w", err)
	}
	return export.Decode(strings.NewReader(rec.Document))
}
