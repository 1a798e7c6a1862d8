package model

import (
	"time"
)

// ExportRecord 내보낸 인터체인지 문서 보관 기록
type ExportRecord struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	StoryboardID string    `gorm:"type:varchar(64);not null;index:idx_export_storyboard_created" json:"storyboard_id"`
	Version      string    `gorm:"type:varchar(16);not null" json:"version"`
	Purpose      string    `gorm:"type:varchar(16);not null;default:'download'" json:"purpose"` // download, render
	StageCount   int       `gorm:"not null" json:"stage_count"`
	Document     string    `gorm:"type:jsonb;not null" json:"-"`
	ExportedAt   time.Time `gorm:"not null" json:"exported_at"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index:idx_export_storyboard_created" json:"created_at"`
}

func (ExportRecord) TableName() string {
	return "storyboard_exports"
}

// Export purposes
const (
	ExportPurposeDownload = "download"
	ExportPurposeRender   = "render"
)
