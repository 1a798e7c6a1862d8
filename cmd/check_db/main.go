package main

import (
	"fmt"
	"log"

	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"storyboard-backend/internal/config"
	"storyboard-backend/internal/database"
	"storyboard-backend/internal/model"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️ No .env file found, using environment variables")
	}

	cfg := config.FromEnv()
	if !cfg.Database.Enabled() {
		log.Fatal("DB_HOST is not set")
	}

	db, err := gorm.Open(postgres.Open(database.DSN(cfg.Database)), &gorm.Config{})
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	fmt.Println("✅ Connected to database")
	fmt.Println()

	table := model.ExportRecord{}.TableName()

	// Check if the archive table exists
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM information_schema.tables
			WHERE table_name = ?
		)
	`
	if err := db.Raw(query, table).Scan(&exists).Error; err != nil {
		log.Fatal("Failed to check archive table:", err)
	}

	fmt.Printf("📊 Table %s exists: %v\n", table, exists)
	fmt.Println()

	if !exists {
		fmt.Println("❌ Export archive table does NOT exist!")
		fmt.Println("⚠️  Start the server with DB_HOST set to run the migration")
		return
	}

	// Get column info
	type ColumnInfo struct {
		ColumnName string
		DataType   string
		IsNullable string
	}
	var columns []ColumnInfo
	query = `
		SELECT column_name, data_type, is_nullable
		FROM information_schema.columns
		WHERE table_name = ?
		ORDER BY ordinal_position
	`
	if err := db.Raw(query, table).Scan(&columns).Error; err != nil {
		log.Fatal("Failed to get column info:", err)
	}

	fmt.Println("📋 Columns:")
	for _, c := range columns {
		fmt.Printf("  - %s (%s, nullable=%s)\n", c.ColumnName, c.DataType, c.IsNullable)
	}
	fmt.Println()

	// Get purpose statistics
	type PurposeStats struct {
		Total       int64
		Download    int64
		Render      int64
		Storyboards int64
	}
	var stats PurposeStats
	if err := db.Model(&model.ExportRecord{}).
		Select(`COUNT(*) AS total,
			COUNT(CASE WHEN purpose = ? THEN 1 END) AS download,
			COUNT(CASE WHEN purpose = ? THEN 1 END) AS render,
			COUNT(DISTINCT storyboard_id) AS storyboards`,
			model.ExportPurposeDownload, model.ExportPurposeRender).
		Scan(&stats).Error; err != nil {
		log.Fatal("Failed to get statistics:", err)
	}

	fmt.Println("📈 Export Statistics:")
	fmt.Printf("  - Total exports: %d\n", stats.Total)
	fmt.Printf("  - Downloads: %d\n", stats.Download)
	fmt.Printf("  - Renders: %d\n", stats.Render)
	fmt.Printf("  - Storyboards: %d\n", stats.Storyboards)
	fmt.Println()

	// Get recent exports
	var recent []model.ExportRecord
	if err := db.Select("id, storyboard_id, version, purpose, stage_count, exported_at").
		Order("id DESC").
		Limit(10).
		Find(&recent).Error; err != nil {
		log.Fatal("Failed to get recent exports:", err)
	}

	fmt.Println("🗂️ Recent Exports (last 10):")
	for _, r := range recent {
		fmt.Printf("  - ID: %d, Storyboard: %s, Purpose: %s, Stages: %d, At: %s\n",
			r.ID, r.StoryboardID, r.Purpose, r.StageCount, r.ExportedAt.Format("2006-01-02 15:04:05"))
	}
}
