package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// TranscriptCacheRow is the durable tier record for a finished transcript.
// Payload carries the serialized transcript including word timestamps.
type TranscriptCacheRow struct {
	ID         uint   `gorm:"primaryKey"`
	CacheKey   string `gorm:"uniqueIndex;size:512"`
	ContentRef string `gorm:"index;size:512"`
	Principal  string `gorm:"index;size:128"`
	Payload    datatypes.JSON
	CreatedAt  time.Time
	ExpiresAt  *time.Time `gorm:"index"`
}

// UsageRow records one completed transcription for accounting.
type UsageRow struct {
	ID           uint   `gorm:"primaryKey"`
	Principal    string `gorm:"index;size:128"`
	ContentRef   string `gorm:"size:512"`
	Provider     string `gorm:"size:64"`
	AudioSeconds float64
	Segments     int
	CreatedAt    time.Time
}

// Open initialises the sqlite database and runs migrations.
func Open(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("sqlite dsn is required")
	}
	if dir := filepath.Dir(dsn); dir != "." && dir != "" && !isMemoryDSN(dsn) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.AutoMigrate(&TranscriptCacheRow{}, &UsageRow{}); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return db, nil
}

func isMemoryDSN(dsn string) bool {
	return dsn == ":memory:" || len(dsn) >= 5 && dsn[:5] == "file:"
}
