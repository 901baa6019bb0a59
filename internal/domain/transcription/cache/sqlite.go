package cache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"gorm.io/gorm"

	"studyscribe-server-go/internal/domain/transcription/model"
	"studyscribe-server-go/internal/platform/errors"
	"studyscribe-server-go/internal/platform/storage"
)

// SQLiteStore is the durable tier backed by the shared sqlite database.
// It survives process restarts and feeds the memory tier on warm misses.
type SQLiteStore struct {
	db *gorm.DB
}

func NewSQLiteStore(db *gorm.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	const op = "cache.sqlite.get"

	var row storage.TranscriptCacheRow
	err := s.db.WithContext(ctx).Where("cache_key = ?", key).First(&row).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "query cache row", err)
	}
	if row.ExpiresAt != nil && !row.ExpiresAt.After(time.Now()) {
		s.db.WithContext(ctx).Delete(&storage.TranscriptCacheRow{}, row.ID)
		return nil, nil
	}

	var transcript model.Transcript
	if err := sonic.Unmarshal(row.Payload, &transcript); err != nil {
		s.db.WithContext(ctx).Delete(&storage.TranscriptCacheRow{}, row.ID)
		return nil, nil
	}

	return &model.CacheEntry{
		Key:        row.CacheKey,
		ContentRef: row.ContentRef,
		Principal:  row.Principal,
		Transcript: transcript,
		CreatedAt:  row.CreatedAt,
		ExpiresAt:  row.ExpiresAt,
	}, nil
}

func (s *SQLiteStore) Put(ctx context.Context, entry *model.CacheEntry, ttl time.Duration) error {
	const op = "cache.sqlite.put"

	expiresAt := entry.ExpiresAt
	if expiresAt == nil {
		expiresAt = expiryFor(ttl, time.Now())
	}

	payload, err := sonic.Marshal(&entry.Transcript)
	if err != nil {
		return errors.Wrap(errors.KindStorage, op, "marshal transcript", err)
	}

	row := storage.TranscriptCacheRow{
		CacheKey:   entry.Key,
		ContentRef: entry.ContentRef,
		Principal:  entry.Principal,
		Payload:    payload,
		CreatedAt:  entry.CreatedAt,
		ExpiresAt:  expiresAt,
	}

	// Upsert keyed on cache_key so re-runs overwrite the previous result.
	err = s.db.WithContext(ctx).
		Where("cache_key = ?", entry.Key).
		Delete(&storage.TranscriptCacheRow{}).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, op, "clear previous cache row", err)
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return errors.Wrap(errors.KindStorage, op, "insert cache row", err)
	}
	return nil
}

func (s *SQLiteStore) Remove(ctx context.Context, key string) error {
	const op = "cache.sqlite.remove"
	err := s.db.WithContext(ctx).
		Where("cache_key = ?", key).
		Delete(&storage.TranscriptCacheRow{}).Error
	if err != nil {
		return errors.Wrap(errors.KindStorage, op, "delete cache row", err)
	}
	return nil
}

func (s *SQLiteStore) CleanupExpired(ctx context.Context) (int, error) {
	const op = "cache.sqlite.cleanup"

	res := s.db.WithContext(ctx).
		Where("expires_at IS NOT NULL AND expires_at <= ?", time.Now()).
		Delete(&storage.TranscriptCacheRow{})
	if res.Error != nil {
		return 0, errors.Wrap(errors.KindStorage, op, "delete expired rows", res.Error)
	}
	return int(res.RowsAffected), nil
}

func (s *SQLiteStore) Stats(ctx context.Context) (Stats, error) {
	const op = "cache.sqlite.stats"

	var count int64
	if err := s.db.WithContext(ctx).Model(&storage.TranscriptCacheRow{}).Count(&count).Error; err != nil {
		return Stats{}, errors.Wrap(errors.KindStorage, op, "count cache rows", err)
	}
	return Stats{Driver: DriverSQLite, Entries: int(count)}, nil
}

// Close is a no-op; the underlying database is owned by the bootstrap layer.
func (s *SQLiteStore) Close() error {
	return nil
}
