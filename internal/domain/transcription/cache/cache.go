package cache

import (
	"context"
	"time"

	"studyscribe-server-go/internal/domain/transcription/model"
)

// Store is one cache tier for finished transcripts. Implementations must be
// safe for concurrent use.
type Store interface {
	// Get returns the entry for key, or (nil, nil) on a miss. Expired
	// entries are treated as misses.
	Get(ctx context.Context, key string) (*model.CacheEntry, error)
	// Put stores the entry under its key, overwriting any previous value.
	// A zero ttl means the entry never expires.
	Put(ctx context.Context, entry *model.CacheEntry, ttl time.Duration) error
	// Remove deletes the entry for key if present.
	Remove(ctx context.Context, key string) error
	// CleanupExpired drops expired entries and reports how many were removed.
	CleanupExpired(ctx context.Context) (int, error)
	// Stats reports tier occupancy for diagnostics.
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats describes one tier's current state.
type Stats struct {
	Driver  string `json:"driver"`
	Entries int    `json:"entries"`
	Hits    int64  `json:"hits"`
	Misses  int64  `json:"misses"`
}

func expired(entry *model.CacheEntry, now time.Time) bool {
	return entry.ExpiresAt != nil && !entry.ExpiresAt.After(now)
}

func expiryFor(ttl time.Duration, now time.Time) *time.Time {
	if ttl <= 0 {
		return nil
	}
	t := now.Add(ttl)
	return &t
}
