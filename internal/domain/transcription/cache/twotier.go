package cache

import (
	"context"
	"time"

	"studyscribe-server-go/internal/domain/transcription/model"
)

// TwoTier layers a fast in-process tier over a durable tier. Reads check
// memory first and repopulate it from the durable tier on a warm miss;
// writes go through to both.
type TwoTier struct {
	memory  Store
	durable Store
	ttl     time.Duration
}

func NewTwoTierStore(memory, durable Store, ttl time.Duration) *TwoTier {
	return &TwoTier{memory: memory, durable: durable, ttl: ttl}
}

// Get returns the cached entry for key, or nil on a full miss. Durable hits
// are copied back into the memory tier.
func (t *TwoTier) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	entry, err := t.memory.Get(ctx, key)
	if err == nil && entry != nil {
		return entry, nil
	}

	entry, err = t.durable.Get(ctx, key)
	if err != nil || entry == nil {
		return entry, err
	}

	// Best effort: a failed repopulation must not turn a hit into an error.
	_ = t.memory.Put(ctx, entry, t.ttl)
	return entry, nil
}

// Put writes the entry through both tiers. The durable write is the one that
// matters; the memory write cannot fail.
func (t *TwoTier) Put(ctx context.Context, entry *model.CacheEntry) error {
	if err := t.durable.Put(ctx, entry, t.ttl); err != nil {
		return err
	}
	return t.memory.Put(ctx, entry, t.ttl)
}

// Remove drops the entry from both tiers.
func (t *TwoTier) Remove(ctx context.Context, key string) error {
	_ = t.memory.Remove(ctx, key)
	return t.durable.Remove(ctx, key)
}

// CleanupExpired sweeps both tiers.
func (t *TwoTier) CleanupExpired(ctx context.Context) (int, error) {
	n, _ := t.memory.CleanupExpired(ctx)
	m, err := t.durable.CleanupExpired(ctx)
	return n + m, err
}

// Stats reports per-tier statistics, memory first.
func (t *TwoTier) Stats(ctx context.Context) ([]Stats, error) {
	memStats, err := t.memory.Stats(ctx)
	if err != nil {
		return nil, err
	}
	durStats, err := t.durable.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return []Stats{memStats, durStats}, nil
}

func (t *TwoTier) Close() error {
	_ = t.memory.Close()
	return t.durable.Close()
}
