package cache

import (
	"context"
	"fmt"
	"testing"
	"time"

	"studyscribe-server-go/internal/domain/transcription/model"
)

func testEntry(key string) *model.CacheEntry {
	return &model.CacheEntry{
		Key:        key,
		ContentRef: "video:" + key,
		Principal:  "user-a",
		Transcript: model.Transcript{
			FullText:          "hello world",
			OverallConfidence: 0.9,
			DurationSeconds:   42,
			Provider:          "OpenAIWhisper",
		},
		CreatedAt: time.Now(),
	}
}

func TestMemoryStorePutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)
	defer store.Close()

	if err := store.Put(ctx, testEntry("k1"), time.Hour); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := store.Get(ctx, "k1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got == nil || got.Transcript.FullText != "hello world" {
		t.Fatalf("unexpected entry: %+v", got)
	}

	miss, err := store.Get(ctx, "absent")
	if err != nil || miss != nil {
		t.Fatalf("expected clean miss, got %+v, %v", miss, err)
	}
}

func TestMemoryStoreEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(2)
	defer store.Close()

	store.Put(ctx, testEntry("k1"), 0)
	store.Put(ctx, testEntry("k2"), 0)

	// Touch k1 so k2 becomes the eviction candidate.
	if e, _ := store.Get(ctx, "k1"); e == nil {
		t.Fatal("k1 should be present")
	}

	store.Put(ctx, testEntry("k3"), 0)

	if e, _ := store.Get(ctx, "k2"); e != nil {
		t.Fatal("k2 should have been evicted")
	}
	if e, _ := store.Get(ctx, "k1"); e == nil {
		t.Fatal("k1 should survive eviction")
	}
	if e, _ := store.Get(ctx, "k3"); e == nil {
		t.Fatal("k3 should be present")
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(4)
	defer store.Close()

	entry := testEntry("k1")
	past := time.Now().Add(-time.Minute)
	entry.ExpiresAt = &past
	store.Put(ctx, entry, 0)

	if e, _ := store.Get(ctx, "k1"); e != nil {
		t.Fatal("expired entry should be a miss")
	}
}

func TestMemoryStoreCleanupExpired(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(8)
	defer store.Close()

	past := time.Now().Add(-time.Minute)
	for i := 0; i < 3; i++ {
		entry := testEntry(fmt.Sprintf("expired-%d", i))
		entry.ExpiresAt = &past
		store.Put(ctx, entry, 0)
	}
	store.Put(ctx, testEntry("fresh"), time.Hour)

	removed, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired error: %v", err)
	}
	if removed != 3 {
		t.Fatalf("removed = %d, expected 3", removed)
	}

	stats, _ := store.Stats(ctx)
	if stats.Entries != 1 {
		t.Fatalf("entries = %d, expected 1", stats.Entries)
	}
}
