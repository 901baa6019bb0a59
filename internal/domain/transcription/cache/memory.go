package cache

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
	"time"

	"studyscribe-server-go/internal/domain/transcription/model"
)

// MemoryStore is the in-process tier: a capacity-bounded LRU map. It serves
// repeat requests within a process without touching the durable tier.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	items    map[string]*list.Element

	hits   atomic.Int64
	misses atomic.Int64
}

type memoryItem struct {
	key   string
	entry *model.CacheEntry
}

// NewMemoryStore builds an LRU tier holding at most capacity entries.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = 128
	}
	return &MemoryStore{
		capacity: capacity,
		order:    list.New(),
		items:    make(map[string]*list.Element),
	}
}

func (s *MemoryStore) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[key]
	if !ok {
		s.misses.Add(1)
		return nil, nil
	}

	item := elem.Value.(*memoryItem)
	if expired(item.entry, time.Now()) {
		s.order.Remove(elem)
		delete(s.items, key)
		s.misses.Add(1)
		return nil, nil
	}

	s.order.MoveToFront(elem)
	s.hits.Add(1)
	return item.entry, nil
}

func (s *MemoryStore) Put(ctx context.Context, entry *model.CacheEntry, ttl time.Duration) error {
	stored := *entry
	if stored.ExpiresAt == nil {
		stored.ExpiresAt = expiryFor(ttl, time.Now())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[stored.Key]; ok {
		elem.Value.(*memoryItem).entry = &stored
		s.order.MoveToFront(elem)
		return nil
	}

	elem := s.order.PushFront(&memoryItem{key: stored.Key, entry: &stored})
	s.items[stored.Key] = elem

	for s.order.Len() > s.capacity {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.order.Remove(oldest)
		delete(s.items, oldest.Value.(*memoryItem).key)
	}
	return nil
}

func (s *MemoryStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[key]; ok {
		s.order.Remove(elem)
		delete(s.items, key)
	}
	return nil
}

func (s *MemoryStore) CleanupExpired(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	removed := 0
	for elem := s.order.Front(); elem != nil; {
		next := elem.Next()
		item := elem.Value.(*memoryItem)
		if expired(item.entry, now) {
			s.order.Remove(elem)
			delete(s.items, item.key)
			removed++
		}
		elem = next
	}
	return removed, nil
}

func (s *MemoryStore) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	entries := s.order.Len()
	s.mu.Unlock()

	return Stats{
		Driver:  DriverMemory,
		Entries: entries,
		Hits:    s.hits.Load(),
		Misses:  s.misses.Load(),
	}, nil
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order.Init()
	s.items = make(map[string]*list.Element)
	return nil
}
