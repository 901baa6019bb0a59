package transcription

import (
	"sync"

	"studyscribe-server-go/internal/platform/errors"
)

// LockTable grants at most one in-flight run per cache key. Acquisition is
// fail-fast: a second caller for the same key is rejected immediately rather
// than queued, since the first run will populate the cache for both.
type LockTable struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewLockTable() *LockTable {
	return &LockTable{active: make(map[string]struct{})}
}

// TryAcquire claims key and returns a release function, or an
// already_processing error when another run holds it. The release function
// is idempotent.
func (t *LockTable) TryAcquire(key string) (func(), error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, held := t.active[key]; held {
		return nil, errors.New(errors.KindAlreadyProcessing, "transcription.lock",
			"a run for this content is already in flight")
	}
	t.active[key] = struct{}{}

	var once sync.Once
	release := func() {
		once.Do(func() {
			t.mu.Lock()
			delete(t.active, key)
			t.mu.Unlock()
		})
	}
	return release, nil
}

// Held reports whether key is currently locked. Diagnostics only.
func (t *LockTable) Held(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, held := t.active[key]
	return held
}
