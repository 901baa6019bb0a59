package media

import (
	"log/slog"
	"os"
	"sync"
)

// Janitor tracks filesystem paths created during a pipeline run and removes
// them all when the run finishes, regardless of outcome. Cleanup happens in
// reverse registration order so nested paths go before their parents.
type Janitor struct {
	mu     sync.Mutex
	paths  []string
	logger *slog.Logger
}

func NewJanitor(logger *slog.Logger) *Janitor {
	return &Janitor{logger: logger}
}

// Track registers a path for removal at cleanup time.
func (j *Janitor) Track(path string) {
	if path == "" {
		return
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	j.paths = append(j.paths, path)
}

// Cleanup removes every tracked path. Failures are logged and do not stop
// the remaining removals; the run's result is never affected.
func (j *Janitor) Cleanup() {
	j.mu.Lock()
	paths := j.paths
	j.paths = nil
	j.mu.Unlock()

	for i := len(paths) - 1; i >= 0; i-- {
		if err := os.RemoveAll(paths[i]); err != nil {
			j.logger.Warn("temp cleanup failed", "path", paths[i], "error", err)
		}
	}
}
