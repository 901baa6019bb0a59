package stt

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"studyscribe-server-go/internal/platform/config"
)

// Word is one recognized word with absolute timing within the submitted file.
type Word struct {
	Text  string
	Start float64
	End   float64
}

// Options tunes a single recognition call.
type Options struct {
	// Language is a BCP-47 hint; empty lets the provider detect it.
	Language string
	// Quality is an advisory hint ("fast", "accurate"); providers without
	// such a knob ignore it.
	Quality string
	// WantWordTimestamps requests per-word timing when the provider
	// supports it.
	WantWordTimestamps bool
	// Prompt biases recognition toward expected vocabulary.
	Prompt string
}

// Result is the provider's answer for one audio file.
type Result struct {
	Text       string
	Confidence float64
	Language   string
	Words      []Word
}

// Provider performs speech recognition on a local audio file.
type Provider interface {
	Name() string
	Transcribe(ctx context.Context, audioPath string, opts Options) (*Result, error)
}

// Factory builds a provider from its configuration block.
type Factory func(cfg config.STTConfig, logger *slog.Logger) (Provider, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register makes a provider type available to Create. Called from provider
// package init functions.
func Register(providerType string, factory Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[providerType] = factory
}

// Create instantiates the provider registered under cfg.Type.
func Create(cfg config.STTConfig, logger *slog.Logger) (Provider, error) {
	registryMu.RLock()
	factory, ok := registry[cfg.Type]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown STT provider type %q (registered: %v)", cfg.Type, registered())
	}
	return factory(cfg, logger)
}

func registered() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
