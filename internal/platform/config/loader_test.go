package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "missing.yaml")).WithDotEnv(false)
	res, err := loader.Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if res.Path != "defaults" {
		t.Fatalf("expected defaults origin, got %s", res.Path)
	}
	cfg := res.Config
	if cfg.Transcription.StandardThresholdSeconds != 1200 {
		t.Fatalf("unexpected threshold: %v", cfg.Transcription.StandardThresholdSeconds)
	}
	if cfg.Transcription.MaxConcurrency != 3 {
		t.Fatalf("unexpected concurrency: %v", cfg.Transcription.MaxConcurrency)
	}
	if cfg.Transcription.SegmentTimeout != 150*time.Second {
		t.Fatalf("unexpected segment timeout: %v", cfg.Transcription.SegmentTimeout)
	}
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
transcription:
  chunk_seconds: 300
  max_concurrency: 5
cache:
  driver: redis
  redis:
    addr: 127.0.0.1:6379
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	res, err := NewLoader(path).WithDotEnv(false).Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	cfg := res.Config
	if cfg.Transcription.ChunkSeconds != 300 {
		t.Fatalf("chunk_seconds override lost: %v", cfg.Transcription.ChunkSeconds)
	}
	if cfg.Transcription.MaxConcurrency != 5 {
		t.Fatalf("max_concurrency override lost: %v", cfg.Transcription.MaxConcurrency)
	}
	if cfg.Cache.Driver != "redis" || cfg.Cache.Redis.Addr != "127.0.0.1:6379" {
		t.Fatalf("cache override lost: %+v", cfg.Cache)
	}
	// Untouched sections keep defaults.
	if cfg.Media.FFmpegPath != "ffmpeg" {
		t.Fatalf("defaults clobbered: %+v", cfg.Media)
	}
}

func TestApplyEnvFillsAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	cfg := DefaultConfig()
	applyEnv(cfg)
	if cfg.STT["OpenAIWhisper"].APIKey != "sk-test" {
		t.Fatalf("api key not applied from env: %+v", cfg.STT["OpenAIWhisper"])
	}
}
