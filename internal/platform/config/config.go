package config

import (
	"time"
)

type Config struct {
	Server        ServerConfig            `yaml:"server"`
	Log           LogConfig               `yaml:"log"`
	Media         MediaConfig             `yaml:"media"`
	Transcription TranscriptionConfig     `yaml:"transcription"`
	Cache         CacheConfig             `yaml:"cache"`
	Host          HostTranscriptConfig    `yaml:"host_transcript"`
	Usage         UsageConfig             `yaml:"usage"`
	Selected      SelectedConfig          `yaml:"selected_provider"`
	STT           map[string]STTConfig    `yaml:"STT"`
}

type ServerConfig struct {
	IP   string `yaml:"ip"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level string `yaml:"log_level"`
	Dir   string `yaml:"log_dir"`
	File  string `yaml:"log_file"`
}

// MediaConfig controls the external media tooling boundary.
type MediaConfig struct {
	FFmpegPath string `yaml:"ffmpeg_path"`
	YtdlpPath  string `yaml:"ytdlp_path"`
	TempDir    string `yaml:"temp_dir"`
	SampleRate int    `yaml:"sample_rate"`
	Bitrate    string `yaml:"bitrate"`
}

// TranscriptionConfig holds the pipeline policy constants.
type TranscriptionConfig struct {
	// StandardThresholdSeconds separates the single-pass path from the
	// chunked path.
	StandardThresholdSeconds float64 `yaml:"standard_threshold_seconds"`
	// DurationFallbackSeconds is the reported duration when probing fails.
	// Unmeasurable inputs always take the chunked path regardless.
	DurationFallbackSeconds float64       `yaml:"duration_fallback_seconds"`
	ChunkSeconds            int           `yaml:"chunk_seconds"`
	MaxConcurrency          int           `yaml:"max_concurrency"`
	SegmentTimeout          time.Duration `yaml:"segment_timeout"`
}

type CacheConfig struct {
	Driver         string        `yaml:"driver"`
	TTL            time.Duration `yaml:"ttl"`
	MemoryCapacity int           `yaml:"memory_capacity"`
	Redis          RedisConfig   `yaml:"redis,omitempty"`
	SQLite         SQLiteConfig  `yaml:"sqlite,omitempty"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
}

type SQLiteConfig struct {
	DSN string `yaml:"dsn,omitempty"`
}

// HostTranscriptConfig configures the fast-path transcript host API.
type HostTranscriptConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type UsageConfig struct {
	Enabled bool `yaml:"enabled"`
}

type SelectedConfig struct {
	STT string `yaml:"STT"`
}

type STTConfig struct {
	Type    string        `yaml:"type"`
	APIKey  string        `yaml:"api_key"`
	BaseURL string        `yaml:"url"`
	Model   string        `yaml:"model"`
	Timeout time.Duration `yaml:"timeout"`
}
