package config

import "time"

// DefaultConfig returns the baseline configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			IP:   "0.0.0.0",
			Port: 8000,
		},
		Log: LogConfig{
			Level: "INFO",
			Dir:   "data/logs",
			File:  "server.log",
		},
		Media: MediaConfig{
			FFmpegPath: "ffmpeg",
			YtdlpPath:  "yt-dlp",
			TempDir:    "data/tmp",
			SampleRate: 16000,
			Bitrate:    "32k",
		},
		Transcription: TranscriptionConfig{
			StandardThresholdSeconds: 1200,
			DurationFallbackSeconds:  1200,
			ChunkSeconds:             600,
			MaxConcurrency:           3,
			SegmentTimeout:           150 * time.Second,
		},
		Cache: CacheConfig{
			Driver:         "sqlite",
			TTL:            7 * 24 * time.Hour,
			MemoryCapacity: 128,
			SQLite: SQLiteConfig{
				DSN: "data/studyscribe.db",
			},
		},
		Host: HostTranscriptConfig{
			Enabled: true,
			BaseURL: "",
			Timeout: 15 * time.Second,
		},
		Usage: UsageConfig{
			Enabled: true,
		},
		Selected: SelectedConfig{
			STT: "OpenAIWhisper",
		},
		STT: map[string]STTConfig{
			"OpenAIWhisper": {
				Type:    "openai",
				APIKey:  "",
				Model:   "whisper-1",
				Timeout: 150 * time.Second,
			},
		},
	}
}
