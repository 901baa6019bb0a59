package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Loader reads configuration from an optional YAML file layered over the
// defaults, with secrets overlaid from the environment.
type Loader struct {
	path      string
	useDotEnv bool
}

// NewLoader creates a loader for the given config file path. An empty path
// means defaults only.
func NewLoader(path string) *Loader {
	return &Loader{
		path:      path,
		useDotEnv: true,
	}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// Result captures the loaded configuration and its origin.
type Result struct {
	Config *Config
	Path   string
}

// Load builds the effective configuration.
func (l *Loader) Load() (*Result, error) {
	if l.useDotEnv {
		// Missing .env is fine, the process environment is still consulted.
		_ = godotenv.Load()
	}

	cfg := DefaultConfig()
	origin := "defaults"

	if l.path != "" {
		data, err := os.ReadFile(l.path)
		switch {
		case os.IsNotExist(err):
			// Keep defaults.
		case err != nil:
			return nil, fmt.Errorf("read config file %s: %w", l.path, err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config file %s: %w", l.path, err)
			}
			origin = l.path
		}
	}

	applyEnv(cfg)

	return &Result{
		Config: cfg,
		Path:   origin,
	}, nil
}

// applyEnv overlays credentials that should not live in the config file.
func applyEnv(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		for name, stt := range cfg.STT {
			if stt.Type == "openai" && stt.APIKey == "" {
				stt.APIKey = key
				cfg.STT[name] = stt
			}
		}
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" && cfg.Cache.Redis.Addr == "" {
		cfg.Cache.Redis.Addr = addr
	}
}
