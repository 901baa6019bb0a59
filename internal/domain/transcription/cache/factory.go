package cache

import (
	"fmt"

	"gorm.io/gorm"

	"studyscribe-server-go/internal/platform/config"
)

const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Dependencies carries shared resources a driver may need. The sqlite tier
// reuses the platform database instead of opening its own handle.
type Dependencies struct {
	SQLiteDB *gorm.DB
}

// NewDurableStore builds the configured durable tier.
func NewDurableStore(cfg config.CacheConfig, deps Dependencies) (Store, error) {
	switch cfg.Driver {
	case DriverMemory:
		// Explicitly configured single-tier mode; the durable tier is
		// another memory store so the two-tier wrapper stays uniform.
		return NewMemoryStore(cfg.MemoryCapacity), nil
	case DriverRedis:
		return NewRedisStore(cfg.Redis)
	case DriverSQLite, "":
		if deps.SQLiteDB == nil {
			return nil, fmt.Errorf("sqlite cache driver requires a database handle")
		}
		return NewSQLiteStore(deps.SQLiteDB), nil
	default:
		return nil, fmt.Errorf("unsupported cache driver: %s", cfg.Driver)
	}
}

// NewTwoTier builds the standard cache arrangement: a bounded memory tier in
// front of the configured durable tier.
func NewTwoTier(cfg config.CacheConfig, deps Dependencies) (*TwoTier, error) {
	durable, err := NewDurableStore(cfg, deps)
	if err != nil {
		return nil, err
	}
	return NewTwoTierStore(NewMemoryStore(cfg.MemoryCapacity), durable, cfg.TTL), nil
}
