package cache

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"studyscribe-server-go/internal/domain/transcription/model"
	"studyscribe-server-go/internal/platform/config"
	"studyscribe-server-go/internal/platform/errors"
)

const defaultRedisPrefix = "transcript:"

// RedisStore is a shared durable tier backed by redis. Expiry is delegated
// to redis TTLs, so CleanupExpired is a no-op here.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	const op = "cache.redis.connect"

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Username: cfg.Username,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "redis ping failed", err)
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (*model.CacheEntry, error) {
	const op = "cache.redis.get"

	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.KindStorage, op, "redis get failed", err)
	}

	var entry model.CacheEntry
	if err := sonic.Unmarshal(raw, &entry); err != nil {
		// A corrupt payload is unrecoverable; drop it and report a miss.
		s.client.Del(ctx, s.prefix+key)
		return nil, nil
	}
	return &entry, nil
}

func (s *RedisStore) Put(ctx context.Context, entry *model.CacheEntry, ttl time.Duration) error {
	const op = "cache.redis.put"

	stored := *entry
	if stored.ExpiresAt == nil {
		stored.ExpiresAt = expiryFor(ttl, time.Now())
	}

	raw, err := sonic.Marshal(&stored)
	if err != nil {
		return errors.Wrap(errors.KindStorage, op, "marshal cache entry", err)
	}

	var expiration time.Duration
	if stored.ExpiresAt != nil {
		expiration = time.Until(*stored.ExpiresAt)
		if expiration <= 0 {
			return nil
		}
	}
	if err := s.client.Set(ctx, s.prefix+stored.Key, raw, expiration).Err(); err != nil {
		return errors.Wrap(errors.KindStorage, op, "redis set failed", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, key string) error {
	const op = "cache.redis.remove"
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return errors.Wrap(errors.KindStorage, op, "redis del failed", err)
	}
	return nil
}

// CleanupExpired is satisfied by redis key TTLs.
func (s *RedisStore) CleanupExpired(ctx context.Context) (int, error) {
	return 0, nil
}

func (s *RedisStore) Stats(ctx context.Context) (Stats, error) {
	const op = "cache.redis.stats"

	var entries int
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		entries++
	}
	if err := iter.Err(); err != nil {
		return Stats{}, errors.Wrap(errors.KindStorage, op, "redis scan failed", err)
	}
	return Stats{Driver: DriverRedis, Entries: entries}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
