// Package cache holds short-lived lookups, such as the user behind a bearer
// token, so protected requests avoid a round-trip to the credential service.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/BerylCAtieno/intpatient-api/internal/config"
)

var ErrCacheMiss = errors.New("cache miss")

type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// New returns a Redis backed cache when REDIS_ADDR is set and an in-memory
// one otherwise.
func New(cfg *config.Config) (Client, error) {
	if cfg.RedisAddr == "" {
		return NewMemoryClient(0), nil
	}
	return NewRedisClient(RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
}

// TokenKey derives the key a bearer token is cached under. The token itself
// is never stored.
func TokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "auth:" + hex.EncodeToString(sum[:])
}
