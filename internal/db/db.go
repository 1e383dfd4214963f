package db

import (
	"context"
	"time"
)

// Store is the database facade. Consumers declare the narrow subset they use.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVItem holds a single key+value pair for pipelined writes.
type KVItem struct {
	Key   string
	Value []byte
}

// KVStore provides key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetMulti writes all items in one round-trip. Existing values are overwritten.
	SetMulti(ctx context.Context, items []KVItem) error
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// Scan returns all keys matching a glob pattern.
	Scan(ctx context.Context, pattern string) ([]string, error)
}
