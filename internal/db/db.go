package db

import (
	"context"
	"time"
)

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides the counter operations used for budget persistence.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	IncrByTTL(ctx context.Context, key string, val int64, ttl time.Duration) (int64, error)
}

// Store is a key-value backend with lifecycle management.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
