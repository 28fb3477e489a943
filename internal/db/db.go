// Package db declares the Valkey-facing ports shared by the cache and budget repositories.
package db

import (
	"context"
	"time"
)

// Store is one connection serving both the embedding cache and the token counters.
type Store interface {
	Pinger
	KVStore
	Counter
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// Counter is an atomic integer counter with expiry, used for token budgets.
type Counter interface {
	IncrBy(ctx context.Context, key string, val int64) error
	Expire(ctx context.Context, key string, ttl time.Duration, nx bool) error
}
