// Package kvcache provides the small string key-value stores with per-entry
// TTL that analytics uses to persist dedup flags and session records.
//
// Stores are best-effort: an entry may disappear before its TTL elapses and
// callers must treat that like an ordinary miss.
package kvcache

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"
)

// Cache is a shared string store with per-entry expiry.
type Cache interface {
	// Get returns the stored value and whether it was present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set stores value under key. A ttl <= 0 means the entry never expires.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config selects and locates a cache backend.
type Config struct {
	Backend string
	// Dir is the directory holding on-disk backends. Ignored for memory.
	Dir    string
	Logger *slog.Logger
}

// Open returns the cache described by cfg. An empty backend means memory.
func Open(cfg Config) (Cache, error) {
	switch cfg.Backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		return OpenSQLite(filepath.Join(cfg.Dir, "cache.db"))
	case BackendBadger:
		return OpenBadger(BadgerConfig{Path: filepath.Join(cfg.Dir, "badger"), Logger: cfg.Logger})
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
