package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/yndnr/dashlink/internal/core/domain"
)

// Common errors.
var (
	ErrKeyNotFound = domain.ErrKeyNotFound
	ErrClosed      = domain.ErrStorageClosed
)

// KV is a string key-value store.
//
// Implementations must be safe for concurrent use. Delete of a missing key
// is not an error.
type KV interface {
	// Get returns ErrKeyNotFound if key doesn't exist.
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Take reads key and deletes it. ok is false when the key was absent.
func Take(ctx context.Context, kv KV, key string) (value string, ok bool, err error) {
	value, err = kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %s: %w", key, err)
	}
	if err := kv.Delete(ctx, key); err != nil {
		return "", false, fmt.Errorf("delete %s: %w", key, err)
	}
	return value, true, nil
}

// Lookup is Get with a found flag instead of ErrKeyNotFound.
func Lookup(ctx context.Context, kv KV, key string) (string, bool, error) {
	value, err := kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// BadgerConfig contains Badger tuning parameters.
type BadgerConfig struct {
	// Dir is the storage directory.
	Dir string

	// InMemory runs Badger without touching disk. Dir is ignored.
	InMemory bool

	// GCInterval is the interval between automatic value log GC runs.
	// Default: 10m
	GCInterval string

	// GCThreshold is the discard ratio at which a value log file is
	// rewritten. Default: 0.5
	GCThreshold float64

	// CacheSize is the block cache size in bytes.
	// Default: 8MB
	CacheSize int64

	// ValueLogFileSize is the max value log file size in bytes.
	// Default: 64MB
	ValueLogFileSize int64

	// SyncWrites fsyncs after each write.
	// Default: true
	SyncWrites bool
}

// DefaultBadgerConfig returns the default Badger configuration for dir.
func DefaultBadgerConfig(dir string) BadgerConfig {
	return BadgerConfig{
		Dir:              dir,
		GCInterval:       "10m",
		GCThreshold:      0.5,
		CacheSize:        8 << 20,
		ValueLogFileSize: 64 << 20,
		SyncWrites:       true,
	}
}
