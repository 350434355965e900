package storage

import (
	"context"
	"errors"
)

// KV is the durable key-value contract used for history, preferences and
// credentials. Values are opaque bytes; callers own the encoding.
type KV interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Put replaces the value stored under key.
	Put(ctx context.Context, key string, value []byte) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// Driver names accepted by Open.
const (
	DriverFile     = "file"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

// ErrUnknownDriver is returned by Open for unsupported driver names.
var ErrUnknownDriver = errors.New("storage: unknown driver")

var errNoStore = errors.New("storage: no store configured")
