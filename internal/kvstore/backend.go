// Package kvstore is the durable key/value layer the marketplace store
// snapshots its collections into.
package kvstore

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("kvstore: key not found")

// Backend persists opaque values under string keys. PutMany must apply all
// entries or none.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	PutMany(ctx context.Context, entries map[string][]byte) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}
