// Package storage defines the key-value persistence interface and its implementations.
package storage

import "context"

// Storage is a small key-value store. Writes to different keys are
// independent; no transaction spans more than one key.
type Storage interface {
	// Get returns the value for key and whether it was present.
	Get(ctx context.Context, key string) (string, bool, error)
	Put(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	// List returns all entries whose key starts with prefix.
	List(ctx context.Context, prefix string) (map[string]string, error)

	Close() error
}
