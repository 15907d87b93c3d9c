package storage

import (
	"context"
	"errors"
)

// ErrUnknownDriver is returned for an unsupported STORAGE_DRIVER value
var ErrUnknownDriver = errors.New("unknown storage driver")

// Storage defines the interface for thread storage operations
type Storage interface {
	// AddThread inserts threadID if absent and reports whether a row was added.
	// Callers validate the id; the store only enforces uniqueness.
	AddThread(ctx context.Context, threadID string) (bool, error)

	// RemoveThread deletes threadID. Removing a missing id is not an error.
	RemoveThread(ctx context.Context, threadID string) error

	// ListThreads returns all ids in insertion order
	ListThreads(ctx context.Context) ([]string, error)

	// Lifecycle
	Initialize(ctx context.Context) error
	Close() error
}
