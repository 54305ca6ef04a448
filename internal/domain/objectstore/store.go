// Package objectstore defines the durable storage capability shared by the
// recording service and the ledger.
package objectstore

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when no object exists under the key.
// Backends must wrap it so callers can match with errors.Is.
var ErrNotFound = errors.New("object not found")

// Store persists opaque objects under caller chosen keys.
type Store interface {
	// Put writes data under key, replacing any previous object, and returns a
	// resolvable location for it.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	// Get reads the whole object stored under key.
	Get(ctx context.Context, key string) ([]byte, error)
}
