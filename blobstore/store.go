package blobstore

import (
	"context"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations should return an error that satisfies `errors.Is(err, ErrNotFound)`.
// The default maps to `os.ErrNotExist`.
var ErrNotFound = os.ErrNotExist

// BlobStore stores immutable, whole-object blobs: encoded event chunks and
// saved outputs. Implementations must be safe for concurrent use.
type BlobStore interface {
	// Get returns the full contents of the named blob.
	Get(ctx context.Context, name string) ([]byte, error)
	// Put writes the blob, replacing any previous contents. Readers never
	// observe a partially written blob.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the sorted names of all blobs with the given prefix.
	List(ctx context.Context, prefix string) ([]string, error)
}
