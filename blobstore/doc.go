// Package blobstore stores the immutable blobs a run reads and writes:
// encoded event chunks and saved outputs.
//
// BlobStore is a whole-object interface. Implementations must be safe for
// concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and small runs
//   - LocalStore: local filesystem with atomic rename on Put
//   - CachingStore: LRU cache of whole blobs in front of any BlobStore
//   - minio.Store: MinIO and other S3-compatible services
//   - s3.Store: Amazon S3, with multipart uploads for large blobs
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Get(ctx, name) ([]byte, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Get must return an error satisfying errors.Is(err, ErrNotFound) for a
// missing blob.
package blobstore
