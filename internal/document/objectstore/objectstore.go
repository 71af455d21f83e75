// Package objectstore abstracts the binary store that holds uploaded files.
// Objects live under per-type folder prefixes (profiles/, designations/,
// risks/). The filesystem implementation is the default; the interface keeps
// a bucket-backed implementation pluggable.
package objectstore

import (
	"context"
	"io"
)

// Store is the binary object collaborator.
type Store interface {
	// Put streams an object to path, overwriting any existing object.
	Put(ctx context.Context, path string, r io.Reader, size int64, contentType string) error
	// PublicURL returns the retrieval URL for an object path.
	PublicURL(path string) string
	// Remove deletes objects. Missing paths are not an error; each path is
	// attempted independently and the first failure is returned after all
	// attempts.
	Remove(ctx context.Context, paths ...string) error
}
