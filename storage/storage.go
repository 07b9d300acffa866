// Package storage abstracts project blob storage behind a small interface
// with /-delimited virtual paths, with Google Cloud Storage and local
// filesystem backends.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound reports a missing object.
var ErrNotFound = errors.New("object not found")

// Store reads and writes blobs addressed by /-delimited paths. Paths never
// start with a slash; a trailing slash on a prefix is not required.
type Store interface {
	Write(ctx context.Context, path string, data []byte) error
	Read(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
	Delete(ctx context.Context, path string) error
	// DeleteTree removes every object under prefix. Missing prefixes are
	// not an error.
	DeleteTree(ctx context.Context, prefix string) error
	// List returns the paths under prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}
