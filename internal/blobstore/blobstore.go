// Package blobstore abstracts the versioned object store that holds the
// ledger and the error feeds. The contract is a minimal get / compare-and-swap
// put over whole objects: a Put is accepted only if the caller's expected
// version matches the store's current version.
package blobstore

import (
	"context"
	"errors"
)

// Version is the opaque version token of a stored object (the content sha for
// the GitHub adapter). Tokens are compared only for equality.
type Version string

// VersionAbsent is the expected version for creating an object that does not
// exist yet. A Get of a missing object never returns it; missing objects are
// reported via ErrNotFound.
const VersionAbsent Version = ""

var (
	// ErrNotFound indicates the object does not exist in the store.
	ErrNotFound = errors.New("blobstore: object not found")
	// ErrVersionConflict indicates the expected version no longer matches the
	// store's current version: a concurrent writer won the race.
	ErrVersionConflict = errors.New("blobstore: version conflict")
)

// Object is a fetched object with its current version token.
type Object struct {
	Content []byte
	Version Version
}

// Client is the versioned object store contract the ledger is written
// against.
type Client interface {
	// Get fetches the object at key. Returns ErrNotFound if it does not
	// exist.
	Get(ctx context.Context, key string) (Object, error)
	// Put writes content to key if and only if the store's current version
	// equals expected (VersionAbsent to create). Returns the new version on
	// success and ErrVersionConflict if a concurrent write intervened.
	Put(ctx context.Context, key string, content []byte, expected Version) (Version, error)
}
