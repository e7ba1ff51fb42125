package storage

import (
	"io"
)

// Storage is the blob store behind the attach table. Objects are keyed by
// the attach record's content hash; the relational row and the blob are
// only ever reconciled by the caller (compensating deletes, no
// transactions).
type Storage interface {
	// Save stores a blob and reports the number of bytes written.
	Save(key string, data io.Reader) (int64, error)

	// Open returns a reader over the blob's content.
	Open(key string) (io.ReadCloser, error)

	// Delete removes a blob. Deleting a missing key is not an error.
	Delete(key string) error
}
