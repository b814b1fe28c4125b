// Package blob stores document payloads as immutable, write-once objects.
//
// Put stages the incoming stream on local disk while hashing it, enforces the
// caller's size ceiling, optionally verifies the content and only then commits
// it to a Backend. A Put either returns the committed blob or an error; callers
// never observe a partially written blob.
package blob

import (
	"context"
	"io"
	"time"

	id "hrportal/pkg/domain"
)

// Info is the metadata kept alongside every blob.
type Info struct {
	ID          id.BlobID
	Filename    string
	ContentType string
	Size        int64
	Checksum    string // hex blake2b-256
	CreatedAt   time.Time
}

// Object is a blob opened for reading. Callers must close Body.
type Object struct {
	Info
	Body io.ReadCloser
}

// Verifier inspects staged content before it is committed. It returns a
// validation error when the bytes do not match the declared content type.
type Verifier func(ctx context.Context, content io.ReaderAt, size int64, contentType string) error

// PutRequest describes an upload.
type PutRequest struct {
	Filename    string
	ContentType string
	// SizeHint is the size the client declared, or 0 when unknown.
	SizeHint int64
	// MaxSize is the ceiling for this upload. Zero means the store default.
	MaxSize int64
	Verify  Verifier
}

// Backend persists committed blobs. Write receives exactly info.Size bytes and
// must be atomic: after a failed Write the blob must not be observable.
// Missing blobs are reported with sentinel.ErrNotFound.
type Backend interface {
	Write(ctx context.Context, info Info, content io.Reader) error
	Open(ctx context.Context, blobID id.BlobID) (io.ReadCloser, Info, error)
	Stat(ctx context.Context, blobID id.BlobID) (Info, error)
	Remove(ctx context.Context, blobID id.BlobID) error
}
