// Package memory is an in-process blob backend for tests and single-node development.
//
// Write buffers each blob fully in the heap, so memory use grows with file size.
// The Store still stages uploads on disk first, but serving and storing are not
// bounded here; production deployments use the filesystem or s3 backend.
package memory

import (
	"bytes"
	"context"
	"io"
	"sync"

	"hrportal/internal/blob"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

type entry struct {
	info blob.Info
	data []byte
}

type Backend struct {
	mu    sync.RWMutex
	blobs map[id.BlobID]entry
}

func New() *Backend {
	return &Backend{blobs: make(map[id.BlobID]entry)}
}

func (b *Backend) Write(ctx context.Context, info blob.Info, content io.Reader) error {
	data, err := io.ReadAll(content)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[info.ID] = entry{info: info, data: data}
	return nil
}

func (b *Backend) Open(_ context.Context, blobID id.BlobID) (io.ReadCloser, blob.Info, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.blobs[blobID]
	if !ok {
		return nil, blob.Info{}, sentinel.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(e.data)), e.info, nil
}

func (b *Backend) Stat(_ context.Context, blobID id.BlobID) (blob.Info, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	e, ok := b.blobs[blobID]
	if !ok {
		return blob.Info{}, sentinel.ErrNotFound
	}
	return e.info, nil
}

func (b *Backend) Remove(_ context.Context, blobID id.BlobID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, blobID)
	return nil
}

// Len reports how many blobs are stored.
func (b *Backend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}

// IDs lists stored blob ids in no particular order.
func (b *Backend) IDs() []id.BlobID {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]id.BlobID, 0, len(b.blobs))
	for k := range b.blobs {
		out = append(out, k)
	}
	return out
}
