// Package filesystem stores blobs under a local directory. Each blob is a data
// file plus a JSON sidecar; both are written to temporary names and renamed into
// place, data last, so a blob exists only once it is complete.
package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"hrportal/internal/blob"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
)

type Backend struct {
	root string
}

// New creates the root directory if needed.
func New(root string) (*Backend, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &Backend{root: root}, nil
}

type sidecar struct {
	ID          string    `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Checksum    string    `json:"checksum"`
	CreatedAt   time.Time `json:"created_at"`
}

// paths fans blobs out over 256 directories keyed by the first id byte.
func (b *Backend) paths(blobID id.BlobID) (dir, data, meta string) {
	s := blobID.String()
	dir = filepath.Join(b.root, s[:2])
	return dir, filepath.Join(dir, s), filepath.Join(dir, s+".json")
}

func (b *Backend) Write(ctx context.Context, info blob.Info, content io.Reader) error {
	dir, dataPath, metaPath := b.paths(info.ID)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create blob dir: %w", err)
	}

	meta, err := json.Marshal(sidecar{
		ID:          info.ID.String(),
		Filename:    info.Filename,
		ContentType: info.ContentType,
		Size:        info.Size,
		Checksum:    info.Checksum,
		CreatedAt:   info.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("encode blob metadata: %w", err)
	}
	if err := writeAtomic(metaPath, func(f *os.File) error {
		_, err := f.Write(meta)
		return err
	}); err != nil {
		return err
	}

	err = writeAtomic(dataPath, func(f *os.File) error {
		n, err := io.Copy(f, content)
		if err != nil {
			return err
		}
		if n != info.Size {
			return fmt.Errorf("short write: %d of %d bytes", n, info.Size)
		}
		return ctx.Err()
	})
	if err != nil {
		_ = os.Remove(metaPath)
		return err
	}
	return nil
}

func writeAtomic(path string, fill func(f *os.File) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}
	if err := fill(tmp); err != nil {
		cleanup()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (b *Backend) Open(ctx context.Context, blobID id.BlobID) (io.ReadCloser, blob.Info, error) {
	info, err := b.Stat(ctx, blobID)
	if err != nil {
		return nil, blob.Info{}, err
	}
	_, dataPath, _ := b.paths(blobID)
	f, err := os.Open(dataPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, blob.Info{}, sentinel.ErrNotFound
		}
		return nil, blob.Info{}, fmt.Errorf("open blob: %w", err)
	}
	return f, info, nil
}

func (b *Backend) Stat(_ context.Context, blobID id.BlobID) (blob.Info, error) {
	_, dataPath, metaPath := b.paths(blobID)
	if _, err := os.Stat(dataPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return blob.Info{}, sentinel.ErrNotFound
		}
		return blob.Info{}, fmt.Errorf("stat blob: %w", err)
	}
	raw, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return blob.Info{}, sentinel.ErrNotFound
		}
		return blob.Info{}, fmt.Errorf("read blob metadata: %w", err)
	}
	var meta sidecar
	if err := json.Unmarshal(raw, &meta); err != nil {
		return blob.Info{}, fmt.Errorf("decode blob metadata: %w", err)
	}
	return blob.Info{
		ID:          blobID,
		Filename:    meta.Filename,
		ContentType: meta.ContentType,
		Size:        meta.Size,
		Checksum:    meta.Checksum,
		CreatedAt:   meta.CreatedAt,
	}, nil
}

// Remove deletes the data file first so a concurrent reader never finds data
// without metadata.
func (b *Backend) Remove(_ context.Context, blobID id.BlobID) error {
	_, dataPath, metaPath := b.paths(blobID)
	for _, p := range []string{dataPath, metaPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove blob: %w", err)
		}
	}
	return nil
}
