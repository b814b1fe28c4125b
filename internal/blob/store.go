package blob

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/blake2b"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/sentinel"
	"hrportal/pkg/requestcontext"
)

// DefaultMaxSize applies when a PutRequest carries no ceiling.
const DefaultMaxSize int64 = 25 << 20

// Store is the blob facade used by the application service.
type Store struct {
	backend    Backend
	stagingDir string
	maxSize    int64
	retry      RetryPolicy
	logger     *slog.Logger
	metrics    *Metrics
}

// Option configures the Store.
type Option func(*Store)

// WithStagingDir sets where uploads are spooled before commit. Empty means os.TempDir.
func WithStagingDir(dir string) Option {
	return func(s *Store) { s.stagingDir = dir }
}

func WithMaxSize(n int64) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSize = n
		}
	}
}

func WithRetryPolicy(p RetryPolicy) Option {
	return func(s *Store) { s.retry = p }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(s *Store) { s.metrics = m }
}

func New(backend Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		maxSize: DefaultMaxSize,
		retry:   DefaultRetryPolicy,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Put streams r into a new blob. It fails with a validation error when the
// declared or actual size exceeds the ceiling, when the declared size disagrees
// with the bytes received, or when Verify rejects the content. Backend failures
// are retried from the staged copy and surface as storage errors.
func (s *Store) Put(ctx context.Context, r io.Reader, req PutRequest) (info Info, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("put", err, time.Since(start).Seconds()) }()

	limit := req.MaxSize
	if limit <= 0 {
		limit = s.maxSize
	}
	if req.SizeHint > limit {
		s.metrics.incRejected("declared_too_large")
		return Info{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s exceeds the %d byte limit", displayName(req.Filename), limit))
	}

	staged, err := os.CreateTemp(s.stagingDir, "blob-*")
	if err != nil {
		return Info{}, dErrors.Wrap(err, dErrors.CodeStorage, "file storage unavailable")
	}
	defer func() {
		_ = staged.Close()
		_ = os.Remove(staged.Name())
	}()

	hasher, err := blake2b.New256(nil)
	if err != nil {
		return Info{}, dErrors.Wrap(err, dErrors.CodeInternal, "init checksum")
	}
	n, err := io.Copy(io.MultiWriter(staged, hasher), io.LimitReader(contextReader{ctx: ctx, r: r}, limit+1))
	if err != nil {
		if ctx.Err() != nil {
			return Info{}, dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "upload aborted")
		}
		return Info{}, dErrors.Wrap(err, dErrors.CodeValidation, "read upload")
	}
	if n > limit {
		s.metrics.incRejected("too_large")
		return Info{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s exceeds the %d byte limit", displayName(req.Filename), limit))
	}
	if req.SizeHint > 0 && req.SizeHint != n {
		s.metrics.incRejected("size_mismatch")
		return Info{}, dErrors.New(dErrors.CodeValidation,
			fmt.Sprintf("%s declared %d bytes but %d were received", displayName(req.Filename), req.SizeHint, n))
	}

	if req.Verify != nil {
		if err := req.Verify(ctx, staged, n, req.ContentType); err != nil {
			s.metrics.incRejected("content")
			return Info{}, err
		}
	}

	info = Info{
		ID:          id.NewBlobID(),
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Size:        n,
		Checksum:    hex.EncodeToString(hasher.Sum(nil)),
		CreatedAt:   requestcontext.Now(ctx).UTC(),
	}

	_, err = retry(ctx, s.retry, s.onRetry(ctx, "put", info.ID), func() (struct{}, error) {
		return struct{}{}, s.backend.Write(ctx, info, io.NewSectionReader(staged, 0, n))
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "blob commit failed",
			"blob_id", info.ID,
			"size", n,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
		return Info{}, storageError(err)
	}

	s.metrics.addBytes(n)
	s.logger.DebugContext(ctx, "blob committed",
		"blob_id", info.ID,
		"size", n,
		"content_type", info.ContentType,
		"request_id", requestcontext.RequestID(ctx),
	)
	return info, nil
}

// Get opens a blob for streaming.
func (s *Store) Get(ctx context.Context, blobID id.BlobID) (obj *Object, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("get", err, time.Since(start).Seconds()) }()

	obj, err = retry(ctx, s.retry, s.onRetry(ctx, "get", blobID), func() (*Object, error) {
		body, info, err := s.backend.Open(ctx, blobID)
		if err != nil {
			return nil, err
		}
		return &Object{Info: info, Body: body}, nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "file not found")
		}
		return nil, storageError(err)
	}
	return obj, nil
}

// Stat returns a blob's metadata without opening it.
func (s *Store) Stat(ctx context.Context, blobID id.BlobID) (info Info, err error) {
	start := time.Now()
	defer func() { s.metrics.observe("stat", err, time.Since(start).Seconds()) }()

	info, err = retry(ctx, s.retry, s.onRetry(ctx, "stat", blobID), func() (Info, error) {
		return s.backend.Stat(ctx, blobID)
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Info{}, dErrors.New(dErrors.CodeNotFound, "file not found")
		}
		return Info{}, storageError(err)
	}
	return info, nil
}

// Delete removes a blob. Deleting an unknown blob succeeds.
func (s *Store) Delete(ctx context.Context, blobID id.BlobID) (err error) {
	start := time.Now()
	defer func() { s.metrics.observe("delete", err, time.Since(start).Seconds()) }()

	_, err = retry(ctx, s.retry, s.onRetry(ctx, "delete", blobID), func() (struct{}, error) {
		err := s.backend.Remove(ctx, blobID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return struct{}{}, nil
		}
		return struct{}{}, err
	})
	if err != nil {
		return storageError(err)
	}
	return nil
}

func (s *Store) onRetry(ctx context.Context, op string, blobID id.BlobID) func(int, error) {
	return func(attempt int, err error) {
		s.metrics.incRetry(op)
		s.logger.WarnContext(ctx, "blob backend call failed, retrying",
			"op", op,
			"blob_id", blobID,
			"attempt", attempt,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func storageError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "file storage timed out")
	}
	return dErrors.Wrap(err, dErrors.CodeStorage, "file storage unavailable")
}

func displayName(filename string) string {
	if filename == "" {
		return "file"
	}
	return fmt.Sprintf("%q", filename)
}

// contextReader stops a long upload copy once the request is cancelled.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
