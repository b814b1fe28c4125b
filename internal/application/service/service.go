// Package service orchestrates the application lifecycle: intake, status
// transitions, gated document writes and document retrieval. Lifecycle rules
// live in models; this package adds storage, locking, transactions and events.
package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"hrportal/internal/application/intake"
	"hrportal/internal/application/lock"
	"hrportal/internal/application/metrics"
	"hrportal/internal/application/models"
	"hrportal/internal/blob"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/audit"
	"hrportal/pkg/platform/sentinel"
	"hrportal/pkg/requestcontext"
)

// Store persists applications. Implementations read the active transaction
// from ctx.
type Store interface {
	// Create inserts a new application. It returns sentinel.ErrAlreadyUsed when
	// the (job, user) pair already has one.
	Create(ctx context.Context, app *models.Application) error
	FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error)
	// FindByBlobID returns the application that references blobID.
	FindByBlobID(ctx context.Context, blobID id.BlobID) (*models.Application, error)
	// Update saves app if its Version still matches the stored one and then
	// increments app.Version. A mismatch is sentinel.ErrConflict.
	Update(ctx context.Context, app *models.Application) error
	ListByUser(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Application, int, error)
	IsBlobReferenced(ctx context.Context, blobID id.BlobID) (bool, error)
}

// BlobStore is the subset of *blob.Store the service needs.
type BlobStore interface {
	Put(ctx context.Context, r io.Reader, req blob.PutRequest) (blob.Info, error)
	Get(ctx context.Context, blobID id.BlobID) (*blob.Object, error)
	Delete(ctx context.Context, blobID id.BlobID) error
}

// AuditPublisher writes lifecycle events into the outbox.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Caller identifies who is acting.
type Caller struct {
	UserID id.UserID
	Admin  bool
}

// CallerFromContext reads the identity the auth middlewares stored.
func CallerFromContext(ctx context.Context) Caller {
	return Caller{
		UserID: requestcontext.UserID(ctx),
		Admin:  requestcontext.IsAdmin(ctx),
	}
}

func (c Caller) actor() models.Actor {
	if c.Admin {
		return models.ActorAdmin
	}
	return models.ActorCandidate
}

func (c Caller) reviewer() string {
	if c.Admin {
		return "admin"
	}
	return c.UserID.String()
}

// Upload is one validated-on-arrival file part. Open may be called more than once.
type Upload struct {
	intake.FileHeader
	Open func() (io.ReadCloser, error)
}

type Service struct {
	store    Store
	blobs    BlobStore
	tx       TxRunner
	locker   Locker
	profiles intake.Profiles
	auditor  AuditPublisher
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	parallel int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) { s.auditor = p }
}

func WithProfiles(p intake.Profiles) Option {
	return func(s *Service) { s.profiles = p }
}

func WithLocker(l Locker) Option {
	return func(s *Service) { s.locker = l }
}

func WithTxRunner(tx TxRunner) Option {
	return func(s *Service) { s.tx = tx }
}

// WithUploadParallelism bounds how many blobs one request writes at once.
func WithUploadParallelism(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.parallel = n
		}
	}
}

func New(store Store, blobs BlobStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		blobs:    blobs,
		tx:       NewMemoryTx(),
		locker:   lock.NewSharded(0),
		profiles: intake.DefaultProfiles(),
		logger:   slog.Default(),
		tracer:   otel.Tracer("hrportal/application"),
		parallel: 4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) emit(ctx context.Context, event audit.Event) error {
	if s.auditor == nil {
		return nil
	}
	return s.auditor.Emit(ctx, event)
}

func (s *Service) lock(ctx context.Context, appID id.ApplicationID) (func(), error) {
	return s.locker.Lock(ctx, "application:"+appID.String())
}

// load fetches an application the caller may see. Candidates only see their own;
// anything else looks like a missing record.
func (s *Service) load(ctx context.Context, appID id.ApplicationID, caller Caller) (*models.Application, error) {
	app, err := s.store.FindByID(ctx, appID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	if !caller.Admin && !app.IsOwnedBy(caller.UserID) {
		return nil, dErrors.New(dErrors.CodeNotFound, "application not found")
	}
	return app, nil
}

// save persists app and translates store facts into domain errors.
func (s *Service) save(ctx context.Context, app *models.Application) error {
	if err := s.store.Update(ctx, app); err != nil {
		switch {
		case errors.Is(err, sentinel.ErrConflict):
			return dErrors.New(dErrors.CodeConflict, "application was modified concurrently, retry the request")
		case errors.Is(err, sentinel.ErrNotFound):
			return dErrors.New(dErrors.CodeNotFound, "application not found")
		default:
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
		}
	}
	return nil
}

// discard deletes blobs that never became, or no longer are, referenced. Failures
// leave orphans for the privileged cleanup route and are only logged.
func (s *Service) discard(ctx context.Context, reason string, docs []models.Document) {
	ctx = context.WithoutCancel(ctx)
	for _, doc := range docs {
		if err := s.blobs.Delete(ctx, doc.BlobID); err != nil {
			if s.metrics != nil {
				s.metrics.IncOrphanedBlobs()
			}
			s.logger.WarnContext(ctx, "failed to delete blob",
				"reason", reason,
				"blob_id", doc.BlobID,
				"request_id", requestcontext.RequestID(ctx),
				"error", err,
			)
		}
	}
}

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC()
}
