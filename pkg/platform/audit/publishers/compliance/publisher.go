// Package compliance provides a fail-closed audit publisher for lifecycle events.
//
// Events are written to the outbox in the caller's transaction and the caller
// blocks until the write succeeds. If the write fails the business operation
// must fail with it.
package compliance

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mssola/useragent"

	"hrportal/pkg/platform/audit"
	"hrportal/pkg/requestcontext"
)

// Publisher emits lifecycle events with fail-closed semantics.
type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures the Publisher.
type Option func(*Publisher)

// WithLogger sets a logger for error reporting.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) {
		p.metrics = m
	}
}

// New creates a compliance publisher.
// The store must be outbox-backed for guaranteed delivery.
func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{
		store: store,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Emit enriches the event from the request context and writes it synchronously.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	start := time.Now()

	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if event.ApplicationID.IsNil() && event.BlobID.IsNil() {
		return fmt.Errorf("audit event %s requires an application or blob id", event.Action)
	}

	enrich(ctx, &event)

	if err := p.store.Append(ctx, event); err != nil {
		if p.metrics != nil {
			p.metrics.IncPersistFailures()
		}
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "CRITICAL: lifecycle audit failed",
				"action", event.Action,
				"application_id", event.ApplicationID,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		return fmt.Errorf("audit persistence failed: %w", err)
	}

	if p.metrics != nil {
		p.metrics.ObservePersistDuration(time.Since(start).Seconds())
		p.metrics.IncEventsEmitted(event.Action)
	}
	return nil
}

func enrich(ctx context.Context, event *audit.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	event.Category = event.Action.Category()
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.ActorID == "" {
		if requestcontext.IsAdmin(ctx) {
			event.ActorID = "admin"
		} else if uid := requestcontext.UserID(ctx); !uid.IsNil() {
			event.ActorID = uid.String()
		}
	}
	if event.ClientIP == "" {
		event.ClientIP = requestcontext.ClientIP(ctx)
	}
	if event.UserAgent == "" {
		event.UserAgent = requestcontext.UserAgent(ctx)
	}
	if event.UserAgent != "" && event.Browser == "" {
		ua := useragent.New(event.UserAgent)
		name, version := ua.Browser()
		if version != "" {
			name += " " + version
		}
		event.Browser = name
		event.OS = ua.OS()
	}
}
