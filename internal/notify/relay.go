// Package notify forwards outbox entries to the notification broker. Entries
// are written in the same transaction as the business change; the relay
// delivers them at least once and marks them published afterwards.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"hrportal/pkg/platform/audit"
	"hrportal/pkg/platform/circuit"
)

// Sink delivers a batch of outbox entries. It either delivers every entry or
// returns an error; the relay retries the whole batch on the next tick.
type Sink interface {
	Name() string
	Publish(ctx context.Context, entries []audit.OutboxEntry) error
	Close() error
}

// Relay polls the outbox and hands pending entries to a Sink.
type Relay struct {
	outbox   audit.OutboxStore
	sink     Sink
	logger   *slog.Logger
	metrics  *Metrics
	breaker  *circuit.Breaker
	interval time.Duration
	backoff  time.Duration
	batch    int
	now      func() time.Time
}

type Option func(*Relay)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Relay) { r.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(r *Relay) { r.metrics = m }
}

func WithPollInterval(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

// WithBackoff sets the poll interval used while the breaker is open.
func WithBackoff(d time.Duration) Option {
	return func(r *Relay) {
		if d > 0 {
			r.backoff = d
		}
	}
}

func WithBatchSize(n int) Option {
	return func(r *Relay) {
		if n > 0 {
			r.batch = n
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(r *Relay) { r.breaker = b }
}

func WithClock(now func() time.Time) Option {
	return func(r *Relay) { r.now = now }
}

func New(outbox audit.OutboxStore, sink Sink, opts ...Option) *Relay {
	r := &Relay{
		outbox:   outbox,
		sink:     sink,
		logger:   slog.Default(),
		interval: time.Second,
		batch:    100,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.backoff == 0 {
		r.backoff = 10 * r.interval
	}
	if r.breaker == nil {
		r.breaker = circuit.New("outbox:"+sink.Name(), circuit.WithFailureThreshold(3))
	}
	return r
}

// Run polls until ctx is cancelled. A failed tick is logged and retried; only
// cancellation ends the loop.
func (r *Relay) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "outbox relay started",
		"sink", r.sink.Name(),
		"interval", r.interval.String(),
		"batch_size", r.batch,
	)
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.InfoContext(context.WithoutCancel(ctx), "outbox relay stopped", "sink", r.sink.Name())
			return nil
		case <-timer.C:
		}

		n, err := r.Tick(ctx)
		switch {
		case err != nil && ctx.Err() == nil:
			r.logger.WarnContext(ctx, "outbox delivery failed",
				"sink", r.sink.Name(),
				"error", err,
				"breaker_open", r.breaker.IsOpen(),
			)
		case n > 0:
			r.logger.DebugContext(ctx, "outbox entries delivered", "sink", r.sink.Name(), "count", n)
		}

		next := r.interval
		if r.breaker.IsOpen() {
			next = r.backoff
		}
		// a full batch means more are probably waiting
		if n == r.batch && err == nil {
			next = 0
		}
		timer.Reset(next)
	}
}

// Tick delivers at most one batch and returns how many entries were published.
// While the breaker is open a single entry is sent as a probe.
func (r *Relay) Tick(ctx context.Context) (int, error) {
	limit := r.batch
	if r.breaker.IsOpen() {
		limit = 1
	}
	entries, err := r.outbox.FetchPending(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("fetch outbox: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	start := r.now()
	if err := r.sink.Publish(ctx, entries); err != nil {
		r.metrics.failed(r.sink.Name())
		if _, change := r.breaker.RecordFailure(); change.Opened {
			r.metrics.breakerState(true)
			r.logger.ErrorContext(ctx, "outbox breaker opened", "sink", r.sink.Name(), "error", err)
		}
		return 0, fmt.Errorf("publish to %s: %w", r.sink.Name(), err)
	}
	r.metrics.observeBatch(r.now().Sub(start).Seconds())
	if _, change := r.breaker.RecordSuccess(); change.Closed {
		r.metrics.breakerState(false)
		r.logger.InfoContext(ctx, "outbox breaker closed", "sink", r.sink.Name())
	}

	ids := make([]uuid.UUID, len(entries))
	for i, e := range entries {
		ids[i] = e.ID
	}
	// the broker already has them; a failure here means redelivery, not loss
	if err := r.outbox.MarkPublished(context.WithoutCancel(ctx), ids, r.now().UTC()); err != nil {
		return 0, fmt.Errorf("mark published: %w", err)
	}
	r.metrics.published(r.sink.Name(), len(entries))
	return len(entries), nil
}

// Drain delivers until the outbox is empty or a tick fails. Used on shutdown.
func (r *Relay) Drain(ctx context.Context) (int, error) {
	total := 0
	for {
		n, err := r.Tick(ctx)
		total += n
		if err != nil {
			return total, err
		}
		if n == 0 {
			return total, nil
		}
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}

// LogSink records entries in the process log. It backs deployments without a
// broker so the outbox still drains.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Publish(ctx context.Context, entries []audit.OutboxEntry) error {
	for _, e := range entries {
		s.logger.InfoContext(ctx, "application event",
			"event_type", e.EventType,
			"aggregate_type", e.AggregateType,
			"aggregate_id", e.AggregateID,
			"outbox_id", e.ID.String(),
		)
	}
	return nil
}

func (s *LogSink) Close() error { return nil }

var errClosed = errors.New("sink is closed")
