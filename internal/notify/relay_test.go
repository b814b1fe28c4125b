package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/audit"
	auditmemory "hrportal/pkg/platform/audit/store/memory"
	"hrportal/pkg/platform/circuit"
)

type fakeSink struct {
	mu       sync.Mutex
	batches  [][]audit.OutboxEntry
	failures int
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) Publish(_ context.Context, entries []audit.OutboxEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return errors.New("broker unavailable")
	}
	f.batches = append(f.batches, append([]audit.OutboxEntry(nil), entries...))
	return nil
}

func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) failNext(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures = n
}

func (f *fakeSink) delivered() []audit.OutboxEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []audit.OutboxEntry
	for _, b := range f.batches {
		out = append(out, b...)
	}
	return out
}

type RelaySuite struct {
	suite.Suite
	outbox *auditmemory.InMemoryStore
	sink   *fakeSink
	relay  *Relay
}

func TestRelaySuite(t *testing.T) {
	suite.Run(t, new(RelaySuite))
}

func (s *RelaySuite) SetupTest() {
	s.outbox = auditmemory.NewInMemoryStore()
	s.sink = &fakeSink{}
	s.relay = New(s.outbox, s.sink,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithBatchSize(2),
		WithPollInterval(5*time.Millisecond),
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2))),
	)
}

func (s *RelaySuite) appendEvents(n int) id.ApplicationID {
	appID := id.NewApplicationID()
	for i := 0; i < n; i++ {
		s.Require().NoError(s.outbox.Append(context.Background(), audit.Event{
			Action:        audit.EventStatusChanged,
			ApplicationID: appID,
			Timestamp:     time.Now(),
		}))
	}
	return appID
}

func (s *RelaySuite) pending() int {
	entries, err := s.outbox.FetchPending(context.Background(), 0)
	s.Require().NoError(err)
	return len(entries)
}

func (s *RelaySuite) TestTickPublishesOneBatch() {
	appID := s.appendEvents(3)

	n, err := s.relay.Tick(context.Background())
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal(1, s.pending())

	delivered := s.sink.delivered()
	s.Require().Len(delivered, 2)
	s.Equal("application", delivered[0].AggregateType)
	s.Equal(appID.String(), delivered[0].AggregateID)
	s.Equal(string(audit.EventStatusChanged), delivered[0].EventType)
}

func (s *RelaySuite) TestTickWithEmptyOutbox() {
	n, err := s.relay.Tick(context.Background())
	s.NoError(err)
	s.Zero(n)
	s.Empty(s.sink.delivered())
}

func (s *RelaySuite) TestDrainEmptiesOutbox() {
	s.appendEvents(5)

	n, err := s.relay.Drain(context.Background())
	s.Require().NoError(err)
	s.Equal(5, n)
	s.Zero(s.pending())
	s.Len(s.sink.delivered(), 5)
}

func (s *RelaySuite) TestFailedPublishLeavesEntriesPending() {
	s.appendEvents(2)
	s.sink.failNext(1)

	n, err := s.relay.Tick(context.Background())
	s.Error(err)
	s.Zero(n)
	s.Equal(2, s.pending())

	n, err = s.relay.Tick(context.Background())
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Zero(s.pending())
}

func (s *RelaySuite) TestOpenBreakerProbesWithSingleEntry() {
	s.appendEvents(3)
	s.sink.failNext(2)

	_, err := s.relay.Tick(context.Background())
	s.Error(err)
	_, err = s.relay.Tick(context.Background())
	s.Error(err)
	s.True(s.relay.breaker.IsOpen())

	n, err := s.relay.Tick(context.Background())
	s.Require().NoError(err)
	s.Equal(1, n, "probe sends a single entry")
	s.False(s.relay.breaker.IsOpen())

	n, err = s.relay.Tick(context.Background())
	s.Require().NoError(err)
	s.Equal(2, n)
}

func (s *RelaySuite) TestRunDeliversUntilCancelled() {
	s.appendEvents(4)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.relay.Run(ctx) }()

	s.Eventually(func() bool { return len(s.sink.delivered()) == 4 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		s.NoError(err)
	case <-time.After(time.Second):
		s.Fail("relay did not stop")
	}
}

func TestRoutingKey(t *testing.T) {
	entry, err := audit.NewOutboxEntry(audit.Event{
		Action:        audit.EventApplicationSubmitted,
		ApplicationID: id.NewApplicationID(),
	})
	require.NoError(t, err)
	assert.Equal(t, "application.application_submitted", RoutingKey(entry))
}

func TestLogSinkAcceptsEverything(t *testing.T) {
	sink := NewLogSink(slog.New(slog.NewTextHandler(io.Discard, nil)))
	entry, err := audit.NewOutboxEntry(audit.Event{Action: audit.EventBlobPurged})
	require.NoError(t, err)
	assert.NoError(t, sink.Publish(context.Background(), []audit.OutboxEntry{entry}))
	assert.Equal(t, "log", sink.Name())
}
