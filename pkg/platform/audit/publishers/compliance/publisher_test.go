package compliance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/audit"
	"hrportal/pkg/platform/audit/store/memory"
	"hrportal/pkg/requestcontext"
)

const chromeOnMac = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

func TestPublisher_EnrichesFromRequestContext(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)

	appID := id.NewApplicationID()
	userID := id.UserID(uuid.New())
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	ctx := context.Background()
	ctx = requestcontext.WithTime(ctx, now)
	ctx = requestcontext.WithRequestID(ctx, "req-42")
	ctx = requestcontext.WithUserID(ctx, userID)
	ctx = requestcontext.WithClientMetadata(ctx, "203.0.113.9", chromeOnMac)

	err := pub.Emit(ctx, audit.Event{
		ApplicationID: appID,
		Action:        audit.EventApplicationSubmitted,
	})
	require.NoError(t, err)

	events, err := store.ListByApplication(ctx, appID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	got := events[0]
	assert.Equal(t, audit.CategoryCompliance, got.Category)
	assert.Equal(t, now, got.Timestamp)
	assert.Equal(t, "req-42", got.RequestID)
	assert.Equal(t, userID.String(), got.ActorID)
	assert.Equal(t, "203.0.113.9", got.ClientIP)
	assert.Contains(t, got.Browser, "Chrome")
	assert.NotEmpty(t, got.OS)

	pending, err := store.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "application", pending[0].AggregateType)
	assert.Equal(t, appID.String(), pending[0].AggregateID)
}

func TestPublisher_AdminActor(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := New(store)
	appID := id.NewApplicationID()

	ctx := requestcontext.WithAdmin(context.Background())
	require.NoError(t, pub.Emit(ctx, audit.Event{ApplicationID: appID, Action: audit.EventStatusChanged}))

	events, err := store.ListByApplication(ctx, appID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "admin", events[0].ActorID)
}

func TestPublisher_FailClosed(t *testing.T) {
	store := memory.NewInMemoryStore()
	store.FailWith(errors.New("outbox unavailable"))
	pub := New(store)

	err := pub.Emit(context.Background(), audit.Event{
		ApplicationID: id.NewApplicationID(),
		Action:        audit.EventContractUploaded,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "outbox unavailable")
}

func TestPublisher_RequiresSubject(t *testing.T) {
	pub := New(memory.NewInMemoryStore())

	err := pub.Emit(context.Background(), audit.Event{Action: audit.EventStatusChanged})
	require.Error(t, err)

	err = pub.Emit(context.Background(), audit.Event{ApplicationID: id.NewApplicationID()})
	require.Error(t, err)
}
