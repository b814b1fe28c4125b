package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/audit"
	txcontext "hrportal/pkg/platform/tx"
)

// InMemoryStore keeps audit events and their outbox entries in process. It backs
// the in-memory deployment and tests; the relay drains it like the Postgres outbox.
type InMemoryStore struct {
	mu      sync.RWMutex
	events  map[id.ApplicationID][]audit.Event
	outbox  []audit.OutboxEntry
	failErr error
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.ApplicationID][]audit.Event)}
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.ApplicationID][]audit.Event)
	s.outbox = nil
}

// FailWith makes subsequent Append calls fail; nil restores normal behaviour.
func (s *InMemoryStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *InMemoryStore) Append(ctx context.Context, event audit.Event) error {
	entry, err := audit.NewOutboxEntry(event)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.events[event.ApplicationID] = append(s.events[event.ApplicationID], event)
	s.outbox = append(s.outbox, entry)
	txcontext.RecordUndo(ctx, func() { s.drop(event.ApplicationID, entry.ID) })
	return nil
}

// drop removes an entry appended inside a unit of work that later failed.
func (s *InMemoryStore) drop(applicationID id.ApplicationID, entryID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.outbox) - 1; i >= 0; i-- {
		if s.outbox[i].ID == entryID {
			s.outbox = append(s.outbox[:i], s.outbox[i+1:]...)
			break
		}
	}
	if events := s.events[applicationID]; len(events) > 0 {
		s.events[applicationID] = events[:len(events)-1]
	}
}

func (s *InMemoryStore) ListByApplication(_ context.Context, applicationID id.ApplicationID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[applicationID]...), nil
}

func (s *InMemoryStore) FetchPending(_ context.Context, limit int) ([]audit.OutboxEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var pending []audit.OutboxEntry
	for _, e := range s.outbox {
		if e.PublishedAt != nil {
			continue
		}
		pending = append(pending, e)
		if limit > 0 && len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *InMemoryStore) MarkPublished(_ context.Context, ids []uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, i := range ids {
		set[i] = struct{}{}
	}
	for i := range s.outbox {
		if _, ok := set[s.outbox[i].ID]; ok && s.outbox[i].PublishedAt == nil {
			t := at
			s.outbox[i].PublishedAt = &t
		}
	}
	return nil
}
