// Package memory is the in-process application store used in development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"hrportal/internal/application/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
	txcontext "hrportal/pkg/platform/tx"
)

type jobUser struct {
	job  id.JobID
	user id.UserID
}

// InMemoryStore keeps applications as deep copies. The (job, user) index is
// checked and written under one lock, so uniqueness holds under concurrency.
type InMemoryStore struct {
	mu       sync.RWMutex
	byID     map[id.ApplicationID]*models.Application
	byJob    map[jobUser]id.ApplicationID
	blobRefs map[id.BlobID]id.ApplicationID
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byID:     make(map[id.ApplicationID]*models.Application),
		byJob:    make(map[jobUser]id.ApplicationID),
		blobRefs: make(map[id.BlobID]id.ApplicationID),
	}
}

func (s *InMemoryStore) Create(ctx context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := jobUser{job: app.JobID, user: app.UserID}
	if _, exists := s.byJob[key]; exists {
		return sentinel.ErrAlreadyUsed
	}
	if _, exists := s.byID[app.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	stored := app.Clone()
	s.byID[app.ID] = stored
	s.byJob[key] = app.ID
	s.indexBlobs(stored)

	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unindexBlobs(stored)
		delete(s.byID, app.ID)
		delete(s.byJob, key)
	})
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, appID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.byID[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return app.Clone(), nil
}

func (s *InMemoryStore) FindByBlobID(_ context.Context, blobID id.BlobID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appID, ok := s.blobRefs[blobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return s.byID[appID].Clone(), nil
}

func (s *InMemoryStore) Update(ctx context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[app.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if current.Version != app.Version {
		return sentinel.ErrConflict
	}
	app.Version++
	next := app.Clone()
	s.unindexBlobs(current)
	s.byID[app.ID] = next
	s.indexBlobs(next)

	txcontext.RecordUndo(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.unindexBlobs(next)
		s.byID[app.ID] = current
		s.indexBlobs(current)
	})
	return nil
}

func (s *InMemoryStore) ListByUser(_ context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Application, int, error) {
	filter = filter.Normalized()
	s.mu.RLock()
	var matched []*models.Application
	for _, app := range s.byID {
		if app.UserID != userID {
			continue
		}
		if !filter.JobID.IsNil() && app.JobID != filter.JobID {
			continue
		}
		matched = append(matched, app.Clone())
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].AppliedAt.Equal(matched[j].AppliedAt) {
			return matched[i].ID.String() < matched[j].ID.String()
		}
		return matched[i].AppliedAt.After(matched[j].AppliedAt)
	})
	total := len(matched)
	start := filter.Offset()
	if start >= total {
		return []*models.Application{}, total, nil
	}
	end := min(start+filter.Limit, total)
	return matched[start:end], total, nil
}

func (s *InMemoryStore) IsBlobReferenced(_ context.Context, blobID id.BlobID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.blobRefs[blobID]
	return ok, nil
}

func (s *InMemoryStore) indexBlobs(app *models.Application) {
	for _, blobID := range app.Documents.BlobIDs() {
		s.blobRefs[blobID] = app.ID
	}
}

func (s *InMemoryStore) unindexBlobs(app *models.Application) {
	for _, blobID := range app.Documents.BlobIDs() {
		delete(s.blobRefs, blobID)
	}
}
