//go:build integration

package postgres_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"hrportal/internal/application/models"
	"hrportal/internal/application/store/postgres"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
	txcontext "hrportal/pkg/platform/tx"
	"hrportal/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(),
		"application_status_history", "application_documents", "applications")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) newApp(job id.JobID, user id.UserID) *models.Application {
	at := time.Now().UTC().Truncate(time.Microsecond)
	docs := models.DocumentSet{}
	docs.Replace(models.SlotResume, []models.Document{{
		BlobID: id.NewBlobID(), Filename: "cv.pdf", Size: 10, ContentType: "application/pdf", Checksum: "abc", UploadedAt: at,
	}})
	docs.Replace(models.SlotApplicationLetter, []models.Document{{
		BlobID: id.NewBlobID(), Filename: "letter.pdf", Size: 12, ContentType: "application/pdf", Checksum: "def", UploadedAt: at,
	}})
	docs.Replace(models.SlotSupportingDocs, []models.Document{
		{BlobID: id.NewBlobID(), Filename: "a.pdf", Size: 1, ContentType: "application/pdf", UploadedAt: at},
		{BlobID: id.NewBlobID(), Filename: "b.pdf", Size: 2, ContentType: "application/pdf", UploadedAt: at},
	})
	app, err := models.NewApplication(id.NewApplicationID(), job, user, models.CandidateInfo{
		FullName: "Grace Hopper",
		Email:    "grace@example.com",
	}, docs, at)
	s.Require().NoError(err)
	return app
}

func (s *PostgresStoreSuite) TestCreateAndFindRoundTrip() {
	ctx := context.Background()
	app := s.newApp("job-1", id.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, app))

	got, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(app.JobID, got.JobID)
	s.Equal(models.StatusPending, got.Status)
	s.Equal(app.Documents.Resume.BlobID, got.Documents.Resume.BlobID)
	s.Require().Len(got.Documents.SupportingDocs, 2)
	s.Equal("a.pdf", got.Documents.SupportingDocs[0].Filename)
	s.Equal("b.pdf", got.Documents.SupportingDocs[1].Filename)
}

func (s *PostgresStoreSuite) TestDuplicateJobUserIsAlreadyUsed() {
	ctx := context.Background()
	user := id.UserID(uuid.New())
	s.Require().NoError(s.store.Create(ctx, s.newApp("job-1", user)))
	err := s.store.Create(ctx, s.newApp("job-1", user))
	s.ErrorIs(err, sentinel.ErrAlreadyUsed)
}

func (s *PostgresStoreSuite) TestConcurrentCreateOnlyOneWins() {
	user := id.UserID(uuid.New())
	const n = 20
	apps := make([]*models.Application, n)
	for i := range apps {
		apps[i] = s.newApp("job-race", user)
	}

	var created, duplicates atomic.Int32
	var wg sync.WaitGroup
	for _, app := range apps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.store.Create(context.Background(), app)
			switch {
			case err == nil:
				created.Add(1)
			case errors.Is(err, sentinel.ErrAlreadyUsed):
				duplicates.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), created.Load())
	s.Equal(int32(n-1), duplicates.Load())
}

func (s *PostgresStoreSuite) TestUpdatePersistsHistoryAndDocuments() {
	ctx := context.Background()
	app := s.newApp("job-1", id.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, app))

	now := time.Now().UTC().Truncate(time.Microsecond)
	s.Require().NoError(app.Transition(models.StatusReviewed, models.ActorAdmin, now))
	s.Require().NoError(s.store.Update(ctx, app))
	s.Require().NoError(app.Transition(models.StatusShortlisted, models.ActorAdmin, now))
	s.Require().NoError(s.store.Update(ctx, app))

	cert := models.Document{BlobID: id.NewBlobID(), Filename: "cert.pdf", ContentType: "application/pdf", UploadedAt: now}
	for _, slot := range models.RequestedSlots {
		_, err := app.PutDocuments(slot, []models.Document{{BlobID: id.NewBlobID(), Filename: string(slot), UploadedAt: now}}, models.ActorCandidate, now)
		s.Require().NoError(err)
	}
	_, err := app.PutDocuments(models.SlotCertificates, []models.Document{cert}, models.ActorCandidate, now)
	s.Require().NoError(err)
	s.Require().NoError(app.ReviewRequestedDocs(true, models.ActorAdmin, "admin", now))
	s.Require().NoError(s.store.Update(ctx, app))

	got, err := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusShortlisted, got.Status)
	s.Equal(int64(4), got.Version)
	s.Require().Len(got.StatusHistory, 2)
	s.Equal(models.StatusReviewed, got.StatusHistory[0].To)
	s.True(got.RequestedDocsSubmitted)
	s.Require().NotNil(got.RequestedDocsReview)
	s.True(got.RequestedDocsReview.Approved)
	s.Require().Len(got.Documents.Certificates, 1)
	s.Equal(cert.BlobID, got.Documents.Certificates[0].BlobID)

	ref, err := s.store.IsBlobReferenced(ctx, cert.BlobID)
	s.Require().NoError(err)
	s.True(ref)
	owner, err := s.store.FindByBlobID(ctx, cert.BlobID)
	s.Require().NoError(err)
	s.Equal(app.ID, owner.ID)
}

func (s *PostgresStoreSuite) TestStaleVersionConflicts() {
	ctx := context.Background()
	app := s.newApp("job-1", id.UserID(uuid.New()))
	s.Require().NoError(s.store.Create(ctx, app))

	a, _ := s.store.FindByID(ctx, app.ID)
	b, _ := s.store.FindByID(ctx, app.ID)
	s.Require().NoError(a.Transition(models.StatusReviewed, models.ActorAdmin, time.Now()))
	s.Require().NoError(s.store.Update(ctx, a))
	s.Require().NoError(b.Transition(models.StatusRejected, models.ActorAdmin, time.Now()))
	s.ErrorIs(s.store.Update(ctx, b), sentinel.ErrConflict)

	missing := s.newApp("job-x", id.UserID(uuid.New()))
	s.ErrorIs(s.store.Update(ctx, missing), sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestRollbackLeavesNothing() {
	app := s.newApp("job-1", id.UserID(uuid.New()))
	tx, err := s.postgres.DB.BeginTx(context.Background(), nil)
	s.Require().NoError(err)
	ctx := txcontext.WithTx(context.Background(), tx)
	s.Require().NoError(s.store.Create(ctx, app))
	s.Require().NoError(tx.Rollback())

	_, err = s.store.FindByID(context.Background(), app.ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
	ref, err := s.store.IsBlobReferenced(context.Background(), app.Documents.Resume.BlobID)
	s.Require().NoError(err)
	s.False(ref)
}

func (s *PostgresStoreSuite) TestListByUserPaginates() {
	ctx := context.Background()
	user := id.UserID(uuid.New())
	for _, job := range []id.JobID{"a", "b", "c"} {
		s.Require().NoError(s.store.Create(ctx, s.newApp(job, user)))
	}
	s.Require().NoError(s.store.Create(ctx, s.newApp("a", id.UserID(uuid.New()))))

	items, total, err := s.store.ListByUser(ctx, user, models.ListFilter{Page: 1, Limit: 2})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Len(items, 2)
	s.NotNil(items[0].Documents.Resume)

	items, total, err = s.store.ListByUser(ctx, user, models.ListFilter{JobID: "b"})
	s.Require().NoError(err)
	s.Equal(1, total)
	s.Require().Len(items, 1)
	s.Equal(id.JobID("b"), items[0].JobID)
}
