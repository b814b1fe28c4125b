package models

import (
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/testutil"
)

var allStatuses = []Status{StatusPending, StatusReviewed, StatusShortlisted, StatusRejected, StatusHired}

func TestTransition_EveryPair(t *testing.T) {
	legal := map[[2]Status]bool{
		{StatusPending, StatusReviewed}:     true,
		{StatusPending, StatusRejected}:     true,
		{StatusReviewed, StatusShortlisted}: true,
		{StatusReviewed, StatusRejected}:    true,
		{StatusShortlisted, StatusHired}:    true,
		{StatusShortlisted, StatusRejected}: true,
	}
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			t.Run(fmt.Sprintf("%s->%s", from, to), func(t *testing.T) {
				app := newTestApplication(t)
				app.Status = from

				err := app.Transition(to, ActorAdmin, now)
				if legal[[2]Status{from, to}] {
					require.NoError(t, err)
					assert.Equal(t, to, app.Status)
					require.Len(t, app.StatusHistory, 1)
					assert.Equal(t, StatusChange{From: from, To: to, At: now, Actor: ActorAdmin}, app.StatusHistory[0])
					return
				}
				require.Error(t, err)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition), "got %v", err)
				assert.Equal(t, from, app.Status, "status unchanged")
				assert.Empty(t, app.StatusHistory)
			})
		}
	}
}

func TestTransition_Guards(t *testing.T) {
	now := time.Now()

	t.Run("candidate cannot transition", func(t *testing.T) {
		app := newTestApplication(t)
		err := app.Transition(StatusReviewed, ActorCandidate, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown status", func(t *testing.T) {
		app := newTestApplication(t)
		err := app.Transition(Status("archived"), ActorAdmin, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("terminal statuses", func(t *testing.T) {
		assert.True(t, StatusHired.IsTerminal())
		assert.True(t, StatusRejected.IsTerminal())
		assert.False(t, StatusPending.IsTerminal())
	})
}

func TestCheckGate_EverySlotAndStatus(t *testing.T) {
	open := map[Status]map[Slot]Actor{
		StatusShortlisted: {SlotValidID: ActorCandidate, SlotPortfolio: ActorCandidate, SlotCertificates: ActorCandidate},
		StatusHired:       {SlotContract: ActorAdmin, SlotSignedContract: ActorCandidate},
	}

	for _, status := range allStatuses {
		for _, slot := range AllSlots {
			for _, actor := range []Actor{ActorCandidate, ActorAdmin} {
				t.Run(fmt.Sprintf("%s/%s/%s", status, slot, actor), func(t *testing.T) {
					err := CheckGate(status, slot, actor)
					if writer, ok := open[status][slot]; ok && writer == actor {
						assert.NoError(t, err)
						return
					}
					require.Error(t, err)
					assert.True(t, dErrors.HasCode(err, dErrors.CodeGateClosed), "got %v", err)
				})
			}
		}
	}
}

func TestOpenSlots(t *testing.T) {
	assert.Equal(t, []Slot{SlotValidID, SlotPortfolio, SlotCertificates}, OpenSlots(StatusShortlisted, ActorCandidate))
	assert.Equal(t, []Slot{SlotContract}, OpenSlots(StatusHired, ActorAdmin))
	assert.Equal(t, []Slot{SlotSignedContract}, OpenSlots(StatusHired, ActorCandidate))
	assert.Empty(t, OpenSlots(StatusPending, ActorCandidate))
	assert.Empty(t, OpenSlots(StatusRejected, ActorAdmin))
}

func TestPutDocuments(t *testing.T) {
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	t.Run("requested docs flag flips once when all three are present", func(t *testing.T) {
		app := newTestApplication(t)
		app.Status = StatusShortlisted

		_, err := app.PutDocuments(SlotValidID, []Document{doc("id.png")}, ActorCandidate, now)
		require.NoError(t, err)
		_, err = app.PutDocuments(SlotPortfolio, []Document{doc("portfolio.pdf")}, ActorCandidate, now)
		require.NoError(t, err)
		assert.False(t, app.RequestedDocsSubmitted)

		_, err = app.PutDocuments(SlotCertificates, []Document{doc("a.pdf"), doc("b.pdf")}, ActorCandidate, now)
		require.NoError(t, err)
		assert.True(t, app.RequestedDocsSubmitted)
		require.NotNil(t, app.RequestedDocsSubmittedAt)
		assert.Equal(t, now, *app.RequestedDocsSubmittedAt)

		later := now.Add(time.Hour)
		_, err = app.PutDocuments(SlotValidID, []Document{doc("id-v2.png")}, ActorCandidate, later)
		require.NoError(t, err)
		assert.Equal(t, now, *app.RequestedDocsSubmittedAt, "submission time is not moved by re-uploads")
	})

	t.Run("re-upload replaces and returns the superseded documents", func(t *testing.T) {
		app := newTestApplication(t)
		app.Status = StatusShortlisted

		first := []Document{doc("a.pdf"), doc("b.pdf")}
		_, err := app.PutDocuments(SlotCertificates, first, ActorCandidate, now)
		require.NoError(t, err)

		replacement := []Document{doc("c.pdf")}
		superseded, err := app.PutDocuments(SlotCertificates, replacement, ActorCandidate, now)
		require.NoError(t, err)
		assert.Equal(t, first, superseded)
		assert.Equal(t, replacement, app.Documents.Get(SlotCertificates))
	})

	t.Run("single slot rejects several files", func(t *testing.T) {
		app := newTestApplication(t)
		app.Status = StatusHired
		_, err := app.PutDocuments(SlotContract, []Document{doc("a.pdf"), doc("b.pdf")}, ActorAdmin, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("closed gate leaves documents untouched", func(t *testing.T) {
		app := newTestApplication(t)
		before := app.Documents.Clone()
		_, err := app.PutDocuments(SlotCertificates, []Document{doc("a.pdf")}, ActorCandidate, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGateClosed))
		assert.Equal(t, before, app.Documents)
	})
}

func TestReviewRequestedDocs(t *testing.T) {
	now := time.Now().UTC()

	t.Run("before submission the gate is closed", func(t *testing.T) {
		app := newTestApplication(t)
		app.Status = StatusShortlisted
		err := app.ReviewRequestedDocs(true, ActorAdmin, "admin", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGateClosed))
		assert.Nil(t, app.RequestedDocsReview)
	})

	t.Run("review is recorded without touching status", func(t *testing.T) {
		app := newTestApplication(t)
		app.Status = StatusShortlisted
		for _, slot := range RequestedSlots {
			_, err := app.PutDocuments(slot, []Document{doc(string(slot) + ".pdf")}, ActorCandidate, now)
			require.NoError(t, err)
		}

		require.NoError(t, app.ReviewRequestedDocs(false, ActorAdmin, "admin", now))
		require.NotNil(t, app.RequestedDocsReview)
		assert.False(t, app.RequestedDocsReview.Approved)
		assert.Equal(t, StatusShortlisted, app.Status)

		require.NoError(t, app.ReviewRequestedDocs(true, ActorAdmin, "admin", now))
		assert.True(t, app.RequestedDocsReview.Approved)
		assert.Equal(t, StatusShortlisted, app.Status)
	})
}

func TestHiringLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	app := newTestApplication(t)

	testutil.Given(t, "a pending application", func(t *testing.T) {
		assert.Equal(t, StatusPending, app.Status)
		assert.Empty(t, OpenSlots(app.Status, ActorCandidate))
	})

	testutil.When(t, "HR shortlists it", func(t *testing.T) {
		require.NoError(t, app.Transition(StatusReviewed, ActorAdmin, now))
		require.NoError(t, app.Transition(StatusShortlisted, ActorAdmin, now.Add(time.Hour)))
	})

	testutil.Then(t, "the candidate may upload requested documents only", func(t *testing.T) {
		assert.Equal(t, RequestedSlots, OpenSlots(app.Status, ActorCandidate))
		_, err := app.PutDocuments(SlotSignedContract, []Document{doc("signed.pdf")}, ActorCandidate, now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeGateClosed))
	})

	testutil.When(t, "the candidate is hired", func(t *testing.T) {
		require.NoError(t, app.Transition(StatusHired, ActorAdmin, now.Add(2*time.Hour)))
	})

	testutil.Then(t, "contract slots open and the trail is complete", func(t *testing.T) {
		assert.Equal(t, []Slot{SlotContract}, OpenSlots(app.Status, ActorAdmin))
		assert.Equal(t, []Slot{SlotSignedContract}, OpenSlots(app.Status, ActorCandidate))
		require.Len(t, app.StatusHistory, 3)
		assert.Equal(t, StatusHired, app.StatusHistory[2].To)
		assert.True(t, app.Status.IsTerminal())
	})
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()
	docs := DocumentSet{}
	docs.Replace(SlotResume, []Document{doc("cv.pdf")})
	docs.Replace(SlotApplicationLetter, []Document{doc("letter.pdf")})
	app, err := NewApplication(
		id.NewApplicationID(),
		id.JobID("job-123"),
		id.UserID(uuid.New()),
		CandidateInfo{FullName: "Ada Lovelace", Email: "ada@example.com"},
		docs,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return app
}

func doc(name string) Document {
	return Document{
		BlobID:      id.NewBlobID(),
		Filename:    name,
		Size:        10,
		ContentType: "application/pdf",
		UploadedAt:  time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}
