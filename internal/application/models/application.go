package models

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
)

const (
	MaxFullNameLength    = 200
	MaxEmailLength       = 254
	MaxCoverLetterLength = 5000
)

// Status is the lifecycle position of an application.
type Status string

const (
	StatusPending     Status = "pending"
	StatusReviewed    Status = "reviewed"
	StatusShortlisted Status = "shortlisted"
	StatusRejected    Status = "rejected"
	StatusHired       Status = "hired"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusShortlisted, StatusRejected, StatusHired:
		return true
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus validates a client supplied status.
func ParseStatus(raw string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown status %q", raw))
	}
	return s, nil
}

// Actor distinguishes the candidate from HR staff.
type Actor string

const (
	ActorCandidate Actor = "candidate"
	ActorAdmin     Actor = "admin"
)

// StatusChange is one entry of the status trail.
type StatusChange struct {
	From  Status    `json:"from"`
	To    Status    `json:"to"`
	At    time.Time `json:"at"`
	Actor Actor     `json:"actor"`
}

// RequestedDocsReview records an admin's verdict on the requested documents.
// It never changes Status.
type RequestedDocsReview struct {
	Approved   bool      `json:"approved"`
	ReviewedAt time.Time `json:"reviewedAt"`
	ReviewedBy string    `json:"reviewedBy"`
}

// CandidateInfo is the free-form part of a submission.
type CandidateInfo struct {
	FullName    string
	Email       string
	CoverLetter string
}

// Normalize trims surrounding whitespace.
func (c CandidateInfo) Normalize() CandidateInfo {
	c.FullName = strings.TrimSpace(c.FullName)
	c.Email = strings.TrimSpace(c.Email)
	c.CoverLetter = strings.TrimSpace(c.CoverLetter)
	return c
}

// Validate checks candidate fields. Call Normalize first.
func (c CandidateInfo) Validate() error {
	if c.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full name is required")
	}
	if utf8.RuneCountInString(c.FullName) > MaxFullNameLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("full name must be %d characters or less", MaxFullNameLength))
	}
	if c.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(c.Email) > MaxEmailLength {
		return dErrors.New(dErrors.CodeValidation, "email is too long")
	}
	addr, err := mail.ParseAddress(c.Email)
	if err != nil || addr.Address != c.Email || !strings.Contains(addr.Address[strings.LastIndex(addr.Address, "@")+1:], ".") {
		return dErrors.New(dErrors.CodeValidation, "email is malformed")
	}
	if utf8.RuneCountInString(c.CoverLetter) > MaxCoverLetterLength {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("cover letter must be %d characters or less", MaxCoverLetterLength))
	}
	return nil
}

// Application is the aggregate root for one candidate's application to one job.
//
// Invariants:
//   - at most one application per (JobID, UserID); the store enforces it
//   - AppliedAt never changes
//   - Status only moves along the transition table in lifecycle.go
//   - slots are written only while CheckGate allows it
//   - RequestedDocsSubmitted is set once and never cleared
type Application struct {
	ID          id.ApplicationID `json:"id"`
	JobID       id.JobID         `json:"jobId"`
	UserID      id.UserID        `json:"userId"`
	FullName    string           `json:"fullName"`
	Email       string           `json:"email"`
	CoverLetter string           `json:"coverLetter,omitempty"`
	Status      Status           `json:"status"`
	AppliedAt   time.Time        `json:"appliedAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
	Version     int64            `json:"version"`
	Documents   DocumentSet      `json:"documents"`

	RequestedDocsSubmitted   bool                 `json:"requestedDocsSubmitted"`
	RequestedDocsSubmittedAt *time.Time           `json:"requestedDocsSubmittedAt,omitempty"`
	RequestedDocsReview      *RequestedDocsReview `json:"requestedDocsReview,omitempty"`

	StatusHistory []StatusChange `json:"statusHistory"`
}

// NewApplication builds a pending application from validated input.
func NewApplication(
	appID id.ApplicationID,
	jobID id.JobID,
	userID id.UserID,
	info CandidateInfo,
	docs DocumentSet,
	now time.Time,
) (*Application, error) {
	info = info.Normalize()
	if err := info.Validate(); err != nil {
		return nil, err
	}
	if jobID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "job id is required")
	}
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "user id is required")
	}
	if !docs.Has(SlotResume) {
		return nil, dErrors.New(dErrors.CodeValidation, "resume is required")
	}
	if !docs.Has(SlotApplicationLetter) {
		return nil, dErrors.New(dErrors.CodeValidation, "application letter is required")
	}
	for _, slot := range AllSlots {
		if docs.Has(slot) && !isInitialSlot(slot) {
			return nil, dErrors.New(dErrors.CodeGateClosed, fmt.Sprintf("%s cannot be provided at submission", slot))
		}
	}
	return &Application{
		ID:            appID,
		JobID:         jobID,
		UserID:        userID,
		FullName:      info.FullName,
		Email:         info.Email,
		CoverLetter:   info.CoverLetter,
		Status:        StatusPending,
		AppliedAt:     now,
		UpdatedAt:     now,
		Version:       1,
		Documents:     docs.Clone(),
		StatusHistory: []StatusChange{},
	}, nil
}

// IsOwnedBy reports whether userID submitted the application.
func (a *Application) IsOwnedBy(userID id.UserID) bool {
	return !userID.IsNil() && a.UserID == userID
}

// Clone returns a deep copy so stores never share state with callers.
func (a *Application) Clone() *Application {
	out := *a
	out.Documents = a.Documents.Clone()
	out.StatusHistory = append([]StatusChange{}, a.StatusHistory...)
	if a.RequestedDocsSubmittedAt != nil {
		t := *a.RequestedDocsSubmittedAt
		out.RequestedDocsSubmittedAt = &t
	}
	if a.RequestedDocsReview != nil {
		r := *a.RequestedDocsReview
		out.RequestedDocsReview = &r
	}
	return &out
}
