package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "hrportal/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers events that change a candidate's standing or the
	// custody of their documents. These must be persisted with the business change.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine activity with no legal significance.
	CategoryOperations EventCategory = "operations"
)

type AuditEvent string

const (
	EventApplicationSubmitted   AuditEvent = "application_submitted"
	EventStatusChanged          AuditEvent = "application_status_changed"
	EventRequestedDocsUploaded  AuditEvent = "requested_docs_uploaded"
	EventRequestedDocsSubmitted AuditEvent = "requested_docs_submitted"
	EventRequestedDocsReviewed  AuditEvent = "requested_docs_reviewed"
	EventContractUploaded       AuditEvent = "contract_uploaded"
	EventSignedContractUploaded AuditEvent = "signed_contract_uploaded"
	EventBlobPurged             AuditEvent = "blob_purged"
	EventDocumentDownloaded     AuditEvent = "document_downloaded"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventApplicationSubmitted:   CategoryCompliance,
	EventStatusChanged:          CategoryCompliance,
	EventRequestedDocsSubmitted: CategoryCompliance,
	EventRequestedDocsReviewed:  CategoryCompliance,
	EventContractUploaded:       CategoryCompliance,
	EventSignedContractUploaded: CategoryCompliance,
	EventBlobPurged:             CategoryCompliance,

	EventRequestedDocsUploaded: CategoryOperations,
	EventDocumentDownloaded:    CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Event is emitted from the application service to capture lifecycle actions.
// It is transport-agnostic; the outbox relay forwards it to the notification
// service, which owns delivery.
type Event struct {
	Category      EventCategory
	Timestamp     time.Time
	ApplicationID id.ApplicationID
	UserID        id.UserID
	JobID         id.JobID
	Action        AuditEvent
	FromStatus    string
	ToStatus      string
	Slot          string
	BlobID        id.BlobID
	Decision      string
	Email         string
	RequestID     string
	// ActorID is "admin" for admin-token requests, otherwise the candidate id.
	ActorID   string
	ClientIP  string
	UserAgent string
	Browser   string
	OS        string
}

// Store persists audit events. Outbox-backed implementations write into the
// caller's transaction when one is present in the context.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// OutboxEntry is one pending message for the relay.
type OutboxEntry struct {
	ID            uuid.UUID
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
	CreatedAt     time.Time
	PublishedAt   *time.Time
}

// OutboxStore is read by the relay.
type OutboxStore interface {
	FetchPending(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID, at time.Time) error
}
