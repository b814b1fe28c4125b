package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Payload is the JSON document published for each event.
type Payload struct {
	ID            string `json:"id"`
	Category      string `json:"category"`
	Timestamp     string `json:"timestamp"`
	Action        string `json:"action"`
	ApplicationID string `json:"application_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	JobID         string `json:"job_id,omitempty"`
	FromStatus    string `json:"from_status,omitempty"`
	ToStatus      string `json:"to_status,omitempty"`
	Slot          string `json:"slot,omitempty"`
	BlobID        string `json:"blob_id,omitempty"`
	Decision      string `json:"decision,omitempty"`
	Email         string `json:"email,omitempty"`
	RequestID     string `json:"request_id,omitempty"`
	ActorID       string `json:"actor_id,omitempty"`
	ClientIP      string `json:"client_ip,omitempty"`
	Browser       string `json:"browser,omitempty"`
	OS            string `json:"os,omitempty"`
}

// NewOutboxEntry builds the outbox row for an event. Events about an application
// are keyed by the application id so a partitioned broker keeps them ordered.
func NewOutboxEntry(event Event) (OutboxEntry, error) {
	eventID := uuid.New()
	category := event.Action.Category()

	payload := Payload{
		ID:         eventID.String(),
		Category:   string(category),
		Timestamp:  event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:     string(event.Action),
		JobID:      event.JobID.String(),
		FromStatus: event.FromStatus,
		ToStatus:   event.ToStatus,
		Slot:       event.Slot,
		Decision:   event.Decision,
		Email:      event.Email,
		RequestID:  event.RequestID,
		ActorID:    event.ActorID,
		ClientIP:   event.ClientIP,
		Browser:    event.Browser,
		OS:         event.OS,
	}
	if !event.ApplicationID.IsNil() {
		payload.ApplicationID = event.ApplicationID.String()
	}
	if !event.UserID.IsNil() {
		payload.UserID = event.UserID.String()
	}
	if !event.BlobID.IsNil() {
		payload.BlobID = event.BlobID.String()
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return OutboxEntry{}, fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	switch {
	case !event.ApplicationID.IsNil():
		aggregateType = "application"
		aggregateID = event.ApplicationID.String()
	case !event.BlobID.IsNil():
		aggregateType = "blob"
		aggregateID = event.BlobID.String()
	}

	return OutboxEntry{
		ID:            uuid.New(),
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     string(event.Action),
		Payload:       body,
		CreatedAt:     time.Now().UTC(),
	}, nil
}
