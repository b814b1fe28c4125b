package models

import (
	"fmt"
	"time"

	dErrors "hrportal/pkg/domain-errors"
)

// transitions lists the legal targets from each status. Hired and rejected are terminal.
var transitions = map[Status][]Status{
	StatusPending:     {StatusReviewed, StatusRejected},
	StatusReviewed:    {StatusShortlisted, StatusRejected},
	StatusShortlisted: {StatusHired, StatusRejected},
	StatusHired:       nil,
	StatusRejected:    nil,
}

// gates lists, per status, the slots that may be written after creation and who
// writes them. Slots filled at submission are absent: only intake writes them.
var gates = map[Status]map[Slot]Actor{
	StatusShortlisted: {
		SlotValidID:      ActorCandidate,
		SlotPortfolio:    ActorCandidate,
		SlotCertificates: ActorCandidate,
	},
	StatusHired: {
		SlotContract:       ActorAdmin,
		SlotSignedContract: ActorCandidate,
	},
}

var initialSlots = map[Slot]bool{
	SlotResume:            true,
	SlotApplicationLetter: true,
	SlotSupportingDocs:    true,
}

func isInitialSlot(slot Slot) bool { return initialSlots[slot] }

// CanTransitionTo reports whether target is a legal next status.
func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range transitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// NextStatuses lists legal targets from s.
func (s Status) NextStatuses() []Status {
	return append([]Status(nil), transitions[s]...)
}

// CheckGate decides whether actor may write slot while the application is in status.
func CheckGate(status Status, slot Slot, actor Actor) error {
	if !slot.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown document slot %q", slot))
	}
	writer, open := gates[status][slot]
	if !open {
		return dErrors.New(dErrors.CodeGateClosed,
			fmt.Sprintf("%s cannot be uploaded while the application is %s", slot, status))
	}
	if writer != actor {
		return dErrors.New(dErrors.CodeGateClosed,
			fmt.Sprintf("%s is uploaded by the %s", slot, writer))
	}
	return nil
}

// OpenSlots lists the slots actor may write in status.
func OpenSlots(status Status, actor Actor) []Slot {
	var out []Slot
	for _, slot := range AllSlots {
		if w, ok := gates[status][slot]; ok && w == actor {
			out = append(out, slot)
		}
	}
	return out
}

// Transition moves the application to target and appends to the status trail.
func (a *Application) Transition(target Status, actor Actor, now time.Time) error {
	if !target.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown status %q", target))
	}
	if actor != ActorAdmin {
		return dErrors.New(dErrors.CodeForbidden, "only administrators change application status")
	}
	if !a.Status.CanTransitionTo(target) {
		return dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("cannot move application from %s to %s", a.Status, target))
	}
	a.StatusHistory = append(a.StatusHistory, StatusChange{
		From:  a.Status,
		To:    target,
		At:    now,
		Actor: actor,
	})
	a.Status = target
	a.UpdatedAt = now
	return nil
}

// PutDocuments writes docs into slot after checking the gate. It returns the
// documents the write superseded; their blobs become unreferenced. The first
// time all requested slots are present the submission flag is set.
func (a *Application) PutDocuments(slot Slot, docs []Document, actor Actor, now time.Time) ([]Document, error) {
	if err := CheckGate(a.Status, slot, actor); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s requires at least one file", slot))
	}
	if !slot.IsMulti() && len(docs) > 1 {
		return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%s accepts a single file", slot))
	}
	superseded := a.Documents.Replace(slot, docs)
	a.UpdatedAt = now
	a.markRequestedDocsSubmitted(now)
	return superseded, nil
}

func (a *Application) markRequestedDocsSubmitted(now time.Time) {
	if a.RequestedDocsSubmitted {
		return
	}
	for _, slot := range RequestedSlots {
		if !a.Documents.Has(slot) {
			return
		}
	}
	a.RequestedDocsSubmitted = true
	t := now
	a.RequestedDocsSubmittedAt = &t
}

// ReviewRequestedDocs records an admin verdict. It never changes Status.
func (a *Application) ReviewRequestedDocs(approved bool, actor Actor, reviewer string, now time.Time) error {
	if actor != ActorAdmin {
		return dErrors.New(dErrors.CodeForbidden, "only administrators review requested documents")
	}
	if !a.RequestedDocsSubmitted {
		return dErrors.New(dErrors.CodeGateClosed, "requested documents have not been submitted")
	}
	a.RequestedDocsReview = &RequestedDocsReview{
		Approved:   approved,
		ReviewedAt: now,
		ReviewedBy: reviewer,
	}
	a.UpdatedAt = now
	return nil
}
