package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"hrportal/internal/application/intake"
	"hrportal/internal/application/models"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/audit"
	"hrportal/pkg/requestcontext"
)

// documentWrite describes one gated upload path.
type documentWrite struct {
	name    string
	profile intake.Profile
	slots   []models.Slot
	event   audit.AuditEvent
}

// SubmitRequestedDocs stores the shortlisted-stage documents. Any subset of the
// three slots may be sent; the submission flag flips once all are present.
func (s *Service) SubmitRequestedDocs(ctx context.Context, caller Caller, appID id.ApplicationID, files []Upload) (*models.Application, error) {
	return s.writeDocuments(ctx, caller, appID, files, documentWrite{
		name:    "requested_docs",
		profile: s.profiles.RequestedDocs,
		slots:   models.RequestedSlots,
		event:   audit.EventRequestedDocsUploaded,
	})
}

// UploadContract stores the offer contract. Admin only, hired only.
func (s *Service) UploadContract(ctx context.Context, caller Caller, appID id.ApplicationID, file Upload) (*models.Application, error) {
	file.Slot = models.SlotContract
	return s.writeDocuments(ctx, caller, appID, []Upload{file}, documentWrite{
		name:    "contract",
		profile: s.profiles.Contract,
		slots:   []models.Slot{models.SlotContract},
		event:   audit.EventContractUploaded,
	})
}

// UploadSignedContract stores the candidate's countersigned contract.
func (s *Service) UploadSignedContract(ctx context.Context, caller Caller, appID id.ApplicationID, file Upload) (*models.Application, error) {
	file.Slot = models.SlotSignedContract
	return s.writeDocuments(ctx, caller, appID, []Upload{file}, documentWrite{
		name:    "signed_contract",
		profile: s.profiles.Contract,
		slots:   []models.Slot{models.SlotSignedContract},
		event:   audit.EventSignedContractUploaded,
	})
}

func (s *Service) writeDocuments(ctx context.Context, caller Caller, appID id.ApplicationID, files []Upload, w documentWrite) (app *models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "application.documents."+w.name)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, dErrors.MessageOf(err))
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("application_id", appID.String()))

	files = normalize(files)
	if len(files) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one file is required")
	}
	for _, f := range files {
		if !containsSlot(w.slots, f.Slot) {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("%q is not accepted here", f.Slot))
		}
	}

	current, err := s.load(ctx, appID, caller)
	if err != nil {
		return nil, err
	}
	// Cheap gate check before any bytes move. It is repeated under the lock.
	if err := s.checkGates(current, files, caller); err != nil {
		return nil, err
	}
	if err := w.profile.CheckAll(headers(files)); err != nil {
		return nil, err
	}

	at := now(ctx)
	stored, err := s.storeAll(ctx, w.profile, files, at)
	if err != nil {
		return nil, err
	}

	var superseded []models.Document
	app, err = s.mutate(ctx, appID, caller, func(txCtx context.Context, app *models.Application) error {
		if err := s.checkGates(app, files, caller); err != nil {
			return err
		}
		wasSubmitted := app.RequestedDocsSubmitted
		for slot, docs := range bySlot(stored) {
			prev, err := app.PutDocuments(slot, docs, caller.actor(), at)
			if err != nil {
				return err
			}
			superseded = append(superseded, prev...)
		}
		if err := s.save(txCtx, app); err != nil {
			return err
		}
		for _, f := range stored {
			if err := s.emit(txCtx, audit.Event{
				Action:        w.event,
				ApplicationID: app.ID,
				UserID:        app.UserID,
				JobID:         app.JobID,
				Slot:          string(f.slot),
				BlobID:        f.doc.BlobID,
				ToStatus:      string(app.Status),
			}); err != nil {
				return err
			}
		}
		if !wasSubmitted && app.RequestedDocsSubmitted {
			return s.emit(txCtx, audit.Event{
				Action:        audit.EventRequestedDocsSubmitted,
				ApplicationID: app.ID,
				UserID:        app.UserID,
				JobID:         app.JobID,
				ToStatus:      string(app.Status),
				Email:         app.Email,
			})
		}
		return nil
	})
	if err != nil {
		s.discard(ctx, "document write rejected", documentsOf(stored))
		return nil, err
	}
	s.discard(ctx, "superseded", superseded)

	if s.metrics != nil {
		for slot, docs := range bySlot(stored) {
			s.metrics.IncDocumentsStored(string(slot), len(docs))
		}
	}
	s.logger.InfoContext(ctx, "documents stored",
		"application_id", app.ID,
		"kind", w.name,
		"files", len(stored),
		"superseded", len(superseded),
		"request_id", requestcontext.RequestID(ctx),
	)
	return app, nil
}

func (s *Service) checkGates(app *models.Application, files []Upload, caller Caller) error {
	for _, f := range files {
		if err := models.CheckGate(app.Status, f.Slot, caller.actor()); err != nil {
			if s.metrics != nil {
				s.metrics.IncGateRejection(string(f.Slot), string(app.Status))
			}
			return err
		}
	}
	return nil
}

// mutate reloads the application under its lock and runs fn inside a transaction.
// fn must persist its changes with s.save.
func (s *Service) mutate(ctx context.Context, appID id.ApplicationID, caller Caller, fn func(ctx context.Context, app *models.Application) error) (*models.Application, error) {
	unlock, err := s.lock(ctx, appID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var out *models.Application
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		app, err := s.load(txCtx, appID, caller)
		if err != nil {
			return err
		}
		if err := fn(txCtx, app); err != nil {
			return err
		}
		out = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func containsSlot(slots []models.Slot, slot models.Slot) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
