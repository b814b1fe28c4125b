package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"hrportal/internal/application/models"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/audit"
	"hrportal/pkg/platform/sentinel"
	"hrportal/pkg/requestcontext"
)

// SubmitRequest is a candidate's initial application.
type SubmitRequest struct {
	JobID id.JobID
	Info  models.CandidateInfo
	Files []Upload
}

// Submit validates the request, stores every file and creates the application.
// Nothing is left behind when any step fails.
func (s *Service) Submit(ctx context.Context, caller Caller, req SubmitRequest) (app *models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "application.submit")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, dErrors.MessageOf(err))
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("job_id", req.JobID.String()))

	defer func() {
		if s.metrics == nil {
			return
		}
		if err != nil {
			s.metrics.IncSubmission(string(dErrors.CodeOf(err)))
			return
		}
		s.metrics.IncSubmission("created")
	}()

	if caller.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if req.JobID.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "job id is required")
	}
	info := req.Info.Normalize()
	if err := info.Validate(); err != nil {
		return nil, err
	}

	files := normalize(req.Files)
	for _, f := range files {
		if !f.Slot.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown document slot %q", f.Slot))
		}
	}
	if err := s.profiles.Recruitment.CheckAll(headers(files)); err != nil {
		return nil, err
	}

	at := now(ctx)
	appID := id.NewApplicationID()
	docs := models.DocumentSet{}
	// Build the set from headers first so a missing resume or a closed slot is
	// rejected before any byte is written.
	for _, f := range files {
		docs.Replace(f.Slot, append(docs.Get(f.Slot), models.Document{Filename: f.Filename}))
	}
	if _, err := models.NewApplication(appID, req.JobID, caller.UserID, info, docs, at); err != nil {
		return nil, err
	}

	stored, err := s.storeAll(ctx, s.profiles.Recruitment, files, at)
	if err != nil {
		return nil, err
	}
	docs = models.DocumentSet{}
	for slot, list := range bySlot(stored) {
		docs.Replace(slot, list)
	}
	app, err = models.NewApplication(appID, req.JobID, caller.UserID, info, docs, at)
	if err != nil {
		s.discard(ctx, "submission rejected", documentsOf(stored))
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, app); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return dErrors.New(dErrors.CodeDuplicateSubmission, "you have already applied for this job")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save application")
		}
		return s.emit(txCtx, audit.Event{
			Action:        audit.EventApplicationSubmitted,
			ApplicationID: app.ID,
			UserID:        app.UserID,
			JobID:         app.JobID,
			ToStatus:      string(app.Status),
			Email:         app.Email,
		})
	})
	if err != nil {
		s.discard(ctx, "submission rejected", documentsOf(stored))
		return nil, err
	}

	if s.metrics != nil {
		for slot, list := range bySlot(stored) {
			s.metrics.IncDocumentsStored(string(slot), len(list))
		}
	}
	s.logger.InfoContext(ctx, "application submitted",
		"application_id", app.ID,
		"job_id", app.JobID,
		"user_id", app.UserID,
		"files", len(stored),
		"request_id", requestcontext.RequestID(ctx),
	)
	return app, nil
}
