package service

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"hrportal/internal/application/models"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/audit"
	"hrportal/pkg/requestcontext"
)

// UpdateRequest carries an admin's status change and/or requested-docs verdict.
type UpdateRequest struct {
	Status                *models.Status
	RequestedDocsApproved *bool
}

// UpdateApplication applies a status transition and/or a requested-docs review
// atomically. Both are admin actions.
func (s *Service) UpdateApplication(ctx context.Context, caller Caller, appID id.ApplicationID, req UpdateRequest) (app *models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "application.update")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, dErrors.MessageOf(err))
		}
		span.End()
	}()
	span.SetAttributes(attribute.String("application_id", appID.String()))

	if !caller.Admin {
		return nil, dErrors.New(dErrors.CodeForbidden, "administrator access required")
	}
	if req.Status == nil && req.RequestedDocsApproved == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "status or requestedDocsApproved is required")
	}

	var from models.Status
	at := now(ctx)
	app, err = s.mutate(ctx, appID, caller, func(txCtx context.Context, app *models.Application) error {
		from = app.Status
		if req.Status != nil {
			if err := app.Transition(*req.Status, caller.actor(), at); err != nil {
				return err
			}
		}
		if req.RequestedDocsApproved != nil {
			if err := app.ReviewRequestedDocs(*req.RequestedDocsApproved, caller.actor(), caller.reviewer(), at); err != nil {
				return err
			}
		}
		if err := s.save(txCtx, app); err != nil {
			return err
		}
		if req.Status != nil {
			if err := s.emit(txCtx, audit.Event{
				Action:        audit.EventStatusChanged,
				ApplicationID: app.ID,
				UserID:        app.UserID,
				JobID:         app.JobID,
				FromStatus:    string(from),
				ToStatus:      string(app.Status),
				Email:         app.Email,
			}); err != nil {
				return err
			}
		}
		if req.RequestedDocsApproved != nil {
			return s.emit(txCtx, audit.Event{
				Action:        audit.EventRequestedDocsReviewed,
				ApplicationID: app.ID,
				UserID:        app.UserID,
				JobID:         app.JobID,
				ToStatus:      string(app.Status),
				Decision:      strconv.FormatBool(*req.RequestedDocsApproved),
				Email:         app.Email,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if req.Status != nil && s.metrics != nil {
		s.metrics.IncTransition(string(from), string(app.Status))
	}
	s.logger.InfoContext(ctx, "application updated",
		"application_id", app.ID,
		"from", from,
		"to", app.Status,
		"request_id", requestcontext.RequestID(ctx),
	)
	return app, nil
}
