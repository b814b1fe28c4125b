package service

import (
	"context"

	"hrportal/internal/application/models"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
)

// Page is one slice of a listing.
type Page struct {
	Items []*models.Application `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// List returns the caller's own applications, newest first.
func (s *Service) List(ctx context.Context, caller Caller, filter models.ListFilter) (*Page, error) {
	if caller.UserID.IsNil() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	filter = filter.Normalized()
	items, total, err := s.store.ListByUser(ctx, caller.UserID, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	if items == nil {
		items = []*models.Application{}
	}
	return &Page{Items: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Get returns one application the caller may see.
func (s *Service) Get(ctx context.Context, caller Caller, appID id.ApplicationID) (*models.Application, error) {
	return s.load(ctx, appID, caller)
}
