package models

import id "hrportal/pkg/domain"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListFilter narrows a candidate's listing. Page is 1-based.
type ListFilter struct {
	JobID id.JobID
	Page  int
	Limit int
}

// Normalized clamps page and limit into range.
func (f ListFilter) Normalized() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}
