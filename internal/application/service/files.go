package service

import (
	"context"
	"errors"

	"hrportal/internal/blob"
	id "hrportal/pkg/domain"
	dErrors "hrportal/pkg/domain-errors"
	"hrportal/pkg/platform/audit"
	"hrportal/pkg/platform/sentinel"
	"hrportal/pkg/requestcontext"
)

// OpenDocument streams a stored file. Candidates may only read files attached to
// their own applications; everything else is reported as not found. The caller
// closes the returned body.
func (s *Service) OpenDocument(ctx context.Context, caller Caller, blobID id.BlobID) (*blob.Object, error) {
	notFound := dErrors.New(dErrors.CodeNotFound, "file not found")
	if !caller.Admin {
		app, err := s.store.FindByBlobID(ctx, blobID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return nil, notFound
			}
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve file")
		}
		if !app.IsOwnedBy(caller.UserID) {
			return nil, notFound
		}
	}

	obj, err := s.blobs.Get(ctx, blobID)
	if err != nil {
		return nil, err
	}
	if caller.Admin {
		if err := s.emit(ctx, audit.Event{
			Action: audit.EventDocumentDownloaded,
			BlobID: blobID,
		}); err != nil {
			obj.Body.Close()
			return nil, err
		}
	}
	return obj, nil
}

// PurgeBlob deletes a file no application references. Deleting an unknown blob
// succeeds.
func (s *Service) PurgeBlob(ctx context.Context, caller Caller, blobID id.BlobID) error {
	if !caller.Admin {
		return dErrors.New(dErrors.CodeForbidden, "administrator access required")
	}
	referenced, err := s.store.IsBlobReferenced(ctx, blobID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check file references")
	}
	if referenced {
		return dErrors.New(dErrors.CodeConflict, "file is still attached to an application")
	}
	if err := s.blobs.Delete(ctx, blobID); err != nil {
		return err
	}
	if err := s.emit(ctx, audit.Event{Action: audit.EventBlobPurged, BlobID: blobID}); err != nil {
		s.logger.WarnContext(ctx, "failed to record blob purge", "blob_id", blobID, "error", err)
	}
	s.logger.InfoContext(ctx, "blob purged",
		"blob_id", blobID,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
