package service

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"hrportal/internal/application/intake"
	"hrportal/internal/application/models"
	dErrors "hrportal/pkg/domain-errors"
)

// storedFile is an upload committed to the blob store but not yet referenced.
type storedFile struct {
	index int
	slot  models.Slot
	doc   models.Document
}

// normalize fills content types and sanitizes names in place.
func normalize(uploads []Upload) []Upload {
	out := make([]Upload, len(uploads))
	for i, u := range uploads {
		u.ContentType = intake.NormalizeContentType(u.ContentType, u.Filename)
		u.Filename = intake.SanitizeFilename(u.Filename)
		out[i] = u
	}
	return out
}

func headers(uploads []Upload) []intake.FileHeader {
	out := make([]intake.FileHeader, len(uploads))
	for i, u := range uploads {
		out[i] = u.FileHeader
	}
	return out
}

// storeAll writes every upload to the blob store. Either all succeed or the ones
// already written are deleted and the first error is returned.
func (s *Service) storeAll(ctx context.Context, profile intake.Profile, uploads []Upload, at time.Time) ([]storedFile, error) {
	results := make([]*storedFile, len(uploads))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.parallel)
	for i, u := range uploads {
		g.Go(func() error {
			body, err := u.Open()
			if err != nil {
				return dErrors.Wrap(err, dErrors.CodeValidation, "failed to read uploaded file")
			}
			defer body.Close()
			info, err := s.blobs.Put(gctx, body, profile.PutRequest(u.FileHeader))
			if err != nil {
				return err
			}
			results[i] = &storedFile{
				index: i,
				slot:  u.Slot,
				doc: models.Document{
					BlobID:      info.ID,
					Filename:    info.Filename,
					Size:        info.Size,
					ContentType: info.ContentType,
					Checksum:    info.Checksum,
					UploadedAt:  at,
				},
			}
			return nil
		})
	}
	err := g.Wait()

	stored := make([]storedFile, 0, len(results))
	for _, r := range results {
		if r != nil {
			stored = append(stored, *r)
		}
	}
	if err != nil {
		s.discard(ctx, "upload aborted", documentsOf(stored))
		return nil, err
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].index < stored[j].index })
	return stored, nil
}

// bySlot groups stored files, keeping upload order within a slot.
func bySlot(stored []storedFile) map[models.Slot][]models.Document {
	out := map[models.Slot][]models.Document{}
	for _, f := range stored {
		out[f.slot] = append(out[f.slot], f.doc)
	}
	return out
}

func documentsOf(stored []storedFile) []models.Document {
	out := make([]models.Document, len(stored))
	for i, f := range stored {
		out[i] = f.doc
	}
	return out
}
