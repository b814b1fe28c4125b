// Package postgres persists applications across the applications,
// application_documents and application_status_history tables.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"hrportal/internal/application/models"
	id "hrportal/pkg/domain"
	"hrportal/pkg/platform/sentinel"
	txcontext "hrportal/pkg/platform/tx"
)

const uniqueViolation = "23505"

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// inTx runs fn in the caller's transaction, or in a fresh one when ctx has none.
func (s *PostgresStore) inTx(ctx context.Context, fn func(txcontext.Executor) error) error {
	if tx, ok := txcontext.From(ctx); ok {
		return fn(tx)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	return s.inTx(ctx, func(ex txcontext.Executor) error {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO applications (
				id, job_id, user_id, full_name, email, cover_letter, status,
				applied_at, updated_at, version,
				requested_docs_submitted, requested_docs_submitted_at,
				requested_docs_approved, requested_docs_reviewed_at, requested_docs_reviewed_by
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
			append([]any{
				uuid.UUID(app.ID), string(app.JobID), uuid.UUID(app.UserID),
				app.FullName, app.Email, app.CoverLetter, string(app.Status),
				app.AppliedAt, app.UpdatedAt, app.Version,
			}, reviewColumns(app)...)...,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return sentinel.ErrAlreadyUsed
			}
			return fmt.Errorf("insert application: %w", err)
		}
		if err := insertDocuments(ctx, ex, app); err != nil {
			return err
		}
		return insertHistory(ctx, ex, app)
	})
}

func (s *PostgresStore) Update(ctx context.Context, app *models.Application) error {
	return s.inTx(ctx, func(ex txcontext.Executor) error {
		res, err := ex.ExecContext(ctx, `
			UPDATE applications SET
				status = $3,
				updated_at = $4,
				version = version + 1,
				requested_docs_submitted = $5,
				requested_docs_submitted_at = $6,
				requested_docs_approved = $7,
				requested_docs_reviewed_at = $8,
				requested_docs_reviewed_by = $9
			WHERE id = $1 AND version = $2`,
			append([]any{
				uuid.UUID(app.ID), app.Version, string(app.Status), app.UpdatedAt,
			}, reviewColumns(app)...)...,
		)
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update application: %w", err)
		}
		if n == 0 {
			var exists bool
			if err := ex.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, uuid.UUID(app.ID),
			).Scan(&exists); err != nil {
				return fmt.Errorf("check application: %w", err)
			}
			if !exists {
				return sentinel.ErrNotFound
			}
			return sentinel.ErrConflict
		}

		if _, err := ex.ExecContext(ctx,
			`DELETE FROM application_documents WHERE application_id = $1`, uuid.UUID(app.ID),
		); err != nil {
			return fmt.Errorf("clear documents: %w", err)
		}
		if err := insertDocuments(ctx, ex, app); err != nil {
			return err
		}
		if err := insertHistory(ctx, ex, app); err != nil {
			return err
		}
		app.Version++
		return nil
	})
}

func (s *PostgresStore) FindByID(ctx context.Context, appID id.ApplicationID) (*models.Application, error) {
	ex := txcontext.ExecutorFrom(ctx, s.db)
	row := ex.QueryRowContext(ctx, selectApplications+` WHERE id = $1`, uuid.UUID(appID))
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	if err := s.hydrate(ctx, ex, []*models.Application{app}); err != nil {
		return nil, err
	}
	return app, nil
}

func (s *PostgresStore) FindByBlobID(ctx context.Context, blobID id.BlobID) (*models.Application, error) {
	var appID uuid.UUID
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT application_id FROM application_documents WHERE blob_id = $1`, uuid.UUID(blobID),
	).Scan(&appID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application by blob: %w", err)
	}
	return s.FindByID(ctx, id.ApplicationID(appID))
}

func (s *PostgresStore) IsBlobReferenced(ctx context.Context, blobID id.BlobID) (bool, error) {
	var exists bool
	err := txcontext.ExecutorFrom(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM application_documents WHERE blob_id = $1)`, uuid.UUID(blobID),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check blob reference: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID id.UserID, filter models.ListFilter) ([]*models.Application, int, error) {
	filter = filter.Normalized()
	ex := txcontext.ExecutorFrom(ctx, s.db)

	where := ` WHERE user_id = $1 AND ($2 = '' OR job_id = $2)`
	var total int
	if err := ex.QueryRowContext(ctx, `SELECT count(*) FROM applications`+where,
		uuid.UUID(userID), string(filter.JobID),
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count applications: %w", err)
	}

	rows, err := ex.QueryContext(ctx,
		selectApplications+where+` ORDER BY applied_at DESC, id LIMIT $3 OFFSET $4`,
		uuid.UUID(userID), string(filter.JobID), filter.Limit, filter.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	apps := []*models.Application{}
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list applications: %w", err)
	}
	if err := s.hydrate(ctx, ex, apps); err != nil {
		return nil, 0, err
	}
	return apps, total, nil
}

const selectApplications = `
	SELECT id, job_id, user_id, full_name, email, cover_letter, status,
		applied_at, updated_at, version,
		requested_docs_submitted, requested_docs_submitted_at,
		requested_docs_approved, requested_docs_reviewed_at, requested_docs_reviewed_by
	FROM applications`

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var (
		appID, userID uuid.UUID
		jobID, status string
		submittedAt   sql.NullTime
		approved      sql.NullBool
		reviewedAt    sql.NullTime
		reviewedBy    sql.NullString
		app           models.Application
	)
	if err := row.Scan(
		&appID, &jobID, &userID, &app.FullName, &app.Email, &app.CoverLetter, &status,
		&app.AppliedAt, &app.UpdatedAt, &app.Version,
		&app.RequestedDocsSubmitted, &submittedAt,
		&approved, &reviewedAt, &reviewedBy,
	); err != nil {
		return nil, err
	}
	app.ID = id.ApplicationID(appID)
	app.UserID = id.UserID(userID)
	app.JobID = id.JobID(jobID)
	app.Status = models.Status(status)
	app.AppliedAt = app.AppliedAt.UTC()
	app.UpdatedAt = app.UpdatedAt.UTC()
	if submittedAt.Valid {
		t := submittedAt.Time.UTC()
		app.RequestedDocsSubmittedAt = &t
	}
	if approved.Valid {
		app.RequestedDocsReview = &models.RequestedDocsReview{
			Approved:   approved.Bool,
			ReviewedAt: reviewedAt.Time.UTC(),
			ReviewedBy: reviewedBy.String,
		}
	}
	app.StatusHistory = []models.StatusChange{}
	return &app, nil
}

// hydrate loads documents and history for apps in two batch queries.
func (s *PostgresStore) hydrate(ctx context.Context, ex txcontext.Executor, apps []*models.Application) error {
	if len(apps) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*models.Application, len(apps))
	ids := make([]string, 0, len(apps))
	for _, app := range apps {
		byID[uuid.UUID(app.ID)] = app
		ids = append(ids, app.ID.String())
	}

	docRows, err := ex.QueryContext(ctx, `
		SELECT application_id, slot, blob_id, filename, size, content_type, checksum, uploaded_at
		FROM application_documents
		WHERE application_id = ANY($1::uuid[])
		ORDER BY application_id, slot, position`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	grouped := map[uuid.UUID]map[models.Slot][]models.Document{}
	for docRows.Next() {
		var (
			appID, blobID uuid.UUID
			slot          string
			doc           models.Document
		)
		if err := docRows.Scan(&appID, &slot, &blobID, &doc.Filename, &doc.Size, &doc.ContentType, &doc.Checksum, &doc.UploadedAt); err != nil {
			docRows.Close()
			return fmt.Errorf("scan document: %w", err)
		}
		doc.BlobID = id.BlobID(blobID)
		doc.UploadedAt = doc.UploadedAt.UTC()
		if grouped[appID] == nil {
			grouped[appID] = map[models.Slot][]models.Document{}
		}
		grouped[appID][models.Slot(slot)] = append(grouped[appID][models.Slot(slot)], doc)
	}
	docRows.Close()
	if err := docRows.Err(); err != nil {
		return fmt.Errorf("load documents: %w", err)
	}
	for appID, slots := range grouped {
		for slot, docs := range slots {
			byID[appID].Documents.Replace(slot, docs)
		}
	}

	histRows, err := ex.QueryContext(ctx, `
		SELECT application_id, from_status, to_status, actor, changed_at
		FROM application_status_history
		WHERE application_id = ANY($1::uuid[])
		ORDER BY application_id, seq`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("load status history: %w", err)
	}
	defer histRows.Close()
	for histRows.Next() {
		var (
			appID           uuid.UUID
			from, to, actor string
			change          models.StatusChange
		)
		if err := histRows.Scan(&appID, &from, &to, &actor, &change.At); err != nil {
			return fmt.Errorf("scan status change: %w", err)
		}
		change.From = models.Status(from)
		change.To = models.Status(to)
		change.Actor = models.Actor(actor)
		change.At = change.At.UTC()
		app := byID[appID]
		app.StatusHistory = append(app.StatusHistory, change)
	}
	return histRows.Err()
}

func insertDocuments(ctx context.Context, ex txcontext.Executor, app *models.Application) error {
	for _, slot := range models.AllSlots {
		for pos, doc := range app.Documents.Get(slot) {
			_, err := ex.ExecContext(ctx, `
				INSERT INTO application_documents (
					application_id, slot, position, blob_id, filename, size, content_type, checksum, uploaded_at
				) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				uuid.UUID(app.ID), string(slot), pos, uuid.UUID(doc.BlobID),
				doc.Filename, doc.Size, doc.ContentType, doc.Checksum, doc.UploadedAt,
			)
			if err != nil {
				return fmt.Errorf("insert document %s: %w", slot, err)
			}
		}
	}
	return nil
}

// insertHistory appends trail entries not yet stored. History is append-only, so
// existing sequence numbers are skipped.
func insertHistory(ctx context.Context, ex txcontext.Executor, app *models.Application) error {
	for seq, change := range app.StatusHistory {
		_, err := ex.ExecContext(ctx, `
			INSERT INTO application_status_history (application_id, seq, from_status, to_status, actor, changed_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (application_id, seq) DO NOTHING`,
			uuid.UUID(app.ID), seq, string(change.From), string(change.To), string(change.Actor), change.At,
		)
		if err != nil {
			return fmt.Errorf("insert status change: %w", err)
		}
	}
	return nil
}

func reviewColumns(app *models.Application) []any {
	var (
		submittedAt sql.NullTime
		approved    sql.NullBool
		reviewedAt  sql.NullTime
		reviewedBy  sql.NullString
	)
	if app.RequestedDocsSubmittedAt != nil {
		submittedAt = sql.NullTime{Time: *app.RequestedDocsSubmittedAt, Valid: true}
	}
	if r := app.RequestedDocsReview; r != nil {
		approved = sql.NullBool{Bool: r.Approved, Valid: true}
		reviewedAt = sql.NullTime{Time: r.ReviewedAt, Valid: true}
		reviewedBy = sql.NullString{String: r.ReviewedBy, Valid: true}
	}
	return []any{app.RequestedDocsSubmitted, submittedAt, approved, reviewedAt, reviewedBy}
}
