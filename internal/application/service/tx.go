package service

import (
	"context"
	"database/sql"
	"time"

	dErrors "hrportal/pkg/domain-errors"
	txcontext "hrportal/pkg/platform/tx"
)

// TxRunner runs fn as one unit of work. Stores find the transaction in ctx.
type TxRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Locker serializes mutations of one application across requests.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

const defaultTxTimeout = 5 * time.Second

// MemoryTx emulates a transaction for the in-memory stores: they record undo
// steps in a journal that is replayed when fn fails.
type MemoryTx struct {
	timeout time.Duration
}

func NewMemoryTx() *MemoryTx {
	return &MemoryTx{timeout: defaultTxTimeout}
}

func (t *MemoryTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel, err := withTxDeadline(ctx, t.timeout)
	if err != nil {
		return err
	}
	defer cancel()

	journal := &txcontext.Journal{}
	if err := fn(txcontext.WithJournal(ctx, journal)); err != nil {
		journal.Rollback()
		return err
	}
	return nil
}

// PostgresTx runs fn inside a database transaction carried in ctx.
type PostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func NewPostgresTx(db *sql.DB) *PostgresTx {
	return &PostgresTx{db: db, timeout: defaultTxTimeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel, err := withTxDeadline(ctx, t.timeout)
	if err != nil {
		return err
	}
	defer cancel()

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "begin transaction")
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(txcontext.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "commit transaction")
	}
	return nil
}

func withTxDeadline(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return ctx, func() {}, dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, cancel, nil
}
