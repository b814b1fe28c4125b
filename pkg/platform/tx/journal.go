package tx

import (
	"context"
	"sync"
)

type journalKey struct{}

// Journal collects undo steps for in-memory stores so a failed unit of work can
// be rolled back the way a SQL transaction would be.
type Journal struct {
	mu   sync.Mutex
	undo []func()
}

// WithJournal stores j in ctx.
func WithJournal(ctx context.Context, j *Journal) context.Context {
	if j == nil {
		return ctx
	}
	return context.WithValue(ctx, journalKey{}, j)
}

// JournalFrom extracts the journal from ctx if present.
func JournalFrom(ctx context.Context) (*Journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*Journal)
	return j, ok
}

// OnRollback registers fn to run if the unit of work fails.
func (j *Journal) OnRollback(fn func()) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.undo = append(j.undo, fn)
}

// Rollback runs the registered steps in reverse order and clears them.
func (j *Journal) Rollback() {
	j.mu.Lock()
	undo := j.undo
	j.undo = nil
	j.mu.Unlock()
	for i := len(undo) - 1; i >= 0; i-- {
		undo[i]()
	}
}

// RecordUndo registers fn on the journal in ctx, if any.
func RecordUndo(ctx context.Context, fn func()) {
	if j, ok := JournalFrom(ctx); ok {
		j.OnRollback(fn)
	}
}
