package tx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJournal_RollbackRunsInReverse(t *testing.T) {
	j := &Journal{}
	ctx := WithJournal(context.Background(), j)

	var order []int
	RecordUndo(ctx, func() { order = append(order, 1) })
	RecordUndo(ctx, func() { order = append(order, 2) })

	j.Rollback()
	assert.Equal(t, []int{2, 1}, order)

	j.Rollback()
	assert.Equal(t, []int{2, 1}, order, "steps run once")
}

func TestRecordUndo_NoJournal(t *testing.T) {
	called := false
	RecordUndo(context.Background(), func() { called = true })
	assert.False(t, called)
}
