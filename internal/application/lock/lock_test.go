package lock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "hrportal/pkg/domain-errors"
)

func TestShardedSerializesSameKey(t *testing.T) {
	l := NewSharded(0)
	var inside, maxInside atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), "application:1")
			if err != nil {
				return
			}
			n := inside.Add(1)
			for {
				m := maxInside.Load()
				if n <= m || maxInside.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inside.Add(-1)
			unlock()
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), maxInside.Load())
}

func TestShardedTimesOutAsBusy(t *testing.T) {
	l := NewSharded(20 * time.Millisecond)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	defer unlock()

	_, err = l.Lock(context.Background(), "k")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestShardedUnlockIsIdempotent(t *testing.T) {
	l := NewSharded(20 * time.Millisecond)
	unlock, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "k")
	require.NoError(t, err)
	again()
}
