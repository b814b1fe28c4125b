// Package lock serializes mutations of one application. Sharded works inside a
// single process; Redis coordinates several instances.
package lock

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	dErrors "hrportal/pkg/domain-errors"
)

const numShards = 128

func busy(err error) error {
	return dErrors.Wrap(err, dErrors.CodeConflict, "application is busy, try again")
}

// Sharded spreads keys over a fixed set of one-slot semaphores. Unrelated keys
// rarely share a shard; when they do they only wait for each other.
type Sharded struct {
	shards  [numShards]chan struct{}
	timeout time.Duration
}

// NewSharded creates an in-process locker. A positive timeout bounds how long
// Lock waits; zero waits until ctx is done.
func NewSharded(timeout time.Duration) *Sharded {
	l := &Sharded{timeout: timeout}
	for i := range l.shards {
		l.shards[i] = make(chan struct{}, 1)
	}
	return l
}

func (l *Sharded) Lock(ctx context.Context, key string) (func(), error) {
	if l.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.timeout)
		defer cancel()
	}
	shard := l.shards[shardFor(key)]
	select {
	case shard <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-shard }) }, nil
	case <-ctx.Done():
		return nil, busy(ctx.Err())
	}
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return h.Sum32() % numShards
}
