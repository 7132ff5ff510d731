package filestore

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerCoalescesBurst(t *testing.T) {
	var saves atomic.Int64
	sched := newScheduler(func() error {
		saves.Add(1)
		return nil
	}, 20*time.Millisecond)

	// Mutations issued within one batching tick share a single write.
	for i := 0; i < 10; i++ {
		sched.schedule()
	}

	require.NoError(t, sched.flush(context.Background()))
	assert.Equal(t, int64(1), saves.Load())
}

func TestSchedulerSeparateBurstsWriteSeparately(t *testing.T) {
	var saves atomic.Int64
	sched := newScheduler(func() error {
		saves.Add(1)
		return nil
	}, time.Millisecond)

	for i := 0; i < 3; i++ {
		op := sched.schedule()
		<-op.done
	}

	require.NoError(t, sched.flush(context.Background()))
	assert.Equal(t, int64(3), saves.Load())
}

func TestSchedulerQueuesBehindInFlightWrite(t *testing.T) {
	var saves atomic.Int64
	block := make(chan struct{})
	sched := newScheduler(func() error {
		saves.Add(1)
		if saves.Load() == 1 {
			<-block
		}
		return nil
	}, time.Millisecond)

	first := sched.schedule()

	// Wait until the first write is actually executing.
	require.Eventually(t, sched.inFlight, time.Second, time.Millisecond)

	// Everything scheduled while a write is in flight lands in the single
	// queued slot.
	second := sched.schedule()
	third := sched.schedule()
	assert.Same(t, second, third)
	assert.NotSame(t, first, second)

	close(block)
	require.NoError(t, sched.flush(context.Background()))
	assert.Equal(t, int64(2), saves.Load())
}

func TestSchedulerPropagatesWriteError(t *testing.T) {
	wantErr := errors.New("disk full")
	fail := true
	sched := newScheduler(func() error {
		if fail {
			return wantErr
		}
		return nil
	}, time.Millisecond)

	op := sched.schedule()
	assert.ErrorIs(t, sched.flush(context.Background()), wantErr)
	assert.ErrorIs(t, op.err, wantErr)

	// The scheduler resets to idle; a later write can succeed.
	fail = false
	op = sched.schedule()
	<-op.done
	assert.NoError(t, op.err)
}

func TestSchedulerFlushHonorsContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	sched := newScheduler(func() error {
		<-block
		return nil
	}, time.Millisecond)

	sched.schedule()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sched.flush(ctx), context.DeadlineExceeded)
}

func TestSchedulerFlushIdle(t *testing.T) {
	sched := newScheduler(func() error { return nil }, time.Millisecond)
	assert.NoError(t, sched.flush(context.Background()))
}
