package filestore

import (
	"context"
	"sync"
	"time"
)

// writeOp is one scheduled write of the cookie file. done is closed when
// the write finishes, with err holding the outcome for its awaiters.
type writeOp struct {
	done chan struct{}
	err  error
}

// scheduler coalesces save requests into a minimal number of file
// writes. Invariant: at most one write in flight, at most one queued
// beyond it. A queued write first waits for the in-flight write to
// finish (ignoring its error) or, when idle, sleeps one batching tick so
// mutations from the same burst share a single write. The write then
// serializes the index as it stands at that moment, which is why a
// single queued slot covers any number of accumulated mutations.
type scheduler struct {
	save  func() error
	delay time.Duration

	mu      sync.Mutex
	writing *writeOp
	next    *writeOp
}

const defaultBatchDelay = 5 * time.Millisecond

func newScheduler(save func() error, delay time.Duration) *scheduler {
	if delay <= 0 {
		delay = defaultBatchDelay
	}
	return &scheduler{save: save, delay: delay}
}

// schedule requests a write covering every mutation applied up to the
// moment the write actually runs. It returns the op whose done channel
// settles when that write completes.
func (s *scheduler) schedule() *writeOp {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next != nil {
		return s.next
	}
	op := &writeOp{done: make(chan struct{})}
	s.next = op
	go s.run(op, s.writing)
	return op
}

func (s *scheduler) run(op, inflight *writeOp) {
	if inflight != nil {
		// The in-flight write's error belongs to its own awaiters.
		<-inflight.done
	} else {
		time.Sleep(s.delay)
	}

	s.mu.Lock()
	s.writing = op
	if s.next == op {
		s.next = nil // a fresh mutation may queue a new write now
	}
	s.mu.Unlock()

	op.err = s.save()
	close(op.done)

	s.mu.Lock()
	if s.writing == op {
		s.writing = nil
	}
	s.mu.Unlock()
}

// pending returns the op to wait on next, preferring the queued write
// since it supersedes the in-flight one. Nil when idle.
func (s *scheduler) pending() *writeOp {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.next != nil {
		return s.next
	}
	return s.writing
}

// inFlight reports whether a write is executing right now.
func (s *scheduler) inFlight() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writing != nil
}

// flush blocks until no write is in flight or queued, returning the last
// failure observed along the way.
func (s *scheduler) flush(ctx context.Context) error {
	var lastErr error
	for {
		op := s.pending()
		if op == nil {
			return lastErr
		}
		select {
		case <-op.done:
			if op.err != nil {
				lastErr = op.err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
