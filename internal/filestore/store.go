// Package filestore implements a file-backed cookie store: an in-memory
// index synchronized to a single cookie file in either the JSON or the
// Netscape format.
package filestore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/artpar/cookiefile/internal/codec"
	"github.com/artpar/cookiefile/internal/cookies"
	"github.com/artpar/cookiefile/internal/index"
)

// ErrNoPath is returned by New when no file path is given.
var ErrNoPath = errors.New("cookie file path is required")

// Store is a cookies.Store backed by a single file. Mutations either
// write the file before returning (the default) or go through a
// write-coalescing scheduler when the store is in async mode.
type Store struct {
	path        string
	forceParse  bool
	httpOnlyExt bool
	loadAsync   bool
	batchDelay  time.Duration
	log         *slog.Logger
	onLoad      func(error)
	onLineError func(line int, err error)

	mu        sync.Mutex
	format    codec.Format
	idx       *index.Index
	nextIndex int64
	async     bool
	closed    bool

	// wmu orders file writes: a snapshot encoded later must never be
	// overwritten by one encoded earlier.
	wmu sync.Mutex

	sched    *scheduler
	loadDone chan struct{} // non-nil while a background load may be outstanding
}

var _ cookies.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithAsync makes mutations persist through the write-coalescing
// scheduler instead of blocking until the file is written.
func WithAsync() Option {
	return func(s *Store) { s.async = true }
}

// WithLoadAsync loads the file in the background. Operations issued
// before the load settles wait for it; load errors go to the OnLoad
// callback or the logger instead of failing the constructor.
func WithLoadAsync() Option {
	return func(s *Store) { s.loadAsync = true }
}

// WithFormat forces the file format instead of auto-detecting it.
func WithFormat(f codec.Format) Option {
	return func(s *Store) { s.format = f }
}

// WithForceParse tolerates malformed lines in Netscape files instead of
// failing the load.
func WithForceParse() Option {
	return func(s *Store) { s.forceParse = true }
}

// WithHTTPOnlyExtension toggles the #HttpOnly_ line prefix extension of
// the Netscape format. On by default.
func WithHTTPOnlyExtension(on bool) Option {
	return func(s *Store) { s.httpOnlyExt = on }
}

// WithLogger sets the logger for non-fatal parse warnings.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) { s.log = log }
}

// WithOnLoad sets the callback notified when a background load settles.
func WithOnLoad(fn func(error)) Option {
	return func(s *Store) { s.onLoad = fn }
}

// WithOnLineError sets the callback for malformed Netscape lines skipped
// under force-parse.
func WithOnLineError(fn func(line int, err error)) Option {
	return func(s *Store) { s.onLineError = fn }
}

// WithBatchDelay overrides the scheduler's batching tick.
func WithBatchDelay(d time.Duration) Option {
	return func(s *Store) { s.batchDelay = d }
}

// New creates a file-backed cookie store for path. Unless WithLoadAsync
// is given, the file is loaded before New returns and parse failures
// fail the constructor.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, ErrNoPath
	}

	s := &Store{
		path:        path,
		httpOnlyExt: true,
		idx:         index.New(),
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.sched = newScheduler(s.save, s.batchDelay)

	if s.loadAsync {
		s.loadDone = make(chan struct{})
		go func() {
			err := s.load()
			close(s.loadDone)
			if s.onLoad != nil {
				s.onLoad(err)
			} else if err != nil {
				s.log.Error("cookie file load failed", "file", s.path, "error", err)
			}
		}()
		return s, nil
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// load reads and parses the cookie file, replacing the index. A missing
// file is an empty store; the format defaults to Netscape for writes.
func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.mu.Lock()
			if s.format == codec.FormatAuto {
				s.format = codec.FormatNetscape
			}
			s.mu.Unlock()
			return nil
		}
		return fmt.Errorf("read cookie file: %w", err)
	}

	s.mu.Lock()
	format := s.format
	s.mu.Unlock()
	if format == codec.FormatAuto {
		format = codec.Detect(data)
	}

	var ix *index.Index
	switch format {
	case codec.FormatJSON:
		ix, err = codec.DecodeJSON(data, s.path, s.log)
	default:
		ix, err = codec.DecodeNetscape(bytes.NewReader(data), codec.NetscapeOptions{
			File:        s.path,
			ForceParse:  s.forceParse,
			HTTPOnly:    s.httpOnlyExt,
			OnLineError: s.onLineError,
			Logger:      s.log,
		})
	}
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.format = format
	s.idx = ix
	s.nextIndex = maxCreationIndex(ix) + 1
	s.mu.Unlock()
	return nil
}

// waitLoad blocks until any outstanding background load has settled.
// Load errors surface through the OnLoad callback, never here.
func (s *Store) waitLoad(ctx context.Context) error {
	if s.loadDone == nil {
		return nil
	}
	select {
	case <-s.loadDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// save serializes the current index and rewrites the file. Called by the
// scheduler and by the synchronous persist path; wmu is held from encode
// through the write so concurrent savers cannot land out of order.
func (s *Store) save() error {
	s.wmu.Lock()
	defer s.wmu.Unlock()

	s.mu.Lock()
	format := s.format
	if format == codec.FormatAuto {
		format = codec.FormatNetscape
		s.format = format
	}

	var data []byte
	var err error
	switch format {
	case codec.FormatJSON:
		data, err = codec.EncodeJSON(s.idx)
	default:
		var buf bytes.Buffer
		err = codec.EncodeNetscape(&buf, s.idx, s.httpOnlyExt)
		data = buf.Bytes()
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("write cookie file: %w", err)
	}
	return nil
}

// persist makes a completed index mutation durable. In async mode it
// only schedules a coalesced write; errors then surface via Flush. In
// sync mode it writes before returning, and if an async write happens to
// be in flight (mode switched mid-write) it also schedules a follow-up
// write so the file ends up reflecting the latest state.
func (s *Store) persist(async bool) error {
	if async {
		s.sched.schedule()
		return nil
	}
	err := s.save()
	if s.sched.inFlight() {
		s.sched.schedule()
	}
	return err
}

// SetAsync switches the persistence mode at runtime.
func (s *Store) SetAsync(async bool) {
	s.mu.Lock()
	s.async = async
	s.mu.Unlock()
}

// FindCookie retrieves the cookie stored under exactly (domain, path,
// name). An absent cookie is (nil, nil). The returned cookie is the
// stored record: callers must not mutate it, and re-put it to change it.
func (s *Store) FindCookie(ctx context.Context, domain, path, name string) (*cookies.Cookie, error) {
	if err := s.waitLoad(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, cookies.ErrStoreClosed
	}
	return s.idx.Find(domain, path, name), nil
}

// FindCookies returns the cookies matching domain and path per the
// cookie-jar matching rules. Results keep index insertion order.
func (s *Store) FindCookies(ctx context.Context, domain, path string, allowSpecialUse bool) ([]*cookies.Cookie, error) {
	if err := s.waitLoad(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, cookies.ErrStoreClosed
	}
	return s.idx.FindAll(domain, path, allowSpecialUse), nil
}

// PutCookie stores or overwrites a cookie and persists the index. A put
// with the required keys present always persists, even when it stored an
// identical cookie. A cookie missing domain, path, or name is a no-op.
func (s *Store) PutCookie(ctx context.Context, c *cookies.Cookie) error {
	if err := s.waitLoad(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cookies.ErrStoreClosed
	}
	changed := s.idx.Put(c)
	if changed && c.CreationIndex == 0 {
		c.CreationIndex = s.nextIndex
		s.nextIndex++
	}
	async := s.async
	s.mu.Unlock()

	if !changed {
		return nil
	}
	return s.persist(async)
}

// UpdateCookie replaces oldCookie with newCookie. It is a put under the
// new cookie's keys; the old cookie's identity is deliberately not
// removed even when the keys differ.
func (s *Store) UpdateCookie(ctx context.Context, oldCookie, newCookie *cookies.Cookie) error {
	_ = oldCookie
	return s.PutCookie(ctx, newCookie)
}

// RemoveCookie deletes a specific cookie. The file is only rewritten
// when a deletion actually occurred.
func (s *Store) RemoveCookie(ctx context.Context, domain, path, name string) error {
	if err := s.waitLoad(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cookies.ErrStoreClosed
	}
	changed := s.idx.Remove(domain, path, name)
	async := s.async
	s.mu.Unlock()

	if !changed {
		return nil
	}
	return s.persist(async)
}

// RemoveCookies deletes every cookie under domain+path, or the whole
// domain when path is empty.
func (s *Store) RemoveCookies(ctx context.Context, domain, path string) error {
	if err := s.waitLoad(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cookies.ErrStoreClosed
	}
	changed := s.idx.RemoveByPathOrDomain(domain, path)
	async := s.async
	s.mu.Unlock()

	if !changed {
		return nil
	}
	return s.persist(async)
}

// RemoveAllCookies clears the store. An already-empty store skips the
// file write.
func (s *Store) RemoveAllCookies(ctx context.Context) error {
	if err := s.waitLoad(ctx); err != nil {
		return err
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return cookies.ErrStoreClosed
	}
	changed := s.idx.RemoveAll()
	async := s.async
	s.mu.Unlock()

	if !changed {
		return nil
	}
	return s.persist(async)
}

// GetAllCookies returns every stored cookie in creation order.
func (s *Store) GetAllCookies(ctx context.Context) ([]*cookies.Cookie, error) {
	if err := s.waitLoad(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, cookies.ErrStoreClosed
	}
	return s.idx.All(), nil
}

// Flush waits for every scheduled write to complete and reports the last
// write failure, if any.
func (s *Store) Flush(ctx context.Context) error {
	if err := s.waitLoad(ctx); err != nil {
		return err
	}
	return s.sched.flush(ctx)
}

// Close flushes pending writes and marks the store closed. Subsequent
// operations return cookies.ErrStoreClosed.
func (s *Store) Close() error {
	err := s.sched.flush(context.Background())
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return err
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Format returns the resolved file format.
func (s *Store) Format() codec.Format {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.format
}

func maxCreationIndex(ix *index.Index) int64 {
	var max int64
	ix.Walk(func(_, _ string, c *cookies.Cookie) {
		if c.CreationIndex > max {
			max = c.CreationIndex
		}
	})
	return max
}
