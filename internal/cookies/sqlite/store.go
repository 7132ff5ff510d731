// Package sqlite provides an SQLite-backed cookies.Store, an alternative
// to the file-backed store for jars that want queryable persistence.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/artpar/cookiefile/internal/cookies"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Store implements cookies.Store using SQLite.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	closed bool
}

var _ cookies.Store = (*Store)(nil)

// New creates a new SQLite-based cookie store.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open cookie database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize cookie database: %w", err)
	}

	return store, nil
}

// NewInMemory creates a new in-memory SQLite store (useful for testing).
func NewInMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open in-memory database: %w", err)
	}

	store := &Store{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

// initialize creates the necessary tables and indexes.
func (s *Store) initialize() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cookies (
			id TEXT PRIMARY KEY,
			domain TEXT NOT NULL,
			path TEXT NOT NULL,
			name TEXT NOT NULL,
			value TEXT NOT NULL,
			secure INTEGER NOT NULL DEFAULT 0,
			http_only INTEGER NOT NULL DEFAULT 0,
			host_only INTEGER NOT NULL DEFAULT 0,
			expires DATETIME,
			creation DATETIME,
			last_accessed DATETIME,
			creation_index INTEGER NOT NULL DEFAULT 0,
			UNIQUE(domain, path, name)
		);

		CREATE INDEX IF NOT EXISTS idx_cookies_domain ON cookies(domain);
		CREATE INDEX IF NOT EXISTS idx_cookies_domain_path ON cookies(domain, path);
		CREATE INDEX IF NOT EXISTS idx_cookies_creation_index ON cookies(creation_index);
	`

	_, err := s.db.Exec(schema)
	return err
}

// PutCookie stores or updates a cookie. An existing row keeps its id;
// the creation index is assigned when the cookie has none.
func (s *Store) PutCookie(ctx context.Context, c *cookies.Cookie) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}
	if c == nil || c.Domain == "" || c.Path == "" || c.Name == "" {
		return nil // malformed input is a no-op, mirroring the file store
	}

	if c.CreationIndex == 0 {
		var max sql.NullInt64
		if err := s.db.QueryRowContext(ctx, `SELECT MAX(creation_index) FROM cookies`).Scan(&max); err != nil {
			return err
		}
		c.CreationIndex = max.Int64 + 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cookies
		(id, domain, path, name, value, secure, http_only, host_only, expires, creation, last_accessed, creation_index)
		VALUES (
			COALESCE((SELECT id FROM cookies WHERE domain = ? AND path = ? AND name = ?), ?),
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)
	`,
		c.Domain, c.Path, c.Name, uuid.New().String(),
		c.Domain, c.Path, c.Name, c.Value,
		boolToInt(c.Secure), boolToInt(c.HttpOnly), boolToInt(c.HostOnly),
		nullTime(c.Expires), nullTime(c.Creation), nullTime(c.LastAccessed),
		c.CreationIndex,
	)
	return err
}

// UpdateCookie is a put under the new cookie's keys; the old identity is
// not removed, matching the file store's behavior.
func (s *Store) UpdateCookie(ctx context.Context, oldCookie, newCookie *cookies.Cookie) error {
	_ = oldCookie
	return s.PutCookie(ctx, newCookie)
}

// FindCookie retrieves a cookie by exact domain, path, and name. An
// absent cookie is (nil, nil).
func (s *Store) FindCookie(ctx context.Context, domain, path, name string) (*cookies.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT domain, path, name, value, secure, http_only, host_only, expires, creation, last_accessed, creation_index
		FROM cookies
		WHERE domain = ? AND path = ? AND name = ?
	`, domain, path, name)

	c, err := scanCookie(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// FindCookies returns the cookies under the domain's candidate suffixes
// whose stored path matches the request path.
func (s *Store) FindCookies(ctx context.Context, domain, path string, allowSpecialUse bool) ([]*cookies.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	candidates := cookies.PermuteDomain(domain, allowSpecialUse)
	if len(candidates) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(candidates))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]interface{}, len(candidates))
	for i, d := range candidates {
		args[i] = d
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, path, name, value, secure, http_only, host_only, expires, creation, last_accessed, creation_index
		FROM cookies
		WHERE domain IN (`+placeholders+`)
		ORDER BY domain, path, name
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	all, err := scanCookies(rows)
	if err != nil {
		return nil, err
	}

	if path == "" {
		return all, nil
	}
	var matched []*cookies.Cookie
	for _, c := range all {
		if cookies.PathMatch(path, c.Path) {
			matched = append(matched, c)
		}
	}
	return matched, nil
}

// RemoveCookie removes a specific cookie.
func (s *Store) RemoveCookie(ctx context.Context, domain, path, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM cookies WHERE domain = ? AND path = ? AND name = ?
	`, domain, path, name)
	return err
}

// RemoveCookies removes every cookie under domain+path, or the whole
// domain when path is empty.
func (s *Store) RemoveCookies(ctx context.Context, domain, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	var err error
	if path == "" {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cookies WHERE domain = ?`, domain)
	} else {
		_, err = s.db.ExecContext(ctx, `DELETE FROM cookies WHERE domain = ? AND path = ?`, domain, path)
	}
	return err
}

// RemoveAllCookies removes all cookies.
func (s *Store) RemoveAllCookies(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return cookies.ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM cookies`)
	return err
}

// GetAllCookies returns every cookie in creation order.
func (s *Store) GetAllCookies(ctx context.Context) ([]*cookies.Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, cookies.ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT domain, path, name, value, secure, http_only, host_only, expires, creation, last_accessed, creation_index
		FROM cookies
		ORDER BY creation_index, domain, path, name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanCookies(rows)
}

// Count returns total number of cookies.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, cookies.ErrStoreClosed
	}

	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM cookies`).Scan(&count)
	return count, err
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// Helper functions

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func intToBool(i int) bool {
	return i != 0
}

func nullTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanCookie(row scannable) (*cookies.Cookie, error) {
	var c cookies.Cookie
	var secure, httpOnly, hostOnly int
	var expires, creation, lastAccessed sql.NullTime

	err := row.Scan(
		&c.Domain, &c.Path, &c.Name, &c.Value,
		&secure, &httpOnly, &hostOnly,
		&expires, &creation, &lastAccessed,
		&c.CreationIndex,
	)
	if err != nil {
		return nil, err
	}

	c.Secure = intToBool(secure)
	c.HttpOnly = intToBool(httpOnly)
	c.HostOnly = intToBool(hostOnly)
	if expires.Valid {
		c.Expires = expires.Time
	}
	if creation.Valid {
		c.Creation = creation.Time
	}
	if lastAccessed.Valid {
		c.LastAccessed = lastAccessed.Time
	}

	return &c, nil
}

func scanCookies(rows *sql.Rows) ([]*cookies.Cookie, error) {
	var result []*cookies.Cookie
	for rows.Next() {
		c, err := scanCookie(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
