package cookies

import (
	"context"
	"errors"
)

// Common errors.
var (
	ErrStoreClosed = errors.New("cookie store is closed")
)

// Store defines the interface for cookie persistence backends used by an
// HTTP cookie jar. Cookies are identified by (domain, path, name).
type Store interface {
	// FindCookie retrieves a cookie by exact domain, path, and name.
	// An absent cookie is (nil, nil), not an error.
	FindCookie(ctx context.Context, domain, path, name string) (*Cookie, error)

	// FindCookies returns all cookies matching the domain (including its
	// superdomain suffixes) and, when path is non-empty, whose stored
	// path matches it. An empty domain yields no cookies.
	FindCookies(ctx context.Context, domain, path string, allowSpecialUse bool) ([]*Cookie, error)

	// PutCookie stores or updates a cookie.
	PutCookie(ctx context.Context, c *Cookie) error

	// UpdateCookie replaces oldCookie with newCookie. The old cookie's
	// identity is not removed; this is a put under the new cookie's keys.
	UpdateCookie(ctx context.Context, oldCookie, newCookie *Cookie) error

	// RemoveCookie removes a specific cookie.
	RemoveCookie(ctx context.Context, domain, path, name string) error

	// RemoveCookies removes every cookie under domain+path, or the whole
	// domain when path is empty.
	RemoveCookies(ctx context.Context, domain, path string) error

	// RemoveAllCookies removes all cookies.
	RemoveAllCookies(ctx context.Context) error

	// GetAllCookies returns every cookie in creation order.
	GetAllCookies(ctx context.Context) ([]*Cookie, error)

	// Close closes the store.
	Close() error
}
