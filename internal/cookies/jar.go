package cookies

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// PersistentJar implements http.CookieJar over a Store backend.
type PersistentJar struct {
	mu    sync.RWMutex
	jar   *cookiejar.Jar // In-memory jar for standard behavior
	store Store          // Persistence layer
}

// NewPersistentJar creates a new persistent cookie jar.
func NewPersistentJar(store Store) (*PersistentJar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return nil, err
	}

	pj := &PersistentJar{
		jar:   jar,
		store: store,
	}

	if err := pj.loadFromStore(); err != nil {
		return nil, err
	}

	return pj, nil
}

// loadFromStore loads all non-expired cookies into memory.
func (pj *PersistentJar) loadFromStore() error {
	all, err := pj.store.GetAllCookies(context.Background())
	if err != nil {
		return err
	}

	// Group cookies by domain and set them
	byDomain := make(map[string][]*http.Cookie)
	for _, c := range all {
		if c.IsExpired() {
			continue
		}
		byDomain[c.Domain] = append(byDomain[c.Domain], c.ToHTTPCookie())
	}

	for domain, domainCookies := range byDomain {
		u := &url.URL{
			Scheme: "https",
			Host:   domain,
			Path:   "/",
		}
		pj.jar.SetCookies(u, domainCookies)
	}

	return nil
}

// SetCookies implements http.CookieJar.
func (pj *PersistentJar) SetCookies(u *url.URL, hcs []*http.Cookie) {
	pj.mu.Lock()
	defer pj.mu.Unlock()

	// Set in memory jar
	pj.jar.SetCookies(u, hcs)

	// Persist to store
	ctx := context.Background()
	for _, hc := range hcs {
		c := FromHTTPCookie(u, hc)

		// Handle cookie deletion (MaxAge < 0)
		if hc.MaxAge < 0 {
			pj.store.RemoveCookie(ctx, c.Domain, c.Path, c.Name)
			continue
		}

		pj.store.PutCookie(ctx, c)
	}
}

// Cookies implements http.CookieJar.
func (pj *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	pj.mu.RLock()
	defer pj.mu.RUnlock()

	return pj.jar.Cookies(u)
}

// Clear removes all cookies from jar and store.
func (pj *PersistentJar) Clear() error {
	pj.mu.Lock()
	defer pj.mu.Unlock()

	// Create new empty jar
	newJar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return err
	}
	pj.jar = newJar

	return pj.store.RemoveAllCookies(context.Background())
}

// ClearDomain removes all cookies for a domain.
func (pj *PersistentJar) ClearDomain(domain string) error {
	pj.mu.Lock()
	defer pj.mu.Unlock()

	if err := pj.store.RemoveCookies(context.Background(), domain, ""); err != nil {
		return err
	}

	// Rebuild the in-memory jar from what remains
	newJar, err := cookiejar.New(&cookiejar.Options{
		PublicSuffixList: publicsuffix.List,
	})
	if err != nil {
		return err
	}
	pj.jar = newJar

	return pj.loadFromStore()
}

// ListAll returns all stored cookies.
func (pj *PersistentJar) ListAll() ([]*Cookie, error) {
	pj.mu.RLock()
	defer pj.mu.RUnlock()

	return pj.store.GetAllCookies(context.Background())
}

// Store returns the underlying store (for closing).
func (pj *PersistentJar) Store() Store {
	return pj.store
}
