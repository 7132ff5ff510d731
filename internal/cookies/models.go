package cookies

import (
	"net/http"
	"net/url"
	"time"
)

// Cookie represents a stored cookie with all attributes.
//
// Name is serialized as "key" to match the canonical structured encoding
// used by the JSON file format. A zero Expires means a session cookie.
type Cookie struct {
	Name          string    `json:"key"`
	Value         string    `json:"value"`
	Domain        string    `json:"domain"`
	Path          string    `json:"path"`
	Secure        bool      `json:"secure,omitempty"`
	HttpOnly      bool      `json:"httpOnly,omitempty"`
	HostOnly      bool      `json:"hostOnly,omitempty"`
	Expires       time.Time `json:"expires,omitzero"`
	Creation      time.Time `json:"creation,omitzero"`
	LastAccessed  time.Time `json:"lastAccessed,omitzero"`
	CreationIndex int64     `json:"creationIndex,omitempty"`
}

// IsExpired returns true if the cookie has expired.
func (c *Cookie) IsExpired() bool {
	if c.Expires.IsZero() {
		return false // Session cookie, never expires
	}
	return time.Now().After(c.Expires)
}

// IsSession returns true if this is a session cookie (no expiration).
func (c *Cookie) IsSession() bool {
	return c.Expires.IsZero()
}

// Clone returns a copy of the cookie.
func (c *Cookie) Clone() *Cookie {
	dup := *c
	return &dup
}

// ToHTTPCookie converts to standard http.Cookie.
func (c *Cookie) ToHTTPCookie() *http.Cookie {
	domain := c.Domain
	if !c.HostOnly && domain != "" && domain[0] != '.' {
		domain = "." + domain
	}
	return &http.Cookie{
		Name:     c.Name,
		Value:    c.Value,
		Domain:   domain,
		Path:     c.Path,
		Secure:   c.Secure,
		HttpOnly: c.HttpOnly,
		Expires:  c.Expires,
	}
}

// FromHTTPCookie creates a Cookie from http.Cookie and URL.
func FromHTTPCookie(u *url.URL, hc *http.Cookie) *Cookie {
	domain := hc.Domain
	hostOnly := domain == ""
	if hostOnly {
		domain = u.Hostname()
	}
	domain = CanonicalDomain(domain)

	path := hc.Path
	if path == "" {
		path = "/"
	}

	expires := hc.Expires
	if hc.MaxAge > 0 {
		expires = time.Now().Add(time.Duration(hc.MaxAge) * time.Second)
	} else if hc.MaxAge < 0 {
		// MaxAge < 0 means delete cookie immediately
		expires = time.Unix(0, 0)
	}

	now := time.Now()
	return &Cookie{
		Name:         hc.Name,
		Value:        hc.Value,
		Domain:       domain,
		Path:         path,
		Secure:       hc.Secure,
		HttpOnly:     hc.HttpOnly,
		HostOnly:     hostOnly,
		Expires:      expires,
		Creation:     now,
		LastAccessed: now,
	}
}
