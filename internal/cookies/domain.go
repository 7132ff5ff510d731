package cookies

import (
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

// Special-use top-level labels (RFC 6761/6762). Cookies under these are
// only matched when the caller explicitly allows special-use domains.
var specialUseTLDs = map[string]bool{
	"local":     true,
	"localhost": true,
	"invalid":   true,
	"test":      true,
	"example":   true,
}

// CanonicalDomain normalizes a domain string: strips a leading dot and a
// trailing dot, lowercases, and punycode-encodes non-ASCII labels.
// Returns "" for input that cannot be normalized.
func CanonicalDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, ".")
	domain = strings.TrimSuffix(domain, ".")
	if domain == "" {
		return ""
	}
	domain = strings.ToLower(domain)
	if ascii, err := idna.ToASCII(domain); err == nil && ascii != "" {
		domain = ascii
	}
	return domain
}

// PermuteDomain returns the candidate domains a cookie lookup for domain
// must consider: the domain itself followed by each superdomain suffix
// down to the effective TLD+1. Returns nil when the domain has no valid
// suffix, or when it is a special-use domain and allowSpecialUse is off.
func PermuteDomain(domain string, allowSpecialUse bool) []string {
	domain = CanonicalDomain(domain)
	if domain == "" {
		return nil
	}

	suffix := effectiveSuffix(domain, allowSpecialUse)
	if suffix == "" {
		return nil
	}
	if suffix == domain {
		return []string{domain}
	}

	parts := strings.Split(domain, ".")
	suffixLabels := strings.Count(suffix, ".") + 1

	var candidates []string
	for i := 0; i <= len(parts)-suffixLabels-1; i++ {
		candidates = append(candidates, strings.Join(parts[i:], "."))
	}
	return candidates
}

func effectiveSuffix(domain string, allowSpecialUse bool) string {
	top := domain[strings.LastIndexByte(domain, '.')+1:]
	if specialUseTLDs[top] {
		if !allowSpecialUse {
			return ""
		}
		return top
	}
	suffix, _ := publicsuffix.PublicSuffix(domain)
	return suffix
}

// PathMatch reports whether a request path matches a stored cookie path
// per RFC 6265 section 5.1.4.
func PathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath {
		return true
	}
	if strings.HasPrefix(reqPath, cookiePath) {
		if strings.HasSuffix(cookiePath, "/") {
			return true
		}
		if len(reqPath) > len(cookiePath) && reqPath[len(cookiePath)] == '/' {
			return true
		}
	}
	return false
}
