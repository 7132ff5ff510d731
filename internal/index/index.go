// Package index holds the in-memory cookie index: a three-level mapping
// from domain to path to cookie name. Levels preserve insertion order so
// enumeration and file serialization are deterministic across runs.
package index

import (
	"sort"

	"github.com/artpar/cookiefile/internal/cookies"
)

// Index is the domain → path → name cookie mapping. It is pure data; the
// caller is responsible for locking.
type Index struct {
	domains map[string]*domainEntry
	order   []string
}

type domainEntry struct {
	paths map[string]*pathEntry
	order []string
}

type pathEntry struct {
	byName map[string]*cookies.Cookie
	order  []string
}

// New returns an empty index.
func New() *Index {
	return &Index{domains: make(map[string]*domainEntry)}
}

// Find returns the cookie stored under exactly (domain, path, name), or
// nil when any level is missing.
func (ix *Index) Find(domain, path, name string) *cookies.Cookie {
	de := ix.domains[domain]
	if de == nil {
		return nil
	}
	pe := de.paths[path]
	if pe == nil {
		return nil
	}
	return pe.byName[name]
}

// FindAll collects the cookies matching domain (expanded to its
// superdomain suffixes) and path. An empty path collects every stored
// path; otherwise stored paths are filtered with the RFC 6265 path-match
// predicate against path. Results keep index insertion order, grouped by
// candidate domain.
func (ix *Index) FindAll(domain, path string, allowSpecialUse bool) []*cookies.Cookie {
	if domain == "" {
		return nil
	}

	var out []*cookies.Cookie
	for _, candidate := range cookies.PermuteDomain(domain, allowSpecialUse) {
		de := ix.domains[candidate]
		if de == nil {
			continue
		}
		for _, storedPath := range de.order {
			if path != "" && !cookies.PathMatch(path, storedPath) {
				continue
			}
			pe := de.paths[storedPath]
			for _, name := range pe.order {
				out = append(out, pe.byName[name])
			}
		}
	}
	return out
}

// Put inserts or overwrites a cookie under its (domain, path, name),
// creating missing levels. A cookie missing any of the three keys is a
// no-op returning false; otherwise Put reports true even when the stored
// cookie was identical, since the caller must still persist.
func (ix *Index) Put(c *cookies.Cookie) bool {
	if c == nil || c.Domain == "" || c.Path == "" || c.Name == "" {
		return false
	}

	de := ix.domains[c.Domain]
	if de == nil {
		de = &domainEntry{paths: make(map[string]*pathEntry)}
		ix.domains[c.Domain] = de
		ix.order = append(ix.order, c.Domain)
	}
	pe := de.paths[c.Path]
	if pe == nil {
		pe = &pathEntry{byName: make(map[string]*cookies.Cookie)}
		de.paths[c.Path] = pe
		de.order = append(de.order, c.Path)
	}
	if _, exists := pe.byName[c.Name]; !exists {
		pe.order = append(pe.order, c.Name)
	}
	pe.byName[c.Name] = c
	return true
}

// Remove deletes the cookie under (domain, path, name), pruning any path
// and domain level left empty. Reports whether a deletion occurred.
func (ix *Index) Remove(domain, path, name string) bool {
	de := ix.domains[domain]
	if de == nil {
		return false
	}
	pe := de.paths[path]
	if pe == nil {
		return false
	}
	if _, ok := pe.byName[name]; !ok {
		return false
	}

	delete(pe.byName, name)
	pe.order = removeString(pe.order, name)
	if len(pe.byName) == 0 {
		delete(de.paths, path)
		de.order = removeString(de.order, path)
	}
	if len(de.paths) == 0 {
		delete(ix.domains, domain)
		ix.order = removeString(ix.order, domain)
	}
	return true
}

// RemoveByPathOrDomain deletes the whole path level under domain, or the
// whole domain when path is empty. Reports whether anything was deleted.
func (ix *Index) RemoveByPathOrDomain(domain, path string) bool {
	de := ix.domains[domain]
	if de == nil {
		return false
	}
	if path == "" {
		delete(ix.domains, domain)
		ix.order = removeString(ix.order, domain)
		return true
	}
	if _, ok := de.paths[path]; !ok {
		return false
	}
	delete(de.paths, path)
	de.order = removeString(de.order, path)
	if len(de.paths) == 0 {
		delete(ix.domains, domain)
		ix.order = removeString(ix.order, domain)
	}
	return true
}

// RemoveAll clears the index. Reports false when it was already empty so
// the caller can skip a pointless file write.
func (ix *Index) RemoveAll() bool {
	if len(ix.domains) == 0 {
		return false
	}
	ix.domains = make(map[string]*domainEntry)
	ix.order = nil
	return true
}

// All flattens the index and stable-sorts by ascending CreationIndex, so
// cookies keep their creation order across reloads regardless of where
// they sit in the domain/path/name hierarchy.
func (ix *Index) All() []*cookies.Cookie {
	var out []*cookies.Cookie
	ix.Walk(func(_, _ string, c *cookies.Cookie) {
		out = append(out, c)
	})
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreationIndex < out[j].CreationIndex
	})
	return out
}

// Walk visits every cookie in index insertion order.
func (ix *Index) Walk(fn func(domain, path string, c *cookies.Cookie)) {
	for _, domain := range ix.order {
		de := ix.domains[domain]
		for _, path := range de.order {
			pe := de.paths[path]
			for _, name := range pe.order {
				fn(domain, path, pe.byName[name])
			}
		}
	}
}

// Len returns the number of stored cookies.
func (ix *Index) Len() int {
	n := 0
	for _, de := range ix.domains {
		for _, pe := range de.paths {
			n += len(pe.byName)
		}
	}
	return n
}

// Empty reports whether the index holds no cookies.
func (ix *Index) Empty() bool {
	return len(ix.domains) == 0
}

func removeString(s []string, v string) []string {
	for i, x := range s {
		if x == v {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}
