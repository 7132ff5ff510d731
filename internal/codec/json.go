package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"sort"

	"github.com/artpar/cookiefile/internal/cookies"
	"github.com/artpar/cookiefile/internal/index"
)

// EncodeJSON serializes the index as a nested JSON object keyed by
// domain, path, and cookie name.
func EncodeJSON(ix *index.Index) ([]byte, error) {
	root := make(map[string]map[string]map[string]*cookies.Cookie)
	ix.Walk(func(domain, path string, c *cookies.Cookie) {
		paths := root[domain]
		if paths == nil {
			paths = make(map[string]map[string]*cookies.Cookie)
			root[domain] = paths
		}
		names := paths[path]
		if names == nil {
			names = make(map[string]*cookies.Cookie)
			paths[path] = names
		}
		names[c.Name] = c
	})
	return json.MarshalIndent(root, "", "  ")
}

// DecodeJSON parses a structured cookie file. Empty input yields an
// empty index. A root that is not an object fails with ErrInvalidFormat;
// a top-level syntax error is a fatal ParseError naming the file. A leaf
// cookie that fails to decode is logged and dropped, and decoding
// continues.
func DecodeJSON(data []byte, file string, log *slog.Logger) (*index.Index, error) {
	if log == nil {
		log = slog.Default()
	}
	ix := index.New()

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return ix, nil
	}

	var root map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &root); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return nil, &ParseError{File: file, Err: ErrInvalidFormat}
		}
		return nil, &ParseError{File: file, Err: err}
	}
	if root == nil {
		// A JSON null unmarshals into a nil map without error.
		return nil, &ParseError{File: file, Err: ErrInvalidFormat}
	}

	for _, domain := range sortedKeys(root) {
		var paths map[string]json.RawMessage
		if err := json.Unmarshal(root[domain], &paths); err != nil {
			log.Warn("dropping malformed domain entry", "file", file, "domain", domain, "error", err)
			continue
		}
		for _, path := range sortedKeys(paths) {
			var names map[string]json.RawMessage
			if err := json.Unmarshal(paths[path], &names); err != nil {
				log.Warn("dropping malformed path entry", "file", file, "domain", domain, "path", path, "error", err)
				continue
			}
			for _, name := range sortedKeys(names) {
				var c cookies.Cookie
				if err := json.Unmarshal(names[name], &c); err != nil {
					log.Warn("dropping malformed cookie", "file", file, "domain", domain, "path", path, "name", name, "error", err)
					continue
				}
				if c.Domain == "" {
					c.Domain = domain
				}
				if c.Path == "" {
					c.Path = path
				}
				if c.Name == "" {
					c.Name = name
				}
				ix.Put(&c)
			}
		}
	}
	return ix, nil
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
