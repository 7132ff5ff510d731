// Package codec implements the two on-disk cookie file formats: a JSON
// object tree keyed domain → path → name, and the line-oriented Netscape
// cookie file format.
package codec

import (
	"bytes"
	"errors"
	"fmt"
)

// Format identifies an on-disk cookie file format.
type Format int

const (
	// FormatAuto detects the format from the file's leading bytes.
	FormatAuto Format = iota
	// FormatJSON is the structured JSON object tree.
	FormatJSON
	// FormatNetscape is the line-oriented Netscape cookie file format.
	FormatNetscape
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatNetscape:
		return "netscape"
	default:
		return "auto"
	}
}

// ParseFormat converts a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "auto":
		return FormatAuto, nil
	case "json":
		return FormatJSON, nil
	case "netscape":
		return FormatNetscape, nil
	}
	return FormatAuto, fmt.Errorf("unknown cookie file format %q", s)
}

// ErrInvalidFormat indicates a structured file whose root is not an
// object (an array or scalar).
var ErrInvalidFormat = errors.New("root must be an object")

// ErrBadHeader indicates a line-oriented file that does not start with
// the Netscape cookie file header.
var ErrBadHeader = errors.New("missing netscape cookie file header")

// ParseError is a fatal parse failure, carrying the file it came from
// and, for line-oriented input, the 1-based line number.
type ParseError struct {
	File string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.File, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.File, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Detect resolves the format of existing file content: a leading '{' or
// '[' means JSON, anything else (including empty content) is treated as
// the Netscape format.
func Detect(data []byte) Format {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatNetscape
}
