package codec

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/artpar/cookiefile/internal/cookies"
	"github.com/artpar/cookiefile/internal/index"
)

// httpOnlyPrefix marks a line as an HTTP-only cookie. It is a comment to
// readers that do not know the extension.
const httpOnlyPrefix = "#HttpOnly_"

var headerRe = regexp.MustCompile(`^#(?: Netscape)? HTTP Cookie File`)

const netscapeHeader = "# Netscape HTTP Cookie File\n" +
	"# http://curl.haxx.se/rfc/cookie_spec.html\n" +
	"# This is a generated file!  Do not edit.\n" +
	"\n"

// NetscapeOptions configures Netscape-format decoding.
type NetscapeOptions struct {
	// File names the input in errors and warnings.
	File string

	// ForceParse tolerates a missing header and malformed data lines:
	// bad lines are reported through OnLineError and skipped instead of
	// failing the whole parse.
	ForceParse bool

	// HTTPOnly enables the #HttpOnly_ line prefix extension. When off,
	// such lines are skipped as ordinary comments.
	HTTPOnly bool

	// OnLineError receives skipped malformed lines under ForceParse.
	OnLineError func(line int, err error)

	// Logger receives warnings for dropped entries. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

// DecodeNetscape parses a line-oriented Netscape cookie file into an
// index. The first non-blank line must carry the Netscape header unless
// ForceParse is set. Each data line holds seven tab-separated fields:
// domain, legacy subdomain flag, path, secure, expiry epoch seconds,
// name, and value; name and value are percent-encoded.
func DecodeNetscape(r io.Reader, opts NetscapeOptions) (*index.Index, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	ix := index.New()

	sc := bufio.NewScanner(r)
	lineNo := 0
	headerSeen := false
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		if !headerSeen {
			headerSeen = true
			if headerRe.MatchString(line) {
				continue
			}
			if !opts.ForceParse {
				return nil, &ParseError{File: opts.File, Line: lineNo, Err: ErrBadHeader}
			}
			// Tolerated under force-parse; fall through and treat the
			// line as ordinary content.
		}

		httpOnly := false
		if strings.HasPrefix(line, httpOnlyPrefix) {
			if !opts.HTTPOnly {
				continue // extension off: just a comment
			}
			httpOnly = true
			line = strings.TrimPrefix(line, httpOnlyPrefix)
		} else if strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 7 {
			err := fmt.Errorf("expected 7 tab-separated fields, got %d", len(fields))
			if !opts.ForceParse {
				return nil, &ParseError{File: opts.File, Line: lineNo, Err: err}
			}
			if opts.OnLineError != nil {
				opts.OnLineError(lineNo, err)
			}
			continue
		}

		c, err := decodeLine(fields, httpOnly)
		if err != nil {
			if !opts.ForceParse {
				return nil, &ParseError{File: opts.File, Line: lineNo, Err: err}
			}
			if opts.OnLineError != nil {
				opts.OnLineError(lineNo, err)
			}
			continue
		}
		if c.Domain == "" {
			log.Warn("skipping cookie with empty canonical domain", "file", opts.File, "line", lineNo)
			continue
		}
		ix.Put(c)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ix, nil
}

func decodeLine(fields []string, httpOnly bool) (*cookies.Cookie, error) {
	rawDomain := fields[0]
	// fields[1] is the legacy subdomain flag: read and discarded.
	// Host-only-ness comes from the raw domain's leading dot instead.
	hostOnly := !strings.HasPrefix(rawDomain, ".")

	var expires time.Time
	secs, err := strconv.ParseInt(fields[4], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad expiry %q: %w", fields[4], err)
	}
	if secs != 0 {
		expires = time.Unix(secs, 0)
	}

	name, err := url.PathUnescape(fields[5])
	if err != nil {
		return nil, fmt.Errorf("bad cookie name %q: %w", fields[5], err)
	}
	value, err := url.PathUnescape(fields[6])
	if err != nil {
		return nil, fmt.Errorf("bad cookie value %q: %w", fields[6], err)
	}

	return &cookies.Cookie{
		Name:     name,
		Value:    value,
		Domain:   cookies.CanonicalDomain(rawDomain),
		Path:     fields[2],
		Secure:   strings.EqualFold(fields[3], "TRUE"),
		HttpOnly: httpOnly,
		HostOnly: hostOnly,
		Expires:  expires,
	}, nil
}

// EncodeNetscape writes the index as a Netscape cookie file: the fixed
// header block, then one line per cookie in index order. The legacy
// subdomain flag is recomputed from the written domain string's leading
// dot, independent of the HostOnly attribute; historical readers of the
// format expect exactly that.
func EncodeNetscape(w io.Writer, ix *index.Index, httpOnlyExt bool) error {
	if _, err := io.WriteString(w, netscapeHeader); err != nil {
		return err
	}

	var werr error
	ix.Walk(func(_, _ string, c *cookies.Cookie) {
		if werr != nil {
			return
		}

		domain := c.Domain
		if !c.HostOnly && !strings.HasPrefix(domain, ".") {
			domain = "." + domain
		}
		legacyFlag := "FALSE"
		if strings.HasPrefix(domain, ".") {
			legacyFlag = "TRUE"
		}
		secure := "FALSE"
		if c.Secure {
			secure = "TRUE"
		}
		expiry := "0"
		if !c.Expires.IsZero() {
			expiry = strconv.FormatInt(c.Expires.Unix(), 10)
		}

		prefix := ""
		if httpOnlyExt && c.HttpOnly {
			prefix = httpOnlyPrefix
		}

		_, werr = fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			prefix, domain, legacyFlag, c.Path, secure, expiry,
			url.PathEscape(c.Name), url.PathEscape(c.Value))
	})
	return werr
}
