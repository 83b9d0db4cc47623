package canonical

import (
	"net/url"
	"strings"
)

// Canonicalizer reduces a raw URL to a stable identity key used for
// deduplication and freshness checks. Canonicalize is a total function:
// it never fails, falling back to a lower-cased trimmed form when the
// URL does not parse.
type Canonicalizer struct {
	stripExact    map[string]bool
	stripPrefixes []string
}

// maxUnwrapDepth bounds recursion through nested redirect wrappers.
const maxUnwrapDepth = 3

// wrapperParams maps known redirect-wrapper hosts to the query
// parameter carrying the embedded destination URL.
var wrapperParams = map[string]string{
	"news.google.com": "url",
	"www.google.com":  "q",
	"google.com":      "q",
	"l.facebook.com":  "u",
	"lm.facebook.com": "u",
	"out.reddit.com":  "url",
	"t.umblr.com":     "z",
}

// New builds a canonicalizer from the configured tracking-parameter
// list. Entries ending in "*" match by prefix ("utm_*" covers
// utm_source, utm_medium, ...).
func New(stripParams []string) *Canonicalizer {
	c := &Canonicalizer{stripExact: make(map[string]bool)}
	for _, p := range stripParams {
		if strings.HasSuffix(p, "*") {
			c.stripPrefixes = append(c.stripPrefixes, strings.TrimSuffix(p, "*"))
		} else {
			c.stripExact[strings.ToLower(p)] = true
		}
	}
	return c
}

// Canonicalize normalizes raw into its canonical key. Two URLs that
// differ only by tracking parameters or wrapper indirection produce the
// same key.
func (c *Canonicalizer) Canonicalize(raw string) string {
	return c.canonicalize(raw, 0)
}

// CanonicalizeResolved prefers a caller-supplied post-redirect URL over
// the wrapper URL when one is available.
func (c *Canonicalizer) CanonicalizeResolved(raw, resolved string) string {
	if resolved != "" {
		return c.Canonicalize(resolved)
	}
	return c.Canonicalize(raw)
}

func (c *Canonicalizer) canonicalize(raw string, depth int) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fallback(raw)
	}

	host := strings.ToLower(u.Hostname())

	if depth < maxUnwrapDepth {
		if param, ok := wrapperParams[host]; ok {
			if dest := u.Query().Get(param); dest != "" {
				if unescaped, err := url.QueryUnescape(dest); err == nil {
					dest = unescaped
				}
				if strings.HasPrefix(dest, "http://") || strings.HasPrefix(dest, "https://") {
					return c.canonicalize(dest, depth+1)
				}
			}
		}
	}

	path := strings.TrimSuffix(u.Path, "/")

	query := ""
	if u.RawQuery != "" {
		kept := url.Values{}
		for name, vals := range u.Query() {
			if c.isTracking(name) {
				continue
			}
			for _, v := range vals {
				kept.Add(name, v)
			}
		}
		// Encode sorts keys, keeping the key deterministic regardless
		// of original parameter order.
		query = kept.Encode()
	}

	out := "https://" + host + path
	if query != "" {
		out += "?" + query
	}
	return out
}

func (c *Canonicalizer) isTracking(name string) bool {
	name = strings.ToLower(name)
	if c.stripExact[name] {
		return true
	}
	for _, prefix := range c.stripPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

func fallback(raw string) string {
	return strings.TrimSuffix(strings.ToLower(raw), "/")
}

// Host extracts the lower-cased hostname without a leading "www." for
// source-table lookups. Returns "" when the URL does not parse.
func Host(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
