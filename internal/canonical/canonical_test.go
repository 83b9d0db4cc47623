package canonical

import (
	"testing"

	"github.com/go-playground/assert/v2"
)

func newTestCanonicalizer() *Canonicalizer {
	return New([]string{"utm_*", "gclid", "fbclid", "ref", "cmpid"})
}

func TestCanonicalize(t *testing.T) {
	c := newTestCanonicalizer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "lowercases host",
			in:   "https://Reuters.com/Article/Abc",
			want: "https://reuters.com/Article/Abc",
		},
		{
			name: "strips trailing slash",
			in:   "https://reuters.com/article/abc/",
			want: "https://reuters.com/article/abc",
		},
		{
			name: "strips tracking params",
			in:   "https://reuters.com/a?utm_source=x&utm_medium=y&gclid=123",
			want: "https://reuters.com/a",
		},
		{
			name: "keeps meaningful params sorted",
			in:   "https://example.com/q?b=2&a=1&utm_campaign=z",
			want: "https://example.com/q?a=1&b=2",
		},
		{
			name: "drops fragment",
			in:   "https://example.com/a#section",
			want: "https://example.com/a",
		},
		{
			name: "forces https scheme",
			in:   "http://example.com/a",
			want: "https://example.com/a",
		},
		{
			name: "unwraps google redirect",
			in:   "https://www.google.com/url?q=https%3A%2F%2Freuters.com%2Fa&sa=t",
			want: "https://reuters.com/a",
		},
		{
			name: "unwraps reddit outbound",
			in:   "https://out.reddit.com?url=https://example.com/post/",
			want: "https://example.com/post",
		},
		{
			name: "unparseable falls back to lowercase trim",
			in:   "not a url/",
			want: "not a url",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Canonicalize(tt.in)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeIdempotent(t *testing.T) {
	c := newTestCanonicalizer()

	urls := []string{
		"https://reuters.com/a?utm_source=x",
		"https://www.google.com/url?q=https%3A%2F%2Freuters.com%2Fa",
		"HTTP://Example.COM/Path/?ref=abc",
		"garbage input",
	}

	for _, u := range urls {
		once := c.Canonicalize(u)
		twice := c.Canonicalize(once)
		assert.Equal(t, once, twice)
	}
}

func TestTrackingParamInvariance(t *testing.T) {
	c := newTestCanonicalizer()

	base := "https://reuters.com/a"
	for _, p := range []string{"utm_source", "utm_medium", "gclid", "fbclid", "ref", "cmpid"} {
		withParam := base + "?" + p + "=X"
		assert.Equal(t, c.Canonicalize(base), c.Canonicalize(withParam))
	}
}

func TestCanonicalizeResolved(t *testing.T) {
	c := newTestCanonicalizer()

	wrapper := "https://news.google.com/articles/xyz"
	resolved := "https://reuters.com/a/"

	assert.Equal(t, "https://reuters.com/a", c.CanonicalizeResolved(wrapper, resolved))
	assert.Equal(t, c.Canonicalize(wrapper), c.CanonicalizeResolved(wrapper, ""))
}

func TestHost(t *testing.T) {
	assert.Equal(t, "reuters.com", Host("https://www.Reuters.com/a"))
	assert.Equal(t, "bloomberg.com", Host("https://bloomberg.com"))
	assert.Equal(t, "", Host("://bad"))
}
