package canon

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanonicalizeURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want string
	}{
		{"forces https and lowers host", "HTTP://WWW.Reuters.com/markets/Story/", "https://www.reuters.com/markets/Story"},
		{"drops fragment and default port", "https://example.com:443/a#section", "https://example.com/a"},
		{"keeps custom port", "http://example.com:8080/a", "https://example.com:8080/a"},
		{"strips tracking params", "https://example.com/a?utm_source=x&id=7&fbclid=abc&UTM_Medium=y", "https://example.com/a?id=7"},
		{"sorts remaining params", "https://example.com/a?b=2&a=1", "https://example.com/a?a=1&b=2"},
		{"bare host", "https://example.com/", "https://example.com"},
		{"unparseable falls back", "Not A URL/", "not a url"},
		{"empty", "  ", ""},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, CanonicalizeURL(tc.in, DefaultStripParams))
		})
	}
}

func TestCanonicalizeURLIsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"HTTP://Example.com:80/Path/?z=1&a=2&utm_campaign=q#frag",
		"https://news.site/a%20b/?q=hello+world",
		"https://[::1]:8443/x/",
		"garbage///",
	}
	for _, in := range inputs {
		once := CanonicalizeURL(in, DefaultStripParams)
		assert.Equal(t, once, CanonicalizeURL(once, DefaultStripParams), in)
	}
}

func TestCanonicalizeURLIgnoresStrippedParamsAndOrder(t *testing.T) {
	t.Parallel()

	a := CanonicalizeURL("https://acme.com/news?id=1&ref=tw&utm_source=mail", DefaultStripParams)
	b := CanonicalizeURL("https://ACME.com/news/?utm_medium=x&id=1", DefaultStripParams)
	assert.Equal(t, a, b)

	custom := CanonicalizeURL("https://acme.com/news?session=9&id=1", []string{"SESSION"})
	assert.Equal(t, "https://acme.com/news?id=1", custom)
}

func TestCanonicalizeURLKeepsUnparseableParams(t *testing.T) {
	t.Parallel()

	a := CanonicalizeURL("https://news.example/article?id=101;lang=en", DefaultStripParams)
	b := CanonicalizeURL("https://news.example/article?id=202;lang=en", DefaultStripParams)
	assert.Equal(t, "https://news.example/article?id=101;lang=en", a)
	assert.NotEqual(t, a, b)

	mixed := CanonicalizeURL("https://news.example/article?utm_source=mail&id=101;lang=en&fbclid=x", DefaultStripParams)
	assert.Equal(t, a, mixed)
	assert.Equal(t, mixed, CanonicalizeURL(mixed, DefaultStripParams))

	assert.NotEqual(t,
		CanonicalizeURL("https://news.example/a?slug=%zz1", DefaultStripParams),
		CanonicalizeURL("https://news.example/a?slug=%zz2", DefaultStripParams),
	)
}

func TestDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "reuters.com", Domain("https://www.Reuters.com/x"))
	assert.Equal(t, "finance.yahoo.com", Domain("https://finance.yahoo.com/news/a"))
	assert.Equal(t, "", Domain("::bad"))
}

func TestTitleKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "acme raises 50m series b", TitleKey("  Acme Raises $50M — Series B!  ", 0))
	assert.Equal(t, "cafe nestle resume", TitleKey("Café Nestlé: Résumé", 0))
	assert.Equal(t, "acme", TitleKey("Acme raises", 5))
	assert.Equal(t, TitleKey("Über-Deal", 0), TitleKey("uber deal", 0))
}

func TestSourceKey(t *testing.T) {
	t.Parallel()

	sources := map[string][]string{
		"reuters": {"reuters.com"},
		"yahoo":   {"yahoo.com", "finance.yahoo.com"},
		"x":       {"x.com", "twitter.com"},
	}

	assert.Equal(t, "reuters", SourceKey("www.reuters.com", sources))
	assert.Equal(t, "reuters", SourceKey("uk.reuters.com", sources))
	assert.Equal(t, "yahoo", SourceKey("finance.yahoo.com", sources))
	assert.Equal(t, "x", SourceKey("twitter.com", sources))
	assert.Equal(t, "techcrunch.com", SourceKey("TechCrunch.com", sources))
	assert.Equal(t, "", SourceKey("", sources))
}
