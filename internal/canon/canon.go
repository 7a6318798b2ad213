// Package canon derives stable identities for URLs, titles and sources.
package canon

import (
	"net"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// DefaultStripParams are query parameters that never identify content.
var DefaultStripParams = []string{
	"fbclid", "gclid", "mc_cid", "mc_eid", "ref", "ref_src", "cmpid", "smid", "guccounter",
}

// CanonicalizeURL produces the URL identity used for dedup and seen state:
// https scheme, lower-cased host without default port, no fragment, no
// trailing slash, stripped tracking params and a sorted query.
func CanonicalizeURL(raw string, stripParams []string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" || parsed.Scheme == "" {
		return fallback(trimmed)
	}

	host := strings.ToLower(parsed.Hostname())
	if host == "" {
		return fallback(trimmed)
	}
	if strings.Contains(host, ":") {
		host = "[" + host + "]"
	}
	if port := parsed.Port(); port != "" && port != "80" && port != "443" {
		host = net.JoinHostPort(strings.Trim(host, "[]"), port)
	}

	path := strings.TrimRight(parsed.EscapedPath(), "/")

	var b strings.Builder
	b.WriteString("https://")
	b.WriteString(host)
	b.WriteString(path)
	if query := canonicalQuery(parsed.RawQuery, stripParams); query != "" {
		b.WriteByte('?')
		b.WriteString(query)
	}
	return b.String()
}

func canonicalQuery(rawQuery string, stripParams []string) string {
	if rawQuery == "" {
		return ""
	}

	strip := make(map[string]struct{}, len(stripParams))
	for _, p := range stripParams {
		strip[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	ignored := func(key string) bool {
		lower := strings.ToLower(key)
		if strings.HasPrefix(lower, "utm_") {
			return true
		}
		_, ok := strip[lower]
		return ok
	}

	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		// ParseQuery skips pairs with ';' or bad escapes; keep them verbatim.
		return rawPairs(rawQuery, ignored)
	}

	kept := url.Values{}
	for key, vals := range values {
		if ignored(key) {
			continue
		}
		sorted := append([]string(nil), vals...)
		sort.Strings(sorted)
		kept[key] = sorted
	}
	// Encode sorts by key.
	return kept.Encode()
}

func rawPairs(rawQuery string, ignored func(string) bool) string {
	var kept []string
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, _, _ := strings.Cut(pair, "=")
		if unescaped, err := url.QueryUnescape(key); err == nil {
			key = unescaped
		}
		if ignored(key) {
			continue
		}
		kept = append(kept, pair)
	}
	sort.Strings(kept)
	return strings.Join(kept, "&")
}

func fallback(raw string) string {
	return strings.TrimRight(strings.ToLower(raw), "/")
}

// Domain returns the lower-cased host of rawURL without a leading "www.".
func Domain(rawURL string) string {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}
	return trimWWW(strings.ToLower(parsed.Hostname()))
}

func trimWWW(host string) string {
	return strings.TrimPrefix(host, "www.")
}

var foldAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// TitleKey folds a headline to a comparison key: accents removed,
// lower-cased, punctuation dropped, whitespace collapsed and truncated to
// prefix runes. A prefix of zero disables truncation.
func TitleKey(title string, prefix int) string {
	folded, _, err := transform.String(foldAccents, title)
	if err != nil {
		folded = title
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	space := false
	for _, r := range folded {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			// Punctuation and spaces both separate words.
			if space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = false
			b.WriteRune(r)
		default:
			space = true
		}
	}

	key := b.String()
	if prefix > 0 {
		rs := []rune(key)
		if len(rs) > prefix {
			key = strings.TrimSpace(string(rs[:prefix]))
		}
	}
	return key
}

// SourceKey maps a host to a configured source key. Matching prefers an
// exact domain, then the longest domain suffix, then a key equal to the
// host. Unknown hosts map to themselves.
func SourceKey(host string, sources map[string][]string) string {
	host = trimWWW(strings.ToLower(strings.TrimSpace(host)))
	if host == "" {
		return ""
	}

	keys := make([]string, 0, len(sources))
	for key := range sources {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	bestKey, bestLen := "", 0
	for _, key := range keys {
		for _, domain := range sources[key] {
			domain = trimWWW(strings.ToLower(strings.TrimSpace(domain)))
			if domain == "" {
				continue
			}
			if host == domain {
				return key
			}
			if strings.HasSuffix(host, "."+domain) && len(domain) > bestLen {
				bestKey, bestLen = key, len(domain)
			}
		}
	}
	if bestKey != "" {
		return bestKey
	}
	// A key spelled like the host, or no match at all, both resolve to the host.
	return host
}
