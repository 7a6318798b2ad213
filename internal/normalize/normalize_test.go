package normalize

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRanker/internal/domain"
)

var now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func TestParseAge(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want time.Time
	}{
		{"5 minutes ago", now.Add(-5 * time.Minute)},
		{"1 min ago", now.Add(-time.Minute)},
		{"3 hours ago", now.Add(-3 * time.Hour)},
		{"2 hr ago", now.Add(-2 * time.Hour)},
		{"1 day ago", now.Add(-24 * time.Hour)},
		{"2 weeks ago", now.Add(-14 * 24 * time.Hour)},
		{"Yesterday", now.Add(-24 * time.Hour)},
		{"just now", now},
		{"an hour ago", now.Add(-time.Hour)},
		{"a day ago", now.Add(-24 * time.Hour)},
		{"3 months ago", time.Date(2025, 12, 10, 12, 0, 0, 0, time.UTC)},
		{"a month ago", time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC)},
		{"2 years ago", time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)},
		{"1 yr ago", time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)},
		{"2026-03-09T08:30:00Z", time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)},
		{"Mon, 09 Mar 2026 08:30:00 GMT", time.Date(2026, 3, 9, 8, 30, 0, 0, time.UTC)},
	}
	for _, tc := range cases {
		got, ok := ParseAge(tc.in, now)
		require.True(t, ok, tc.in)
		assert.True(t, tc.want.Equal(got), "%s: got %s", tc.in, got)
	}

	_, ok := ParseAge("sometime soon", now)
	assert.False(t, ok)
	_, ok = ParseAge("", now)
	assert.False(t, ok)
}

func TestRecordsDropsMalformed(t *testing.T) {
	t.Parallel()

	res := Records([]domain.RawRecord{
		{Title: "Acme raises $50M", URL: "https://www.TechCrunch.com/acme"},
		{Title: "", URL: "https://a.com"},
		{Title: "No url", URL: "   "},
	}, Options{}, now)

	require.Len(t, res.Candidates, 1)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, "techcrunch.com", res.Candidates[0].SourceDomain)
	assert.True(t, now.Equal(res.Candidates[0].PublishedAt))
}

func TestRecordCleansSnippetAndTitle(t *testing.T) {
	t.Parallel()

	published := time.Date(2026, 3, 10, 7, 0, 0, 0, time.FixedZone("EST", -5*3600))
	cand, ok := Record(domain.RawRecord{
		Title:       "  <strong>Acme</strong>   raises   Series B ",
		URL:         "https://example.com/a",
		Description: "Funding <strong>round</strong> &amp; more\n\n text",
		Age:         "3 days ago",
		PublishedAt: &published,
		Lane:        domain.LaneSearch,
	}, Options{MaxSnippetRunes: 300}, now)

	require.True(t, ok)
	assert.Equal(t, "Acme raises Series B", cand.Title)
	assert.Equal(t, "Funding round & more text", cand.Snippet)
	assert.Equal(t, time.UTC, cand.PublishedAt.Location())
	assert.True(t, published.Equal(cand.PublishedAt), "absolute timestamp wins over age")
	assert.Equal(t, domain.LaneSearch, cand.Lane)
}

func TestTruncateIsRuneSafe(t *testing.T) {
	t.Parallel()

	s := strings.Repeat("é", 10)
	assert.Equal(t, strings.Repeat("é", 4), Truncate(s, 4))
	assert.Equal(t, s, Truncate(s, 20))
	assert.Equal(t, s, Truncate(s, 0))
}
