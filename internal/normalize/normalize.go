package normalize

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"NewsRanker/internal/canon"
	"NewsRanker/internal/domain"
)

// DefaultMaxSnippetRunes bounds snippet length when a vertical sets none.
const DefaultMaxSnippetRunes = 300

// Options tune candidate normalization.
type Options struct {
	MaxSnippetRunes int
}

// Result is the output of a normalization pass.
type Result struct {
	Candidates []domain.Candidate
	Dropped    int
}

// Records converts raw collector output into candidates. Records without a
// title or url are dropped and counted, never reported as errors.
func Records(records []domain.RawRecord, opts Options, now time.Time) Result {
	res := Result{Candidates: make([]domain.Candidate, 0, len(records))}
	for _, rec := range records {
		cand, ok := Record(rec, opts, now)
		if !ok {
			res.Dropped++
			continue
		}
		res.Candidates = append(res.Candidates, cand)
	}
	return res
}

// Record normalizes a single raw record.
func Record(rec domain.RawRecord, opts Options, now time.Time) (domain.Candidate, bool) {
	title := CollapseSpace(StripHTML(rec.Title))
	link := strings.TrimSpace(rec.URL)
	if title == "" || link == "" {
		return domain.Candidate{}, false
	}

	limit := opts.MaxSnippetRunes
	if limit <= 0 {
		limit = DefaultMaxSnippetRunes
	}

	return domain.Candidate{
		Title:        title,
		URL:          link,
		Snippet:      Truncate(CollapseSpace(StripHTML(rec.Description)), limit),
		SourceDomain: canon.Domain(link),
		PublishedAt:  PublishedAt(rec, now),
		Lane:         rec.Lane,
	}, true
}

// PublishedAt resolves the publication time of a record in UTC. An absolute
// timestamp wins over the relative age; unknown ages resolve to now.
func PublishedAt(rec domain.RawRecord, now time.Time) time.Time {
	if rec.PublishedAt != nil && !rec.PublishedAt.IsZero() {
		return rec.PublishedAt.UTC()
	}
	if ts, ok := ParseAge(rec.Age, now); ok {
		return ts.UTC()
	}
	return now.UTC()
}

// StripHTML returns the text content of an HTML fragment.
func StripHTML(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return doc.Text()
}

// CollapseSpace trims s and reduces every whitespace run to one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most limit runes.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	rs := []rune(s)
	return strings.TrimSpace(string(rs[:limit]))
}
