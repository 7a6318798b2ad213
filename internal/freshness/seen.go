// Package freshness keeps stories already reported in recent digests out of
// new ones.
package freshness

import (
	"sort"
	"time"

	"NewsRanker/internal/domain"
)

// DateLayout is the key format of SeenState.
const DateLayout = "2006-01-02"

const (
	DefaultLookbackDays  = 1
	DefaultRetentionDays = 30
)

// Day lists the canonical URLs reported on one date.
type Day struct {
	URLs []string `json:"urls"`
}

// SeenState maps an ISO date to the URLs reported that day.
type SeenState map[string]Day

// DateKey formats t as a SeenState key.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

func cutoff(today time.Time, days int) string {
	return DateKey(today.AddDate(0, 0, -days))
}

// URLsSince returns every URL recorded on or after today minus lookbackDays.
// Keys that are not dates are ignored.
func (s SeenState) URLsSince(today time.Time, lookbackDays int) map[string]struct{} {
	if lookbackDays < 0 {
		lookbackDays = 0
	}
	from := cutoff(today, lookbackDays)

	out := make(map[string]struct{})
	for key, day := range s {
		if !validKey(key) || key < from {
			continue
		}
		for _, u := range day.URLs {
			out[u] = struct{}{}
		}
	}
	return out
}

// Record appends urls to the given date, skipping ones already present.
func (s SeenState) Record(date time.Time, urls []string) {
	if len(urls) == 0 {
		return
	}
	key := DateKey(date)
	day := s[key]

	present := make(map[string]struct{}, len(day.URLs)+len(urls))
	for _, u := range day.URLs {
		present[u] = struct{}{}
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		if _, ok := present[u]; ok {
			continue
		}
		present[u] = struct{}{}
		day.URLs = append(day.URLs, u)
	}
	s[key] = day
}

// Prune removes dates older than today minus retentionDays along with any
// malformed keys, returning how many entries were removed.
func (s SeenState) Prune(today time.Time, retentionDays int) int {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	from := cutoff(today, retentionDays)

	removed := 0
	for key := range s {
		if !validKey(key) || key < from {
			delete(s, key)
			removed++
		}
	}
	return removed
}

// Dates returns the recorded dates in ascending order.
func (s SeenState) Dates() []string {
	keys := make([]string, 0, len(s))
	for key := range s {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func validKey(key string) bool {
	_, err := time.Parse(DateLayout, key)
	return err == nil
}

// Filter drops clusters with any member canonical URL in seen. It returns
// the kept clusters in input order and the number removed.
func Filter(clusters []domain.Cluster, seen map[string]struct{}) ([]domain.Cluster, int) {
	if len(seen) == 0 {
		return clusters, 0
	}
	kept := make([]domain.Cluster, 0, len(clusters))
	removed := 0
	for _, cl := range clusters {
		if wasSeen(cl, seen) {
			removed++
			continue
		}
		kept = append(kept, cl)
	}
	return kept, removed
}

func wasSeen(cl domain.Cluster, seen map[string]struct{}) bool {
	for _, u := range cl.CanonicalURLs() {
		if _, ok := seen[u]; ok {
			return true
		}
	}
	return false
}
