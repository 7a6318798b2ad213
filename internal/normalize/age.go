package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var relativeAge = regexp.MustCompile(`^(\d+|an?)\s*(minutes?|mins?|m|hours?|hrs?|h|days?|d|weeks?|wks?|w|months?|mos?|years?|yrs?|y)\s+ago$`)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	time.RFC1123Z,
	time.RFC1123,
	"January 2, 2006",
	"Jan 2, 2006",
	"2006-01-02",
}

// ParseAge interprets an age hint relative to now. It understands
// "N minutes/hours/days/weeks/months/years ago" (with common abbreviations
// and "a"/"an" for one), "just now", "yesterday" and absolute timestamps.
func ParseAge(age string, now time.Time) (time.Time, bool) {
	value := strings.ToLower(strings.TrimSpace(age))
	if value == "" {
		return time.Time{}, false
	}

	switch value {
	case "just now", "now", "today":
		return now, true
	case "yesterday":
		return now.Add(-24 * time.Hour), true
	}

	if m := relativeAge.FindStringSubmatch(value); m != nil {
		n := 1
		if m[1] != "a" && m[1] != "an" {
			var err error
			if n, err = strconv.Atoi(m[1]); err != nil {
				return time.Time{}, false
			}
		}
		return ago(now, n, m[2]), true
	}

	raw := strings.TrimSpace(age)
	for _, layout := range absoluteLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func ago(now time.Time, n int, unit string) time.Time {
	switch {
	case strings.HasPrefix(unit, "mo"):
		return now.AddDate(0, -n, 0)
	case unit[0] == 'y':
		return now.AddDate(-n, 0, 0)
	case unit[0] == 'm':
		return now.Add(-time.Duration(n) * time.Minute)
	case unit[0] == 'h':
		return now.Add(-time.Duration(n) * time.Hour)
	case unit[0] == 'd':
		return now.AddDate(0, 0, -n)
	default:
		return now.AddDate(0, 0, -7*n)
	}
}
