package cluster

import (
	"strings"

	"NewsRanker/internal/canon"
)

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "by": {},
	"for": {}, "from": {}, "has": {}, "have": {}, "in": {}, "into": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "over": {}, "says": {}, "that": {}, "the": {},
	"this": {}, "to": {}, "was": {}, "will": {}, "with": {}, "after": {}, "amid": {},
	"new": {}, "report": {}, "reports": {}, "s": {},
}

// SignificantWords returns the set of lower-cased, accent-folded words of a
// title with stopwords removed.
func SignificantWords(title string) map[string]struct{} {
	words := strings.Fields(canon.TitleKey(title, 0))
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, stop := stopwords[w]; stop {
			continue
		}
		set[w] = struct{}{}
	}
	return set
}

// Similarity is the overlap coefficient of the significant-word sets of two
// titles: |A∩B| / min(|A|,|B|). It is symmetric and lies in [0,1].
//
// The min denominator lets a short headline match a longer rewrite of the
// same story; raise the threshold if unrelated short titles start merging.
func Similarity(a, b string) float64 {
	return overlap(SignificantWords(a), SignificantWords(b))
}

func overlap(left, right map[string]struct{}) float64 {
	if len(left) == 0 || len(right) == 0 {
		return 0
	}
	small, large := left, right
	if len(small) > len(large) {
		small, large = large, small
	}
	shared := 0
	for w := range small {
		if _, ok := large[w]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(small))
}
