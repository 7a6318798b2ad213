// Package tagger labels stories with event types from a vertical's vocabulary.
package tagger

import (
	"regexp"
	"strings"

	"NewsRanker/internal/domain"
)

// Rule binds a tag to the keywords that trigger it.
type Rule struct {
	Tag      domain.Tag
	Keywords []string
}

type matcher struct {
	phrase string
	word   *regexp.Regexp
}

func (m matcher) match(text string) bool {
	if m.word != nil {
		return m.word.MatchString(text)
	}
	return strings.Contains(text, m.phrase)
}

// Tagger applies an ordered vocabulary. Vocabulary order is the tie-break
// for primary tag selection.
type Tagger struct {
	tags     []domain.Tag
	matchers [][]matcher
	order    map[domain.Tag]int
}

// New compiles rules. Keywords of three characters or less match whole
// words only; longer keywords and phrases match as substrings.
func New(rules []Rule) *Tagger {
	t := &Tagger{
		tags:     make([]domain.Tag, 0, len(rules)),
		matchers: make([][]matcher, 0, len(rules)),
		order:    make(map[domain.Tag]int, len(rules)),
	}
	for _, r := range rules {
		if _, dup := t.order[r.Tag]; dup || r.Tag == "" {
			continue
		}
		ms := make([]matcher, 0, len(r.Keywords))
		for _, kw := range r.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw == "" {
				continue
			}
			if len(kw) <= 3 && !strings.Contains(kw, " ") {
				ms = append(ms, matcher{word: regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)})
				continue
			}
			ms = append(ms, matcher{phrase: kw})
		}
		t.order[r.Tag] = len(t.tags)
		t.tags = append(t.tags, r.Tag)
		t.matchers = append(t.matchers, ms)
	}
	return t
}

// Vocabulary returns the tags in vocabulary order.
func (t *Tagger) Vocabulary() []domain.Tag {
	return append([]domain.Tag(nil), t.tags...)
}

// Tag returns every tag whose keywords appear in the title or snippet, in
// vocabulary order, or [other] when nothing matches.
func (t *Tagger) Tag(title, snippet string) []domain.Tag {
	text := strings.ToLower(title + " " + snippet)

	var out []domain.Tag
	for i, tag := range t.tags {
		for _, m := range t.matchers[i] {
			if m.match(text) {
				out = append(out, tag)
				break
			}
		}
	}
	if len(out) == 0 {
		return []domain.Tag{domain.TagOther}
	}
	return out
}

// Primary picks the tag with the highest weight; ties go to the tag that
// comes first in the vocabulary. Tags without a weight use defaultWeight.
func (t *Tagger) Primary(tags []domain.Tag, weights map[domain.Tag]float64, defaultWeight float64) domain.Tag {
	if len(tags) == 0 {
		return domain.TagOther
	}

	best := tags[0]
	bestWeight := Weight(best, weights, defaultWeight)
	for _, tag := range tags[1:] {
		w := Weight(tag, weights, defaultWeight)
		if w > bestWeight || (w == bestWeight && t.rank(tag) < t.rank(best)) {
			best, bestWeight = tag, w
		}
	}
	return best
}

func (t *Tagger) rank(tag domain.Tag) int {
	if i, ok := t.order[tag]; ok {
		return i
	}
	return len(t.tags)
}

// Weight is the configured weight of tag or defaultWeight when absent.
func Weight(tag domain.Tag, weights map[domain.Tag]float64, defaultWeight float64) float64 {
	if w, ok := weights[tag]; ok {
		return w
	}
	return defaultWeight
}
