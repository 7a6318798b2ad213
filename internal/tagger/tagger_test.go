package tagger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"NewsRanker/internal/domain"
)

func stockRules() []Rule {
	return []Rule{
		{Tag: "guidance", Keywords: []string{"raises guidance", "cuts outlook", "guidance"}},
		{Tag: "sec_filing", Keywords: []string{"8-k", "10-k", "sec filing"}},
		{Tag: "earnings", Keywords: []string{"earnings", "beats estimates", "eps"}},
		{Tag: "lawsuit", Keywords: []string{"lawsuit", "class action"}},
		{Tag: "macro", Keywords: []string{"fed", "inflation"}},
	}
}

func TestTagInVocabularyOrder(t *testing.T) {
	t.Parallel()

	tg := New(stockRules())

	assert.Equal(t, []domain.Tag{"guidance", "earnings"},
		tg.Tag("Acme beats estimates, raises guidance", ""))
	assert.Equal(t, []domain.Tag{"sec_filing", "lawsuit"},
		tg.Tag("Acme files 8-K", "Class action lawsuit disclosed"))
	assert.Equal(t, []domain.Tag{domain.TagOther}, tg.Tag("Acme opens new office", "nothing here"))
}

func TestShortKeywordsMatchWholeWords(t *testing.T) {
	t.Parallel()

	tg := New(stockRules())

	assert.Equal(t, []domain.Tag{domain.TagOther}, tg.Tag("Acme feds deploy fedora", "steps up"),
		"fed and eps must not match inside other words")
	assert.Equal(t, []domain.Tag{"earnings", "macro"}, tg.Tag("Fed decision lifts EPS outlook", ""))
}

func TestPrimary(t *testing.T) {
	t.Parallel()

	tg := New(stockRules())
	weights := map[domain.Tag]float64{"guidance": 90, "sec_filing": 90, "earnings": 85, "lawsuit": 60}

	assert.Equal(t, domain.Tag("guidance"), tg.Primary([]domain.Tag{"earnings", "guidance"}, weights, 20))
	assert.Equal(t, domain.Tag("guidance"), tg.Primary([]domain.Tag{"sec_filing", "guidance"}, weights, 20),
		"equal weights fall back to vocabulary order")
	assert.Equal(t, domain.Tag("lawsuit"), tg.Primary([]domain.Tag{"macro", "lawsuit"}, weights, 20))
	assert.Equal(t, domain.TagOther, tg.Primary(nil, weights, 20))
	assert.Equal(t, domain.Tag("macro"), tg.Primary([]domain.Tag{"macro", domain.TagOther}, nil, 20),
		"unknown tags share the default weight and rank after vocabulary tags")
}
