// Package selector assigns inclusion tiers to ranked stories.
package selector

import (
	"sort"

	"NewsRanker/internal/domain"
)

// Options are the tier thresholds and caps.
type Options struct {
	MustIncludeScore float64
	TopMinScore      float64
	GlanceLow        float64
	GlanceHigh       float64
	MaxTop           int
	MaxGlance        int
}

// DefaultOptions returns the stock ranker thresholds.
func DefaultOptions() Options {
	return Options{
		MustIncludeScore: 80,
		TopMinScore:      55,
		GlanceLow:        45,
		GlanceHigh:       54,
		MaxTop:           5,
		MaxGlance:        3,
	}
}

// Selection is the tiered outcome for one entity.
type Selection struct {
	// Top holds must-include and top stories, highest score first.
	Top    []domain.ScoredStory
	Glance []domain.ScoredStory
	// Stories is every input story with its tier set.
	Stories      []domain.ScoredStory
	IncludedURLs []string
}

// Empty reports whether nothing was selected.
func (s Selection) Empty() bool {
	return len(s.Top) == 0 && len(s.Glance) == 0
}

// Select runs two passes over the stories in score order. The first assigns
// must-include (uncapped) and top (capped by MaxTop); the second assigns
// glance to stories in the glance range whose primary tag is not already
// covered by a selected top story. Everything else is dropped.
func Select(stories []domain.ScoredStory, opts Options) Selection {
	ordered := append([]domain.ScoredStory(nil), stories...)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Score > ordered[j].Score
	})

	topTags := make(map[domain.Tag]struct{})
	topCount := 0
	for i := range ordered {
		st := &ordered[i]
		switch {
		case st.Score >= opts.MustIncludeScore:
			st.Tier = domain.TierMustInclude
		case st.Score >= opts.TopMinScore && topCount < opts.MaxTop:
			st.Tier = domain.TierTop
			topCount++
		default:
			st.Tier = domain.TierDropped
			continue
		}
		topTags[st.PrimaryTag] = struct{}{}
	}

	glanceCount := 0
	for i := range ordered {
		st := &ordered[i]
		if st.Tier != domain.TierDropped || glanceCount >= opts.MaxGlance {
			continue
		}
		if st.Score < opts.GlanceLow || st.Score > opts.GlanceHigh {
			continue
		}
		if _, covered := topTags[st.PrimaryTag]; covered {
			continue
		}
		st.Tier = domain.TierGlance
		glanceCount++
	}

	sel := Selection{Stories: ordered}
	seen := make(map[string]struct{})
	for _, st := range ordered {
		switch st.Tier {
		case domain.TierMustInclude, domain.TierTop:
			sel.Top = append(sel.Top, st)
		case domain.TierGlance:
			sel.Glance = append(sel.Glance, st)
		default:
			continue
		}
		for _, u := range st.Cluster.CanonicalURLs() {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			sel.IncludedURLs = append(sel.IncludedURLs, u)
		}
	}
	return sel
}
