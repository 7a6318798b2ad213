// Package cluster groups candidates that describe the same story.
package cluster

import (
	"NewsRanker/internal/canon"
	"NewsRanker/internal/domain"
)

const (
	DefaultTitlePrefix         = 50
	DefaultSimilarityThreshold = 0.55
	DefaultMinTitleWords       = 2
)

// Options tune both clustering passes.
type Options struct {
	TitlePrefix         int
	SimilarityThreshold float64
	MinTitleWords       int
}

func (o Options) withDefaults() Options {
	if o.TitlePrefix <= 0 {
		o.TitlePrefix = DefaultTitlePrefix
	}
	if o.SimilarityThreshold <= 0 {
		o.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if o.MinTitleWords <= 0 {
		o.MinTitleWords = DefaultMinTitleWords
	}
	return o
}

// Key is the exact clustering identity of a candidate.
func Key(c domain.Candidate, titlePrefix int) string {
	return c.SourceKey + ":" + canon.TitleKey(c.Title, titlePrefix)
}

// Build clusters candidates in input order: an exact pass keyed by source and
// title prefix (identical canonical URLs always merge), then a fuzzy pass
// merging clusters whose representative titles are similar enough.
func Build(cands []domain.Candidate, opts Options) []domain.Cluster {
	opts = opts.withDefaults()
	return Fuzzy(Exact(cands, opts.TitlePrefix), opts)
}

// Exact groups candidates sharing a cluster key or a canonical URL.
func Exact(cands []domain.Candidate, titlePrefix int) []domain.Cluster {
	if titlePrefix <= 0 {
		titlePrefix = DefaultTitlePrefix
	}

	out := make([]domain.Cluster, 0, len(cands))
	byKey := make(map[string]int, len(cands))
	byURL := make(map[string]int, len(cands))

	for _, c := range cands {
		key := Key(c, titlePrefix)
		idx, ok := byURL[c.CanonicalURL]
		if !ok || c.CanonicalURL == "" {
			idx, ok = byKey[key]
		}
		if ok {
			add(&out[idx], c)
		} else {
			out = append(out, newCluster(c))
			idx = len(out) - 1
		}
		byKey[key] = idx
		if c.CanonicalURL != "" {
			byURL[c.CanonicalURL] = idx
		}
	}
	return out
}

// Fuzzy merges clusters whose representative titles exceed the similarity
// threshold. Titles with too few significant words never merge.
func Fuzzy(clusters []domain.Cluster, opts Options) []domain.Cluster {
	opts = opts.withDefaults()

	out := make([]domain.Cluster, 0, len(clusters))
	words := make([]map[string]struct{}, 0, len(clusters))

	for _, cl := range clusters {
		w := SignificantWords(cl.Title)
		merged := false
		if len(w) >= opts.MinTitleWords {
			for i := range out {
				if len(words[i]) < opts.MinTitleWords {
					continue
				}
				if overlap(w, words[i]) > opts.SimilarityThreshold {
					merge(&out[i], cl)
					words[i] = SignificantWords(out[i].Title)
					merged = true
					break
				}
			}
		}
		if !merged {
			out = append(out, cl)
			words = append(words, w)
		}
	}
	return out
}

func newCluster(c domain.Candidate) domain.Cluster {
	cl := domain.Cluster{}
	add(&cl, c)
	return cl
}

func add(cl *domain.Cluster, c domain.Candidate) {
	first := len(cl.Members) == 0
	cl.Members = append(cl.Members, c)

	if first || c.Tier < cl.Tier {
		cl.Title = c.Title
		cl.URL = c.URL
		cl.CanonicalURL = c.CanonicalURL
		cl.Snippet = c.Snippet
		cl.SourceKey = c.SourceKey
		cl.Tier = c.Tier
	}
	if first || c.PublishedAt.Before(cl.PublishedAt) {
		cl.PublishedAt = c.PublishedAt
	}
	addSource(cl, c.SourceKey)
}

func merge(dst *domain.Cluster, src domain.Cluster) {
	if src.Tier < dst.Tier {
		dst.Title = src.Title
		dst.URL = src.URL
		dst.CanonicalURL = src.CanonicalURL
		dst.Snippet = src.Snippet
		dst.SourceKey = src.SourceKey
		dst.Tier = src.Tier
	}
	if src.PublishedAt.Before(dst.PublishedAt) {
		dst.PublishedAt = src.PublishedAt
	}
	dst.Members = append(dst.Members, src.Members...)
	for _, s := range src.Sources {
		addSource(dst, s)
	}
}

func addSource(cl *domain.Cluster, key string) {
	if key == "" {
		return
	}
	for _, s := range cl.Sources {
		if s == key {
			return
		}
	}
	cl.Sources = append(cl.Sources, key)
}
