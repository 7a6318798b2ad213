// Package scorer turns tagged clusters into ranked, explained scores.
package scorer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"NewsRanker/internal/domain"
	"NewsRanker/internal/tagger"
)

// SourceProfile is the trust/speed/tier rating of one source key.
type SourceProfile struct {
	Trust float64
	Speed float64
	Tier  int
}

// Params holds every weight of the scoring model.
type Params struct {
	Sources        map[string]SourceProfile
	UnknownSource  SourceProfile
	TrustWeight    float64
	SpeedWeight    float64
	EventWeights   map[domain.Tag]float64
	DefaultWeight  float64
	TagBonusRatio  float64
	TagBonusCap    float64
	HalfLifeMin    float64
	FreshnessFloor float64

	SourceWeight    float64
	EventWeight     float64
	FreshnessWeight float64

	ConfirmPerExtraSource float64
	ConfirmCap            float64
	Tier1Boost            float64
	SameTagPenalty        float64
}

// DefaultParams mirrors the stock ranker defaults.
func DefaultParams() Params {
	return Params{
		Sources:               map[string]SourceProfile{},
		UnknownSource:         SourceProfile{Trust: 40, Speed: 50, Tier: 3},
		TrustWeight:           0.7,
		SpeedWeight:           0.3,
		EventWeights:          map[domain.Tag]float64{},
		DefaultWeight:         20,
		TagBonusRatio:         0.15,
		TagBonusCap:           60,
		HalfLifeMin:           720,
		FreshnessFloor:        0.15,
		SourceWeight:          0.45,
		EventWeight:           0.40,
		FreshnessWeight:       0.15,
		ConfirmPerExtraSource: 0.15,
		ConfirmCap:            1.0,
		Tier1Boost:            0.25,
		SameTagPenalty:        0.25,
	}
}

// Profile returns the rating of a source key, falling back to UnknownSource.
func (p Params) Profile(sourceKey string) SourceProfile {
	if prof, ok := p.Sources[sourceKey]; ok {
		return prof
	}
	return p.UnknownSource
}

// Scorer applies Params to clusters.
type Scorer struct {
	params Params
	tagger *tagger.Tagger
}

// New builds a scorer. The tagger supplies the vocabulary order used to
// break primary tag ties.
func New(params Params, tg *tagger.Tagger) *Scorer {
	if tg == nil {
		tg = tagger.New(nil)
	}
	return &Scorer{params: params, tagger: tg}
}

// Freshness is exp(-age/halfLife) bounded below by floor. Future
// timestamps count as age zero.
func Freshness(published, now time.Time, halfLifeMinutes, floor float64) float64 {
	minutes := now.Sub(published).Minutes()
	if minutes < 0 {
		minutes = 0
	}
	if halfLifeMinutes <= 0 {
		return math.Max(floor, 0)
	}
	return math.Max(floor, math.Exp(-minutes/halfLifeMinutes))
}

// Score rates one cluster. primarySeen applies the novelty penalty.
func (s *Scorer) Score(cl domain.Cluster, now time.Time, primarySeen bool) domain.ScoredStory {
	p := s.params
	tags := cl.Tags
	if len(tags) == 0 {
		tags = []domain.Tag{domain.TagOther}
	}

	var b domain.Breakdown
	b.PrimaryTag = s.tagger.Primary(tags, p.EventWeights, p.DefaultWeight)
	b.PrimaryWeight = tagger.Weight(b.PrimaryTag, p.EventWeights, p.DefaultWeight)

	others := 0.0
	for _, tag := range tags {
		if tag == b.PrimaryTag {
			continue
		}
		others += tagger.Weight(tag, p.EventWeights, p.DefaultWeight)
	}
	b.TagBonus = p.TagBonusRatio * math.Min(p.TagBonusCap, others)
	b.EventScore = b.PrimaryWeight + b.TagBonus

	prof := p.Profile(cl.SourceKey)
	b.SourceKey = cl.SourceKey
	b.SourceTier = prof.Tier
	b.SourceScore = p.TrustWeight*prof.Trust + p.SpeedWeight*prof.Speed

	b.Freshness = Freshness(cl.PublishedAt, now, p.HalfLifeMin, p.FreshnessFloor)
	b.Base = p.SourceWeight*b.SourceScore + p.EventWeight*b.EventScore + p.FreshnessWeight*b.Freshness*100

	if extra := cl.UniqueSources() - 1; extra > 0 {
		b.ConfirmBoost = math.Min(p.ConfirmCap, p.ConfirmPerExtraSource*float64(extra)) * 100
	}
	if prof.Tier == 1 {
		b.Tier1Boost = p.Tier1Boost * 100
	}
	if primarySeen {
		b.NoveltyPenalty = p.SameTagPenalty * 100
	}

	final := b.Base + b.ConfirmBoost + b.Tier1Boost - b.NoveltyPenalty
	b.Final = round1(math.Max(0, math.Min(100, final)))

	return domain.ScoredStory{
		Cluster:    cl,
		PrimaryTag: b.PrimaryTag,
		Score:      b.Final,
		WhyRanked:  explain(b, cl.UniqueSources()),
		Breakdown:  b,
	}
}

// Rank scores clusters for one entity and returns them by final score,
// highest first. Novelty is assigned in pre-novelty score order: the first
// story of each primary tag is unpenalized, every later one is penalized.
func (s *Scorer) Rank(clusters []domain.Cluster, now time.Time) []domain.ScoredStory {
	stories := make([]domain.ScoredStory, len(clusters))
	for i, cl := range clusters {
		stories[i] = s.Score(cl, now, false)
	}
	sortStories(stories)

	seen := make(map[domain.Tag]struct{}, len(stories))
	for i := range stories {
		tag := stories[i].PrimaryTag
		if _, ok := seen[tag]; ok {
			stories[i] = s.Score(stories[i].Cluster, now, true)
			continue
		}
		seen[tag] = struct{}{}
	}
	sortStories(stories)
	return stories
}

func sortStories(stories []domain.ScoredStory) {
	sort.SliceStable(stories, func(i, j int) bool {
		a, b := stories[i], stories[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.Cluster.PublishedAt.Equal(b.Cluster.PublishedAt) {
			return a.Cluster.PublishedAt.Before(b.Cluster.PublishedAt)
		}
		return a.Cluster.CanonicalURL < b.Cluster.CanonicalURL
	})
}

func explain(b domain.Breakdown, sources int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Event=%s(%s) Bonus=+%.1f Source=%s(%d) Fresh=%.2f Base=%.1f",
		b.PrimaryTag, trimFloat(b.PrimaryWeight), b.TagBonus, b.SourceKey, int(math.Round(b.SourceScore)), b.Freshness, b.Base)
	if b.ConfirmBoost > 0 {
		fmt.Fprintf(&sb, " Confirm=%dsrc(+%d)", sources, int(math.Round(b.ConfirmBoost)))
	}
	if b.Tier1Boost > 0 {
		fmt.Fprintf(&sb, " Tier1+%d", int(math.Round(b.Tier1Boost)))
	}
	if b.NoveltyPenalty > 0 {
		fmt.Fprintf(&sb, " Novelty-%d", int(math.Round(b.NoveltyPenalty)))
	}
	fmt.Fprintf(&sb, " Final=%.1f", b.Final)
	return sb.String()
}

func trimFloat(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
