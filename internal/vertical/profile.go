// Package vertical turns a vertical configuration into the engine settings
// shared by every entity of that vertical.
package vertical

import (
	"fmt"
	"strings"

	"NewsRanker/internal/canon"
	"NewsRanker/internal/cluster"
	"NewsRanker/internal/config"
	"NewsRanker/internal/domain"
	"NewsRanker/internal/normalize"
	"NewsRanker/internal/scorer"
	"NewsRanker/internal/selector"
	"NewsRanker/internal/tagger"
)

// Profile is the immutable, engine-ready form of a vertical.
type Profile struct {
	Name  string
	Lanes []domain.Lane

	Normalize normalize.Options
	Cluster   cluster.Options
	Selector  selector.Options
	Tagger    *tagger.Tagger
	Scorer    *scorer.Scorer
	Params    scorer.Params

	StripParams   []string
	LookbackDays  int
	RetentionDays int

	sources   map[string][]string
	templates []string
	feeds     []string
	entities  []domain.Entity
}

// Build validates cfg and derives a profile from it.
func Build(cfg config.Vertical) (*Profile, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("vertical %s: %w", cfg.Name, err)
	}

	rules := make([]tagger.Rule, 0, len(cfg.TagKeywords))
	for _, tk := range cfg.TagKeywords {
		rules = append(rules, tagger.Rule{Tag: domain.Tag(tk.Tag), Keywords: tk.Keywords})
	}
	tg := tagger.New(rules)

	params := scorerParams(cfg)

	sources := make(map[string][]string, len(cfg.Sources))
	for key, src := range cfg.Sources {
		sources[key] = append([]string(nil), src.Domains...)
	}

	strip := append([]string(nil), canon.DefaultStripParams...)
	strip = append(strip, cfg.Dedupe.StripQueryParams...)

	lanes := make([]domain.Lane, 0, len(cfg.Lanes))
	for _, l := range cfg.Lanes {
		lanes = append(lanes, domain.Lane(l))
	}

	p := &Profile{
		Name:      cfg.Name,
		Lanes:     lanes,
		Normalize: normalize.Options{MaxSnippetRunes: cfg.Snippet.MaxRunes},
		Cluster: cluster.Options{
			TitlePrefix:         cfg.Dedupe.TitlePrefix,
			SimilarityThreshold: cfg.Dedupe.SimilarityThreshold,
			MinTitleWords:       cfg.Dedupe.MinTitleWords,
		},
		Selector: selector.Options{
			MustIncludeScore: cfg.Thresholds.MustIncludeScore,
			TopMinScore:      cfg.Thresholds.TopMinScore,
			GlanceLow:        cfg.Thresholds.GlanceRange[0],
			GlanceHigh:       cfg.Thresholds.GlanceRange[1],
			MaxTop:           cfg.Thresholds.MaxTop,
			MaxGlance:        cfg.Thresholds.MaxGlance,
		},
		Tagger:        tg,
		Scorer:        scorer.New(params, tg),
		Params:        params,
		StripParams:   strip,
		LookbackDays:  cfg.FreshOnly.LookbackDays,
		RetentionDays: cfg.State.RetentionDays,
		sources:       sources,
		templates:     append([]string(nil), cfg.QueryTemplates...),
		feeds:         append([]string(nil), cfg.Feeds...),
	}

	for _, e := range cfg.Entities {
		p.entities = append(p.entities, domain.Entity{
			Name:    strings.TrimSpace(e.Name),
			Aliases: append([]string(nil), e.Aliases...),
			Queries: append([]string(nil), e.Queries...),
			Feeds:   append([]string(nil), e.Feeds...),
			MaxTop:  e.MaxTop,
			Enabled: e.IsEnabled(),
		})
	}
	return p, nil
}

func scorerParams(cfg config.Vertical) scorer.Params {
	p := scorer.DefaultParams()

	p.Sources = make(map[string]scorer.SourceProfile, len(cfg.Sources))
	for key, src := range cfg.Sources {
		p.Sources[key] = scorer.SourceProfile{Trust: src.Trust, Speed: src.Speed, Tier: src.Tier}
	}
	p.UnknownSource = scorer.SourceProfile{
		Trust: cfg.Scoring.UnknownTrust,
		Speed: cfg.Scoring.UnknownSpeed,
		Tier:  cfg.Scoring.UnknownTier,
	}

	p.EventWeights = make(map[domain.Tag]float64, len(cfg.EventWeights))
	for tag, w := range cfg.EventWeights {
		p.EventWeights[domain.Tag(tag)] = w
	}

	p.TrustWeight = cfg.Scoring.TrustWeight
	p.SpeedWeight = cfg.Scoring.SpeedWeight
	p.DefaultWeight = cfg.Scoring.DefaultEventWeight
	p.TagBonusRatio = cfg.Scoring.TagBonusRatio
	p.TagBonusCap = cfg.Scoring.TagBonusCap
	p.HalfLifeMin = cfg.Freshness.HalfLifeMinutes
	p.FreshnessFloor = cfg.Freshness.Floor
	p.SourceWeight = cfg.Scoring.SourceWeight
	p.EventWeight = cfg.Scoring.EventWeight
	p.FreshnessWeight = cfg.Scoring.FreshnessWeight
	p.ConfirmPerExtraSource = cfg.Syndication.ConfirmBoostPerExtraSource
	p.ConfirmCap = cfg.Syndication.ConfirmBoostCap
	p.Tier1Boost = cfg.Syndication.Tier1Boost
	p.SameTagPenalty = cfg.Novelty.SameTagPenalty
	return p
}

// Entities returns the enabled entities in configuration order.
func (p *Profile) Entities() []domain.Entity {
	out := make([]domain.Entity, 0, len(p.entities))
	for _, e := range p.entities {
		if e.Enabled {
			out = append(out, e)
		}
	}
	return out
}

// AllEntities includes disabled ones.
func (p *Profile) AllEntities() []domain.Entity {
	return append([]domain.Entity(nil), p.entities...)
}

// HasLane reports whether the vertical collects from lane.
func (p *Profile) HasLane(lane domain.Lane) bool {
	for _, l := range p.Lanes {
		if l == lane {
			return true
		}
	}
	return false
}

// Queries expands the vertical query templates for an entity. Explicit
// entity queries come first; duplicates are dropped.
func (p *Profile) Queries(e domain.Entity) []string {
	out := make([]string, 0, len(e.Queries)+len(p.templates))
	seen := make(map[string]struct{}, cap(out))
	add := func(q string) {
		q = strings.TrimSpace(q)
		key := strings.ToLower(q)
		if q == "" {
			return
		}
		if _, ok := seen[key]; ok {
			return
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	for _, q := range e.Queries {
		add(q)
	}
	for _, tpl := range p.templates {
		add(strings.ReplaceAll(tpl, "{name}", e.Name))
	}
	if len(out) == 0 {
		add(e.Name)
	}
	return out
}

// Feeds returns the vertical feeds followed by the entity's own.
func (p *Profile) Feeds(e domain.Entity) []string {
	return append(append([]string(nil), p.feeds...), e.Feeds...)
}

// MaxTop is the entity override when set, else the vertical cap.
func (p *Profile) MaxTop(e domain.Entity) int {
	if e.MaxTop > 0 {
		return e.MaxTop
	}
	return p.Selector.MaxTop
}

// Canonicalize fills the derived identity fields of a candidate.
func (p *Profile) Canonicalize(c domain.Candidate) domain.Candidate {
	c.CanonicalURL = canon.CanonicalizeURL(c.URL, p.StripParams)
	c.SourceKey = canon.SourceKey(c.SourceDomain, p.sources)
	c.Tier = p.Params.Profile(c.SourceKey).Tier
	return c
}
