package config

import (
	"embed"
	"errors"
	"fmt"
	"math"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed verticals/*.yaml
var builtinVerticals embed.FS

// Lane names accepted in vertical configs.
var knownLanes = map[string]struct{}{
	"search": {},
	"web":    {},
	"forum":  {},
	"feed":   {},
}

// Vertical is the full, immutable ranking configuration of one vertical.
type Vertical struct {
	Name           string             `yaml:"name"`
	Description    string             `yaml:"description"`
	Lanes          []string           `yaml:"lanes"`
	QueryTemplates []string           `yaml:"query_templates"`
	Feeds          []string           `yaml:"feeds"`
	Sources        map[string]Source  `yaml:"sources"`
	EventWeights   map[string]float64 `yaml:"event_weights"`
	TagKeywords    TagVocabulary      `yaml:"tag_keywords"`
	Freshness      FreshnessConfig    `yaml:"freshness"`
	Scoring        ScoringConfig      `yaml:"scoring"`
	Syndication    SyndicationConfig  `yaml:"syndication"`
	Novelty        NoveltyConfig      `yaml:"novelty"`
	Thresholds     ThresholdsConfig   `yaml:"thresholds"`
	Dedupe         DedupeConfig       `yaml:"dedupe"`
	Snippet        SnippetConfig      `yaml:"snippet"`
	FreshOnly      FreshOnlyConfig    `yaml:"fresh_only"`
	State          RetentionConfig    `yaml:"state"`
	Entities       []EntityConfig     `yaml:"entities"`
}

// Source rates one outlet and lists the domains that map to it.
type Source struct {
	Trust   float64  `yaml:"trust"`
	Speed   float64  `yaml:"speed"`
	Tier    int      `yaml:"tier"`
	Domains []string `yaml:"domains"`
}

// TagKeywords is one entry of the tag vocabulary.
type TagKeywords struct {
	Tag      string
	Keywords []string
}

// TagVocabulary preserves the order tags are written in YAML; that order
// breaks primary tag ties.
type TagVocabulary []TagKeywords

// UnmarshalYAML reads a mapping of tag to keyword list in document order.
func (v *TagVocabulary) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: tag_keywords must be a mapping", node.Line)
	}
	out := make(TagVocabulary, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var entry TagKeywords
		if err := node.Content[i].Decode(&entry.Tag); err != nil {
			return fmt.Errorf("line %d: tag name: %w", node.Content[i].Line, err)
		}
		if err := node.Content[i+1].Decode(&entry.Keywords); err != nil {
			return fmt.Errorf("line %d: keywords of %s: %w", node.Content[i+1].Line, entry.Tag, err)
		}
		out = append(out, entry)
	}
	*v = out
	return nil
}

// FreshnessConfig describes the exponential recency decay.
type FreshnessConfig struct {
	HalfLifeMinutes float64 `yaml:"half_life_minutes"`
	Floor           float64 `yaml:"floor"`
}

// ScoringConfig describes the weights of the base score.
type ScoringConfig struct {
	SourceWeight       float64 `yaml:"source_weight"`
	EventWeight        float64 `yaml:"event_weight"`
	FreshnessWeight    float64 `yaml:"freshness_weight"`
	TrustWeight        float64 `yaml:"trust_weight"`
	SpeedWeight        float64 `yaml:"speed_weight"`
	TagBonusRatio      float64 `yaml:"tag_bonus_ratio"`
	TagBonusCap        float64 `yaml:"tag_bonus_cap"`
	DefaultEventWeight float64 `yaml:"default_event_weight"`
	UnknownTrust       float64 `yaml:"unknown_trust"`
	UnknownSpeed       float64 `yaml:"unknown_speed"`
	UnknownTier        int     `yaml:"unknown_tier"`
}

// SyndicationConfig describes boosts for corroborated and tier-1 coverage.
type SyndicationConfig struct {
	ConfirmBoostPerExtraSource float64 `yaml:"confirm_boost_per_extra_source"`
	ConfirmBoostCap            float64 `yaml:"confirm_boost_cap"`
	Tier1Boost                 float64 `yaml:"tier1_boost"`
}

// NoveltyConfig describes the penalty for repeating a primary tag.
type NoveltyConfig struct {
	SameTagPenalty float64 `yaml:"same_tag_penalty"`
}

// ThresholdsConfig describes the score bands and caps of each report tier.
type ThresholdsConfig struct {
	MustIncludeScore float64   `yaml:"must_include_score"`
	TopMinScore      float64   `yaml:"top_min_score"`
	GlanceRange      []float64 `yaml:"glance_range"`
	MaxTop           int       `yaml:"max_top"`
	MaxGlance        int       `yaml:"max_glance"`
}

// DedupeConfig describes URL canonicalization and title clustering.
type DedupeConfig struct {
	StripQueryParams    []string `yaml:"strip_query_params"`
	TitlePrefix         int      `yaml:"title_prefix"`
	SimilarityThreshold float64  `yaml:"similarity_threshold"`
	MinTitleWords       int      `yaml:"min_title_words"`
}

// SnippetConfig describes snippet truncation.
type SnippetConfig struct {
	MaxRunes int `yaml:"max_runes"`
}

// FreshOnlyConfig describes how far back reported URLs suppress stories.
type FreshOnlyConfig struct {
	LookbackDays int `yaml:"lookback_days"`
}

// RetentionConfig describes how long seen state is kept.
type RetentionConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// EntityConfig is one tracked subject of a vertical.
type EntityConfig struct {
	Name    string   `yaml:"name"`
	Aliases []string `yaml:"aliases"`
	Queries []string `yaml:"queries"`
	Feeds   []string `yaml:"feeds"`
	MaxTop  int      `yaml:"max_top"`
	Enabled *bool    `yaml:"enabled"`
}

// IsEnabled defaults to true when unset.
func (e EntityConfig) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// BuiltinVerticals lists the embedded vertical names.
func BuiltinVerticals() []string {
	entries, err := builtinVerticals.ReadDir("verticals")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), path.Ext(e.Name())))
	}
	sort.Strings(names)
	return names
}

// LoadBuiltinVertical returns an embedded vertical by name.
func LoadBuiltinVertical(name string) (Vertical, error) {
	raw, err := builtinVerticals.ReadFile("verticals/" + name + ".yaml")
	if err != nil {
		return Vertical{}, fmt.Errorf("%w: no built-in vertical %q", ErrInvalidConfig, name)
	}
	return ParseVertical(raw, "builtin:"+name)
}

// LoadVertical reads and validates a vertical definition from disk.
func LoadVertical(filePath string) (Vertical, error) {
	raw, err := os.ReadFile(filePath)
	if err != nil {
		return Vertical{}, fmt.Errorf("read vertical %s: %w", filePath, err)
	}
	return ParseVertical(raw, filePath)
}

// ResolveVertical loads ref from its path, or the built-in of the same name.
func ResolveVertical(ref VerticalRef) (Vertical, error) {
	var (
		v   Vertical
		err error
	)
	if strings.TrimSpace(ref.Path) != "" {
		v, err = LoadVertical(ref.Path)
	} else {
		v, err = LoadBuiltinVertical(ref.Name)
	}
	if err != nil {
		return Vertical{}, err
	}
	if v.Name == "" {
		v.Name = ref.Name
	}
	return v, nil
}

// ParseVertical validates raw YAML against the vertical schema, decodes it
// over the defaults and checks semantic constraints.
func ParseVertical(raw []byte, origin string) (Vertical, error) {
	if err := validateSchema(raw); err != nil {
		return Vertical{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, origin, err)
	}

	v := DefaultVertical()
	if err := yaml.Unmarshal(raw, &v); err != nil {
		return Vertical{}, fmt.Errorf("parse vertical %s: %w", origin, err)
	}
	if err := v.Validate(); err != nil {
		return Vertical{}, fmt.Errorf("vertical %s: %w", origin, err)
	}
	return v, nil
}

// DefaultVertical holds the numeric defaults every vertical starts from.
func DefaultVertical() Vertical {
	return Vertical{
		Lanes:        []string{"search"},
		Sources:      map[string]Source{},
		EventWeights: map[string]float64{},
		Freshness:    FreshnessConfig{HalfLifeMinutes: 720, Floor: 0.15},
		Scoring: ScoringConfig{
			SourceWeight:       0.45,
			EventWeight:        0.40,
			FreshnessWeight:    0.15,
			TrustWeight:        0.7,
			SpeedWeight:        0.3,
			TagBonusRatio:      0.15,
			TagBonusCap:        60,
			DefaultEventWeight: 20,
			UnknownTrust:       40,
			UnknownSpeed:       50,
			UnknownTier:        3,
		},
		Syndication: SyndicationConfig{
			ConfirmBoostPerExtraSource: 0.15,
			ConfirmBoostCap:            1.0,
			Tier1Boost:                 0.25,
		},
		Novelty: NoveltyConfig{SameTagPenalty: 0.25},
		Thresholds: ThresholdsConfig{
			MustIncludeScore: 80,
			TopMinScore:      55,
			GlanceRange:      []float64{45, 54},
			MaxTop:           5,
			MaxGlance:        3,
		},
		Dedupe: DedupeConfig{
			TitlePrefix:         50,
			SimilarityThreshold: 0.55,
			MinTitleWords:       2,
		},
		Snippet:   SnippetConfig{MaxRunes: 300},
		FreshOnly: FreshOnlyConfig{LookbackDays: 1},
		State:     RetentionConfig{RetentionDays: 30},
	}
}

const weightEpsilon = 1e-9

// Validate checks constraints the schema cannot express.
func (v Vertical) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(v.Name) == "" {
		fail("name is required")
	}
	for _, lane := range v.Lanes {
		if _, ok := knownLanes[lane]; !ok {
			fail("unknown lane %q", lane)
		}
	}

	s := v.Scoring
	if sum := s.SourceWeight + s.EventWeight + s.FreshnessWeight; sum > 1+weightEpsilon {
		fail("scoring weights sum to %.3f, must not exceed 1", sum)
	}
	if sum := s.TrustWeight + s.SpeedWeight; sum > 1+weightEpsilon {
		fail("trust_weight + speed_weight sum to %.3f, must not exceed 1", sum)
	}
	if v.Freshness.HalfLifeMinutes <= 0 {
		fail("freshness.half_life_minutes must be positive")
	}
	if v.Freshness.Floor < 0 || v.Freshness.Floor > 1 {
		fail("freshness.floor must be within [0,1]")
	}

	t := v.Thresholds
	if len(t.GlanceRange) != 2 {
		fail("thresholds.glance_range must have exactly two values")
	} else {
		if t.GlanceRange[0] > t.GlanceRange[1] {
			fail("thresholds.glance_range is inverted")
		}
		if t.GlanceRange[1] >= t.TopMinScore {
			fail("thresholds.glance_range must end below top_min_score")
		}
	}
	if t.TopMinScore > t.MustIncludeScore {
		fail("thresholds.top_min_score must not exceed must_include_score")
	}
	if t.MaxTop < 0 || t.MaxGlance < 0 {
		fail("thresholds caps must not be negative")
	}

	if d := v.Dedupe.SimilarityThreshold; d <= 0 || d > 1 || math.IsNaN(d) {
		fail("dedupe.similarity_threshold must be within (0,1]")
	}

	for key, src := range v.Sources {
		if src.Tier < 1 {
			fail("sources.%s.tier must be at least 1", key)
		}
	}

	seenTags := make(map[string]struct{}, len(v.TagKeywords))
	for _, tk := range v.TagKeywords {
		if _, dup := seenTags[tk.Tag]; dup {
			fail("tag_keywords.%s is defined twice", tk.Tag)
		}
		seenTags[tk.Tag] = struct{}{}
	}

	seenEntities := make(map[string]struct{}, len(v.Entities))
	for i, e := range v.Entities {
		name := strings.TrimSpace(e.Name)
		if name == "" {
			fail("entities[%d].name is required", i)
			continue
		}
		if _, dup := seenEntities[strings.ToLower(name)]; dup {
			fail("entity %q is defined twice", name)
		}
		seenEntities[strings.ToLower(name)] = struct{}{}
		if e.MaxTop < 0 {
			fail("entities[%d].max_top must not be negative", i)
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
