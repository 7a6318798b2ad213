package domain

import "time"

// Lane identifies the collection pathway that produced a record.
type Lane string

const (
	LaneSearch Lane = "search"
	LaneWeb    Lane = "web"
	LaneForum  Lane = "forum"
	LaneFeed   Lane = "feed"
)

// RawRecord is what a lane collector hands to the engine. Only Title and URL
// are guaranteed; everything else is best-effort.
type RawRecord struct {
	Title       string
	URL         string
	Description string
	Age         string
	PublishedAt *time.Time
	Lane        Lane
}

// Candidate is one normalized mention of a story from one source query.
type Candidate struct {
	Title        string
	URL          string
	Snippet      string
	SourceDomain string
	PublishedAt  time.Time
	Lane         Lane

	CanonicalURL string
	SourceKey    string
	Tier         int
}

// Tag is an event-type label from a vertical's vocabulary.
type Tag string

// TagOther is assigned when no keyword matches.
const TagOther Tag = "other"

// Cluster groups candidates believed to describe the same real-world story.
type Cluster struct {
	Members []Candidate

	Title        string
	URL          string
	CanonicalURL string
	Snippet      string
	SourceKey    string
	Tier         int
	PublishedAt  time.Time
	Sources      []string

	Tags []Tag
}

// UniqueSources is the number of distinct sources reporting the story.
func (c *Cluster) UniqueSources() int {
	return len(c.Sources)
}

// CanonicalURLs returns the de-duplicated canonical URLs of all members,
// representative first.
func (c *Cluster) CanonicalURLs() []string {
	out := make([]string, 0, len(c.Members)+1)
	seen := make(map[string]struct{}, len(c.Members)+1)
	add := func(u string) {
		if u == "" {
			return
		}
		if _, ok := seen[u]; ok {
			return
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	add(c.CanonicalURL)
	for _, m := range c.Members {
		add(m.CanonicalURL)
	}
	return out
}

// Tier is the inclusion bucket assigned by the selector.
type Tier string

const (
	TierMustInclude Tier = "must_include"
	TierTop         Tier = "top"
	TierGlance      Tier = "glance"
	TierDropped     Tier = "dropped"
)

// Breakdown records every term that contributed to a score.
type Breakdown struct {
	PrimaryTag     Tag
	PrimaryWeight  float64
	TagBonus       float64
	EventScore     float64
	SourceKey      string
	SourceScore    float64
	SourceTier     int
	Freshness      float64
	Base           float64
	ConfirmBoost   float64
	Tier1Boost     float64
	NoveltyPenalty float64
	Final          float64
}

// ScoredStory is a cluster with its rank and tier outcome.
type ScoredStory struct {
	Cluster    Cluster
	PrimaryTag Tag
	Score      float64
	WhyRanked  string
	Breakdown  Breakdown
	Tier       Tier
}

// Entity is one tracked subject inside a vertical (a company, a ticker, a topic).
type Entity struct {
	Name    string
	Aliases []string
	Queries []string
	Feeds   []string
	MaxTop  int
	Enabled bool
}

// EntityResult is the selection outcome for one entity.
type EntityResult struct {
	Entity       string
	Top          []ScoredStory
	Glance       []ScoredStory
	IncludedURLs []string
}

// Empty reports whether nothing newsworthy was selected.
func (r EntityResult) Empty() bool {
	return len(r.Top) == 0 && len(r.Glance) == 0
}

// RunStats captures debug counters for one vertical run.
type RunStats struct {
	EntitiesProcessed int  `json:"entities_processed"`
	EntitiesFailed    int  `json:"entities_failed"`
	TotalCandidates   int  `json:"total_candidates"`
	MalformedDropped  int  `json:"malformed_dropped"`
	Clusters          int  `json:"clusters"`
	RemovedFreshOnly  int  `json:"removed_fresh_only"`
	StateWritten      bool `json:"state_written"`
}

// Report is the outcome of one vertical run.
type Report struct {
	RunID       string
	Vertical    string
	ReportDate  string
	GeneratedAt time.Time
	Entities    []EntityResult
	Stats       RunStats
}
