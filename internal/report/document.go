// Package report shapes engine output for delivery: a JSON document per
// vertical and a terminal rendering of the same data.
package report

import (
	"time"

	"NewsRanker/internal/domain"
)

// Document is the JSON contract of one vertical run.
type Document struct {
	RunID       string          `json:"run_id"`
	Vertical    string          `json:"vertical"`
	ReportDate  string          `json:"report_date"`
	GeneratedAt time.Time       `json:"generated_at"`
	Entities    []EntitySection `json:"entities"`
	Meta        Meta            `json:"meta"`
}

// EntitySection lists the selected stories of one entity.
type EntitySection struct {
	Entity     string        `json:"entity"`
	TopStories []TopStory    `json:"top_stories"`
	Glance     []GlanceStory `json:"glance"`
}

// TopStory is a must-include or top story.
type TopStory struct {
	Score         float64  `json:"score"`
	Tier          string   `json:"tier"`
	Tags          []string `json:"tags"`
	Headline      string   `json:"headline"`
	Source        string   `json:"source"`
	URL           string   `json:"url"`
	PublishedAt   string   `json:"published_at"`
	UniqueSources int      `json:"unique_sources"`
	WhyRanked     string   `json:"why_ranked"`
}

// GlanceStory is a one-line mention.
type GlanceStory struct {
	Score     float64  `json:"score"`
	Tags      []string `json:"tags"`
	Headline  string   `json:"headline"`
	WhyRanked string   `json:"why_ranked"`
}

// Meta carries run counters next to the selection totals.
type Meta struct {
	EntitiesReported int             `json:"entities_reported"`
	TopStories       int             `json:"top_stories"`
	GlanceStories    int             `json:"glance_stories"`
	Stats            domain.RunStats `json:"stats"`
}

// Build converts an engine report into its JSON document.
func Build(r domain.Report) Document {
	doc := Document{
		RunID:       r.RunID,
		Vertical:    r.Vertical,
		ReportDate:  r.ReportDate,
		GeneratedAt: r.GeneratedAt.UTC(),
		Entities:    make([]EntitySection, 0, len(r.Entities)),
		Meta:        Meta{Stats: r.Stats},
	}

	for _, res := range r.Entities {
		section := EntitySection{
			Entity:     res.Entity,
			TopStories: make([]TopStory, 0, len(res.Top)),
			Glance:     make([]GlanceStory, 0, len(res.Glance)),
		}
		for _, s := range res.Top {
			section.TopStories = append(section.TopStories, TopStory{
				Score:         s.Score,
				Tier:          string(s.Tier),
				Tags:          tagNames(s.Cluster.Tags),
				Headline:      s.Cluster.Title,
				Source:        s.Cluster.SourceKey,
				URL:           s.Cluster.URL,
				PublishedAt:   s.Cluster.PublishedAt.UTC().Format(time.RFC3339),
				UniqueSources: s.Cluster.UniqueSources(),
				WhyRanked:     s.WhyRanked,
			})
		}
		for _, s := range res.Glance {
			section.Glance = append(section.Glance, GlanceStory{
				Score:     s.Score,
				Tags:      tagNames(s.Cluster.Tags),
				Headline:  s.Cluster.Title,
				WhyRanked: s.WhyRanked,
			})
		}

		doc.Meta.TopStories += len(section.TopStories)
		doc.Meta.GlanceStories += len(section.Glance)
		doc.Entities = append(doc.Entities, section)
	}
	doc.Meta.EntitiesReported = len(doc.Entities)
	return doc
}

func tagNames(tags []domain.Tag) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		out = append(out, string(t))
	}
	return out
}
