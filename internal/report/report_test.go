package report

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRanker/internal/domain"
)

func sampleReport() domain.Report {
	published := time.Date(2026, 3, 10, 11, 52, 0, 0, time.UTC)
	top := domain.ScoredStory{
		Cluster: domain.Cluster{
			Title:       "Acme Raises $50M Series B",
			URL:         "https://techcrunch.com/2026/03/10/acme-series-b/",
			SourceKey:   "techcrunch",
			PublishedAt: published,
			Sources:     []string{"techcrunch", "axios"},
			Tags:        []domain.Tag{"funding"},
		},
		PrimaryTag: "funding",
		Score:      100,
		WhyRanked:  "Event=funding(90) Bonus=+0.0 Source=techcrunch(83) Fresh=0.99 Base=88.2 Confirm=2src(+15) Final=100.0",
		Tier:       domain.TierMustInclude,
	}
	glance := domain.ScoredStory{
		Cluster:   domain.Cluster{Title: "Acme hires a CFO", Tags: []domain.Tag{"other"}},
		Score:     47.5,
		WhyRanked: "Event=other(20) Final=47.5",
		Tier:      domain.TierGlance,
	}
	return domain.Report{
		RunID:       "run-1",
		Vertical:    "private_markets",
		ReportDate:  "2026-03-10",
		GeneratedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Entities: []domain.EntityResult{{
			Entity: "Acme",
			Top:    []domain.ScoredStory{top},
			Glance: []domain.ScoredStory{glance},
		}},
		Stats: domain.RunStats{EntitiesProcessed: 2, TotalCandidates: 6, Clusters: 2, StateWritten: true},
	}
}

func TestBuildDocument(t *testing.T) {
	t.Parallel()

	doc := Build(sampleReport())
	assert.Equal(t, "run-1", doc.RunID)
	assert.Equal(t, 1, doc.Meta.EntitiesReported)
	assert.Equal(t, 1, doc.Meta.TopStories)
	assert.Equal(t, 1, doc.Meta.GlanceStories)
	assert.Equal(t, 6, doc.Meta.Stats.TotalCandidates)

	require.Len(t, doc.Entities, 1)
	story := doc.Entities[0].TopStories[0]
	assert.Equal(t, TopStory{
		Score:         100,
		Tier:          "must_include",
		Tags:          []string{"funding"},
		Headline:      "Acme Raises $50M Series B",
		Source:        "techcrunch",
		URL:           "https://techcrunch.com/2026/03/10/acme-series-b/",
		PublishedAt:   "2026-03-10T11:52:00Z",
		UniqueSources: 2,
		WhyRanked:     sampleReport().Entities[0].Top[0].WhyRanked,
	}, story)
	assert.Equal(t, "Acme hires a CFO", doc.Entities[0].Glance[0].Headline)
}

func TestBuildEmptyReportUsesEmptyLists(t *testing.T) {
	t.Parallel()

	raw, err := json.Marshal(Build(domain.Report{Vertical: "stocks", ReportDate: "2026-03-10"}))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"entities":[]`)
}

func TestJSONWriterWritesAtomically(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	w := NewJSONWriter(dir)

	dest, err := w.Write(context.Background(), sampleReport())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2026-03-10_private_markets.json"), dest)

	raw, err := os.ReadFile(dest)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, "private_markets", decoded["vertical"])
	entities := decoded["entities"].([]any)
	first := entities[0].(map[string]any)
	assert.Contains(t, first, "top_stories")
	assert.Contains(t, first, "glance")

	// A rerun for the same day replaces the file.
	_, err = w.Write(context.Background(), sampleReport())
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRenderText(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	empty := domain.Report{Vertical: "stocks", ReportDate: "2026-03-10"}
	require.NoError(t, RenderText(&buf, sampleReport(), empty))

	out := buf.String()
	assert.Contains(t, out, "private_markets · 2026-03-10")
	assert.Contains(t, out, "Acme Raises $50M Series B")
	assert.Contains(t, out, "Confirm=2src(+15)")
	assert.Contains(t, out, "At a glance:")
	assert.Contains(t, out, "Acme hires a CFO")
	assert.Contains(t, out, "Nothing newsworthy.")
}
