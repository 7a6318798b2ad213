package ports

import (
	"context"
	"time"

	"NewsRanker/internal/domain"
	"NewsRanker/internal/freshness"
)

// Query is one collection request for an entity on one lane.
type Query struct {
	Entity domain.Entity
	Text   string
	Feeds  []string
	Count  int
}

// Collector pulls raw records for one lane. A failing collector costs only
// its own lane; the engine never retries.
type Collector interface {
	Lane() domain.Lane
	Collect(ctx context.Context, q Query) ([]domain.RawRecord, error)
}

// SeenStore persists the per-vertical freshness state.
type SeenStore interface {
	Load(ctx context.Context, vertical string) (freshness.SeenState, error)
	Save(ctx context.Context, vertical string, state freshness.SeenState) error
}

// ReportWriter delivers a finished report and returns where it went.
type ReportWriter interface {
	Write(ctx context.Context, report domain.Report) (string, error)
}

// Scheduler controls when ranking runs execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
