package usecase

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"NewsRanker/internal/cluster"
	"NewsRanker/internal/domain"
	"NewsRanker/internal/freshness"
	"NewsRanker/internal/normalize"
	"NewsRanker/internal/ports"
	"NewsRanker/internal/selector"
	"NewsRanker/internal/tagger"
	"NewsRanker/internal/vertical"
)

// EngineDeps wires all driven adapters into the ranking engine.
type EngineDeps struct {
	Profile         *vertical.Profile
	Collectors      []ports.Collector
	Store           ports.SeenStore
	Logger          zerolog.Logger
	ResultsPerQuery int
	Now             func() time.Time
	NewRunID        func() string
}

// Engine ranks one vertical: collect, normalize, cluster, tag, filter,
// score, select and remember what was reported.
type Engine struct {
	profile         *vertical.Profile
	collectors      []ports.Collector
	store           ports.SeenStore
	logger          zerolog.Logger
	resultsPerQuery int
	now             func() time.Time
	newRunID        func() string
}

// NewEngine constructs the orchestration component.
func NewEngine(deps EngineDeps) *Engine {
	e := &Engine{
		profile:         deps.Profile,
		collectors:      deps.Collectors,
		store:           deps.Store,
		logger:          deps.Logger,
		resultsPerQuery: deps.ResultsPerQuery,
		now:             deps.Now,
		newRunID:        deps.NewRunID,
	}
	if e.now == nil {
		e.now = time.Now
	}
	if e.newRunID == nil {
		e.newRunID = uuid.NewString
	}
	if e.resultsPerQuery <= 0 {
		e.resultsPerQuery = 10
	}
	return e
}

// Vertical is the name of the vertical this engine ranks.
func (e *Engine) Vertical() string {
	if e.profile == nil {
		return ""
	}
	return e.profile.Name
}

// Run processes every enabled entity of the vertical for reportDate.
// Collection and persistence failures are logged and never abort the run;
// only a missing profile or a cancelled context return an error.
func (e *Engine) Run(ctx context.Context, reportDate time.Time) (domain.Report, error) {
	if e.profile == nil {
		return domain.Report{}, errors.New("engine has no vertical profile")
	}

	now := e.now().UTC()
	report := domain.Report{
		RunID:       e.newRunID(),
		Vertical:    e.profile.Name,
		ReportDate:  freshness.DateKey(reportDate),
		GeneratedAt: now,
	}
	log := e.logger.With().
		Str("vertical", report.Vertical).
		Str("run_id", report.RunID).
		Str("report_date", report.ReportDate).
		Logger()

	state := e.loadState(ctx, log)
	seen := state.URLsSince(reportDate, e.profile.LookbackDays)
	log.Debug().Int("seen_urls", len(seen)).Msg("loaded seen state")

	for _, entity := range e.profile.Entities() {
		if err := ctx.Err(); err != nil {
			return report, fmt.Errorf("rank %s: %w", report.Vertical, err)
		}

		result, stats, err := e.processEntity(ctx, log, entity, seen, now)
		report.Stats.TotalCandidates += stats.TotalCandidates
		report.Stats.MalformedDropped += stats.MalformedDropped
		report.Stats.Clusters += stats.Clusters
		report.Stats.RemovedFreshOnly += stats.RemovedFreshOnly
		if err != nil {
			report.Stats.EntitiesFailed++
			log.Error().Err(err).Str("entity", entity.Name).Msg("entity skipped")
			continue
		}
		report.Stats.EntitiesProcessed++

		if result.Empty() {
			log.Debug().Str("entity", entity.Name).Msg("nothing newsworthy")
			continue
		}
		report.Entities = append(report.Entities, result)
		state.Record(reportDate, result.IncludedURLs)
	}

	if pruned := state.Prune(reportDate, e.profile.RetentionDays); pruned > 0 {
		log.Debug().Int("dates", pruned).Msg("pruned seen state")
	}
	report.Stats.StateWritten = e.saveState(ctx, log, state)

	log.Info().
		Int("entities", len(report.Entities)).
		Int("candidates", report.Stats.TotalCandidates).
		Int("removed_fresh_only", report.Stats.RemovedFreshOnly).
		Bool("state_written", report.Stats.StateWritten).
		Msg("vertical ranked")

	return report, nil
}

func (e *Engine) loadState(ctx context.Context, log zerolog.Logger) freshness.SeenState {
	if e.store == nil {
		return freshness.SeenState{}
	}
	state, err := e.store.Load(ctx, e.profile.Name)
	if err != nil {
		log.Warn().Err(err).Msg("seen state unreadable, starting empty")
		return freshness.SeenState{}
	}
	if state == nil {
		state = freshness.SeenState{}
	}
	return state
}

func (e *Engine) saveState(ctx context.Context, log zerolog.Logger, state freshness.SeenState) bool {
	if e.store == nil {
		return false
	}
	if err := e.store.Save(ctx, e.profile.Name, state); err != nil {
		log.Warn().Err(err).Msg("seen state not persisted")
		return false
	}
	return true
}

// processEntity runs the pipeline for one entity. A panic is converted to
// an error so one bad entity cannot take down the vertical.
func (e *Engine) processEntity(
	ctx context.Context,
	log zerolog.Logger,
	entity domain.Entity,
	seen map[string]struct{},
	now time.Time,
) (result domain.EntityResult, stats domain.RunStats, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic processing %s: %v", entity.Name, r)
			log.Debug().Str("entity", entity.Name).Bytes("stack", debug.Stack()).Msg("recovered panic")
		}
	}()

	log = log.With().Str("entity", entity.Name).Logger()

	records := e.collect(ctx, log, entity)
	stats.TotalCandidates = len(records)

	normalized := normalize.Records(records, e.profile.Normalize, now)
	stats.MalformedDropped = normalized.Dropped

	candidates := make([]domain.Candidate, len(normalized.Candidates))
	for i, c := range normalized.Candidates {
		candidates[i] = e.profile.Canonicalize(c)
	}

	clusters := cluster.Build(candidates, e.profile.Cluster)
	stats.Clusters = len(clusters)
	for i := range clusters {
		clusters[i].Tags = e.profile.Tagger.Tag(clusters[i].Title, clusters[i].Snippet)
	}

	fresh, removed := freshness.Filter(clusters, seen)
	stats.RemovedFreshOnly = removed

	ranked := e.profile.Scorer.Rank(fresh, now)

	opts := e.profile.Selector
	opts.MaxTop = e.profile.MaxTop(entity)
	sel := selector.Select(ranked, opts)

	log.Debug().
		Int("records", len(records)).
		Int("clusters", len(clusters)).
		Int("fresh", len(fresh)).
		Int("top", len(sel.Top)).
		Int("glance", len(sel.Glance)).
		Msg("entity ranked")

	return domain.EntityResult{
		Entity:       entity.Name,
		Top:          sel.Top,
		Glance:       sel.Glance,
		IncludedURLs: sel.IncludedURLs,
	}, stats, nil
}

// collect gathers records from every collector whose lane the vertical
// uses. A failing lane is logged and skipped for this entity.
func (e *Engine) collect(ctx context.Context, log zerolog.Logger, entity domain.Entity) []domain.RawRecord {
	relevant := mentionMatcher(entity)

	var records []domain.RawRecord
	for _, c := range e.collectors {
		lane := c.Lane()
		if !e.profile.HasLane(lane) {
			continue
		}

		var queries []ports.Query
		if lane == domain.LaneFeed {
			feeds := e.profile.Feeds(entity)
			if len(feeds) == 0 {
				continue
			}
			queries = []ports.Query{{Entity: entity, Feeds: feeds, Count: e.resultsPerQuery}}
		} else {
			for _, text := range e.profile.Queries(entity) {
				queries = append(queries, ports.Query{Entity: entity, Text: text, Count: e.resultsPerQuery})
			}
		}

		for _, q := range queries {
			got, err := c.Collect(ctx, q)
			if err != nil {
				log.Warn().Err(err).Str("lane", string(lane)).Str("query", q.Text).Msg("collection failed, lane skipped")
				break
			}
			for _, r := range got {
				if r.Lane == "" {
					r.Lane = lane
				}
				// Forum posts and feed entries are not entity-scoped queries.
				if (lane == domain.LaneForum || lane == domain.LaneFeed) && !relevant(r) {
					continue
				}
				records = append(records, r)
			}
		}
	}
	return records
}

func mentionMatcher(entity domain.Entity) func(domain.RawRecord) bool {
	terms := append([]string{entity.Name}, entity.Aliases...)
	tg := tagger.New([]tagger.Rule{{Tag: "mention", Keywords: terms}})
	return func(r domain.RawRecord) bool {
		return tg.Tag(r.Title, r.Description)[0] != domain.TagOther
	}
}
