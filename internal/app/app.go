package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"NewsRanker/internal/config"
	"NewsRanker/internal/domain"
	"NewsRanker/internal/freshness"
	"NewsRanker/internal/infrastructure/collector"
	"NewsRanker/internal/infrastructure/scheduler"
	"NewsRanker/internal/infrastructure/storage"
	"NewsRanker/internal/ports"
	"NewsRanker/internal/report"
	"NewsRanker/internal/usecase"
	"NewsRanker/internal/vertical"
)

const stopTimeout = 30 * time.Second

// Options replace configured adapters; zero values use the configuration.
type Options struct {
	Collectors []ports.Collector
	Store      ports.SeenStore
	Writer     ports.ReportWriter
	Now        func() time.Time
}

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg        config.Config
	logger     zerolog.Logger
	registry   *vertical.Registry
	order      []string
	collectors []ports.Collector
	store      ports.SeenStore
	writer     ports.ReportWriter
	closers    []io.Closer
	now        func() time.Time

	broken      map[string]error
	brokenOrder []string
}

// New builds the application. A vertical whose definition fails to load or
// validate is logged and left out; ranking it later returns that error.
// Declaring the same vertical twice fails construction.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger, opts Options) (*Application, error) {
	a := &Application{
		cfg:      cfg,
		logger:   logger,
		registry: vertical.NewRegistry(),
		now:      opts.Now,
		broken:   map[string]error{},
	}
	if a.now == nil {
		a.now = time.Now
	}

	for _, ref := range cfg.Verticals {
		if !ref.IsEnabled() {
			continue
		}
		if _, err := a.registry.Resolve(ref.Name); err == nil || a.broken[ref.Name] != nil {
			return nil, fmt.Errorf("vertical %s: %w: declared twice", ref.Name, config.ErrInvalidConfig)
		}
		vc, err := config.ResolveVertical(ref)
		if err != nil {
			a.markBroken(ref.Name, err)
			continue
		}
		profile, err := vertical.Build(vc)
		if err != nil {
			a.markBroken(ref.Name, err)
			continue
		}
		if _, err := a.registry.Resolve(profile.Name); err == nil {
			return nil, fmt.Errorf("vertical %s: %w: declared twice", profile.Name, config.ErrInvalidConfig)
		}
		a.registry.Register(profile)
		a.order = append(a.order, profile.Name)
	}

	a.collectors = opts.Collectors
	if a.collectors == nil {
		a.collectors = a.defaultCollectors()
	}

	a.store = opts.Store
	if a.store == nil {
		store, err := a.openStore(ctx)
		if err != nil {
			return nil, err
		}
		a.store = store
	}

	a.writer = opts.Writer
	if a.writer == nil && cfg.Output.Dir != "" {
		a.writer = report.NewJSONWriter(cfg.Output.Dir)
	}

	return a, nil
}

func (a *Application) markBroken(name string, err error) {
	err = fmt.Errorf("vertical %s: %w", name, err)
	a.logger.Error().Err(err).Str("vertical", name).Msg("vertical disabled by configuration error")
	a.broken[name] = err
	a.brokenOrder = append(a.brokenOrder, name)
}

func (a *Application) defaultCollectors() []ports.Collector {
	if a.cfg.Brave.APIKey == "" {
		a.logger.Warn().Msg("BRAVE_API_KEY not set, search lanes will return nothing")
	}
	brave := collector.NewBraveClient(collector.BraveOptions{
		Endpoint:          a.cfg.Brave.Endpoint,
		APIKey:            a.cfg.Brave.APIKey,
		Timeout:           a.cfg.Brave.TimeoutDuration(),
		RequestsPerSecond: a.cfg.Brave.RequestsPerSecond,
		MaxRetries:        a.cfg.Brave.MaxRetries,
		Freshness:         a.cfg.Brave.Freshness,
	})
	feeds := collector.NewFeedReader(nil, a.logger.With().Str("component", "collector.feed").Logger())

	ttl := a.cfg.Collector.CacheTTLDuration()
	return []ports.Collector{
		collector.NewCached(collector.NewNewsSearch(brave), ttl),
		collector.NewCached(collector.NewWebSearch(brave), ttl),
		collector.NewCached(collector.NewForumSearch(brave), ttl),
		collector.NewCached(feeds, ttl),
	}
}

func (a *Application) openStore(ctx context.Context) (ports.SeenStore, error) {
	switch a.cfg.State.Backend {
	case config.StateBackendSQL:
		store, err := storage.OpenSQLSeenStore(ctx, a.cfg.State.Driver, a.cfg.State.DSN)
		if err != nil {
			return nil, fmt.Errorf("open seen store: %w", err)
		}
		a.closers = append(a.closers, store)
		return store, nil
	default:
		return storage.NewFileSeenStore(a.cfg.State.Dir), nil
	}
}

// Verticals lists the enabled verticals in configuration order.
func (a *Application) Verticals() []string {
	return append([]string(nil), a.order...)
}

// Profile returns the built profile of a vertical.
func (a *Application) Profile(name string) (*vertical.Profile, error) {
	return a.registry.Resolve(name)
}

// service builds engines for names, or every vertical when names is empty.
// Configuration errors of the requested verticals come back as skipped; an
// unknown name is a hard error.
func (a *Application) service(names []string) (svc *usecase.Service, skipped, err error) {
	var errs []error
	if len(names) == 0 {
		names = a.order
		for _, name := range a.brokenOrder {
			errs = append(errs, a.broken[name])
		}
	}

	engines := make([]*usecase.Engine, 0, len(names))
	for _, name := range names {
		if brokenErr, ok := a.broken[name]; ok {
			errs = append(errs, brokenErr)
			continue
		}
		profile, err := a.registry.Resolve(name)
		if err != nil {
			return nil, nil, err
		}
		engines = append(engines, usecase.NewEngine(usecase.EngineDeps{
			Profile:         profile,
			Collectors:      a.collectors,
			Store:           a.store,
			Logger:          a.logger.With().Str("component", "engine").Logger(),
			ResultsPerQuery: a.cfg.Brave.ResultsPerQuery,
			Now:             a.now,
		}))
	}
	svc = usecase.NewService(engines, a.writer, a.logger.With().Str("component", "service").Logger())
	return svc, errors.Join(errs...), nil
}

// Rank runs the named verticals, or all of them, for day. Verticals with a
// configuration error are reported in the returned error while the rest
// still run.
func (a *Application) Rank(ctx context.Context, names []string, day time.Time) ([]domain.Report, error) {
	svc, skipped, err := a.service(names)
	if err != nil {
		return nil, err
	}
	reports, runErr := svc.RunDay(ctx, day)
	return reports, errors.Join(skipped, runErr)
}

// Daemon ranks every vertical now and then on the configured interval until
// ctx is cancelled.
func (a *Application) Daemon(ctx context.Context) error {
	svc, skipped, err := a.service(nil)
	if err != nil {
		return err
	}
	if skipped != nil {
		a.logger.Warn().Err(skipped).Msg("some verticals are not scheduled")
	}

	driver := scheduler.NewTickerScheduler(a.cfg.Scheduler.IntervalDuration())
	sched := usecase.NewScheduler(driver, svc, a.cfg.Scheduler.Location(), a.logger.With().Str("component", "scheduler").Logger())
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	a.logger.Info().
		Strs("verticals", a.order).
		Dur("interval", a.cfg.Scheduler.IntervalDuration()).
		Msg("daemon started")

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	a.logger.Info().Msg("daemon stopped")
	return nil
}

// SeenState loads the stored freshness state of a vertical.
func (a *Application) SeenState(ctx context.Context, name string) (freshness.SeenState, error) {
	if _, err := a.registry.Resolve(name); err != nil {
		return nil, err
	}
	return a.store.Load(ctx, name)
}

// PruneState drops dates outside the vertical's retention window relative to
// today and returns how many were removed.
func (a *Application) PruneState(ctx context.Context, name string, today time.Time) (int, error) {
	profile, err := a.registry.Resolve(name)
	if err != nil {
		return 0, err
	}
	state, err := a.store.Load(ctx, name)
	if err != nil {
		return 0, err
	}
	if state == nil {
		state = freshness.SeenState{}
	}
	removed := state.Prune(today, profile.RetentionDays)
	if removed == 0 {
		return 0, nil
	}
	if err := a.store.Save(ctx, name, state); err != nil {
		return 0, err
	}
	return removed, nil
}

// Location is the timezone report dates are computed in.
func (a *Application) Location() *time.Location {
	return a.cfg.Scheduler.Location()
}

// Close releases adapters holding resources.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}
