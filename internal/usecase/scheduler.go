package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"NewsRanker/internal/ports"
)

// Scheduler wires the ticker driver with the ranking service.
type Scheduler struct {
	driver   ports.Scheduler
	service  *Service
	location *time.Location
	logger   zerolog.Logger
}

// NewScheduler returns a helper to start/stop recurring runs. Trigger times
// are converted to location before picking the report date.
func NewScheduler(driver ports.Scheduler, service *Service, location *time.Location, logger zerolog.Logger) *Scheduler {
	if location == nil {
		location = time.UTC
	}
	return &Scheduler{driver: driver, service: service, location: location, logger: logger}
}

// Start registers the service with the provided scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.service == nil {
		return nil
	}

	job := func(trigger time.Time) {
		day := trigger.In(s.location)
		if _, err := s.service.RunDay(ctx, day); err != nil {
			s.logger.Error().Err(err).Time("trigger", trigger).Msg("scheduled run finished with errors")
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
