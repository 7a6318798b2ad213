package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"NewsRanker/internal/domain"
	"NewsRanker/internal/ports"
)

// Service runs a set of vertical engines and hands their reports to a writer.
type Service struct {
	engines []*Engine
	writer  ports.ReportWriter
	logger  zerolog.Logger
}

// NewService builds a service over engines; writer may be nil.
func NewService(engines []*Engine, writer ports.ReportWriter, logger zerolog.Logger) *Service {
	return &Service{engines: engines, writer: writer, logger: logger}
}

// Verticals lists the names of the wired engines.
func (s *Service) Verticals() []string {
	names := make([]string, 0, len(s.engines))
	for _, e := range s.engines {
		names = append(names, e.Vertical())
	}
	return names
}

// RunDay ranks every vertical for day. Each vertical is independent: a
// failure is collected and the remaining verticals still run.
func (s *Service) RunDay(ctx context.Context, day time.Time) ([]domain.Report, error) {
	var (
		reports []domain.Report
		errs    []error
	)
	for _, engine := range s.engines {
		report, err := engine.Run(ctx, day)
		if err != nil {
			errs = append(errs, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		if s.writer != nil {
			dest, wErr := s.writer.Write(ctx, report)
			if wErr != nil {
				errs = append(errs, fmt.Errorf("write %s report: %w", report.Vertical, wErr))
			} else {
				s.logger.Info().Str("vertical", report.Vertical).Str("path", dest).Msg("report written")
			}
		}
		reports = append(reports, report)
	}
	return reports, errors.Join(errs...)
}
