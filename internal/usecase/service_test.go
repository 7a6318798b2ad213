package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"NewsRanker/internal/domain"
)

type recordingWriter struct {
	written []domain.Report
	err     error
}

func (w *recordingWriter) Write(_ context.Context, r domain.Report) (string, error) {
	if w.err != nil {
		return "", w.err
	}
	w.written = append(w.written, r)
	return "/tmp/" + r.ReportDate + "_" + r.Vertical + ".json", nil
}

type fakeDriver struct {
	triggers []time.Time
	stopped  bool
}

func (d *fakeDriver) Start(_ context.Context, job func(time.Time)) error {
	for _, t := range d.triggers {
		job(t)
	}
	return nil
}

func (d *fakeDriver) Stop(context.Context) error {
	d.stopped = true
	return nil
}

func TestServiceRunDayWritesEveryReport(t *testing.T) {
	t.Parallel()

	search := &fakeCollector{lane: domain.LaneSearch, byName: map[string][]domain.RawRecord{"Acme": acmeRecords()}}
	writer := &recordingWriter{}
	svc := NewService([]*Engine{
		newEngine(privateMarkets(t, "Acme"), &memStore{}, search),
		newEngine(privateMarkets(t, "Globex"), &memStore{}, search),
	}, writer, zerolog.Nop())

	reports, err := svc.RunDay(context.Background(), now)
	require.NoError(t, err)

	assert.Equal(t, []string{"private_markets", "private_markets"}, svc.Verticals())
	require.Len(t, reports, 2)
	assert.Len(t, writer.written, 2)
	assert.Len(t, reports[0].Entities, 1)
	assert.Empty(t, reports[1].Entities)
}

func TestServiceRunDayJoinsWriterErrors(t *testing.T) {
	t.Parallel()

	writer := &recordingWriter{err: errors.New("read-only filesystem")}
	svc := NewService([]*Engine{newEngine(privateMarkets(t, "Acme"), nil)}, writer, zerolog.Nop())

	reports, err := svc.RunDay(context.Background(), now)
	require.Error(t, err)
	assert.ErrorContains(t, err, "read-only filesystem")
	assert.Len(t, reports, 1, "the report is still returned")
}

func TestServiceRunDayKeepsGoingAfterBrokenEngine(t *testing.T) {
	t.Parallel()

	svc := NewService([]*Engine{
		NewEngine(EngineDeps{Logger: zerolog.Nop()}),
		newEngine(privateMarkets(t, "Acme"), nil),
	}, nil, zerolog.Nop())

	reports, err := svc.RunDay(context.Background(), now)
	require.Error(t, err)
	assert.Len(t, reports, 1)
}

func TestSchedulerRunsServiceInLocation(t *testing.T) {
	t.Parallel()

	loc := time.FixedZone("UTC+10", 10*60*60)
	writer := &recordingWriter{}
	svc := NewService([]*Engine{newEngine(privateMarkets(t, "Acme"), nil)}, writer, zerolog.Nop())
	driver := &fakeDriver{triggers: []time.Time{time.Date(2026, 3, 10, 20, 0, 0, 0, time.UTC)}}

	s := NewScheduler(driver, svc, loc, zerolog.Nop())
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Stop(context.Background()))

	require.Len(t, writer.written, 1)
	assert.Equal(t, "2026-03-11", writer.written[0].ReportDate)
	assert.True(t, driver.stopped)
}

func TestSchedulerWithoutDriverIsNoop(t *testing.T) {
	t.Parallel()

	s := NewScheduler(nil, nil, nil, zerolog.Nop())
	assert.NoError(t, s.Start(context.Background()))
	assert.NoError(t, s.Stop(context.Background()))
}
