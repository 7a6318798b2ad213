package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTickerRunsImmediatelyAndRepeats(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewTickerScheduler(10 * time.Millisecond)
	require.NoError(t, s.Start(context.Background(), func(time.Time) { runs.Add(1) }))

	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))

	after := runs.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "no runs after stop")
}

func TestTickerStartIsIdempotent(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	s := NewTickerScheduler(time.Hour)
	job := func(time.Time) { runs.Add(1) }
	require.NoError(t, s.Start(context.Background(), job))
	require.NoError(t, s.Start(context.Background(), job))

	assert.Eventually(t, func() bool { return runs.Load() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Stop(context.Background()))
	assert.Equal(t, int32(1), runs.Load())
}

func TestTickerStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	started := make(chan struct{}, 1)
	s := NewTickerScheduler(time.Hour)
	require.NoError(t, s.Start(ctx, func(time.Time) { started <- struct{}{} }))

	<-started
	cancel()
	require.NoError(t, s.Stop(context.Background()))
}

func TestTickerNilJob(t *testing.T) {
	t.Parallel()

	s := NewTickerScheduler(0)
	assert.Equal(t, 24*time.Hour, s.interval)
	assert.NoError(t, s.Start(context.Background(), nil))
	assert.NoError(t, s.Stop(context.Background()))
}
