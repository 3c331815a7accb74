package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamarete/TBBAS/internal/models"
)

type countingRunner struct {
	calls   int32
	trigger atomic.Value
	block   chan struct{}
}

func (r *countingRunner) Run(ctx context.Context, trigger string) (*models.RankingDocument, error) {
	atomic.AddInt32(&r.calls, 1)
	r.trigger.Store(trigger)
	if r.block != nil {
		<-r.block
	}
	return models.NewRankingDocument(time.Now()), nil
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestInSeason(t *testing.T) {
	s := NewScheduler(Config{SeasonStart: day(2024, 11, 1), SeasonEnd: day(2025, 3, 31)}, &countingRunner{})

	tests := []struct {
		at   time.Time
		want bool
	}{
		{day(2024, 10, 31), false},
		{day(2024, 11, 1), true},
		{day(2025, 1, 20).Add(6 * time.Hour), true},
		{day(2025, 3, 31).Add(23 * time.Hour), true},
		{day(2025, 4, 1), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, s.InSeason(tt.at), tt.at.String())
	}

	open := NewScheduler(Config{}, &countingRunner{})
	assert.True(t, open.InSeason(day(2025, 7, 4)))
}

func TestTriggerSkipsOutOfSeason(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(Config{SeasonStart: day(2024, 11, 1), SeasonEnd: day(2025, 3, 31)}, runner)
	s.now = func() time.Time { return day(2025, 6, 2) }

	assert.False(t, s.trigger(context.Background(), TriggerCron))
	assert.Equal(t, int32(0), atomic.LoadInt32(&runner.calls))

	// Startup runs are not gated by the season
	assert.True(t, s.trigger(context.Background(), TriggerStartup))
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.calls))
}

func TestTriggerInSeason(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(Config{SeasonStart: day(2024, 11, 1), SeasonEnd: day(2025, 3, 31)}, runner)
	s.now = func() time.Time { return day(2025, 1, 20) }

	assert.True(t, s.trigger(context.Background(), TriggerCron))
	assert.Equal(t, TriggerCron, runner.trigger.Load())
}

func TestTriggerDoesNotOverlap(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	s := NewScheduler(Config{}, runner)

	done := make(chan bool)
	go func() { done <- s.trigger(context.Background(), TriggerStartup) }()

	require.Eventually(t, func() bool { return atomic.LoadInt32(&runner.calls) == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, s.trigger(context.Background(), TriggerCron), "second trigger is skipped")

	close(runner.block)
	assert.True(t, <-done)
	assert.Equal(t, int32(1), atomic.LoadInt32(&runner.calls))
}

func TestStartRunOnStart(t *testing.T) {
	runner := &countingRunner{}
	s := NewScheduler(Config{Cron: "0 6 * * 1", RunOnStart: true}, runner)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runner.calls) == 1 }, time.Second, 5*time.Millisecond)
	s.Stop()

	assert.Equal(t, TriggerStartup, runner.trigger.Load())
	assert.False(t, s.trigger(context.Background(), TriggerStartup), "stopped scheduler does not run")
}

func TestStopWaitsForStartupRun(t *testing.T) {
	runner := &countingRunner{block: make(chan struct{})}
	s := NewScheduler(Config{Cron: "0 6 * * 1", RunOnStart: true}, runner)
	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runner.calls) == 1 }, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the startup run was still in progress")
	case <-time.After(50 * time.Millisecond):
	}

	close(runner.block)
	select {
	case <-stopped:
	case <-time.After(time.Second):
		t.Fatal("Stop did not return after the startup run finished")
	}
}

func TestStartInvalidCron(t *testing.T) {
	s := NewScheduler(Config{Cron: "every monday"}, &countingRunner{})
	assert.Error(t, s.Start(context.Background()))
}
