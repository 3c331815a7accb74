package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/teamarete/TBBAS/internal/metrics"
	"github.com/teamarete/TBBAS/internal/models"
)

const (
	TriggerCron    = "cron"
	TriggerStartup = "startup"
)

// Runner executes one ranking run
type Runner interface {
	Run(ctx context.Context, trigger string) (*models.RankingDocument, error)
}

// Config controls when runs happen
type Config struct {
	// Cron is a standard five-field schedule
	Cron       string
	RunOnStart bool

	// Season window for cron runs; a zero bound is open. End is inclusive.
	SeasonStart time.Time
	SeasonEnd   time.Time
}

// Scheduler triggers ranking runs on a cron schedule. Runs never overlap:
// a trigger that fires while a run is in progress is skipped.
type Scheduler struct {
	cfg      Config
	runner   Runner
	cron     *cron.Cron
	running  sync.Mutex
	inflight sync.WaitGroup
	stopChan chan struct{}
	now      func() time.Time
}

// NewScheduler creates a new scheduler instance
func NewScheduler(cfg Config, runner Runner) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		runner:   runner,
		cron:     cron.New(),
		stopChan: make(chan struct{}),
		now:      time.Now,
	}
}

// Start registers the cron job and starts the scheduler
func (s *Scheduler) Start(ctx context.Context) error {
	log.Info().Msg("Scheduler starting...")

	if _, err := s.cron.AddFunc(s.cfg.Cron, func() {
		s.inflight.Add(1)
		defer s.inflight.Done()
		s.trigger(ctx, TriggerCron)
	}); err != nil {
		return fmt.Errorf("failed to schedule ranking run: %w", err)
	}

	s.cron.Start()
	log.Info().
		Str("schedule", s.cfg.Cron).
		Time("season_start", s.cfg.SeasonStart).
		Time("season_end", s.cfg.SeasonEnd).
		Msg("Ranking run scheduled")

	if s.cfg.RunOnStart {
		s.inflight.Add(1)
		go func() {
			defer s.inflight.Done()
			s.trigger(ctx, TriggerStartup)
		}()
	}

	return nil
}

// Stop stops the scheduler and waits for a run in progress to finish
func (s *Scheduler) Stop() {
	log.Info().Msg("Stopping scheduler...")

	close(s.stopChan)
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	// a startup run is not tracked by cron
	s.inflight.Wait()

	log.Info().Msg("Scheduler stopped")
}

// InSeason reports whether t falls inside the season window
func (s *Scheduler) InSeason(t time.Time) bool {
	if !s.cfg.SeasonStart.IsZero() && t.Before(s.cfg.SeasonStart) {
		return false
	}
	if !s.cfg.SeasonEnd.IsZero() && !t.Before(s.cfg.SeasonEnd.AddDate(0, 0, 1)) {
		return false
	}
	return true
}

// trigger runs the pipeline unless the scheduler is stopping, a run is in
// progress, or a cron trigger fires out of season
func (s *Scheduler) trigger(ctx context.Context, name string) bool {
	select {
	case <-s.stopChan:
		return false
	default:
	}

	if name == TriggerCron && !s.InSeason(s.now()) {
		log.Info().Str("trigger", name).Msg("Outside season window, skipping ranking run")
		metrics.RecordRun(name, "skipped", 0)
		return false
	}

	if !s.running.TryLock() {
		log.Warn().Str("trigger", name).Msg("Ranking run already in progress, skipping")
		metrics.RecordRun(name, "skipped", 0)
		return false
	}
	defer s.running.Unlock()

	log.Info().Str("trigger", name).Msg("Starting ranking run")
	if _, err := s.runner.Run(ctx, name); err != nil {
		// the runner logs and records its own failure
		return false
	}
	return true
}
