package ingest

import (
	"context"
	"log"
	"time"

	"github.com/go-co-op/gocron"
)

// Scheduler triggers the ingestion pipeline on a fixed cadence. Singleton
// mode guarantees at most one run at a time even if a run overruns the
// interval.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	orchestrator *Orchestrator
	interval     time.Duration
	fetchTimeout time.Duration
	logger       *log.Logger
}

// NewScheduler constructs a scheduler around an orchestrator.
func NewScheduler(orchestrator *Orchestrator, interval, fetchTimeout time.Duration, logger *log.Logger) *Scheduler {
	return &Scheduler{
		scheduler:    gocron.NewScheduler(time.UTC),
		orchestrator: orchestrator,
		interval:     interval,
		fetchTimeout: fetchTimeout,
		logger:       logger,
	}
}

// Start registers the periodic job and starts the scheduler asynchronously.
func (s *Scheduler) Start() error {
	job, err := s.scheduler.Every(s.interval).Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.fetchTimeout)
		defer cancel()
		if _, err := s.orchestrator.Run(ctx); err != nil && s.logger != nil {
			s.logger.Printf("scheduled ingest failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	job.SingletonMode()
	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
