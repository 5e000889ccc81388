package cron

import (
	"context"
	"errors"
	"time"

	"github.com/angelmondragon/cartsync-backend/pkg/logger"
	"github.com/angelmondragon/cartsync-backend/pkg/metrics"
)

// ServiceParams configure the maintenance loop.
type ServiceParams struct {
	Logger   *logger.Logger
	Jobs     *Jobs
	Locker   Locker
	Metrics  *metrics.CronMetrics
	Interval time.Duration
}

// Service runs every job once per interval while holding the lock.
type Service struct {
	logg     *logger.Logger
	jobs     *Jobs
	locker   Locker
	metrics  *metrics.CronMetrics
	interval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Locker == nil:
		return nil, errors.New("locker required")
	case params.Interval <= 0:
		return nil, errors.New("interval must be positive")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &Service{
		logg:     logg,
		jobs:     params.Jobs,
		locker:   params.Locker,
		metrics:  params.Metrics,
		interval: params.Interval,
	}, nil
}

// Run cycles immediately and then on every tick until ctx ends.
func (s *Service) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.cycle(ctx); err != nil {
			s.logg.Error(ctx, "cron.cycle_failed", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) cycle(ctx context.Context) error {
	release, err := s.locker.TryLock(ctx)
	if err != nil {
		return err
	}
	if release == nil {
		s.logg.Debug(ctx, "cron.lock_held_elsewhere")
		return nil
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", err)
		}
	}()

	for _, job := range s.jobs.All() {
		s.run(ctx, job)
	}
	return nil
}

func (s *Service) run(ctx context.Context, job Job) {
	jobCtx := s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(jobCtx)
	elapsed := time.Since(start)
	s.metrics.ObserveRun(job.Name(), elapsed, err)

	jobCtx = s.logg.WithField(jobCtx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(jobCtx, "cron.job_failed", err)
		return
	}
	s.logg.Info(jobCtx, "cron.job_complete")
}
