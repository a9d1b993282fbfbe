package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/flashmarket/storefront/pkg/logger"
	"github.com/flashmarket/storefront/pkg/metrics"
)

const defaultInterval = time.Minute

type ServiceParams struct {
	Logger   *logger.Logger
	Registry *Registry
	Lock     Lock
	Metrics  *metrics.Jobs
	Interval time.Duration
	// CycleTimeout bounds one cycle. Keep it at or below the lock TTL so a
	// slow cycle cannot outlive its lease. Zero means no bound.
	CycleTimeout time.Duration
}

// Service runs the registered jobs one after another on every cycle, while
// holding the lock. A failing job is logged and the rest still run.
type Service struct {
	logg         *logger.Logger
	registry     *Registry
	lock         Lock
	metrics      *metrics.Jobs
	interval     time.Duration
	cycleTimeout time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lock == nil {
		return nil, fmt.Errorf("lock required")
	}
	if params.Registry == nil {
		return nil, fmt.Errorf("registry required")
	}
	interval := params.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Service{
		logg:         params.Logger,
		registry:     params.Registry,
		lock:         params.Lock,
		metrics:      params.Metrics,
		interval:     interval,
		cycleTimeout: params.CycleTimeout,
	}, nil
}

// Run starts with a cycle and then waits Interval after each one finishes,
// until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			s.logg.Info(ctx, "cron.stopped")
			return ctx.Err()
		case <-timer.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logg.Error(ctx, "cron.cycle_failed", err)
			}
			timer.Reset(s.interval)
		}
	}
}

// RunOnce runs one cycle. Job failures are logged, not returned; the error
// is only for a lock that could not be consulted.
func (s *Service) RunOnce(ctx context.Context) error {
	unlock, err := s.lock.TryLock(ctx)
	if err != nil {
		return err
	}
	if unlock == nil {
		s.metrics.IncSkipped()
		s.logg.Debug(ctx, "cron.cycle_skipped")
		return nil
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logg.Error(ctx, "cron.lock_release_failed", err)
		}
	}()

	if s.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cycleTimeout)
		defer cancel()
	}

	var ran, failed int
	for _, job := range s.registry.Jobs() {
		if ctx.Err() != nil {
			break
		}
		ran++
		if !s.runJob(ctx, job) {
			failed++
		}
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{"jobs_run": ran, "jobs_failed": failed}), "cron.cycle_completed")
	return nil
}

func (s *Service) runJob(ctx context.Context, job Job) bool {
	ctx = s.logg.WithField(ctx, "job", job.Name())
	start := time.Now()
	err := job.Run(ctx)
	elapsed := time.Since(start)
	s.metrics.ObserveRun(job.Name(), elapsed, err)

	ctx = s.logg.WithField(ctx, "duration_ms", elapsed.Milliseconds())
	if err != nil {
		s.logg.Error(ctx, "cron.job_failed", err)
		return false
	}
	s.logg.Debug(ctx, "cron.job_completed")
	return true
}
