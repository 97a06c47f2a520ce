package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// TenantLister lists the tenants whose reports are warmed
type TenantLister interface {
	TenantIDs(ctx context.Context) ([]uint, error)
}

// Warmer precomputes the cached reports of one tenant
type Warmer interface {
	Warmup(ctx context.Context, tenantID uint) error
}

// WarmupStats summarizes one warmup run
type WarmupStats struct {
	Tenants int
	Failed  int
}

// Scheduler runs the periodic report cache warmup
type Scheduler struct {
	cron    *cron.Cron
	tenants TenantLister
	warmer  Warmer
	spec    string
	timeout time.Duration
	logger  *slog.Logger
}

// NewScheduler creates a scheduler for the given cron spec (standard 5 fields).
// An empty spec yields a scheduler whose Start is a no-op.
func NewScheduler(spec string, timeout time.Duration, tenants TenantLister, warmer Warmer, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:    cron.New(),
		tenants: tenants,
		warmer:  warmer,
		spec:    spec,
		timeout: timeout,
		logger:  logger,
	}
}

// Start registers the warmup job and starts the cron loop
func (s *Scheduler) Start() error {
	if s.spec == "" {
		s.logger.Info("cache warmup disabled")
		return nil
	}
	if _, err := s.cron.AddFunc(s.spec, s.warmupJob); err != nil {
		return fmt.Errorf("failed to schedule cache warmup %q: %w", s.spec, err)
	}
	s.logger.Info("starting scheduler", "warmup_cron", s.spec)
	s.cron.Start()
	return nil
}

// Stop stops the cron loop and waits for a running job to finish
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) warmupJob() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunWarmup(ctx); err != nil {
		s.logger.Error("cache warmup aborted", "error", err.Error())
	}
}

// RunWarmup warms every tenant in turn. A failing tenant is logged and skipped;
// only a failure to list tenants aborts the run.
func (s *Scheduler) RunWarmup(ctx context.Context) (WarmupStats, error) {
	start := time.Now()
	ids, err := s.tenants.TenantIDs(ctx)
	if err != nil {
		return WarmupStats{}, fmt.Errorf("failed to list tenants: %w", err)
	}

	stats := WarmupStats{Tenants: len(ids)}
	for i, id := range ids {
		if ctx.Err() != nil {
			// out of time: the remaining tenants are left cold
			stats.Failed += len(ids) - i
			break
		}
		if err := s.warmer.Warmup(ctx, id); err != nil {
			stats.Failed++
			s.logger.Warn("tenant warmup failed",
				"tenant_id", id,
				"error", err.Error(),
			)
		}
	}

	s.logger.Info("cache warmup completed",
		"tenants", stats.Tenants,
		"failed", stats.Failed,
		"latency_ms", time.Since(start).Milliseconds(),
	)
	return stats, nil
}
