package possync

import (
	"context"
	"fmt"
	"time"

	"catalog-sync/feature/pos"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler periodically queues a SCHEDULE sync for every connected tenant.
type Scheduler struct {
	service  *Service
	cron     *cron.Cron
	schedule string
	logger   *zap.Logger
}

// NewScheduler creates a scheduler using a seconds-enabled cron spec.
func NewScheduler(service *Service, schedule string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		service:  service,
		cron:     cron.New(cron.WithSeconds()),
		schedule: schedule,
		logger:   logger.With(zap.String("component", "scheduler")),
	}
}

// Start registers the job and starts the cron loop.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		s.Tick(ctx)
	})
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the cron loop and waits for a running tick.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Tick queues one sync per enabled tenant and returns how many were queued.
// Tenants that do not fit in the queue are picked up on the next tick.
func (s *Scheduler) Tick(ctx context.Context) int {
	tenants, err := s.service.store.ListEnabledTenants(ctx)
	if err != nil {
		s.logger.Error("Failed to list tenants", zap.Error(err))
		return 0
	}

	queued := 0
	for _, tenantID := range tenants {
		if err := s.service.submitSync(tenantID, pos.TriggerSchedule); err != nil {
			s.logger.Warn("Scheduled sync skipped", zap.String("tenant_id", tenantID), zap.Error(err))
			continue
		}
		queued++
	}

	s.logger.Info("Scheduled syncs queued", zap.Int("tenants", len(tenants)), zap.Int("queued", queued))
	return queued
}
