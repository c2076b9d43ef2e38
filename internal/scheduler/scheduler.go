// Package scheduler runs the periodic stats rollup.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dalvae/upworkinsights/internal/domain"
	"github.com/robfig/cron/v3"
)

// Scheduler drives the daily rollup on a cron schedule.
type Scheduler struct {
	service *domain.Service
	cron    *cron.Cron
	logger  *slog.Logger
}

// New creates a scheduler with the rollup registered at the given cron
// expression, e.g. "5 0 * * *" for five past midnight.
func New(service *domain.Service, schedule string, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		service: service,
		cron:    cron.New(),
		logger:  logger,
	}

	if _, err := s.cron.AddFunc(schedule, s.runRollup); err != nil {
		return nil, fmt.Errorf("invalid rollup schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start runs the rollup once immediately so a fresh deployment has a row for
// today, then hands off to cron.
func (s *Scheduler) Start() {
	go s.runRollup()
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop halts scheduling and waits for any in-flight rollup to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) runRollup() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.service.RunDailyRollup(ctx); err != nil {
		s.logger.Error("daily rollup failed", "error", err)
	}
}
