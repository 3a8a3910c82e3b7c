package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Pinger is anything whose reachability can be probed
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthCheck probes the database and publishes the result as a gauge
type HealthCheck struct {
	db      Pinger
	gauge   prometheus.Gauge
	log     *logrus.Logger
	timeout time.Duration
}

// NewHealthCheck initializes a new database health check
func NewHealthCheck(db Pinger, gauge prometheus.Gauge, log *logrus.Logger) *HealthCheck {
	return &HealthCheck{db: db, gauge: gauge, log: log, timeout: 5 * time.Second}
}

// Run performs a single probe
func (h *HealthCheck) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.gauge.Set(0)
		h.log.WithError(err).Error("Database health check failed")
		return
	}
	h.gauge.Set(1)
	h.log.Debug("Database health check passed")
}

// Scheduler wraps the cron runner for background jobs
type Scheduler struct {
	cron *cron.Cron
	log  *logrus.Logger
}

// NewScheduler registers the health check on the given cron spec
func NewScheduler(spec string, check *HealthCheck, log *logrus.Logger) (*Scheduler, error) {
	c := cron.New()
	if _, err := c.AddJob(spec, cron.FuncJob(check.Run)); err != nil {
		return nil, fmt.Errorf("invalid health check schedule %q: %w", spec, err)
	}
	return &Scheduler{cron: c, log: log}, nil
}

// Start runs the scheduled jobs in the background
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info("Background jobs started")
}

// Stop waits for running jobs to finish or ctx to expire
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.cron.Stop().Done():
		s.log.Info("Background jobs stopped")
	case <-ctx.Done():
		s.log.Warn("Timed out waiting for background jobs")
	}
}
