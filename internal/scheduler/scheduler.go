// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic integrity scan on a cron schedule.
package scheduler

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"polyglot/internal/audit"
)

// Scheduler runs integrity scans on a cron schedule.
type Scheduler struct {
	registry *audit.Registry
	cron     *cron.Cron
	logger   *slog.Logger
}

// New creates a new scheduler instance.
func New(registry *audit.Registry, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		registry: registry,
		cron:     cron.New(),
		logger:   logger,
	}
}

// Start registers the audit job with the given cron expression and begins the
// scheduler. An empty expression leaves the scheduler idle.
func (s *Scheduler) Start(spec string) error {
	if spec == "" {
		s.logger.Info("audit schedule disabled")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		summary, err := s.registry.RunAll(context.Background())
		if err != nil {
			s.logger.Error("scheduled audit run failed", "category", "audit", "error", err)
			return
		}
		s.logger.Info("scheduled audit run completed",
			"checks", summary.ChecksRun,
			"detected", summary.Detected,
			"resolved", summary.Resolved,
			"failed", summary.Failed,
		)
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()), "schedule", spec)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running scan to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}
