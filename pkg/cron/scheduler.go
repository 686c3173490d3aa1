// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// Reloader re-fetches the current import source.
type Reloader interface {
	Reload(ctx context.Context) uuid.UUID
}

// Scheduler periodically refreshes the active source using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	schedule string
	reloader Reloader
	logger   *slog.Logger
}

// NewScheduler creates a refresh scheduler. An empty schedule disables it.
func NewScheduler(schedule string, reloader Reloader, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	// Standard 5-field format, seconds disabled
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		schedule: schedule,
		reloader: reloader,
		logger:   logger,
	}
}

// Enabled reports whether a schedule is configured.
func (s *Scheduler) Enabled() bool {
	return s.schedule != ""
}

// Start registers the refresh job and starts the scheduler.
func (s *Scheduler) Start() error {
	if !s.Enabled() {
		s.logger.Info("source refresh disabled")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, s.RunNow); err != nil {
		return fmt.Errorf("invalid refresh schedule %q: %w", s.schedule, err)
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.String("schedule", s.schedule),
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers a refresh immediately.
func (s *Scheduler) RunNow() {
	id := s.reloader.Reload(context.Background())
	if id == uuid.Nil {
		s.logger.Debug("refresh skipped, no source selected")
		return
	}
	s.logger.Info("source refresh started", slog.String("load_id", id.String()))
}
