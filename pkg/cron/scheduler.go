// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/formfill-api/internal/domain/formfill/service"
)

// purgeTimeout bounds a single scheduled sweep.
const purgeTimeout = 5 * time.Minute

// Purger runs one purge sweep.
type Purger interface {
	Purge(ctx context.Context, trigger service.Trigger) (*service.PurgeResult, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	purger   Purger
	schedule string
	logger   *slog.Logger
}

// NewScheduler creates a new job scheduler. schedule accepts the standard
// 5-field format and descriptors such as "@every 30m".
func NewScheduler(purger Purger, schedule string, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		purger:   purger,
		schedule: schedule,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.purgeTransientFiles)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers a purge (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.purgeTransientFiles()
}

// purgeTransientFiles sweeps the holding areas.
func (s *Scheduler) purgeTransientFiles() {
	ctx, cancel := context.WithTimeout(context.Background(), purgeTimeout)
	defer cancel()

	result, err := s.purger.Purge(ctx, service.TriggerSchedule)
	if err != nil {
		s.logger.Error("scheduled purge failed", slog.Any("error", err))
		return
	}

	s.logger.Debug("scheduled purge finished",
		slog.Int("files_deleted", result.FilesDeleted),
		slog.Int("failed", len(result.Errors)),
	)
}
