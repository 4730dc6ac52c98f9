package scheduler

import (
	"context"
	"time"

	"go-retail-pos/internal/backup"

	"github.com/rs/zerolog"
)

// BackupRunner is the slice of the backup manager the scheduler needs.
type BackupRunner interface {
	CreateBackup(kind backup.Kind) (*backup.Result, error)
}

// Scheduler triggers automatic backups on a fixed cadence. It runs
// beside the request handlers and never propagates failures: nothing
// is waiting on an automatic backup, so errors are logged and the
// next tick proceeds.
type Scheduler struct {
	runner   BackupRunner
	interval time.Duration
	log      zerolog.Logger
}

func New(runner BackupRunner, interval time.Duration, log zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	return &Scheduler{runner: runner, interval: interval, log: log}
}

// Run blocks until the context is canceled, firing a backup every
// interval. Call it from its own goroutine.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("automatic backup scheduler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("automatic backup scheduler stopped")
			return
		case <-ticker.C:
			s.runOnce()
		}
	}
}

func (s *Scheduler) runOnce() {
	start := time.Now()
	result, err := s.runner.CreateBackup(backup.KindAuto)
	if err != nil {
		s.log.Error().Err(err).Msg("automatic backup failed")
		return
	}
	s.log.Info().
		Str("artifact", result.Path).
		Dur("duration", time.Since(start)).
		Msg("automatic backup completed")
}
