// Package scheduler runs the daily maintenance tasks: journal retention
// and a traffic summary.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/manawire-project/manawire/internal/config"
	"github.com/manawire-project/manawire/internal/metrics"
	"github.com/manawire-project/manawire/internal/util"
)

// Pruner deletes journal rows older than a retention period.
type Pruner interface {
	Prune(retention time.Duration) (int64, error)
}

// Scheduler manages periodic background tasks.
type Scheduler struct {
	cfg      *config.Config
	journal  Pruner
	counters *metrics.Counters
	logger   zerolog.Logger
}

// NewScheduler creates a task scheduler. journal and counters may be nil.
func NewScheduler(cfg *config.Config, journal Pruner, counters *metrics.Counters) *Scheduler {
	return &Scheduler{
		cfg:      cfg,
		journal:  journal,
		counters: counters,
		logger:   util.ComponentLogger("scheduler"),
	}
}

// Start runs the scheduled tasks until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info().Msg("scheduler started")

	if s.journal != nil && s.cfg.Journal.Enabled {
		go s.runDaily(ctx, "journal_prune", s.cfg.Journal.CleanupTime, s.PruneJournal)
	}
	if s.counters != nil {
		go s.runDaily(ctx, "traffic_summary", "00:00", s.logTraffic)
	}

	<-ctx.Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) runDaily(ctx context.Context, name, at string, fn func()) {
	for {
		next := NextRun(time.Now(), at)
		s.logger.Info().
			Str("task", name).
			Time("next_run", next).
			Msg("task scheduled")

		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Until(next)):
			fn()
		}
	}
}

// PruneJournal deletes journal rows past the retention period.
func (s *Scheduler) PruneJournal() {
	days := s.cfg.Journal.RetentionDays
	if days < 1 {
		days = 1
	}
	n, err := s.journal.Prune(time.Duration(days) * 24 * time.Hour)
	if err != nil {
		s.logger.Warn().Err(err).Msg("journal prune failed")
		return
	}
	s.logger.Info().Int64("removed", n).Int("retention_days", days).Msg("journal prune completed")
}

func (s *Scheduler) logTraffic() {
	snap := s.counters.Snapshot()
	s.logger.Info().
		Str("in", snap.HumanIn()).
		Str("out", snap.HumanOut()).
		Int64("unknown", snap.Unknown).
		Int64("short_reads", snap.ShortReads).
		Msg("daily traffic summary")
}

// NextRun returns the first time strictly after now at the "HH:MM" clock
// time. Unparseable values fall back to 04:00.
func NextRun(now time.Time, at string) time.Time {
	hour, minute := 4, 0
	var h, m int
	if _, err := fmt.Sscanf(at, "%d:%d", &h, &m); err == nil && h >= 0 && h < 24 && m >= 0 && m < 60 {
		hour, minute = h, m
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
