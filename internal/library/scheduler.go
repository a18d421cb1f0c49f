package library

import (
	"context"
	"errors"
	"log/slog"

	"github.com/robfig/cron/v3"

	"mediahub/internal/logging"
)

// Pruner drops failed-lookup rows older than the retry window.
type Pruner interface {
	PruneFailedLookups(ctx context.Context) (int64, error)
}

// Scheduler runs periodic rescans and failed-lookup pruning.
type Scheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
	jobs   int
}

// NewScheduler registers jobs for the non-empty schedules. Specs use the
// standard five-field cron format.
func NewScheduler(ctx context.Context, scanner *Scanner, pruner Pruner, rescanSpec, pruneSpec string, logger *slog.Logger) (*Scheduler, error) {
	logger = logging.NewComponentLogger(logger, "library-scheduler")
	c := cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, logger: logger}

	if rescanSpec != "" && scanner != nil {
		if _, err := c.AddFunc(rescanSpec, func() {
			if _, err := scanner.Scan(ctx); err != nil && !errors.Is(err, ErrScanRunning) && ctx.Err() == nil {
				logging.WarnWithContext(logger, "scheduled rescan failed", "rescan_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "new files wait for the next rescan"),
				)
			}
		}); err != nil {
			return nil, err
		}
		s.jobs++
	}
	if pruneSpec != "" && pruner != nil {
		if _, err := c.AddFunc(pruneSpec, func() {
			removed, err := pruner.PruneFailedLookups(ctx)
			if err != nil {
				logging.WarnWithContext(logger, "failed lookup pruning failed", "prune_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "expired failures stay until the next run"),
				)
				return
			}
			logger.Info("pruned failed lookups", logging.Int64("removed", removed))
		}); err != nil {
			return nil, err
		}
		s.jobs++
	}
	return s, nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return s.jobs
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	if s.jobs == 0 {
		return
	}
	s.cron.Start()
}

// Stop prevents new runs and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
