// Package scheduler wires up the cron job that periodically compacts the
// order indexes of every Kanban column.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Compactor renumbers columns; *kanban.Service implements it.
type Compactor interface {
	CompactAll(ctx context.Context) (int, error)
}

// Scheduler wraps robfig/cron and manages the compaction loop.
type Scheduler struct {
	cron      *cron.Cron
	compactor Compactor
	spec      string // cron spec, e.g. "@daily"
	log       *slog.Logger
}

// New creates a Scheduler that runs compactor on spec. Overlapping runs are
// skipped: a slow pass is never stacked with the next tick.
func New(compactor Compactor, spec string, log *slog.Logger) *Scheduler {
	return &Scheduler{
		cron: cron.New(cron.WithChain(
			cron.SkipIfStillRunning(cron.DiscardLogger),
		)),
		compactor: compactor,
		spec:      spec,
		log:       log,
	}
}

// Start registers the job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.log.Info("[scheduler] Cron started", "spec", s.spec)
	return nil
}

// Stop stops the scheduler and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.log.Info("[scheduler] Cron stopped")
}

// RunOnce performs one compaction pass over every user's board.
func (s *Scheduler) RunOnce(ctx context.Context) {
	s.log.Info("[scheduler] Compaction cycle started")

	rewritten, err := s.compactor.CompactAll(ctx)
	if err != nil {
		s.log.Error("[scheduler] Compaction cycle finished with errors", "rewritten", rewritten, "err", err)
		return
	}

	s.log.Info("[scheduler] Compaction cycle complete", "rewritten", rewritten)
}
