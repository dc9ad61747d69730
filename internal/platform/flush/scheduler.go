// Package flush runs the periodic persistence schedule. Every mutation
// already writes synchronously; the fixed-interval flush exists to
// bound the loss window for any path that skipped its sync write.
package flush

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Flusher is anything that can force a durable write of its state.
// Both registries implement it.
type Flusher interface {
	Flush(ctx context.Context) error
}

// Scheduler flushes a set of stores on a fixed interval.
type Scheduler struct {
	cron     *cron.Cron
	interval time.Duration
	flushers []Flusher
	logger   *slog.Logger
}

// NewScheduler creates a scheduler that flushes the given stores every
// interval once started.
func NewScheduler(interval time.Duration, logger *slog.Logger, flushers ...Flusher) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		interval: interval,
		flushers: flushers,
		logger:   logger.With("component", "flush_scheduler"),
	}
}

// Start registers the flush job and starts the schedule.
func (s *Scheduler) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.flushAll); err != nil {
		return fmt.Errorf("register flush schedule %q: %w", spec, err)
	}
	s.cron.Start()
	s.logger.Info("periodic flush started", "interval", s.interval.String())
	return nil
}

// Stop halts the schedule, waits for a running flush to finish, and
// performs one final flush so shutdown never loses committed state.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.flushAll()
	s.logger.Info("periodic flush stopped")
}

func (s *Scheduler) flushAll() {
	ctx := context.Background()
	for _, f := range s.flushers {
		if err := f.Flush(ctx); err != nil {
			s.logger.Error("periodic flush failed", "error", err)
		}
	}
}
