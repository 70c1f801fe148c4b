package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"

	"trainboard/internal/logger"
	"trainboard/internal/poll"
)

// tickTimeout bounds one tick including retries and backoff sleeps.
const tickTimeout = 5 * time.Minute

// Scheduler drives the poll cycle at the configured refresh interval.
type Scheduler struct {
	scheduler *gocron.Scheduler
	cycle     *poll.Cycle
	interval  time.Duration
	log       *logger.Logger
}

// New creates a Scheduler.
func New(cycle *poll.Cycle, interval time.Duration, log *logger.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	return &Scheduler{
		scheduler: s,
		cycle:     cycle,
		interval:  interval,
		log:       log,
	}
}

// Start schedules the periodic tick and starts the underlying scheduler.
// Ticks never overlap; a tick still running when the next is due makes the
// next one wait.
func (s *Scheduler) Start() error {
	seconds := int(s.interval.Seconds())
	if seconds <= 0 {
		seconds = 60
	}

	_, err := s.scheduler.Every(seconds).Seconds().SingletonMode().Do(func() {
		s.log.Debugw("tick starting")

		ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
		defer cancel()

		if err := s.cycle.RunTick(ctx); err != nil {
			s.log.Errorw("tick aborted", "error", err)
			return
		}
		s.log.Debugw("tick completed")
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future ticks.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
