package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

// Scheduler drives the engine on a fixed interval. Cycles never overlap: if
// a cycle outlives the interval (many chunks, slow provider), the next tick
// waits for it to finish, and a cycle in flight gets to complete its current
// chunk before shutdown returns.
type Scheduler struct {
	engine   *Engine
	interval time.Duration
	log      zerolog.Logger
	c        *cron.Cron
}

func NewScheduler(e *Engine, interval time.Duration, log zerolog.Logger) *Scheduler {
	return &Scheduler{engine: e, interval: interval, log: log}
}

// Run blocks until ctx is done, then waits for any in-flight cycle.
func (s *Scheduler) Run(ctx context.Context) error {
	cronLog := cron.PrintfLogger(&s.log)
	s.c = cron.New(cron.WithChain(cron.DelayIfStillRunning(cronLog)))

	spec := fmt.Sprintf("@every %s", s.interval)
	_, err := s.c.AddFunc(spec, func() {
		s.engine.RunCycle(ctx, time.Now())
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("interval", s.interval.String()).Msg("delivery scheduler started")
	s.c.Start()

	<-ctx.Done()
	stopped := s.c.Stop()
	<-stopped.Done()
	s.log.Info().Msg("delivery scheduler stopped")
	return nil
}
