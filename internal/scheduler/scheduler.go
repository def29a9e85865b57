// Package scheduler drives the ingestion and maintenance cycles on cron
// cadences and guards them so a cycle never overlaps itself.
package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler owns one cron instance. Every job is wrapped in SkipIfStillRunning,
// and each Cycle carries its own Guard for on-demand triggers.
type Scheduler struct {
	cron *cron.Cron
	log  *zap.Logger
}

func New(log *zap.Logger) *Scheduler {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("scheduler")
	cl := cronLogger{s: log.Sugar()}
	return &Scheduler{
		cron: cron.New(
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		log: log,
	}
}

// Add registers c on a standard five-field cron spec. An empty spec disables
// the cadence.
func (s *Scheduler) Add(spec string, c *Cycle) error {
	if spec == "" {
		s.log.Info("cadence disabled", zap.String("cycle", c.Name))
		return nil
	}
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("cron spec for %s %q: %w", c.Name, spec, err)
	}
	s.cron.Schedule(sched, cron.FuncJob(func() {
		_ = c.Trigger(context.Background())
	}))
	s.log.Info("cadence registered", zap.String("cycle", c.Name), zap.String("spec", spec))
	return nil
}

func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop and waits for running jobs, or until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	done := s.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
		s.log.Warn("stop timed out with cycles still running")
	}
}

// cronLogger routes the cron library's logging through zap. Info lines are
// per-tick chatter and go to debug.
type cronLogger struct {
	s *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.s.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
