package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/scrape/types"
)

// RunFunc performs one cycle and reports how many records it changed.
type RunFunc func(ctx context.Context) (int, error)

// Cycle is a named, guarded unit of work with a last-known status. Scheduled
// and on-demand triggers both go through Trigger.
type Cycle struct {
	Name  string
	Guard *Guard
	Run   RunFunc
	Log   *zap.Logger
	Bus   *events.Bus
	Now   func() time.Time

	mu     sync.Mutex
	status types.RunStatus
}

func (c *Cycle) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cycle) logger() *zap.Logger {
	if c.Log == nil {
		return zap.NewNop()
	}
	return c.Log
}

// Status returns a copy of the last-known run state.
func (c *Cycle) Status() types.RunStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Cycle) update(fn func(*types.RunStatus)) {
	c.mu.Lock()
	fn(&c.status)
	c.mu.Unlock()
}

// Trigger runs the cycle synchronously. A trigger that finds the cycle busy is
// dropped with ErrAlreadyRunning; it is never queued.
func (c *Cycle) Trigger(ctx context.Context) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return c.run(ctx)
}

// TriggerAsync takes the guard, then runs the cycle in the background. It
// reports ErrAlreadyRunning without starting anything when the cycle is busy.
func (c *Cycle) TriggerAsync(ctx context.Context) error {
	release, err := c.acquire(ctx)
	if err != nil {
		return err
	}
	go func() {
		defer release()
		_ = c.run(context.WithoutCancel(ctx))
	}()
	return nil
}

func (c *Cycle) acquire(ctx context.Context) (func(), error) {
	release, err := c.Guard.TryAcquire()
	if err == nil {
		return release, nil
	}
	log := c.logger().With(zap.String("cycle", c.Name))
	if errors.Is(err, ErrAlreadyRunning) {
		log.Info("trigger skipped, cycle still running")
		c.update(func(st *types.RunStatus) { st.LastSkipAt = c.now().Format(time.RFC3339) })
		c.Bus.Emit(ctx, "", events.TypeCycleSkipped, map[string]string{"cycle": c.Name})
	} else {
		log.Error("acquire cycle lock", zap.Error(err))
	}
	return nil, err
}

func (c *Cycle) run(ctx context.Context) error {
	log := c.logger().With(zap.String("cycle", c.Name))
	c.update(func(st *types.RunStatus) {
		st.Running = true
		st.LastRunAt = c.now().Format(time.RFC3339)
	})

	start := c.now()
	added, err := c.Run(ctx)

	c.update(func(st *types.RunStatus) {
		st.Running = false
		st.LastAdded = added
		if err != nil {
			st.LastError = err.Error()
			return
		}
		st.LastError = ""
		st.LastOkAt = c.now().Format(time.RFC3339)
	})

	if err != nil {
		log.Error("cycle failed", zap.Error(err))
		return err
	}
	log.Info("cycle ok", zap.Int("added", added), zap.Duration("took", c.now().Sub(start)))
	return nil
}
