package scheduler

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/gofrs/flock"
)

// ErrAlreadyRunning is returned when a trigger arrives while the cycle runs.
var ErrAlreadyRunning = errors.New("cycle already running")

// Guard admits one run at a time. The atomic flag covers triggers within the
// process; the optional lock file covers a second engine process (a CLI
// invocation while serve is up) on the same data dir.
type Guard struct {
	running atomic.Bool
	lock    *flock.Flock
}

// NewGuard returns a Guard. An empty lockPath means in-process only.
func NewGuard(lockPath string) *Guard {
	g := &Guard{}
	if lockPath != "" {
		g.lock = flock.New(lockPath)
	}
	return g
}

// TryAcquire never blocks. On success the caller must call release.
func (g *Guard) TryAcquire() (release func(), err error) {
	if !g.running.CompareAndSwap(false, true) {
		return nil, ErrAlreadyRunning
	}
	if g.lock == nil {
		return func() { g.running.Store(false) }, nil
	}

	ok, err := g.lock.TryLock()
	if err != nil {
		g.running.Store(false)
		return nil, fmt.Errorf("lock %s: %w", g.lock.Path(), err)
	}
	if !ok {
		g.running.Store(false)
		return nil, ErrAlreadyRunning
	}
	return func() {
		_ = g.lock.Unlock()
		g.running.Store(false)
	}, nil
}

func (g *Guard) Running() bool { return g.running.Load() }
