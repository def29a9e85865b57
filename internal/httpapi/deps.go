package httpapi

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"jobsearch-engine/internal/config"
	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/events"
	"jobsearch-engine/internal/scrape/types"
	"jobsearch-engine/internal/store"
)

// JobStore is the slice of the job store the API serves.
type JobStore interface {
	Query(ctx context.Context, f store.QueryFilter) ([]domain.Job, error)
	Get(ctx context.Context, id int64) (domain.Job, error)
	UpdateStatus(ctx context.Context, id int64, to domain.Status, now time.Time) (domain.Job, error)
	SetNotes(ctx context.Context, id int64, notes string) error
	Stats(ctx context.Context, now time.Time, windowDays int) (domain.Stats, error)
	Checkpoint(ctx context.Context) error
}

// Cycle is a guarded background cycle (ingestion or maintenance).
type Cycle interface {
	TriggerAsync(ctx context.Context) error
	Status() types.RunStatus
}

type Deps struct {
	Log     *zap.Logger
	Version string

	Store JobStore
	Bus   *events.Bus

	CfgVal *atomic.Value // stores config.Config

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)

	Ingest      Cycle
	Maintenance Cycle

	// SetSecret stores a named secret in the OS keychain; inject for testability.
	SetSecret func(account, value string) error

	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now()
	}
	return time.Now()
}

func (d Deps) config() config.Config {
	if d.CfgVal == nil {
		return config.Config{}
	}
	cfg, _ := d.CfgVal.Load().(config.Config)
	return cfg
}
