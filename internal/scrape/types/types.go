package types

import (
	"context"
	"time"

	"jobsearch-engine/internal/domain"
)

// Query is what every source is asked for on a cycle.
type Query struct {
	Term       string
	Location   string
	MaxResults int
	Recency    time.Duration
}

// QueryFromCriteria builds the source query for a cycle.
func QueryFromCriteria(c domain.Criteria) Query {
	return Query{
		Term:       c.Query,
		Location:   c.Location,
		MaxResults: c.MaxResults,
		Recency:    c.Recency,
	}
}

// Fetcher is a source adapter. Failures should wrap domain.ErrSourceUnavailable.
type Fetcher interface {
	Name() string
	Fetch(ctx context.Context, q Query) ([]domain.RawRecord, error)
}

// RunStatus is the last-known state of a background cycle.
type RunStatus struct {
	LastRunAt  string `json:"last_run_at"`
	LastOkAt   string `json:"last_ok_at"`
	LastError  string `json:"last_error"`
	LastAdded  int    `json:"last_added"`
	Running    bool   `json:"running"`
	LastSkipAt string `json:"last_skip_at,omitempty"`
}
