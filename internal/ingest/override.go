package ingest

import (
	"context"
	"strings"

	"jobsearch-engine/internal/domain"
)

// Override replaces the configured search term and location for one
// on-demand cycle. Empty fields keep the configured value.
type Override struct {
	Query    string `json:"query"`
	Location string `json:"location"`
}

func (o Override) IsZero() bool {
	return strings.TrimSpace(o.Query) == "" && strings.TrimSpace(o.Location) == ""
}

// Apply returns crit with the override's non-empty fields.
func (o Override) Apply(crit domain.Criteria) domain.Criteria {
	if q := strings.TrimSpace(o.Query); q != "" {
		crit.Query = q
	}
	if l := strings.TrimSpace(o.Location); l != "" {
		crit.Location = l
	}
	return crit
}

type overrideKey struct{}

// WithOverride attaches o to ctx so a triggered cycle can pick it up.
func WithOverride(ctx context.Context, o Override) context.Context {
	if o.IsZero() {
		return ctx
	}
	return context.WithValue(ctx, overrideKey{}, o)
}

func OverrideFrom(ctx context.Context) (Override, bool) {
	o, ok := ctx.Value(overrideKey{}).(Override)
	return o, ok
}
