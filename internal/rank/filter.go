package rank

import (
	"sort"
	"strings"

	"go.uber.org/zap"

	"jobsearch-engine/internal/domain"
)

// Step describes what one filter did to the batch.
type Step struct {
	Name    string `json:"name"`
	Initial int    `json:"initial"`
	Dropped int    `json:"dropped"`
	Left    int    `json:"left"`
}

// Filter is a single keep/drop rule over scored jobs.
type Filter interface {
	Name() string
	Keep(j domain.Job) bool
}

// Filters builds the filter chain for the given criteria: location,
// company blacklist, minimum score.
func Filters(c domain.Criteria) []Filter {
	return []Filter{
		locationFilter{allow: lowerList(c.Locations)},
		blacklistFilter{deny: lowerList(c.Blacklist)},
		minScoreFilter{min: c.MinScore},
	}
}

// Apply runs the filters in order and logs one line per step.
func Apply(log *zap.Logger, filters []Filter, jobs []domain.Job) ([]domain.Job, []Step) {
	steps := make([]Step, 0, len(filters))
	for _, f := range filters {
		initial := len(jobs)
		kept := make([]domain.Job, 0, initial)
		for _, j := range jobs {
			if f.Keep(j) {
				kept = append(kept, j)
				continue
			}
			if log != nil {
				log.Debug("dropped",
					zap.String("filter", f.Name()),
					zap.String("title", j.Title),
					zap.String("company", j.Company),
					zap.String("location", j.Location),
					zap.Int("score", j.MatchScore),
				)
			}
		}
		st := Step{Name: f.Name(), Initial: initial, Dropped: initial - len(kept), Left: len(kept)}
		if log != nil {
			log.Info("filter step",
				zap.String("name", f.Name()),
				zap.Int("initial", st.Initial),
				zap.Int("dropped", st.Dropped),
				zap.Int("left", st.Left),
			)
		}
		steps = append(steps, st)
		jobs = kept
	}
	return jobs, steps
}

// Rank orders jobs by score, then by most recent posted date (jobs without a
// date last), keeping input order for full ties. The input is not modified.
func Rank(jobs []domain.Job) []domain.Job {
	out := make([]domain.Job, len(jobs))
	copy(out, jobs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		switch {
		case a.PostedDate == nil || b.PostedDate == nil:
			return a.PostedDate != nil && b.PostedDate == nil
		default:
			return a.PostedDate.After(*b.PostedDate)
		}
	})
	return out
}

// FilterAndRank is Apply with the criteria's chain followed by Rank.
func FilterAndRank(log *zap.Logger, c domain.Criteria, jobs []domain.Job) ([]domain.Job, []Step) {
	kept, steps := Apply(log, Filters(c), jobs)
	return Rank(kept), steps
}

type locationFilter struct{ allow []string }

func (locationFilter) Name() string { return "location" }

func (f locationFilter) Keep(j domain.Job) bool {
	if len(f.allow) == 0 {
		return true
	}
	loc := strings.ToLower(j.Location)
	if loc == "" {
		return false
	}
	return containsAny(loc, f.allow)
}

type blacklistFilter struct{ deny []string }

func (blacklistFilter) Name() string { return "blacklist" }

func (f blacklistFilter) Keep(j domain.Job) bool {
	return !containsAny(strings.ToLower(j.Company), f.deny)
}

type minScoreFilter struct{ min int }

func (minScoreFilter) Name() string { return "min_score" }

func (f minScoreFilter) Keep(j domain.Job) bool { return j.MatchScore >= f.min }

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func lowerList(xs []string) []string {
	var out []string
	for _, x := range xs {
		if x = strings.ToLower(strings.TrimSpace(x)); x != "" {
			out = append(out, x)
		}
	}
	return out
}
