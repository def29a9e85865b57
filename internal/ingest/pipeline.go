package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/rank"
	"jobsearch-engine/internal/scrape/types"
)

// Store is the part of the job store an ingestion cycle writes to.
type Store interface {
	FingerprintLookup
	Upsert(ctx context.Context, j domain.Job) (inserted bool, err error)
	InsertSearchRun(ctx context.Context, run domain.SearchRun) error
}

const (
	DefaultSourceTimeout = 2 * time.Minute
	DefaultSourceDelay   = 2 * time.Second
)

// Pipeline runs ingestion cycles: fetch from every source, normalize, dedup,
// score, filter, rank, upsert.
type Pipeline struct {
	Log     *zap.Logger
	Store   Store
	Sources []types.Fetcher
	Scorer  rank.Scorer

	SourceTimeout time.Duration
	// SourceDelay is the minimum gap between two source calls starting.
	SourceDelay time.Duration

	// OnNewJob is called for every inserted job. Optional.
	OnNewJob func(domain.Job)

	Now func() time.Time
}

// SourceReport summarizes one source within a cycle.
type SourceReport struct {
	Name      string        `json:"name"`
	RunID     string        `json:"run_id"`
	Fetched   int           `json:"fetched"`
	Malformed int           `json:"malformed"`
	New       int           `json:"new"`
	Duration  time.Duration `json:"duration"`
	Error     string        `json:"error,omitempty"`
}

// Report summarizes one ingestion cycle.
type Report struct {
	StartedAt  time.Time      `json:"started_at"`
	Duration   time.Duration  `json:"duration"`
	Sources    []SourceReport `json:"sources"`
	Drafts     int            `json:"drafts"`
	Duplicates int            `json:"duplicates"`
	Known      int            `json:"known"`
	Fresh      int            `json:"fresh"`
	ScoreFails int            `json:"score_failures"`
	Filters    []rank.Step    `json:"filters"`
	Kept       int            `json:"kept"`
	Inserted   int            `json:"inserted"`
}

type fetchResult struct {
	records  []domain.RawRecord
	started  time.Time
	duration time.Duration
	err      error
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now().UTC()
}

func (p *Pipeline) log() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}

// RunCycle executes one ingestion cycle. Source and record level failures are
// logged and counted; only store failures (domain.ErrStoreUnavailable) are
// returned.
func (p *Pipeline) RunCycle(ctx context.Context, profile domain.Profile, crit domain.Criteria) (rep Report, err error) {
	log := p.log()
	rep.StartedAt = p.now()
	defer func() { rep.Duration = p.now().Sub(rep.StartedAt) }()

	results := p.fetchAll(ctx, types.QueryFromCriteria(crit))

	var drafts []domain.Job
	// fetcher that produced the first draft per fingerprint; a record may
	// name a different source platform than its fetcher
	origin := map[string]string{}
	rep.Sources = make([]SourceReport, len(p.Sources))
	for i, f := range p.Sources {
		r := results[i]
		sr := SourceReport{Name: f.Name(), Fetched: len(r.records), Duration: r.duration}
		if r.err != nil {
			sr.Error = r.err.Error()
			log.Warn("source failed", zap.String("source", f.Name()), zap.Error(r.err))
		}
		for _, rec := range r.records {
			j, err := Normalize(rec, f.Name())
			if err != nil {
				sr.Malformed++
				log.Debug("skipped record", zap.String("source", f.Name()), zap.Error(err))
				continue
			}
			if _, ok := origin[j.Fingerprint]; !ok {
				origin[j.Fingerprint] = f.Name()
			}
			drafts = append(drafts, j)
		}
		rep.Sources[i] = sr
	}
	rep.Drafts = len(drafts)

	dd, err := Dedup(ctx, p.Store, drafts)
	if err != nil {
		return rep, err
	}
	rep.Duplicates, rep.Known, rep.Fresh = dd.Duplicates, len(dd.Known), len(dd.Fresh)

	scored := make([]domain.Job, 0, len(dd.Fresh)+len(dd.Known))
	for _, batch := range [][]domain.Job{dd.Fresh, dd.Known} {
		for _, j := range batch {
			res := p.Scorer.Score(j.Text(), profile)
			if !res.OK() {
				rep.ScoreFails++
				log.Warn("scoring failed", zap.String("fingerprint", j.Fingerprint), zap.Error(res.Err))
			}
			j.MatchScore = res.ScoreOr(0)
			scored = append(scored, j)
		}
	}

	kept, steps := rank.FilterAndRank(log, crit, scored)
	rep.Filters = steps
	rep.Kept = len(kept)

	newBySource := map[string]int{}
	for _, j := range kept {
		inserted, err := p.Store.Upsert(ctx, j)
		if err != nil {
			return rep, storeErr(err)
		}
		if !inserted {
			continue
		}
		rep.Inserted++
		newBySource[origin[j.Fingerprint]]++
		if p.OnNewJob != nil {
			p.OnNewJob(j)
		}
	}

	for i, f := range p.Sources {
		sr := &rep.Sources[i]
		sr.New = newBySource[f.Name()]
		sr.RunID = uuid.NewString()
		run := domain.SearchRun{
			ID:             sr.RunID,
			RunDate:        results[i].started,
			SourcePlatform: f.Name(),
			Query:          crit.Query,
			Location:       crit.Location,
			ResultCount:    sr.Fetched,
			NewJobCount:    sr.New,
			ExecutionTime:  sr.Duration,
			Error:          sr.Error,
		}
		if err := p.Store.InsertSearchRun(ctx, run); err != nil {
			return rep, storeErr(err)
		}
	}

	log.Info("cycle done",
		zap.Int("drafts", rep.Drafts),
		zap.Int("duplicates", rep.Duplicates),
		zap.Int("known", rep.Known),
		zap.Int("kept", rep.Kept),
		zap.Int("inserted", rep.Inserted),
	)
	return rep, nil
}

// fetchAll fans out to every source. A failing source never cancels the others.
func (p *Pipeline) fetchAll(ctx context.Context, q types.Query) []fetchResult {
	timeout := p.SourceTimeout
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	limit := rate.Inf
	if p.SourceDelay > 0 {
		limit = rate.Every(p.SourceDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	results := make([]fetchResult, len(p.Sources))
	var g errgroup.Group
	for i, f := range p.Sources {
		i, f := i, f
		g.Go(func() error {
			if err := limiter.Wait(ctx); err != nil {
				results[i] = fetchResult{started: p.now(), err: fmt.Errorf("%w: %v", domain.ErrSourceUnavailable, err)}
				return nil
			}

			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			started := p.now()
			p.log().Debug("fetching", zap.String("source", f.Name()))
			recs, err := f.Fetch(fctx, q)
			if err != nil {
				recs = nil
				if !errors.Is(err, domain.ErrSourceUnavailable) {
					err = fmt.Errorf("%w: %s: %v", domain.ErrSourceUnavailable, f.Name(), err)
				}
			}
			results[i] = fetchResult{records: recs, started: started, duration: p.now().Sub(started), err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func storeErr(err error) error {
	if errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
