// Package workflow re-evaluates stored jobs: it prepares application
// artifacts for high-priority matches and flags stale applications for
// follow-up.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"jobsearch-engine/internal/domain"
	"jobsearch-engine/internal/events"
)

// Store is the slice of the job store the maintenance cycle needs.
type Store interface {
	HighPriority(ctx context.Context, minScore, limit int) ([]domain.Job, error)
	AttachArtifacts(ctx context.Context, id int64, cvVersion, coverLetterPath string) error
	DueForFollowUp(ctx context.Context, cutoff time.Time) ([]domain.Job, error)
	MarkFollowUp(ctx context.Context, id int64, now time.Time) (bool, error)
}

// Artifacts produces the per-job documents. References are opaque strings.
type Artifacts interface {
	OptimizeCV(ctx context.Context, job domain.Job) (string, error)
	GenerateCoverLetter(ctx context.Context, job domain.Job) (string, error)
}

const (
	DefaultHighPriorityScore = 85
	DefaultBatchSize         = 10
	DefaultFollowUpAfter     = 7 * 24 * time.Hour
	DefaultGenerationTimeout = 90 * time.Second
)

type Options struct {
	HighPriorityScore int
	BatchSize         int
	FollowUpAfter     time.Duration
	GenerationTimeout time.Duration
	// AllowPartial advances a job when at least one artifact was produced.
	AllowPartial bool
}

func (o Options) withDefaults() Options {
	if o.HighPriorityScore <= 0 {
		o.HighPriorityScore = DefaultHighPriorityScore
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultBatchSize
	}
	if o.FollowUpAfter <= 0 {
		o.FollowUpAfter = DefaultFollowUpAfter
	}
	if o.GenerationTimeout <= 0 {
		o.GenerationTimeout = DefaultGenerationTimeout
	}
	return o
}

type Trigger struct {
	Log       *zap.Logger
	Store     Store
	Artifacts Artifacts // nil skips the high-priority pass
	Bus       *events.Bus
	Options   Options
	Now       func() time.Time
}

type Report struct {
	Candidates        int `json:"candidates"`
	Prepared          int `json:"prepared"`
	GenerationFails   int `json:"generation_fails"`
	FollowUpsFlagged  int `json:"follow_ups_flagged"`
	FollowUpsExamined int `json:"follow_ups_examined"`
}

func (t *Trigger) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t *Trigger) logger() *zap.Logger {
	if t.Log == nil {
		return zap.NewNop()
	}
	return t.Log
}

// RunCycle performs the high-priority pass, then the follow-up sweep. Only
// store failures are returned; generation failures leave the job for the next
// cycle.
func (t *Trigger) RunCycle(ctx context.Context) (Report, error) {
	var rep Report
	if err := t.prepareHighPriority(ctx, &rep); err != nil {
		return rep, err
	}
	if err := t.sweepFollowUps(ctx, &rep); err != nil {
		return rep, err
	}

	t.logger().Info("maintenance cycle done",
		zap.Int("candidates", rep.Candidates),
		zap.Int("prepared", rep.Prepared),
		zap.Int("generation_fails", rep.GenerationFails),
		zap.Int("follow_ups", rep.FollowUpsFlagged))
	t.Bus.Emit(ctx, "", events.TypeMaintenanceFinished, rep)
	return rep, nil
}

func (t *Trigger) prepareHighPriority(ctx context.Context, rep *Report) error {
	log := t.logger()
	if t.Artifacts == nil {
		log.Debug("no generation backend, skipping high-priority pass")
		return nil
	}
	opts := t.Options.withDefaults()

	jobs, err := t.Store.HighPriority(ctx, opts.HighPriorityScore, opts.BatchSize)
	if err != nil {
		return err
	}
	rep.Candidates = len(jobs)

	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return nil
		}
		jl := log.With(zap.Int64("job_id", job.ID), zap.String("title", job.Title), zap.Int("score", job.MatchScore))

		cv, cvErr := t.generate(ctx, opts.GenerationTimeout, func(gctx context.Context) (string, error) {
			return t.Artifacts.OptimizeCV(gctx, job)
		})
		letter, letterErr := t.generate(ctx, opts.GenerationTimeout, func(gctx context.Context) (string, error) {
			return t.Artifacts.GenerateCoverLetter(gctx, job)
		})

		if cvErr != nil || letterErr != nil {
			rep.GenerationFails++
			jl.Warn("artifact generation failed", zap.NamedError("cv_error", cvErr), zap.NamedError("letter_error", letterErr))
			if !opts.AllowPartial || (cvErr != nil && letterErr != nil) {
				continue
			}
		}

		err := t.Store.AttachArtifacts(ctx, job.ID, cv, letter)
		var terr *domain.TransitionError
		switch {
		case errors.As(err, &terr):
			// moved on while we were generating
			jl.Info("job left found during generation", zap.String("status", string(terr.From)))
			continue
		case err != nil:
			return err
		}

		rep.Prepared++
		jl.Info("job ready to apply", zap.String("cv", cv), zap.String("cover_letter", letter))
		job.Status = domain.StatusReadyToApply
		job.CVVersion = cv
		job.CoverLetterPath = letter
		t.Bus.Emit(ctx, "", events.TypeJobReady, job)
	}
	return nil
}

func (t *Trigger) generate(ctx context.Context, timeout time.Duration, fn func(context.Context) (string, error)) (string, error) {
	gctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ref, err := fn(gctx)
	if err != nil {
		if !errors.Is(err, domain.ErrGenerationFailure) {
			err = fmt.Errorf("%w: %v", domain.ErrGenerationFailure, err)
		}
		return "", err
	}
	return ref, nil
}

func (t *Trigger) sweepFollowUps(ctx context.Context, rep *Report) error {
	opts := t.Options.withDefaults()
	now := t.now()

	due, err := t.Store.DueForFollowUp(ctx, now.Add(-opts.FollowUpAfter))
	if err != nil {
		return err
	}
	rep.FollowUpsExamined = len(due)

	for _, job := range due {
		ok, err := t.Store.MarkFollowUp(ctx, job.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		rep.FollowUpsFlagged++
		t.logger().Info("follow-up needed", zap.Int64("job_id", job.ID), zap.String("company", job.Company))

		job.Status = domain.StatusFollowUpNeeded
		flagged := now.UTC()
		job.FollowUpDate = &flagged
		t.Bus.Emit(ctx, "", events.TypeFollowUpFlagged, job)
	}
	return nil
}
