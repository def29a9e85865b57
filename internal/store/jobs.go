package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"jobsearch-engine/internal/domain"
)

const DefaultQueryLimit = 50

const jobColumns = `id, fingerprint, title, company, location, salary_raw, salary_min, salary_max,
salary_currency, source_platform, job_url, description, requirements, posted_date, match_score,
status, cv_version, cover_letter_path, application_date, follow_up_date, response_date,
interview_date, notes, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(s scanner) (domain.Job, error) {
	var (
		j                                   domain.Job
		salMin, salMax                      sql.NullInt64
		posted, applied, followUp, response sql.NullString
		interview                           sql.NullString
		status, created                     string
	)
	err := s.Scan(
		&j.ID, &j.Fingerprint, &j.Title, &j.Company, &j.Location,
		&j.Salary.Raw, &salMin, &salMax, &j.Salary.Currency,
		&j.SourcePlatform, &j.URL, &j.Description, &j.Requirements, &posted,
		&j.MatchScore, &status, &j.CVVersion, &j.CoverLetterPath,
		&applied, &followUp, &response, &interview, &j.Notes, &created,
	)
	if err != nil {
		return domain.Job{}, err
	}
	j.Salary.Min, j.Salary.Max = intPtr(salMin), intPtr(salMax)
	j.PostedDate = timePtr(posted)
	j.Status = domain.Status(status)
	j.ApplicationDate = timePtr(applied)
	j.FollowUpDate = timePtr(followUp)
	j.ResponseDate = timePtr(response)
	j.InterviewDate = timePtr(interview)
	j.CreatedAt = parseTime(created)
	return j, nil
}

func (d *DB) scanJobs(rows *sql.Rows) ([]domain.Job, error) {
	defer rows.Close()
	out := make([]domain.Job, 0)
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, unavailable("scan job", err)
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate jobs", err)
	}
	return out, nil
}

// Upsert inserts j when its fingerprint is new. For a stored job still in
// found, only the match score is refreshed; anything else is left alone.
func (d *DB) Upsert(ctx context.Context, j domain.Job) (inserted bool, err error) {
	if j.Fingerprint == "" {
		j.Fingerprint = domain.Fingerprint(j.Title, j.Company)
	}
	if j.Status == "" {
		j.Status = domain.StatusFound
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = time.Now()
	}
	j.MatchScore = domain.ClampScore(j.MatchScore)

	var id int64
	err = d.queryRow(ctx, `
INSERT INTO jobs (fingerprint, title, company, location, salary_raw, salary_min, salary_max,
  salary_currency, source_platform, job_url, description, requirements, posted_date,
  match_score, status, notes, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (fingerprint) DO NOTHING
RETURNING id;`,
		j.Fingerprint, j.Title, j.Company, j.Location, j.Salary.Raw, nullInt(j.Salary.Min), nullInt(j.Salary.Max),
		j.Salary.Currency, j.SourcePlatform, j.URL, j.Description, j.Requirements, nullTime(j.PostedDate),
		j.MatchScore, string(j.Status), j.Notes, fmtTime(j.CreatedAt),
	).Scan(&id)
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, sql.ErrNoRows):
		return false, unavailable("insert job", err)
	}

	if _, err := d.exec(ctx, `
UPDATE jobs SET match_score = ?
WHERE fingerprint = ? AND status = ?;`,
		j.MatchScore, j.Fingerprint, string(domain.StatusFound),
	); err != nil {
		return false, unavailable("rescore job", err)
	}
	return false, nil
}

func (d *DB) Get(ctx context.Context, id int64) (domain.Job, error) {
	j, err := scanJob(d.queryRow(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?;`, id))
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return domain.Job{}, fmt.Errorf("job %d: %w", id, domain.ErrNotFound)
	case err != nil:
		return domain.Job{}, unavailable("get job", err)
	}
	return j, nil
}

// ExistingFingerprints returns the subset of fps already stored.
func (d *DB) ExistingFingerprints(ctx context.Context, fps []string) (map[string]bool, error) {
	out := make(map[string]bool, len(fps))
	const chunk = 200
	for start := 0; start < len(fps); start += chunk {
		end := min(start+chunk, len(fps))
		part := fps[start:end]

		args := make([]any, len(part))
		for i, fp := range part {
			args[i] = fp
		}
		marks := strings.TrimSuffix(strings.Repeat("?,", len(part)), ",")
		rows, err := d.query(ctx, `SELECT fingerprint FROM jobs WHERE fingerprint IN (`+marks+`);`, args...)
		if err != nil {
			return nil, unavailable("lookup fingerprints", err)
		}
		for rows.Next() {
			var fp string
			if err := rows.Scan(&fp); err != nil {
				rows.Close()
				return nil, unavailable("scan fingerprint", err)
			}
			out[fp] = true
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return nil, unavailable("lookup fingerprints", err)
		}
	}
	return out, nil
}

// QueryFilter narrows Query. Zero values mean "no constraint".
type QueryFilter struct {
	MinScore int
	Location string
	Status   domain.Status
	Limit    int
}

// Query lists jobs best score first, newest first among equal scores.
func (d *DB) Query(ctx context.Context, f QueryFilter) ([]domain.Job, error) {
	var (
		where []string
		args  []any
	)
	if f.MinScore > 0 {
		where = append(where, "match_score >= ?")
		args = append(args, f.MinScore)
	}
	if loc := strings.TrimSpace(f.Location); loc != "" {
		where = append(where, `LOWER(location) LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(strings.ToLower(loc))+"%")
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	limit := f.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	args = append(args, limit)

	q := `SELECT ` + jobColumns + ` FROM jobs`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY match_score DESC, created_at DESC, id DESC LIMIT ?;"

	rows, err := d.query(ctx, q, args...)
	if err != nil {
		return nil, unavailable("query jobs", err)
	}
	return d.scanJobs(rows)
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// UpdateStatus moves a job along the status table and applies the date side
// effects of the move. The update only lands if the job is still in the
// status it was read in.
func (d *DB) UpdateStatus(ctx context.Context, id int64, to domain.Status, now time.Time) (domain.Job, error) {
	j, err := d.Get(ctx, id)
	if err != nil {
		return domain.Job{}, err
	}
	from := j.Status
	if !domain.IsTransitionAllowed(from, to) {
		return j, &domain.TransitionError{JobID: id, From: from, To: to}
	}

	now = now.UTC()
	switch to {
	case domain.StatusApplied:
		j.ApplicationDate = &now
	case domain.StatusFollowUpNeeded:
		j.FollowUpDate = &now
	case domain.StatusInterview:
		j.InterviewDate = &now
	}
	if domain.IsResponse(from, to) && j.ResponseDate == nil {
		j.ResponseDate = &now
	}

	res, err := d.exec(ctx, `
UPDATE jobs
SET status = ?, application_date = ?, follow_up_date = ?, response_date = ?, interview_date = ?
WHERE id = ? AND status = ?;`,
		string(to), nullTime(j.ApplicationDate), nullTime(j.FollowUpDate), nullTime(j.ResponseDate),
		nullTime(j.InterviewDate), id, string(from),
	)
	if err != nil {
		return domain.Job{}, unavailable("update status", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		cur, gerr := d.Get(ctx, id)
		if gerr != nil {
			return domain.Job{}, gerr
		}
		return cur, &domain.TransitionError{JobID: id, From: cur.Status, To: to}
	}
	j.Status = to
	return j, nil
}

func (d *DB) SetNotes(ctx context.Context, id int64, notes string) error {
	res, err := d.exec(ctx, `UPDATE jobs SET notes = ? WHERE id = ?;`, notes, id)
	if err != nil {
		return unavailable("set notes", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("job %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// HighPriority returns found jobs scoring at least minScore, best first.
func (d *DB) HighPriority(ctx context.Context, minScore, limit int) ([]domain.Job, error) {
	rows, err := d.query(ctx, `
SELECT `+jobColumns+` FROM jobs
WHERE status = ? AND match_score >= ?
ORDER BY match_score DESC, id ASC
LIMIT ?;`, string(domain.StatusFound), minScore, limit)
	if err != nil {
		return nil, unavailable("high priority", err)
	}
	return d.scanJobs(rows)
}

// AttachArtifacts records the generated CV and cover letter and moves the job
// from found to ready_to_apply.
func (d *DB) AttachArtifacts(ctx context.Context, id int64, cvVersion, coverLetterPath string) error {
	res, err := d.exec(ctx, `
UPDATE jobs SET cv_version = ?, cover_letter_path = ?, status = ?
WHERE id = ? AND status = ?;`,
		cvVersion, coverLetterPath, string(domain.StatusReadyToApply), id, string(domain.StatusFound))
	if err != nil {
		return unavailable("attach artifacts", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		cur, gerr := d.Get(ctx, id)
		if gerr != nil {
			return gerr
		}
		return &domain.TransitionError{JobID: id, From: cur.Status, To: domain.StatusReadyToApply}
	}
	return nil
}

// DueForFollowUp lists applied jobs with no response whose application is at
// or before cutoff.
func (d *DB) DueForFollowUp(ctx context.Context, cutoff time.Time) ([]domain.Job, error) {
	rows, err := d.query(ctx, `
SELECT `+jobColumns+` FROM jobs
WHERE status = ? AND application_date IS NOT NULL AND application_date <= ? AND response_date IS NULL
ORDER BY application_date ASC;`, string(domain.StatusApplied), fmtTime(cutoff))
	if err != nil {
		return nil, unavailable("due for follow-up", err)
	}
	return d.scanJobs(rows)
}

// MarkFollowUp flags an applied job as follow_up_needed. It reports false
// when the job had already moved on.
func (d *DB) MarkFollowUp(ctx context.Context, id int64, now time.Time) (bool, error) {
	res, err := d.exec(ctx, `
UPDATE jobs SET status = ?, follow_up_date = ?
WHERE id = ? AND status = ? AND response_date IS NULL;`,
		string(domain.StatusFollowUpNeeded), fmtTime(now), id, string(domain.StatusApplied))
	if err != nil {
		return false, unavailable("mark follow-up", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
