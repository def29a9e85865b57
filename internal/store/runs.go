package store

import (
	"context"
	"math"
	"time"

	"jobsearch-engine/internal/domain"
)

func (d *DB) InsertSearchRun(ctx context.Context, r domain.SearchRun) error {
	_, err := d.exec(ctx, `
INSERT INTO search_runs (id, run_date, source_platform, query, location, result_count, new_job_count, execution_ms, error)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`,
		r.ID, fmtTime(r.RunDate), r.SourcePlatform, r.Query, r.Location,
		r.ResultCount, r.NewJobCount, r.ExecutionTime.Milliseconds(), r.Error,
	)
	if err != nil {
		return unavailable("insert search run", err)
	}
	return nil
}

// ListSearchRuns returns runs on or after since, newest first.
func (d *DB) ListSearchRuns(ctx context.Context, since time.Time, limit int) ([]domain.SearchRun, error) {
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	rows, err := d.query(ctx, `
SELECT id, run_date, source_platform, query, location, result_count, new_job_count, execution_ms, error
FROM search_runs
WHERE run_date >= ?
ORDER BY run_date DESC
LIMIT ?;`, fmtTime(since), limit)
	if err != nil {
		return nil, unavailable("list search runs", err)
	}
	defer rows.Close()

	out := make([]domain.SearchRun, 0)
	for rows.Next() {
		var (
			r       domain.SearchRun
			runDate string
			ms      int64
		)
		if err := rows.Scan(&r.ID, &runDate, &r.SourcePlatform, &r.Query, &r.Location,
			&r.ResultCount, &r.NewJobCount, &ms, &r.Error); err != nil {
			return nil, unavailable("scan search run", err)
		}
		r.RunDate = parseTime(runDate)
		r.ExecutionTime = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list search runs", err)
	}
	return out, nil
}

// Stats aggregates the job table and the search runs of the last windowDays.
func (d *DB) Stats(ctx context.Context, now time.Time, windowDays int) (domain.Stats, error) {
	if windowDays <= 0 {
		windowDays = 7
	}
	st := domain.Stats{
		ByStatus:         map[domain.Status]int{},
		ByPlatform:       map[string]int{},
		SourceAvgResults: map[string]float64{},
		WindowDays:       windowDays,
	}

	rows, err := d.query(ctx, `SELECT status, COUNT(*) FROM jobs GROUP BY status;`)
	if err != nil {
		return st, unavailable("stats by status", err)
	}
	byStatus, err := countRows(rows)
	if err != nil {
		return st, unavailable("stats by status", err)
	}
	for s, n := range byStatus {
		st.ByStatus[domain.Status(s)] = n
		st.Total += n
	}

	rows, err = d.query(ctx, `SELECT source_platform, COUNT(*) FROM jobs GROUP BY source_platform;`)
	if err != nil {
		return st, unavailable("stats by platform", err)
	}
	if st.ByPlatform, err = countRows(rows); err != nil {
		return st, unavailable("stats by platform", err)
	}

	var avg *float64
	err = d.queryRow(ctx, `
SELECT
  COUNT(CASE WHEN application_date IS NOT NULL THEN 1 END),
  COUNT(CASE WHEN response_date IS NOT NULL THEN 1 END),
  AVG(CAST(match_score AS DOUBLE PRECISION))
FROM jobs;`).Scan(&st.Applied, &st.Responses, &avg)
	if err != nil {
		return st, unavailable("stats totals", err)
	}
	if avg != nil {
		st.AvgMatchScore = round1(*avg)
	}
	if st.Applied > 0 {
		st.ResponseRate = round1(float64(st.Responses) / float64(st.Applied) * 100)
	}

	cutoff := fmtTime(now.AddDate(0, 0, -windowDays))
	rows, err = d.query(ctx, `
SELECT source_platform, COUNT(*), AVG(CAST(result_count AS DOUBLE PRECISION))
FROM search_runs
WHERE run_date >= ?
GROUP BY source_platform;`, cutoff)
	if err != nil {
		return st, unavailable("stats search runs", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			p   string
			n   int
			avg float64
		)
		if err := rows.Scan(&p, &n, &avg); err != nil {
			return st, unavailable("stats search runs", err)
		}
		st.SourceAvgResults[p] = round1(avg)
		st.SearchesInWindow += n
	}
	if err := rows.Err(); err != nil {
		return st, unavailable("stats search runs", err)
	}
	return st, nil
}

// rowIter is the part of *sql.Rows countRows reads.
type rowIter interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// countRows reads (key, count) rows and closes them. A failed iteration is
// an error, never a partial result.
func countRows(rows rowIter) (map[string]int, error) {
	defer rows.Close()
	out := map[string]int{}
	for rows.Next() {
		var (
			k string
			n int
		)
		if err := rows.Scan(&k, &n); err != nil {
			return nil, err
		}
		out[k] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
