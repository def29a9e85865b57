package store

import (
	"context"
	"database/sql"
	"fmt"
)

const schemaVersion = 1

const jobsTable = `
CREATE TABLE IF NOT EXISTS jobs (
  id %s,
  fingerprint TEXT NOT NULL UNIQUE,
  title TEXT NOT NULL,
  company TEXT NOT NULL,
  location TEXT NOT NULL DEFAULT '',
  salary_raw TEXT NOT NULL DEFAULT '',
  salary_min INTEGER,
  salary_max INTEGER,
  salary_currency TEXT NOT NULL DEFAULT '',
  source_platform TEXT NOT NULL DEFAULT '',
  job_url TEXT NOT NULL DEFAULT '',
  description TEXT NOT NULL DEFAULT '',
  requirements TEXT NOT NULL DEFAULT '',
  posted_date TEXT,
  match_score INTEGER NOT NULL DEFAULT 0 CHECK (match_score BETWEEN 0 AND 100),
  status TEXT NOT NULL DEFAULT 'found',
  cv_version TEXT NOT NULL DEFAULT '',
  cover_letter_path TEXT NOT NULL DEFAULT '',
  application_date TEXT,
  follow_up_date TEXT,
  response_date TEXT,
  interview_date TEXT,
  notes TEXT NOT NULL DEFAULT '',
  created_at TEXT NOT NULL
);`

const searchRunsTable = `
CREATE TABLE IF NOT EXISTS search_runs (
  id TEXT PRIMARY KEY,
  run_date TEXT NOT NULL,
  source_platform TEXT NOT NULL,
  query TEXT NOT NULL DEFAULT '',
  location TEXT NOT NULL DEFAULT '',
  result_count INTEGER NOT NULL DEFAULT 0,
  new_job_count INTEGER NOT NULL DEFAULT 0,
  execution_ms INTEGER NOT NULL DEFAULT 0,
  error TEXT NOT NULL DEFAULT ''
);`

var indexes = []string{
	`CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_score ON jobs(match_score);`,
	`CREATE INDEX IF NOT EXISTS idx_search_runs_date ON search_runs(run_date);`,
}

// Migrate brings the schema up to date. SQLite tracks the version in
// PRAGMA user_version, postgres in a schema_version table.
func (d *DB) Migrate(ctx context.Context) error {
	tx, err := d.Pool.BeginTx(ctx, nil)
	if err != nil {
		return unavailable("migrate", err)
	}
	defer func() { _ = tx.Rollback() }()

	v, err := d.currentVersion(ctx, tx)
	if err != nil {
		return unavailable("read schema version", err)
	}
	if v >= schemaVersion {
		return tx.Commit()
	}

	idCol := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if d.Dialect == Postgres {
		idCol = "BIGSERIAL PRIMARY KEY"
	}
	stmts := append([]string{fmt.Sprintf(jobsTable, idCol), searchRunsTable}, indexes...)
	for _, s := range stmts {
		if _, err := tx.ExecContext(ctx, s); err != nil {
			return unavailable("migrate", err)
		}
	}

	if err := d.setVersion(ctx, tx, schemaVersion); err != nil {
		return unavailable("write schema version", err)
	}
	return tx.Commit()
}

func (d *DB) currentVersion(ctx context.Context, tx *sql.Tx) (int, error) {
	var v int
	if d.Dialect != Postgres {
		err := tx.QueryRowContext(ctx, `PRAGMA user_version;`).Scan(&v)
		return v, err
	}

	if _, err := tx.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (version INTEGER NOT NULL);`); err != nil {
		return 0, err
	}
	err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version;`).Scan(&v)
	return v, err
}

func (d *DB) setVersion(ctx context.Context, tx *sql.Tx, v int) error {
	if d.Dialect != Postgres {
		// PRAGMA does not take bind parameters.
		_, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d;`, v))
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM schema_version;`); err != nil {
		return err
	}
	_, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1);`, v)
	return err
}
