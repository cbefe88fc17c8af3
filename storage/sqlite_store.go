package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"clockysap/internal/timeutil"
	"clockysap/syncer"
)

// SQLiteStore is the local ledger of sync runs and their per-record outcomes.
type SQLiteStore struct {
	db *sql.DB
}

var ErrRunNotFound = errors.New("sync run not found")

// Run is one stored sync run without its outcomes.
type Run struct {
	ID         string
	RangeStart time.Time
	RangeEnd   time.Time
	StartedAt  time.Time
	FinishedAt time.Time
	Fetched    int
	Created    int
	Skipped    int
	Failed     int
	Aborted    bool
	DryRun     bool
	Error      string
}

func (r Run) Range() timeutil.Range {
	return timeutil.Range{Start: r.RangeStart, End: r.RangeEnd}
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS sync_runs (
	id TEXT PRIMARY KEY,
	range_start TEXT NOT NULL,
	range_end TEXT NOT NULL,
	started_at TEXT NOT NULL,
	finished_at TEXT NOT NULL,
	fetched INTEGER NOT NULL DEFAULT 0,
	created INTEGER NOT NULL DEFAULT 0,
	skipped INTEGER NOT NULL DEFAULT 0,
	failed INTEGER NOT NULL DEFAULT 0,
	aborted INTEGER NOT NULL DEFAULT 0,
	dry_run INTEGER NOT NULL DEFAULT 0,
	error TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS sync_outcomes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES sync_runs(id),
	entry_ids TEXT NOT NULL,
	record_date TEXT NOT NULL,
	natural_key TEXT NOT NULL,
	external_code TEXT NOT NULL,
	hours REAL NOT NULL,
	outcome TEXT NOT NULL,
	reason TEXT NOT NULL DEFAULT '',
	error TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sync_outcomes_run ON sync_outcomes(run_id);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordRun(summary syncer.Summary) error {
	if strings.TrimSpace(summary.RunID) == "" {
		return fmt.Errorf("run id is required")
	}

	errText := ""
	if err := summary.Err(); err != nil {
		errText = err.Error()
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	const insertRun = `
INSERT INTO sync_runs (
	id,
	range_start,
	range_end,
	started_at,
	finished_at,
	fetched,
	created,
	skipped,
	failed,
	aborted,
	dry_run,
	error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`

	if _, err := tx.Exec(
		insertRun,
		summary.RunID,
		summary.Range.Start.Format(timeutil.DayLayout),
		summary.Range.End.Format(timeutil.DayLayout),
		summary.StartedAt.UTC().Format(time.RFC3339),
		summary.FinishedAt.UTC().Format(time.RFC3339),
		summary.Fetched,
		summary.Created,
		summary.Skipped,
		summary.Failed,
		boolToInt(summary.Aborted),
		boolToInt(summary.DryRun),
		errText,
	); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("insert sync run %s: %w", summary.RunID, err)
	}

	const insertOutcome = `
INSERT INTO sync_outcomes (
	run_id,
	entry_ids,
	record_date,
	natural_key,
	external_code,
	hours,
	outcome,
	reason,
	error
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`

	stmt, err := tx.Prepare(insertOutcome)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare outcome statement: %w", err)
	}
	defer stmt.Close()

	for _, outcome := range summary.Outcomes {
		if _, err := stmt.Exec(
			summary.RunID,
			outcome.EntryIDs,
			formatDay(outcome.Date),
			outcome.Key,
			outcome.ExternalCode,
			outcome.Hours,
			string(outcome.Outcome),
			outcome.Reason,
			outcome.Error,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("insert outcome for %s: %w", outcome.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const selectRun = `
SELECT
	id,
	range_start,
	range_end,
	started_at,
	finished_at,
	fetched,
	created,
	skipped,
	failed,
	aborted,
	dry_run,
	error
FROM sync_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (Run, error) {
	var (
		run         Run
		rangeStart  string
		rangeEnd    string
		startedRaw  string
		finishedRaw string
		aborted     int
		dryRun      int
	)
	if err := row.Scan(
		&run.ID,
		&rangeStart,
		&rangeEnd,
		&startedRaw,
		&finishedRaw,
		&run.Fetched,
		&run.Created,
		&run.Skipped,
		&run.Failed,
		&aborted,
		&dryRun,
		&run.Error,
	); err != nil {
		return Run{}, err
	}
	run.Aborted = aborted != 0
	run.DryRun = dryRun != 0

	var err error
	if run.RangeStart, err = timeutil.ParseDay(rangeStart); err != nil {
		return Run{}, err
	}
	if run.RangeEnd, err = timeutil.ParseDay(rangeEnd); err != nil {
		return Run{}, err
	}
	if run.StartedAt, err = time.Parse(time.RFC3339, startedRaw); err != nil {
		return Run{}, fmt.Errorf("parse started_at %q: %w", startedRaw, err)
	}
	if run.FinishedAt, err = time.Parse(time.RFC3339, finishedRaw); err != nil {
		return Run{}, fmt.Errorf("parse finished_at %q: %w", finishedRaw, err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. limit <= 0 lists all runs.
func (s *SQLiteStore) ListRuns(limit int) ([]Run, error) {
	query := selectRun + ` ORDER BY started_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.Query(query+`;`, args...)
	if err != nil {
		return nil, fmt.Errorf("query sync runs: %w", err)
	}
	defer rows.Close()

	runs := make([]Run, 0, 32)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sync runs: %w", err)
	}
	return runs, nil
}

// GetRun returns one run. The second return value is false when no run has id.
func (s *SQLiteStore) GetRun(id string) (Run, bool, error) {
	run, err := scanRun(s.db.QueryRow(selectRun+` WHERE id = ?;`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, false, nil
		}
		return Run{}, false, fmt.Errorf("query sync run %s: %w", id, err)
	}
	return run, true, nil
}

// LatestRun returns the most recent run, or ErrRunNotFound on an empty ledger.
func (s *SQLiteStore) LatestRun() (Run, error) {
	runs, err := s.ListRuns(1)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, ErrRunNotFound
	}
	return runs[0], nil
}

func (s *SQLiteStore) ListOutcomes(runID string) ([]syncer.RecordOutcome, error) {
	const query = `
SELECT
	entry_ids,
	record_date,
	natural_key,
	external_code,
	hours,
	outcome,
	reason,
	error
FROM sync_outcomes
WHERE run_id = ?
ORDER BY id;
`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, fmt.Errorf("query outcomes for run %s: %w", runID, err)
	}
	defer rows.Close()

	outcomes := make([]syncer.RecordOutcome, 0, 64)
	for rows.Next() {
		var (
			outcome syncer.RecordOutcome
			dateRaw string
			state   string
		)
		if err := rows.Scan(
			&outcome.EntryIDs,
			&dateRaw,
			&outcome.Key,
			&outcome.ExternalCode,
			&outcome.Hours,
			&state,
			&outcome.Reason,
			&outcome.Error,
		); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		outcome.Outcome = syncer.Outcome(state)
		if dateRaw != "" {
			if outcome.Date, err = timeutil.ParseDay(dateRaw); err != nil {
				return nil, err
			}
		}
		outcomes = append(outcomes, outcome)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate outcomes: %w", err)
	}
	return outcomes, nil
}

// DeleteRunsBefore removes runs started before cutoff together with their
// outcomes and returns the number of deleted runs.
func (s *SQLiteStore) DeleteRunsBefore(cutoff time.Time) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}

	threshold := cutoff.UTC().Format(time.RFC3339)
	if _, err := tx.Exec(
		`DELETE FROM sync_outcomes WHERE run_id IN (SELECT id FROM sync_runs WHERE started_at < ?);`,
		threshold,
	); err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete outcomes: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM sync_runs WHERE started_at < ?;`, threshold)
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("delete sync runs: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit transaction: %w", err)
	}
	return rows, nil
}

// DeleteAllRuns empties the ledger.
func (s *SQLiteStore) DeleteAllRuns() (int64, error) {
	return s.DeleteRunsBefore(time.Date(9999, 12, 31, 0, 0, 0, 0, time.UTC))
}

func formatDay(value time.Time) string {
	if value.IsZero() {
		return ""
	}
	return value.Format(timeutil.DayLayout)
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}
