// Package store keeps run reports in SQLite
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/umputun/jenkins-e2e/app/scenario"
)

// ErrNotFound returned for unknown run id
var ErrNotFound = errors.New("run not found")

// Store implements reports persistence using SQLite
type Store struct {
	db *sqlx.DB
}

type runRow struct {
	ID         string `db:"id"`
	BaseURL    string `db:"base_url"`
	Seed       int64  `db:"seed"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
	Passed     int    `db:"passed"`
	Failed     int    `db:"failed"`
}

type resultRow struct {
	RunID      string `db:"run_id"`
	Pos        int    `db:"pos"`
	ScenarioID string `db:"scenario_id"`
	Name       string `db:"name"`
	Project    string `db:"project"`
	Status     string `db:"status"`
	Attempts   int    `db:"attempts"`
	Error      string `db:"error"`
	Screenshot string `db:"screenshot"`
	StartedAt  int64  `db:"started_at"`
	FinishedAt int64  `db:"finished_at"`
}

// New opens (creating if needed) the database at dbPath and makes the schema
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to set WAL mode: %w (also failed to close db: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initialize() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			base_url TEXT NOT NULL,
			seed INTEGER,
			started_at INTEGER,
			finished_at INTEGER,
			passed INTEGER DEFAULT 0,
			failed INTEGER DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS results (
			run_id TEXT NOT NULL,
			pos INTEGER NOT NULL,
			scenario_id TEXT NOT NULL,
			name TEXT,
			project TEXT,
			status TEXT NOT NULL,
			attempts INTEGER DEFAULT 0,
			error TEXT,
			screenshot TEXT,
			started_at INTEGER,
			finished_at INTEGER,
			PRIMARY KEY (run_id, pos),
			FOREIGN KEY (run_id) REFERENCES runs(id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_results_scenario_id ON results(scenario_id)`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// SaveReport persists the report with all results in a transaction, replacing a report with the same id
func (s *Store) SaveReport(r scenario.Report) error {
	tx, err := s.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	run := runRow{
		ID:         r.ID,
		BaseURL:    r.BaseURL,
		Seed:       int64(r.Seed), //nolint:gosec // stored bit-exact, converted back on load
		StartedAt:  toMillis(r.StartedAt),
		FinishedAt: toMillis(r.FinishedAt),
		Passed:     r.Passed(),
		Failed:     r.Failed(),
	}
	if _, err := tx.NamedExec(`INSERT OR REPLACE INTO runs (id, base_url, seed, started_at, finished_at, passed, failed)
		VALUES (:id, :base_url, :seed, :started_at, :finished_at, :passed, :failed)`, run); err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.ID, err)
	}

	if _, err := tx.Exec(`DELETE FROM results WHERE run_id = ?`, r.ID); err != nil {
		return fmt.Errorf("failed to clear results of %s: %w", r.ID, err)
	}
	for i, res := range r.Results {
		row := resultRow{
			RunID:      r.ID,
			Pos:        i,
			ScenarioID: res.ID,
			Name:       res.Name,
			Project:    res.Project,
			Status:     string(res.Status),
			Attempts:   res.Attempts,
			Error:      res.Error,
			Screenshot: res.Screenshot,
			StartedAt:  toMillis(res.StartedAt),
			FinishedAt: toMillis(res.FinishedAt),
		}
		if _, err := tx.NamedExec(`INSERT INTO results
			(run_id, pos, scenario_id, name, project, status, attempts, error, screenshot, started_at, finished_at)
			VALUES (:run_id, :pos, :scenario_id, :name, :project, :status, :attempts, :error, :screenshot, :started_at, :finished_at)`,
			row); err != nil {
			return fmt.Errorf("failed to save result %s of %s: %w", res.ID, r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	log.Printf("[DEBUG] report %s saved, %d results", r.ID, len(r.Results))
	return nil
}

// Runs returns up to limit most recent reports, newest first
func (s *Store) Runs(limit int) ([]scenario.Report, error) {
	if limit <= 0 {
		limit = 100
	}
	var runs []runRow
	if err := s.db.Select(&runs, `SELECT id, base_url, seed, started_at, finished_at, passed, failed
		FROM runs ORDER BY started_at DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	if len(runs) == 0 {
		return []scenario.Report{}, nil
	}

	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.ID)
	}
	query, args, err := sqlx.In(`SELECT run_id, pos, scenario_id, name, project, status, attempts, error, screenshot,
		started_at, finished_at FROM results WHERE run_id IN (?) ORDER BY run_id, pos`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to make results query: %w", err)
	}
	var results []resultRow
	if err := s.db.Select(&results, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}

	byRun := map[string][]scenario.Result{}
	for _, rr := range results {
		byRun[rr.RunID] = append(byRun[rr.RunID], rr.result())
	}
	res := make([]scenario.Report, 0, len(runs))
	for _, r := range runs {
		res = append(res, r.report(byRun[r.ID]))
	}
	return res, nil
}

// Run returns a report by id
func (s *Store) Run(id string) (scenario.Report, error) {
	var run runRow
	err := s.db.Get(&run, `SELECT id, base_url, seed, started_at, finished_at, passed, failed FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return scenario.Report{}, ErrNotFound
	}
	if err != nil {
		return scenario.Report{}, fmt.Errorf("failed to query run %s: %w", id, err)
	}

	var rows []resultRow
	if err := s.db.Select(&rows, `SELECT run_id, pos, scenario_id, name, project, status, attempts, error, screenshot,
		started_at, finished_at FROM results WHERE run_id = ? ORDER BY pos`, id); err != nil {
		return scenario.Report{}, fmt.Errorf("failed to query results of %s: %w", id, err)
	}
	results := make([]scenario.Result, 0, len(rows))
	for _, rr := range rows {
		results = append(results, rr.result())
	}
	return run.report(results), nil
}

// Cleanup keeps the newest keep runs and removes the rest, returns the number of removed runs
func (s *Store) Cleanup(keep int) (int64, error) {
	tx, err := s.db.Beginx()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	const stale = `SELECT id FROM runs ORDER BY started_at DESC LIMIT -1 OFFSET ?`
	if _, err := tx.Exec(`DELETE FROM results WHERE run_id IN (`+stale+`)`, keep); err != nil {
		return 0, fmt.Errorf("failed to delete stale results: %w", err)
	}
	res, err := tx.Exec(`DELETE FROM runs WHERE id IN (`+stale+`)`, keep)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale runs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		log.Printf("[DEBUG] removed %d stale runs", n)
	}
	return n, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (r runRow) report(results []scenario.Result) scenario.Report {
	if results == nil {
		results = []scenario.Result{}
	}
	return scenario.Report{
		ID:         r.ID,
		BaseURL:    r.BaseURL,
		Seed:       uint64(r.Seed), //nolint:gosec // reverse of the conversion in SaveReport
		StartedAt:  fromMillis(r.StartedAt),
		FinishedAt: fromMillis(r.FinishedAt),
		Results:    results,
	}
}

func (rr resultRow) result() scenario.Result {
	return scenario.Result{
		ID:         rr.ScenarioID,
		Name:       rr.Name,
		Project:    rr.Project,
		Status:     scenario.Status(rr.Status),
		Attempts:   rr.Attempts,
		Error:      rr.Error,
		Screenshot: rr.Screenshot,
		StartedAt:  fromMillis(rr.StartedAt),
		FinishedAt: fromMillis(rr.FinishedAt),
	}
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
