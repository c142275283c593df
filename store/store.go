// Package store persists reconciliation runs to a SQLite journal so that
// interrupted batches can resume and past results can be re-exported
// without hitting the network again.
package store

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/pxharvest/pxharvest/errors"
	"github.com/pxharvest/pxharvest/px"
)

// Open opens the SQLite journal at the specified path with optimized settings.
// If logger is provided, logs database operations; otherwise operates silently.
func Open(path string, logger *zap.SugaredLogger) (*sql.DB, error) {
	if logger != nil {
		logger.Debugw("Opening journal", "path", path)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open journal")
	}

	// Enable WAL mode for concurrent reads during writes
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable WAL mode")
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to enable foreign keys")
	}

	// Set busy timeout to 5 seconds
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to set busy timeout")
	}

	return db, nil
}

// Run is one batch execution recorded in the journal.
type Run struct {
	ID         string
	StartedAt  time.Time
	FinishedAt *time.Time
	Total      int
	Succeeded  int
	Failed     int
	Notes      string
}

// NewRun creates an in-memory Run with a fresh identifier; CreateRun
// persists it.
func NewRun(notes string) *Run {
	return &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		Notes:     notes,
	}
}

// Store handles persistence of runs and their results.
type Store struct {
	db *sql.DB
}

// NewStore creates a journal store on an open database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CreateRun inserts a new run into the journal.
func (s *Store) CreateRun(run *Run) error {
	query := `
		INSERT INTO runs (id, started_at, total, succeeded, failed, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	notes := sql.NullString{String: run.Notes, Valid: run.Notes != ""}
	_, err := s.db.Exec(query, run.ID, run.StartedAt, run.Total, run.Succeeded, run.Failed, notes)
	if err != nil {
		return errors.Wrap(err, "failed to create run")
	}
	return nil
}

// FinishRun stamps a run finished and records its final tallies.
func (s *Store) FinishRun(id string, total, succeeded, failed int) error {
	query := `
		UPDATE runs
		SET finished_at = ?, total = ?, succeeded = ?, failed = ?
		WHERE id = ?
	`
	result, err := s.db.Exec(query, time.Now().UTC(), total, succeeded, failed, id)
	if err != nil {
		return errors.Wrap(err, "failed to finish run")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "failed to check finished run")
	}
	if affected == 0 {
		return errors.Newf("run not found: %s", id)
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *Store) GetRun(id string) (*Run, error) {
	query := `SELECT id, started_at, finished_at, total, succeeded, failed, notes FROM runs WHERE id = ?`

	var run Run
	var finishedAt sql.NullTime
	var notes sql.NullString
	err := s.db.QueryRow(query, id).Scan(
		&run.ID, &run.StartedAt, &finishedAt, &run.Total, &run.Succeeded, &run.Failed, &notes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrapf(errors.ErrNotFound, "run %s", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get run")
	}
	if finishedAt.Valid {
		run.FinishedAt = &finishedAt.Time
	}
	run.Notes = notes.String
	return &run, nil
}

// LatestRun returns the most recently started run, or ErrNotFound when the
// journal is empty.
func (s *Store) LatestRun() (*Run, error) {
	query := `SELECT id FROM runs ORDER BY started_at DESC, id DESC LIMIT 1`

	var id string
	err := s.db.QueryRow(query).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, errors.Wrap(errors.ErrNotFound, "journal has no runs")
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to find latest run")
	}
	return s.GetRun(id)
}

// ListRuns returns runs newest-first.
func (s *Store) ListRuns(limit int) ([]*Run, error) {
	query := `
		SELECT id, started_at, finished_at, total, succeeded, failed, notes
		FROM runs
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`
	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list runs")
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		var run Run
		var finishedAt sql.NullTime
		var notes sql.NullString
		if err := rows.Scan(&run.ID, &run.StartedAt, &finishedAt, &run.Total, &run.Succeeded, &run.Failed, &notes); err != nil {
			return nil, errors.Wrap(err, "failed to scan run")
		}
		if finishedAt.Valid {
			run.FinishedAt = &finishedAt.Time
		}
		run.Notes = notes.String
		runs = append(runs, &run)
	}
	return runs, rows.Err()
}

// AppendResult records one finished accession under a run. Re-appending the
// same accession overwrites the earlier row, which is what a resumed run
// retrying a failed accession wants.
func (s *Store) AppendResult(runID string, res px.Result) error {
	metadataJSON, err := json.Marshal(res.Metadata)
	if err != nil {
		return errors.Wrap(err, "failed to marshal metadata")
	}

	query := `
		INSERT OR REPLACE INTO results (
			run_id, accession, repository, declared_repository,
			raw_file_count, total_size_bytes, source,
			success, error, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	declared := sql.NullString{String: res.DeclaredRepository, Valid: res.DeclaredRepository != ""}
	errText := sql.NullString{String: res.Err, Valid: res.Err != ""}

	_, err = s.db.Exec(query,
		runID,
		string(res.Accession),
		string(res.Repository),
		declared,
		res.RawFileCount,
		res.TotalSizeBytes,
		string(res.Source),
		res.Success,
		errText,
		string(metadataJSON),
		time.Now().UTC(),
	)
	if err != nil {
		return errors.Wrap(err, "failed to append result")
	}
	return nil
}

// Results returns every result recorded under a run, in insertion order.
func (s *Store) Results(runID string) ([]px.Result, error) {
	query := `
		SELECT accession, repository, declared_repository,
		       raw_file_count, total_size_bytes, source,
		       success, error, metadata
		FROM results
		WHERE run_id = ?
		ORDER BY created_at, accession
	`
	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list results")
	}
	defer rows.Close()

	var results []px.Result
	for rows.Next() {
		var res px.Result
		var declared, errText, metadataJSON sql.NullString
		if err := rows.Scan(
			&res.Accession, &res.Repository, &declared,
			&res.RawFileCount, &res.TotalSizeBytes, &res.Source,
			&res.Success, &errText, &metadataJSON,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan result")
		}
		res.DeclaredRepository = declared.String
		res.Err = errText.String
		if metadataJSON.Valid && metadataJSON.String != "" {
			if err := json.Unmarshal([]byte(metadataJSON.String), &res.Metadata); err != nil {
				return nil, errors.Wrapf(err, "failed to unmarshal metadata for %s", res.Accession)
			}
		}
		results = append(results, res)
	}
	return results, rows.Err()
}

// CompletedAccessions returns the accessions a run has already handled
// successfully. Failed accessions are left out so a resumed run retries
// them.
func (s *Store) CompletedAccessions(runID string) (map[px.Accession]bool, error) {
	query := `SELECT accession FROM results WHERE run_id = ? AND success = 1`

	rows, err := s.db.Query(query, runID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list completed accessions")
	}
	defer rows.Close()

	completed := make(map[px.Accession]bool)
	for rows.Next() {
		var acc string
		if err := rows.Scan(&acc); err != nil {
			return nil, errors.Wrap(err, "failed to scan accession")
		}
		completed[px.Accession(acc)] = true
	}
	return completed, rows.Err()
}
