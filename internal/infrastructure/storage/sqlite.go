package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

const defaultListLimit = 50

// Storage provides SQLite database access for run history.
// It implements the Repository interface.
type Storage struct {
	db     *sql.DB
	logger *slog.Logger
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage opens the SQLite database at dbPath and applies pending migrations
func NewStorage(dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db, logger: logger}
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun inserts or replaces a run summary
func (s *Storage) SaveRun(run *RunRecord) error {
	if run.ID == "" {
		return fmt.Errorf("run id is required")
	}
	filesJSON, err := json.Marshal(run.SourceFiles)
	if err != nil {
		return fmt.Errorf("failed to encode source files: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO reconciliation_runs
	(id, pos_type, source_type, pos_file, source_files_json, started_at, completed_at,
	 status, error_message, total_pos, total_source, exact_count, probable_count,
	 grouped_count, midnight_count, unmatched_pos, unmatched_source, malformed_count)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.Exec(query,
		run.ID,
		run.POSType,
		run.SourceType,
		run.POSFile,
		string(filesJSON),
		run.StartedAt,
		run.CompletedAt,
		run.Status,
		run.Error,
		run.TotalPOS,
		run.TotalSource,
		run.Exact,
		run.Probable,
		run.Grouped,
		run.Midnight,
		run.UnmatchedPOS,
		run.UnmatchedSource,
		run.Malformed,
	)
	if err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

const runColumns = `id, pos_type, source_type, pos_file, source_files_json, started_at,
	completed_at, status, error_message, total_pos, total_source, exact_count,
	probable_count, grouped_count, midnight_count, unmatched_pos, unmatched_source,
	malformed_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*RunRecord, error) {
	run := &RunRecord{}
	var completedAt sql.NullTime
	err := row.Scan(
		&run.ID,
		&run.POSType,
		&run.SourceType,
		&run.POSFile,
		&run.SourceFilesJSON,
		&run.StartedAt,
		&completedAt,
		&run.Status,
		&run.Error,
		&run.TotalPOS,
		&run.TotalSource,
		&run.Exact,
		&run.Probable,
		&run.Grouped,
		&run.Midnight,
		&run.UnmatchedPOS,
		&run.UnmatchedSource,
		&run.Malformed,
	)
	if err != nil {
		return nil, err
	}
	if completedAt.Valid {
		run.CompletedAt = completedAt.Time
	}
	if run.SourceFilesJSON != "" {
		_ = json.Unmarshal([]byte(run.SourceFilesJSON), &run.SourceFiles)
	}
	return run, nil
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(id string) (*RunRecord, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM reconciliation_runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns recent runs, newest first
func (s *Storage) ListRuns(filters RunFilters) ([]RunRecord, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	query := `SELECT ` + runColumns + ` FROM reconciliation_runs`
	var args []any
	if filters.Status != "" {
		query += ` WHERE status = ?`
		args = append(args, filters.Status)
	}
	query += ` ORDER BY started_at DESC, id LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	runs := make([]RunRecord, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}
