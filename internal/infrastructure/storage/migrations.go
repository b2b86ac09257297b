package storage

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migration represents a database schema migration
type Migration struct {
	Version int
	Name    string
	Up      func(*sql.Tx) error
}

// allMigrations defines all migrations in order
var allMigrations = []Migration{
	{
		Version: 1,
		Name:    "create_runs_table",
		Up:      migration001CreateRunsTable,
	},
	{
		Version: 2,
		Name:    "add_malformed_column",
		Up:      migration002AddMalformedColumn,
	},
}

// runMigrations executes all pending migrations
func (s *Storage) runMigrations() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	for _, migration := range allMigrations {
		if applied[migration.Version] {
			continue
		}

		s.logger.Info("running migration",
			slog.Int("version", migration.Version),
			slog.String("name", migration.Name),
		)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin transaction for migration %d: %w", migration.Version, err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Name, err)
		}

		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`,
			migration.Version, migration.Name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}
	}

	return nil
}

// ensureMigrationsTable creates the schema_migrations table
func (s *Storage) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

// getAppliedMigrations returns a set of applied migration versions
func (s *Storage) getAppliedMigrations() (map[int]bool, error) {
	applied := make(map[int]bool)

	rows, err := s.db.Query(`SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}

	return applied, rows.Err()
}

func migration001CreateRunsTable(tx *sql.Tx) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS reconciliation_runs (
			id TEXT PRIMARY KEY,
			pos_type TEXT NOT NULL,
			source_type TEXT NOT NULL,
			pos_file TEXT DEFAULT '',
			source_files_json TEXT DEFAULT '[]',
			started_at TIMESTAMP NOT NULL,
			completed_at TIMESTAMP,
			status TEXT NOT NULL,
			error_message TEXT DEFAULT '',
			total_pos INTEGER DEFAULT 0,
			total_source INTEGER DEFAULT 0,
			exact_count INTEGER DEFAULT 0,
			probable_count INTEGER DEFAULT 0,
			grouped_count INTEGER DEFAULT 0,
			midnight_count INTEGER DEFAULT 0,
			unmatched_pos INTEGER DEFAULT 0,
			unmatched_source INTEGER DEFAULT 0
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_started
		 ON reconciliation_runs(started_at DESC)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_status
		 ON reconciliation_runs(status)`,
	}

	for _, query := range queries {
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}
	return nil
}

// migration002AddMalformedColumn tracks rows rejected during normalization.
func migration002AddMalformedColumn(tx *sql.Tx) error {
	if _, err := tx.Exec(`ALTER TABLE reconciliation_runs ADD COLUMN malformed_count INTEGER DEFAULT 0`); err != nil {
		return fmt.Errorf("failed to add malformed_count column: %w", err)
	}
	return nil
}
