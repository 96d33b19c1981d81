package storage

import (
	"database/sql"
	"fmt"
)

const currentSchemaVersion = 1

// initializeSchema creates all tables for a new database
func (db *DB) initializeSchema() error {
	return db.WithTx(func(tx *sql.Tx) error {
		if err := createSchemaVersionTable(tx); err != nil {
			return err
		}

		if err := createIdentityTables(tx); err != nil {
			return err
		}
		if err := createRecordTables(tx); err != nil {
			return err
		}
		if err := createSummaryTable(tx); err != nil {
			return err
		}
		if err := createJobsTable(tx); err != nil {
			return err
		}

		if err := setSchemaVersion(tx, currentSchemaVersion); err != nil {
			return err
		}

		db.logger.Info("Database schema initialized", map[string]interface{}{
			"version": currentSchemaVersion,
		})

		return nil
	})
}

// runMigrations runs any pending schema migrations
func (db *DB) runMigrations() error {
	version, err := db.getSchemaVersion()
	if err != nil {
		return err
	}

	if version == currentSchemaVersion {
		return nil
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	db.logger.Info("Running database migrations", map[string]interface{}{
		"from_version": version,
		"to_version":   currentSchemaVersion,
	})

	// Migrations are applied sequentially as the schema evolves.
	return nil
}

func createSchemaVersionTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER NOT NULL
		)
	`)
	return err
}

func setSchemaVersion(tx *sql.Tx, version int) error {
	if _, err := tx.Exec("DELETE FROM schema_version"); err != nil {
		return err
	}
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}

func (db *DB) getSchemaVersion() (int, error) {
	var version int
	err := db.QueryRow("SELECT version FROM schema_version").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

// createIdentityTables creates the two independently populated MP stores:
// the canonical registry and the denormalized per-term summary store. Each
// mints its own surrogate IDs; cross-store identity runs on identity_key.
func createIdentityTables(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS mps (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			house TEXT NOT NULL,
			state TEXT NOT NULL,
			constituency TEXT NOT NULL,
			identity_key TEXT NOT NULL,
			state_key TEXT NOT NULL,
			constituency_key TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mps_identity ON mps(identity_key)`,
		`CREATE INDEX IF NOT EXISTS idx_mps_scope ON mps(house, state_key)`,

		`CREATE TABLE IF NOT EXISTS mp_term_summaries (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			house TEXT NOT NULL,
			ls_term INTEGER,
			state TEXT NOT NULL,
			constituency TEXT NOT NULL,
			identity_key TEXT NOT NULL,
			state_key TEXT NOT NULL,
			constituency_key TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_mp_term_identity ON mp_term_summaries(identity_key)`,
		`CREATE INDEX IF NOT EXISTS idx_mp_term_scope ON mp_term_summaries(house, ls_term, state_key)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// createRecordTables creates the allocation, expenditure, and work record
// sets, indexed on (house, ls_term, state) plus the normalized identity key.
func createRecordTables(tx *sql.Tx) error {
	workColumns := `
			id TEXT PRIMARY KEY,
			mp_name TEXT NOT NULL,
			house TEXT NOT NULL,
			ls_term INTEGER,
			state TEXT NOT NULL,
			constituency TEXT NOT NULL,
			identity_key TEXT NOT NULL,
			state_key TEXT NOT NULL,
			constituency_key TEXT NOT NULL,
			work_id TEXT NOT NULL,
			amount TEXT NOT NULL,
			date TEXT NOT NULL,
			category TEXT NOT NULL DEFAULT '',
			has_image INTEGER NOT NULL DEFAULT 0,
			rating REAL NOT NULL DEFAULT 0`

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS allocations (
			id TEXT PRIMARY KEY,
			mp_name TEXT NOT NULL,
			house TEXT NOT NULL,
			ls_term INTEGER,
			state TEXT NOT NULL,
			constituency TEXT NOT NULL,
			identity_key TEXT NOT NULL,
			state_key TEXT NOT NULL,
			constituency_key TEXT NOT NULL,
			allocated_amount TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_allocations_scope ON allocations(house, ls_term, state_key)`,
		`CREATE INDEX IF NOT EXISTS idx_allocations_identity ON allocations(identity_key)`,

		`CREATE TABLE IF NOT EXISTS expenditures (
			id TEXT PRIMARY KEY,
			mp_name TEXT NOT NULL,
			house TEXT NOT NULL,
			ls_term INTEGER,
			state TEXT NOT NULL,
			constituency TEXT NOT NULL,
			identity_key TEXT NOT NULL,
			state_key TEXT NOT NULL,
			constituency_key TEXT NOT NULL,
			work_id TEXT NOT NULL DEFAULT '',
			amount TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			date TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_expenditures_scope ON expenditures(house, ls_term, state_key)`,
		`CREATE INDEX IF NOT EXISTS idx_expenditures_identity ON expenditures(identity_key)`,

		`CREATE TABLE IF NOT EXISTS works_completed (` + workColumns + `)`,
		`CREATE INDEX IF NOT EXISTS idx_works_completed_scope ON works_completed(house, ls_term, state_key)`,
		`CREATE INDEX IF NOT EXISTS idx_works_completed_identity ON works_completed(identity_key)`,

		`CREATE TABLE IF NOT EXISTS works_recommended (` + workColumns + `)`,
		`CREATE INDEX IF NOT EXISTS idx_works_recommended_scope ON works_recommended(house, ls_term, state_key)`,
		`CREATE INDEX IF NOT EXISTS idx_works_recommended_identity ON works_recommended(identity_key)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// createSummaryTable creates the denormalized summary store rebuilt
// wholesale by the batch job.
func createSummaryTable(tx *sql.Tx) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS summaries (
			scope TEXT NOT NULL,
			identity TEXT NOT NULL,
			payload TEXT NOT NULL,
			computed_at TEXT NOT NULL,
			PRIMARY KEY (scope, identity)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_summaries_scope ON summaries(scope)`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func createJobsTable(tx *sql.Tx) error {
	_, err := tx.Exec(`
		CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			type TEXT NOT NULL,
			scope TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL,
			progress INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			started_at TEXT,
			completed_at TEXT,
			error TEXT NOT NULL DEFAULT '',
			result TEXT NOT NULL DEFAULT ''
		)
	`)
	return err
}
