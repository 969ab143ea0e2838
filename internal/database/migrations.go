package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Migration represents a database migration
type Migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations are applied in version order; applied versions are tracked in
// the migrations table and never re-run.
var migrations = []Migration{
	{
		Version: 1,
		Name:    "create_jobs",
		SQL: `
			CREATE TABLE IF NOT EXISTS jobs (
				id TEXT PRIMARY KEY,
				user_id TEXT NOT NULL,
				original_filename TEXT NOT NULL,
				input_video_path TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				error_message TEXT NOT NULL DEFAULT '',
				output_video_path TEXT NOT NULL DEFAULT '',
				csv_path TEXT NOT NULL DEFAULT '',
				total_students INTEGER NOT NULL DEFAULT 0,
				total_frames INTEGER NOT NULL DEFAULT 0,
				total_detections INTEGER NOT NULL DEFAULT 0,
				avg_engagement_score REAL NOT NULL DEFAULT 0,
				engagement_distribution TEXT NOT NULL DEFAULT '',
				processing_seconds REAL NOT NULL DEFAULT 0,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
				completed_at TIMESTAMP
			);
			CREATE INDEX IF NOT EXISTS idx_jobs_user_created
				ON jobs(user_id, created_at DESC);
		`,
	},
	{
		Version: 2,
		Name:    "create_student_verdicts",
		SQL: `
			CREATE TABLE IF NOT EXISTS student_verdicts (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				job_id TEXT NOT NULL REFERENCES jobs(id) ON DELETE CASCADE,
				track_id INTEGER NOT NULL,
				final_engagement TEXT NOT NULL,
				engaged_votes INTEGER NOT NULL DEFAULT 0,
				moderate_votes INTEGER NOT NULL DEFAULT 0,
				disengaged_votes INTEGER NOT NULL DEFAULT 0,
				total_frames INTEGER NOT NULL DEFAULT 0,
				avg_confidence REAL NOT NULL DEFAULT 0,
				vote_percentage REAL NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_verdicts_job
				ON student_verdicts(job_id, track_id);
		`,
	},
}

// Migrate applies all pending migrations.
func Migrate(db *sql.DB) error {
	if err := initMigrationsTable(db); err != nil {
		return err
	}

	applied, err := appliedMigrations(db)
	if err != nil {
		return err
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		if _, err := db.Exec(m.SQL); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", m.Version, m.Name, err)
		}
		if _, err := db.Exec(
			"INSERT INTO migrations (version, name) VALUES (?, ?)",
			m.Version, m.Name,
		); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}

		log.Printf("Applied migration %d: %s", m.Version, m.Name)
	}

	return nil
}

func initMigrationsTable(db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			version INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)
	`
	if _, err := db.Exec(query); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

func appliedMigrations(db *sql.DB) (map[int]bool, error) {
	rows, err := db.Query("SELECT version FROM migrations ORDER BY version")
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}

	return applied, rows.Err()
}
