package journal

import (
	"database/sql"
	"fmt"
)

// Migration is one versioned schema change.
type Migration struct {
	Version     int
	Description string
	Up          string
}

func migrations() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "operations table",
			Up: `CREATE TABLE IF NOT EXISTS operations (
				id          TEXT PRIMARY KEY,
				operation   TEXT NOT NULL,
				node_name   TEXT NOT NULL DEFAULT '',
				node_id     TEXT NOT NULL DEFAULT '',
				public_ip   TEXT NOT NULL DEFAULT '',
				detail      TEXT NOT NULL DEFAULT '',
				outcome     TEXT NOT NULL,
				error       TEXT NOT NULL DEFAULT '',
				started_at  DATETIME NOT NULL,
				finished_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_operations_finished_at ON operations(finished_at);`,
		},
	}
}

func ensureMigrationsTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version     INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`)
	return err
}

func currentVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, nil
}

func migrate(db *sql.DB) error {
	if err := ensureMigrationsTable(db); err != nil {
		return fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	version, err := currentVersion(db)
	if err != nil {
		return err
	}

	for _, m := range migrations() {
		if m.Version <= version {
			continue
		}
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", m.Version, err)
		}
		if _, err := tx.Exec(m.Up); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", m.Version, m.Description, err)
		}
		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			m.Version, m.Description,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}
