package store

import (
	"database/sql"
	"fmt"
	"log"
	"time"
)

type migration struct {
	Version     int
	Description string
	SQL         string
}

var migrations = []migration{
	{
		Version:     1,
		Description: "Farms and irrigation logs",
		SQL: `
CREATE TABLE IF NOT EXISTS farms (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    location TEXT NOT NULL,
    crop_type TEXT NOT NULL,
    soil_type TEXT NOT NULL DEFAULT 'loamy',
    area REAL NOT NULL,
    current_efficiency REAL NOT NULL,
    traditional_efficiency REAL NOT NULL,
    water_cost_per_liter REAL NOT NULL,
    monthly_water_usage REAL NOT NULL DEFAULT 0,
    total_water_used REAL NOT NULL DEFAULT 0,
    last_irrigation DATETIME,
    created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS irrigation_logs (
    id TEXT PRIMARY KEY,
    farm_id TEXT NOT NULL,
    crop_type TEXT NOT NULL,
    area REAL NOT NULL,
    amount REAL NOT NULL,
    duration REAL,
    zones TEXT NOT NULL DEFAULT '[]',
    weather_conditions TEXT NOT NULL DEFAULT '{}',
    notes TEXT NOT NULL DEFAULT '',
    irrigated_at DATETIME NOT NULL,
    created_at DATETIME NOT NULL
);
`,
	},
	{
		Version:     2,
		Description: "Index irrigation logs by farm and time",
		SQL: `
CREATE INDEX IF NOT EXISTS idx_irrigation_logs_farm_time ON irrigation_logs(farm_id, irrigated_at);
`,
	},
}

// Migrate applies pending schema migrations, each in its own transaction.
func (s *FarmStore) Migrate() error {
	if err := s.ensureMigrationsTable(); err != nil {
		return fmt.Errorf("ensure migrations table: %w", err)
	}

	applied, err := s.getAppliedMigrations()
	if err != nil {
		return fmt.Errorf("get applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.Version] {
			continue
		}

		log.Printf("INFO: migrations: applying %d - %s", m.Version, m.Description)

		tx, err := s.db.Begin()
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(m.SQL); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute migration %d: %w", m.Version, err)
		}

		if _, err := tx.Exec(
			"INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)",
			m.Version, m.Description, time.Now().UTC(),
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}

	return nil
}

func (s *FarmStore) ensureMigrationsTable() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT,
			applied_at DATETIME
		)
	`)
	return err
}

func (s *FarmStore) getAppliedMigrations() (map[int]bool, error) {
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	applied := make(map[int]bool)
	for rows.Next() {
		var version int
		if err := rows.Scan(&version); err != nil {
			return nil, err
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// MigrationVersion returns the highest applied schema version.
func (s *FarmStore) MigrationVersion() (int, error) {
	var version sql.NullInt64
	if err := s.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&version); err != nil {
		return 0, err
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}
