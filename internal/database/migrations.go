package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS insights (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    category TEXT NOT NULL,
    chart_type TEXT,
    chart_data TEXT,
    statistics TEXT NOT NULL DEFAULT '{}',
    received_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_insights_category ON insights(category);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "request and run identifiers",
		Up: func(tx *sql.Tx) error {
			has, err := hasColumn(tx, "insights", "run_id")
			if err != nil || has {
				return err
			}
			_, err = tx.Exec(`
ALTER TABLE insights ADD COLUMN request_id TEXT;
ALTER TABLE insights ADD COLUMN run_id TEXT;
CREATE INDEX IF NOT EXISTS idx_insights_run ON insights(run_id);
`)
			return err
		},
	},
}

// hasColumn reports whether table already has column, which keeps
// ALTER TABLE migrations safe to re-run.
func hasColumn(tx *sql.Tx, table, column string) (bool, error) {
	var count int
	err := tx.QueryRow(
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?", table, column,
	).Scan(&count)
	return count > 0, err
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
