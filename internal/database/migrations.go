package database

import "database/sql"

// Migration is one schema step, identified by the user_version it produces.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

func execAll(stmts ...string) func(tx *sql.Tx) error {
	return func(tx *sql.Tx) error {
		for _, s := range stmts {
			if _, err := tx.Exec(s); err != nil {
				return err
			}
		}
		return nil
	}
}

// migrations must stay ordered by Version. Only append.
var migrations = []Migration{
	{
		Version:     1,
		Description: "key-value scopes",
		Up: execAll(`CREATE TABLE IF NOT EXISTS kv_entries (
    scope      TEXT NOT NULL,
    key        TEXT NOT NULL,
    value      TEXT NOT NULL,
    updated_at TEXT DEFAULT (datetime('now')),
    PRIMARY KEY (scope, key)
)`),
	},
	{
		Version:     2,
		Description: "index scopes by last write",
		Up:          execAll(`CREATE INDEX IF NOT EXISTS idx_kv_entries_updated ON kv_entries(scope, updated_at)`),
	},
}

func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
