package database

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

// DB is the global database instance
var DB *sql.DB

// Init initializes the database connection and creates schema
func Init(dbPath string) error {
	var err error
	// foreign_keys must be on for target deletes to cascade into
	// snapshots and events.
	DB, err = sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return err
	}

	// Single writer connection; sqlite serializes writes anyway and a
	// pool of one avoids SQLITE_BUSY between the scheduler loop and
	// ad-hoc polls. This is also what keeps concurrent upserts to the
	// same (target, hour_bucket) last-writer-wins instead of erroring.
	DB.SetMaxOpenConns(1)

	return EnsureSchema()
}

// EnsureSchema creates all necessary database tables
func EnsureSchema() error {
	_, err := DB.Exec(`
CREATE TABLE IF NOT EXISTS targets (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT NOT NULL,
  base_url TEXT NOT NULL,
  stats_path TEXT NOT NULL DEFAULT '/api/stats',
  enabled INTEGER NOT NULL DEFAULT 1,
  public_click INTEGER NOT NULL DEFAULT 1,
  created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  target_id INTEGER NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
  polled_at TEXT NOT NULL,
  hour_bucket TEXT NOT NULL,
  ok INTEGER NOT NULL DEFAULT 0,
  http_status INTEGER,
  latency_ms INTEGER,
  cpu_percent REAL,
  mem_percent REAL,
  disk_percent REAL,
  swap_percent REAL,
  raw_json TEXT,
  UNIQUE(target_id, hour_bucket)
);
CREATE INDEX IF NOT EXISTS idx_snapshots_target_hour ON snapshots(target_id, hour_bucket);

CREATE TABLE IF NOT EXISTS events (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  target_id INTEGER NOT NULL REFERENCES targets(id) ON DELETE CASCADE,
  state TEXT NOT NULL,
  started_at TEXT NOT NULL,
  ended_at TEXT,
  reason TEXT,
  http_status INTEGER
);
CREATE INDEX IF NOT EXISTS idx_events_target_started ON events(target_id, started_at);
`)
	return err
}
