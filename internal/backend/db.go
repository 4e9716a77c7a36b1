package backend

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the current schema version of the feed database.
const SchemaVersion = 1

// Open opens (or creates) the SQLite database at dbPath and applies
// migrations.
func Open(dbPath string) (*sql.DB, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("open: empty db path")
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("open: create db dir: %w", err)
	}

	dsn := "file:" + dbPath + "?mode=rwc&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open: sql open: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}
	if err := Migrate(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: migrate: %w", err)
	}
	return db, nil
}

// Migrate ensures the schema exists and is at SchemaVersion.
func Migrate(db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (version INTEGER PRIMARY KEY);`); err != nil {
		return fmt.Errorf("migrate: create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations;`).Scan(&current); err != nil {
		return fmt.Errorf("migrate: read current version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migrate: begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	steps := []struct {
		name string
		sql  string
	}{
		{"create creators", `
			CREATE TABLE IF NOT EXISTS creators (
				uid INTEGER PRIMARY KEY,
				author_name TEXT,
				group_name TEXT,
				enabled INTEGER NOT NULL DEFAULT 1,
				priority INTEGER NOT NULL DEFAULT 0,
				weight INTEGER NOT NULL DEFAULT 1
			);`},
		{"create videos", `
			CREATE TABLE IF NOT EXISTS videos (
				bvid TEXT PRIMARY KEY,
				uid INTEGER NOT NULL,
				author_name TEXT,
				title TEXT NOT NULL,
				pub_ts INTEGER NOT NULL,
				duration_sec INTEGER,
				url TEXT NOT NULL,
				cover_url TEXT,
				tname TEXT,
				view INTEGER
			);`},
		{"create video_tags", `
			CREATE TABLE IF NOT EXISTS video_tags (
				bvid TEXT NOT NULL,
				tag TEXT NOT NULL,
				PRIMARY KEY(bvid, tag)
			);`},
		{"create video_state", `
			CREATE TABLE IF NOT EXISTS video_state (
				bvid TEXT PRIMARY KEY,
				state TEXT NOT NULL,
				updated_ts INTEGER NOT NULL
			);`},
		{"create idx_creators_enabled", `CREATE INDEX IF NOT EXISTS idx_creators_enabled ON creators(enabled);`},
		{"create idx_videos_uid_pub", `CREATE INDEX IF NOT EXISTS idx_videos_uid_pub ON videos(uid, pub_ts DESC);`},
		{"create idx_videos_pub", `CREATE INDEX IF NOT EXISTS idx_videos_pub ON videos(pub_ts DESC);`},
		{"create idx_video_tags_tag", `CREATE INDEX IF NOT EXISTS idx_video_tags_tag ON video_tags(tag);`},
		{"create idx_video_state_state", `CREATE INDEX IF NOT EXISTS idx_video_state_state ON video_state(state);`},
	}
	for _, step := range steps {
		if _, err := tx.Exec(step.sql); err != nil {
			return fmt.Errorf("migrate: %s: %w", step.name, err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO schema_migrations(version) VALUES (?);`, SchemaVersion); err != nil {
		return fmt.Errorf("migrate: record version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit: %w", err)
	}
	return nil
}
