// Package ledger persists the set of content hashes whose videos already
// have an MP3 in the music library, so a video is never fetched twice.
package ledger

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/franz/ta2music/internal/util"
	_ "modernc.org/sqlite" // SQLite driver
)

const currentSchemaVersion = 1

// Record is one processed-video entry in the ledger
type Record struct {
	ContentHash string
	ProcessedAt time.Time
}

// Ledger is the durable dedup store backed by a single SQLite file
type Ledger struct {
	db     *sql.DB
	logger *util.Logger
}

// Open opens or creates the ledger database at the given path and applies
// schema migrations. Safe to call on every startup.
func Open(path string, logger *util.Logger) (*Ledger, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_timeout=5000&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite works best with a single writer; multiple in-flight pipeline
	// passes funnel through this one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	l := &Ledger{db: db, logger: logger}

	// Every Mark must be durable before it returns: the fetch it records
	// has already completed, and a crash must not lose the record.
	if _, err := db.Exec("PRAGMA synchronous = FULL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set synchronous pragma: %w", err)
	}

	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return l, nil
}

// Close closes the database connection
func (l *Ledger) Close() error {
	return l.db.Close()
}

// Contains reports whether hash is already recorded. Storage errors are
// logged and reported as "not contained": a false negative only costs a
// redundant fetch, while a false positive would silently drop real work.
func (l *Ledger) Contains(hash string) bool {
	var one int
	err := l.db.QueryRow(
		"SELECT 1 FROM processed_videos WHERE content_hash = ?", hash,
	).Scan(&one)
	if err == sql.ErrNoRows {
		return false
	}
	if err != nil {
		l.logger.Errorf("Ledger lookup failed for %s: %v", hash, err)
		return false
	}
	return true
}

// Mark records hash as processed. Duplicate marks are silently absorbed.
func (l *Ledger) Mark(hash string) error {
	_, err := l.db.Exec(
		"INSERT OR IGNORE INTO processed_videos (content_hash) VALUES (?)", hash,
	)
	if err != nil {
		return fmt.Errorf("failed to mark %s: %w", hash, err)
	}
	return nil
}

// Count returns the number of processed videos recorded in the ledger
func (l *Ledger) Count() (int, error) {
	var count int
	err := l.db.QueryRow("SELECT COUNT(*) FROM processed_videos").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count records: %w", err)
	}
	return count, nil
}

// Recent returns up to limit records, newest first
func (l *Ledger) Recent(limit int) ([]Record, error) {
	rows, err := l.db.Query(`
		SELECT content_hash, processed_at FROM processed_videos
		ORDER BY processed_at DESC, content_hash
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.ContentHash, &r.ProcessedAt); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// migrate applies database migrations
func (l *Ledger) migrate() error {
	version, err := l.getSchemaVersion()
	if err != nil {
		return err
	}

	if version >= currentSchemaVersion {
		return nil
	}

	tx, err := l.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if version < 1 {
		if _, err := tx.Exec(schemaV1); err != nil {
			return fmt.Errorf("failed to apply schema v1: %w", err)
		}
		if err := setSchemaVersion(tx, 1); err != nil {
			return fmt.Errorf("failed to set schema version: %w", err)
		}
	}

	// Future migrations would go here:
	// if version < 2 { ... }

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration: %w", err)
	}

	return nil
}

// getSchemaVersion returns the current schema version
func (l *Ledger) getSchemaVersion() (int, error) {
	var exists int
	err := l.db.QueryRow(`
		SELECT COUNT(*) FROM sqlite_master
		WHERE type='table' AND name='schema_version'
	`).Scan(&exists)
	if err != nil {
		return 0, err
	}

	if exists == 0 {
		return 0, nil
	}

	var version int
	err = l.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_version").Scan(&version)
	if err != nil {
		return 0, err
	}

	return version, nil
}

// setSchemaVersion records a schema version in a transaction
func setSchemaVersion(tx *sql.Tx, version int) error {
	_, err := tx.Exec("INSERT INTO schema_version (version) VALUES (?)", version)
	return err
}
