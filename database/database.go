package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // Import the SQLite3 driver
)

// Store is the bot's persistent key-value state: monotonically growing sets
// (blacklist, accepted code of conduct, seen post ids) and per-user counters.
// All mutations are single statements so that concurrent workers racing on
// the same member resolve through the database, not through application code.
type Store struct {
	db *sql.DB
}

// Well-known set and counter names.
const (
	SetBlacklist   = "blacklist"
	SetAcceptedCoC = "accepted_CoC"
	SetPostIDs     = "post_ids"

	CounterTotalPosted = "total_posted"
	CounterTotalNew    = "total_new"
)

// Open opens (and if needed creates) the store at dbPath.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS set_members (
			set_name TEXT NOT NULL,
			member TEXT NOT NULL,
			added_at INTEGER NOT NULL,
			PRIMARY KEY (set_name, member)
		);`,
		`CREATE TABLE IF NOT EXISTS counters (
			key TEXT PRIMARY KEY,
			value INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, q := range queries {
		if _, err := db.Exec(q); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}
	return nil
}

// AddToSet inserts member into the named set and reports whether it was
// previously absent. The insert-if-absent is a single statement; the primary
// key makes two racing adds resolve to exactly one wasNew=true.
func (s *Store) AddToSet(ctx context.Context, set, member string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO set_members (set_name, member, added_at) VALUES (?, ?, ?)`,
		set, member, time.Now().Unix())
	if err != nil {
		return false, fmt.Errorf("failed to add %q to set %q: %w", member, set, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsMember reports whether member is in the named set.
func (s *Store) IsMember(ctx context.Context, set, member string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM set_members WHERE set_name = ? AND member = ?`,
		set, member).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check membership of %q in set %q: %w", member, set, err)
	}
	return true, nil
}

// Increment atomically adds by to the named counter and returns the new value.
func (s *Store) Increment(ctx context.Context, key string, by int64) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO counters (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = value + excluded.value
		 RETURNING value`,
		key, by).Scan(&value)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %q: %w", key, err)
	}
	return value, nil
}

// Counter returns the current value of the named counter, zero if unset.
func (s *Store) Counter(ctx context.Context, key string) (int64, error) {
	var value int64
	err := s.db.QueryRowContext(ctx, `SELECT value FROM counters WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter %q: %w", key, err)
	}
	return value, nil
}
