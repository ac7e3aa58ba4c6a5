package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/ticketboard-server/internal/store"
)

// Schema creates the tables used by SQLiteStore. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS window_slots (
	slot       INTEGER PRIMARY KEY,
	number     TEXT NOT NULL,
	desk       TEXT NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New creates a new SQLite store and applies Schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, func(db *sql.DB) error {
		_, err := db.Exec(Schema)
		return err
	})
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveWindow replaces the stored window with entries.
func (s *SQLiteStore) SaveWindow(ctx context.Context, entries []store.Assignment) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback() //nolint:errcheck // no-op after commit
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM window_slots`); err != nil {
		return fmt.Errorf("clear window: %w", err)
	}

	query := `
		INSERT INTO window_slots (slot, number, desk)
		VALUES (?, ?, ?)
	`
	for i, e := range entries {
		if _, err := tx.ExecContext(ctx, query, i, e.Number, e.Desk); err != nil {
			return fmt.Errorf("insert slot %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit window: %w", err)
	}
	return nil
}

// LoadWindow returns the stored window ordered by slot.
func (s *SQLiteStore) LoadWindow(ctx context.Context) ([]store.Assignment, error) {
	query := `
		SELECT slot, number, desk, updated_at
		FROM window_slots
		ORDER BY slot ASC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query window: %w", err)
	}
	defer rows.Close()

	var entries []store.Assignment
	for rows.Next() {
		var a store.Assignment
		if err := rows.Scan(&a.Slot, &a.Number, &a.Desk, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan slot: %w", err)
		}
		entries = append(entries, a)
	}

	return entries, rows.Err()
}

// Ensure SQLiteStore implements store.Store
var _ store.Store = (*SQLiteStore)(nil)
