package store

import (
	"context"
	"time"
)

// Assignment is one persisted slot of the display window.
type Assignment struct {
	Slot      int // 0 is the most recent
	Number    string
	Desk      string
	UpdatedAt time.Time
}

// WindowStore persists the current display window and nothing older.
type WindowStore interface {
	// SaveWindow replaces the stored window with entries, newest first.
	SaveWindow(ctx context.Context, entries []Assignment) error

	// LoadWindow returns the stored window, newest first.
	LoadWindow(ctx context.Context) ([]Assignment, error)
}

// Store aggregates all storage interfaces.
type Store interface {
	WindowStore

	// Close closes the underlying database connection.
	Close() error
}
