// Package persist keeps the allowlisted part of the explorer state across
// sessions in a local SQLite file.
package persist

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jengzang/trajectory-explorer/internal/database"
	"github.com/jengzang/trajectory-explorer/internal/filter"
	"github.com/jengzang/trajectory-explorer/internal/models"
)

// RootKey is the single key the state is stored under.
const RootKey = "persist:root"

//go:embed migrations/*.sql
var migrations embed.FS

// State is everything that survives a restart. Search results, selection
// and reference data are always refetched.
type State struct {
	ActiveTab  int          `json:"activeTab"`
	Tabs       []models.Tab `json:"tabs"`
	FilterList filter.List  `json:"filterList"`
}

// Store reads and writes State.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the state database at path.
func Open(path string) (*Store, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	if err := database.NewMigrationManager(db, migrations, "migrations").RunMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the saved state. ok is false when nothing was saved yet.
func (s *Store) Load(ctx context.Context) (state State, ok bool, err error) {
	var raw string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, RootKey).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("failed to load state: %w", err)
	}
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return State{}, false, fmt.Errorf("failed to decode state: %w", err)
	}
	return state, true, nil
}

// Save replaces the saved state.
func (s *Store) Save(ctx context.Context, state State) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO kv (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		RootKey, string(data))
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}
