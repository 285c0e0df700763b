// Copyright Remmie Authors
// SPDX-License-Identifier: Apache-2.0

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mohamed-ali0/remmie/pkg/core/state"

	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed implementation of ConversationStore.
type Store struct {
	db *sql.DB
}

// New creates a new SQLite store at the given path, creating parent
// directories and the schema as needed.
func New(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	// WAL keeps concurrent turn handling from tripping over SQLITE_BUSY.
	// The driver applies _pragma parameters on every new connection.
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}

	s := &Store{db: db}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS conversation_bindings (
			user_id TEXT PRIMARY KEY,
			conversation_id TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS flight_searches (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			params TEXT NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_flight_searches_user ON flight_searches(user_id, created_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("sqlite create tables: %w", err)
		}
	}
	return nil
}

// GetBinding retrieves the conversation binding for a user.
func (s *Store) GetBinding(ctx context.Context, userID string) (*state.Binding, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id, conversation_id, created_at
		 FROM conversation_bindings WHERE user_id = ?`, userID)

	var binding state.Binding
	err := row.Scan(&binding.UserID, &binding.ConversationID, &binding.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, state.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get binding: %w", err)
	}
	return &binding, nil
}

// SaveBinding stores a binding, replacing any previous one for the user.
func (s *Store) SaveBinding(ctx context.Context, binding *state.Binding) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversation_bindings (user_id, conversation_id, created_at)
		 VALUES (?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
			conversation_id = excluded.conversation_id,
			created_at = excluded.created_at`,
		binding.UserID, binding.ConversationID, binding.CreatedAt)
	if err != nil {
		return fmt.Errorf("save binding: %w", err)
	}
	return nil
}

// SaveFlightSearch records one flight search for a user.
func (s *Store) SaveFlightSearch(ctx context.Context, search *state.FlightSearch) error {
	params := search.Params
	if params == nil {
		params = json.RawMessage("{}")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO flight_searches (id, user_id, params, created_at)
		 VALUES (?, ?, ?, ?)`,
		search.ID, search.UserID, string(params), search.CreatedAt)
	if err != nil {
		return fmt.Errorf("save flight search: %w", err)
	}
	return nil
}

// ListFlightSearches returns a user's recorded searches, newest first.
func (s *Store) ListFlightSearches(ctx context.Context, userID string) ([]*state.FlightSearch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, params, created_at
		 FROM flight_searches WHERE user_id = ?
		 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list flight searches: %w", err)
	}
	defer rows.Close()

	var searches []*state.FlightSearch
	for rows.Next() {
		var (
			search    state.FlightSearch
			params    string
			createdAt time.Time
		)
		if err := rows.Scan(&search.ID, &search.UserID, &params, &createdAt); err != nil {
			return nil, fmt.Errorf("scan flight search: %w", err)
		}
		search.Params = json.RawMessage(params)
		search.CreatedAt = createdAt
		searches = append(searches, &search)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list flight searches: %w", err)
	}
	return searches, nil
}
