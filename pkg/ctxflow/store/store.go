// Package store persists context snapshots in a SQLite database so a
// context created in one CLI invocation can be pruned, routed, and
// executed in later ones.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/jholhewres/ctxflow/pkg/ctxflow/execctx"
)

// Store is a SQLite-backed snapshot store keyed by context ID.
type Store struct {
	db *sql.DB
}

// Entry is a store listing row.
type Entry struct {
	ID         string
	Intent     string
	InputCount int
	Tokens     int
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Open opens (and if needed creates) the store at the given file path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS contexts (
			id           TEXT PRIMARY KEY,
			intent       TEXT NOT NULL,
			input_count  INTEGER NOT NULL,
			total_tokens INTEGER NOT NULL,
			snapshot     TEXT NOT NULL,
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL
		)`); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating contexts table: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save persists a context snapshot (insert or update). The payload is the
// canonical snapshot form, so stored bytes match what the other runtime
// would produce.
func (s *Store) Save(c *execctx.Context) error {
	snapshot, err := c.EncodeCanonical()
	if err != nil {
		return fmt.Errorf("encoding context %q: %w", c.ID, err)
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO contexts
			(id, intent, input_count, total_tokens, snapshot, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.Intent,
		len(c.Inputs),
		c.TotalTokens(),
		string(snapshot),
		c.CreatedAt.UTC().Format(time.RFC3339),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save context %q: %w", c.ID, err)
	}
	return nil
}

// Load reconstructs a stored context. Returns execctx.ErrNotFound when
// the ID is unknown.
func (s *Store) Load(id string) (*execctx.Context, error) {
	var snapshot string
	err := s.db.QueryRow("SELECT snapshot FROM contexts WHERE id = ?", id).Scan(&snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("context %q: %w", id, execctx.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load context %q: %w", id, err)
	}
	return execctx.DecodeJSON([]byte(snapshot))
}

// List returns all stored contexts, most recently updated first.
func (s *Store) List() ([]Entry, error) {
	rows, err := s.db.Query(`
		SELECT id, intent, input_count, total_tokens, created_at, updated_at
		FROM contexts
		ORDER BY updated_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list contexts: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e         Entry
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&e.ID, &e.Intent, &e.InputCount, &e.Tokens, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan context row: %w", err)
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		e.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// Delete removes a context by ID. Returns execctx.ErrNotFound when the
// ID is unknown.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec("DELETE FROM contexts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete context %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("context %q: %w", id, execctx.ErrNotFound)
	}
	return nil
}
