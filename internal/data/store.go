package data

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit is how many recent searches are kept
const DefaultHistoryLimit = 10

// BoundPlayer is the player the user has claimed as themselves
type BoundPlayer struct {
	ProfileID int64     `json:"profileId"`
	Name      string    `json:"name"`
	BoundAt   time.Time `json:"boundAt"`
}

// Store keeps the small amount of local state the app needs
type Store struct {
	db           *sql.DB
	historyLimit int
}

// DefaultPath returns the database location under the user's config directory
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = "."
	}
	return filepath.Join(configDir, "AoE4Companion", "companion.db")
}

// NewStore opens (and creates if needed) the local database at path
func NewStore(path string, historyLimit int) (*Store, error) {
	if path == "" {
		path = DefaultPath()
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer
	db.SetMaxOpenConns(1)

	s := &Store{db: db, historyLimit: historyLimit}
	if err := s.init(); err != nil {
		db.Close()
		return nil, err
	}

	log.Printf("[Store] Opened %s", path)
	return s, nil
}

// init creates the schema
func (s *Store) init() error {
	schema := `
		CREATE TABLE IF NOT EXISTS bound_player (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			profile_id INTEGER NOT NULL,
			name TEXT NOT NULL,
			bound_at TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS search_history (
			query TEXT PRIMARY KEY,
			seq INTEGER NOT NULL
		);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// BindPlayer remembers profileID as the user's own player, replacing any previous one
func (s *Store) BindPlayer(profileID int64, name string) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO bound_player (id, profile_id, name, bound_at)
		VALUES (1, ?, ?, ?)
	`, profileID, name, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to bind player: %w", err)
	}
	return nil
}

// BoundPlayer returns the bound player, or nil if none is bound
func (s *Store) BoundPlayer() (*BoundPlayer, error) {
	var p BoundPlayer
	var boundAt string
	err := s.db.QueryRow("SELECT profile_id, name, bound_at FROM bound_player WHERE id = 1").
		Scan(&p.ProfileID, &p.Name, &boundAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load bound player: %w", err)
	}

	p.BoundAt, _ = time.Parse(time.RFC3339, boundAt)
	return &p, nil
}

// UnbindPlayer forgets the bound player
func (s *Store) UnbindPlayer() error {
	if _, err := s.db.Exec("DELETE FROM bound_player"); err != nil {
		return fmt.Errorf("failed to unbind player: %w", err)
	}
	return nil
}

// AddSearch records a search query. Repeating a query moves it to the front;
// only the most recent historyLimit queries are kept. Blank queries are ignored.
func (s *Store) AddSearch(query string) error {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // Safe to call even after Commit()

	if _, err := tx.Exec(`
		INSERT INTO search_history (query, seq)
		VALUES (?, COALESCE((SELECT MAX(seq) FROM search_history), 0) + 1)
		ON CONFLICT(query) DO UPDATE SET seq = excluded.seq
	`, query); err != nil {
		return fmt.Errorf("failed to record search: %w", err)
	}

	if _, err := tx.Exec(`
		DELETE FROM search_history WHERE query NOT IN (
			SELECT query FROM search_history ORDER BY seq DESC LIMIT ?
		)
	`, s.historyLimit); err != nil {
		return fmt.Errorf("failed to trim search history: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SearchHistory returns recent queries, most recent first
func (s *Store) SearchHistory() ([]string, error) {
	rows, err := s.db.Query("SELECT query FROM search_history ORDER BY seq DESC LIMIT ?", s.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}
	defer rows.Close()

	history := make([]string, 0, s.historyLimit)
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, fmt.Errorf("failed to scan search history: %w", err)
		}
		history = append(history, q)
	}
	return history, rows.Err()
}

// ClearSearchHistory removes every recorded search
func (s *Store) ClearSearchHistory() error {
	if _, err := s.db.Exec("DELETE FROM search_history"); err != nil {
		return fmt.Errorf("failed to clear search history: %w", err)
	}
	return nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}
