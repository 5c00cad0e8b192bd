// Package docstore persists documents as plain XMD text keyed by document
// ID. Parsed block structure is never stored; it is always re-derived from
// the text. The backend is in-memory by default and Postgres when a DSN is
// configured, with an LRU cache in front of the database.
package docstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var ErrNotFound = errors.New("docstore: document not found")

// Store holds raw document text. All methods are safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	byID map[string]string

	db *sql.DB

	schemaOnce sync.Once
	schemaErr  error

	cache *lru.Cache[string, string]
}

// New returns an in-memory store.
func New() *Store {
	return &Store{byID: make(map[string]string)}
}

// NewPostgres opens a Postgres-backed store via the pgx stdlib driver.
func NewPostgres(dsn string) (*Store, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, string](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db, cache: cache}, nil
}

// NewFromEnv picks Postgres when dsn is set and falls back to memory.
func NewFromEnv(dsn string) *Store {
	if strings.TrimSpace(dsn) == "" {
		return New()
	}
	s, err := NewPostgres(dsn)
	if err != nil {
		return New()
	}
	return s
}

func (s *Store) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS documents (
				id   TEXT PRIMARY KEY,
				body TEXT NOT NULL
			)`)
	})
	return s.schemaErr
}

// Get returns the document text.
func (s *Store) Get(ctx context.Context, id string) (string, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		body, ok := s.byID[id]
		if !ok {
			return "", fmt.Errorf("%w: %q", ErrNotFound, id)
		}
		return body, nil
	}

	if body, ok := s.cache.Get(id); ok {
		return body, nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return "", err
	}
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE id = $1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return "", fmt.Errorf("docstore: get %q: %w", id, err)
	}
	s.cache.Add(id, body)
	return body, nil
}

// Put stores the document text, replacing any previous body.
func (s *Store) Put(ctx context.Context, id, body string) error {
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("docstore: document id is required")
	}
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.byID[id] = body
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, body) VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET body = EXCLUDED.body`, id, body)
	if err != nil {
		return fmt.Errorf("docstore: put %q: %w", id, err)
	}
	s.cache.Add(id, body)
	return nil
}

// Delete removes a document. Deleting a missing document is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.db == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.byID, id)
		return nil
	}
	if err := s.ensureSchema(ctx); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id); err != nil {
		return fmt.Errorf("docstore: delete %q: %w", id, err)
	}
	s.cache.Remove(id)
	return nil
}

// Close releases the database handle when one is open.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
