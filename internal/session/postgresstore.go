package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const defaultSessionTable = "session_store"

// PostgresStoreConfig captures configuration required to initialize a
// Postgres-backed session store.
type PostgresStoreConfig struct {
	DSN    string
	Schema string
	Table  string
	// Key distinguishes sessions when several environments share one table.
	Key string
}

// PostgresStore persists the session in PostgreSQL. It is intended for
// headless or CI fleets where several workers share a single login.
type PostgresStore struct {
	db  *sql.DB
	cfg PostgresStoreConfig
	mu  sync.Mutex
}

// NewPostgresStore establishes a connection to PostgreSQL and ensures the
// session table exists.
func NewPostgresStore(ctx context.Context, cfg PostgresStoreConfig) (*PostgresStore, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres session store: DSN is required")
	}
	if cfg.Table == "" {
		cfg.Table = defaultSessionTable
	}
	if cfg.Key == "" {
		cfg.Key = "default"
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres session store: open database connection: %w", err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("postgres session store: ping database: %w", err)
	}

	s := &PostgresStore{db: db, cfg: cfg}
	if err = s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	if schema := strings.TrimSpace(s.cfg.Schema); schema != "" {
		if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %q`, schema)); err != nil {
			return fmt.Errorf("postgres session store: create schema: %w", err)
		}
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			key TEXT PRIMARY KEY,
			access_token TEXT NOT NULL,
			refresh_token TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.tableName())); err != nil {
		return fmt.Errorf("postgres session store: create table: %w", err)
	}
	return nil
}

func (s *PostgresStore) tableName() string {
	if schema := strings.TrimSpace(s.cfg.Schema); schema != "" {
		return fmt.Sprintf("%q.%q", schema, s.cfg.Table)
	}
	return fmt.Sprintf("%q", s.cfg.Table)
}

// Save upserts the session row, replacing any previous value.
func (s *PostgresStore) Save(ctx context.Context, sess *Session) error {
	if sess == nil {
		return fmt.Errorf("postgres session store: session is nil")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`
		INSERT INTO %s (key, access_token, refresh_token, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET access_token = EXCLUDED.access_token,
		    refresh_token = EXCLUDED.refresh_token,
		    updated_at = now()`, s.tableName())
	if _, err := s.db.ExecContext(ctx, query, s.cfg.Key, sess.Access, sess.Refresh); err != nil {
		return fmt.Errorf("postgres session store: save failed: %w", err)
	}
	return nil
}

// Load reads the session row, returning nil when no session is stored.
func (s *PostgresStore) Load(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sess Session
	query := fmt.Sprintf(`SELECT access_token, refresh_token FROM %s WHERE key = $1`, s.tableName())
	err := s.db.QueryRowContext(ctx, query, s.cfg.Key).Scan(&sess.Access, &sess.Refresh)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("postgres session store: load failed: %w", err)
	}
	return &sess, nil
}

// Clear deletes the session row.
func (s *PostgresStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, s.tableName())
	if _, err := s.db.ExecContext(ctx, query, s.cfg.Key); err != nil {
		return fmt.Errorf("postgres session store: clear failed: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
