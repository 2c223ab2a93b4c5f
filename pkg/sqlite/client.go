package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Client owns a SQLite handle.
type Client struct {
	db   *sql.DB
	path string
}

// NewClient opens (or creates) the database file and applies pragmas.
func NewClient(opts ...ClientOption) (*Client, error) {
	cfg := &ClientConfig{
		BusyTimeout:  5 * time.Second,
		WAL:          true,
		MaxOpenConns: 1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Path == "" {
		return nil, fmt.Errorf("path is required")
	}

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("sqlite mkdir: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// in-memory databases are per connection
	if cfg.Path == ":memory:" {
		cfg.MaxOpenConns = 1
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pragmas := []string{fmt.Sprintf("PRAGMA busy_timeout=%d", cfg.BusyTimeout.Milliseconds())}
	if cfg.WAL && cfg.Path != ":memory:" {
		pragmas = append(pragmas, "PRAGMA journal_mode=WAL")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %q: %w", p, err)
		}
	}

	return &Client{db: db, path: cfg.Path}, nil
}

// DB returns *sql.DB for direct use.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Path returns the database file path.
func (c *Client) Path() string {
	return c.path
}

// Health performs health check.
func (c *Client) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Close closes the handle.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
