package sqlite

import "time"

// ClientOption configures Client.
type ClientOption func(*ClientConfig)

// ClientConfig holds SQLite connection settings.
type ClientConfig struct {
	Path        string
	BusyTimeout time.Duration
	WAL         bool
	// MaxOpenConns above 1 only helps readers; writers are serialized by SQLite anyway.
	MaxOpenConns int
}

// WithPath sets the database file. ":memory:" opens a private in-memory database.
func WithPath(path string) ClientOption {
	return func(c *ClientConfig) {
		c.Path = path
	}
}

// WithBusyTimeout sets how long a writer waits for a lock.
func WithBusyTimeout(d time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.BusyTimeout = d
	}
}

// WithWAL toggles write-ahead logging.
func WithWAL(enabled bool) ClientOption {
	return func(c *ClientConfig) {
		c.WAL = enabled
	}
}

// WithMaxOpenConns sets the pool size.
func WithMaxOpenConns(n int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxOpenConns = n
	}
}
