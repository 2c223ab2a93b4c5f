package repository

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"NeuroBand/internal/domain/models"
	domrepo "NeuroBand/internal/domain/repository"
	pkgsqlite "NeuroBand/pkg/sqlite"
)

// SQLite bounds host parameters per statement; 3 per row keeps this well under the limit.
const sqliteChunkRows = 500

// SQLiteSchema is the signal table layout. id only preserves insertion order.
var SQLiteSchema = []string{
	`CREATE TABLE IF NOT EXISTS eeg_signals (
		id      INTEGER PRIMARY KEY AUTOINCREMENT,
		time    REAL NOT NULL,
		channel TEXT NOT NULL,
		voltage REAL NOT NULL
	)`,
}

// SQLiteSignalStore keeps the current signal in a SQLite table.
type SQLiteSignalStore struct {
	client    *pkgsqlite.Client
	mu        sync.Mutex
	chunkRows int
}

// NewSQLiteSignalStore creates the schema if needed and takes ownership of client.
func NewSQLiteSignalStore(ctx context.Context, client *pkgsqlite.Client) (*SQLiteSignalStore, error) {
	if err := client.InitSchema(ctx, SQLiteSchema); err != nil {
		return nil, fmt.Errorf("sqlite signal store: %w", err)
	}
	return &SQLiteSignalStore{client: client, chunkRows: sqliteChunkRows}, nil
}

// Replace deletes every stored sample and inserts the new signal in one transaction.
func (s *SQLiteSignalStore) Replace(ctx context.Context, sig *models.Signal) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := sig.Flatten()

	tx, err := s.client.DB().BeginTx(ctx, nil)
	if err != nil {
		return models.StorageError("replace signal", fmt.Errorf("begin: %w", err))
	}
	defer rollbackWithError(tx, &err)

	if _, err = tx.ExecContext(ctx, `DELETE FROM eeg_signals`); err != nil {
		return models.StorageError("replace signal", fmt.Errorf("delete: %w", err))
	}

	err = chunks(len(rows), s.chunkRows, func(lo, hi int) error {
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*3)
		for _, r := range rows[lo:hi] {
			values = append(values, "(?, ?, ?)")
			args = append(args, r.Time, r.Channel, r.Voltage)
		}
		q := "INSERT INTO eeg_signals (time, channel, voltage) VALUES " + strings.Join(values, ",")
		if _, err := tx.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", lo, hi, err)
		}
		return nil
	})
	if err != nil {
		return models.StorageError("replace signal", err)
	}

	if err = tx.Commit(); err != nil {
		return models.StorageError("replace signal", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// Current returns the stored samples in insertion order, or models.ErrNoSignal.
func (s *SQLiteSignalStore) Current(ctx context.Context) (samples []models.Sample, err error) {
	rows, err := s.client.DB().QueryContext(ctx, `SELECT time, channel, voltage FROM eeg_signals ORDER BY id`)
	if err != nil {
		return nil, models.StorageError("read signal", err)
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var smp models.Sample
		if err = rows.Scan(&smp.Time, &smp.Channel, &smp.Voltage); err != nil {
			return nil, models.StorageError("read signal", fmt.Errorf("scan: %w", err))
		}
		samples = append(samples, smp)
	}
	if err = rows.Err(); err != nil {
		return nil, models.StorageError("read signal", err)
	}
	if len(samples) == 0 {
		return nil, models.ErrNoSignal
	}
	return samples, nil
}

// Count returns the number of stored rows.
func (s *SQLiteSignalStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.client.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM eeg_signals`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteSignalStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *SQLiteSignalStore) Close() error {
	return s.client.Close()
}

var _ domrepo.SignalStore = (*SQLiteSignalStore)(nil)
