package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"NeuroBand/internal/domain/models"
	domrepo "NeuroBand/internal/domain/repository"
	pkgch "NeuroBand/pkg/clickhouse"
	applogger "NeuroBand/pkg/logger"
)

const chChunkRows = 2000

// ClickHouseSchema returns DDL for the live and staging signal tables.
// EXCHANGE TABLES needs the Atomic database engine (the default since 20.10).
func ClickHouseSchema(table string) []string {
	const ddl = `CREATE TABLE IF NOT EXISTS %s (
        seq     UInt64,
        time    Float64,
        channel String,
        voltage Float64
    ) ENGINE = MergeTree ORDER BY seq`
	return []string{
		fmt.Sprintf(ddl, table),
		fmt.Sprintf(ddl, table+"_staging"),
	}
}

// CHSignalStore keeps the current signal in ClickHouse. ClickHouse has no multi-statement
// transactions, so Replace fills a staging table and swaps it in atomically.
type CHSignalStore struct {
	db      *sql.DB
	client  *pkgch.Client
	table   string
	staging string
	mu      sync.Mutex
	l       *applogger.Logger
}

func NewCHSignalStore(ctx context.Context, ch *pkgch.Client, table string) (*CHSignalStore, error) {
	if err := ch.InitSchema(ctx, ClickHouseSchema(table)); err != nil {
		return nil, fmt.Errorf("clickhouse signal store: %w", err)
	}
	return &CHSignalStore{db: ch.DB(), client: ch, table: table, staging: table + "_staging"}, nil
}

// SetLogger injects a structured logger.
func (s *CHSignalStore) SetLogger(l *applogger.Logger) { s.l = l }

func (s *CHSignalStore) Replace(ctx context.Context, sig *models.Signal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	rows := sig.Flatten()

	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+s.staging); err != nil {
		return models.StorageError("replace signal", fmt.Errorf("truncate staging: %w", err))
	}

	err := chunks(len(rows), chChunkRows, func(lo, hi int) error {
		values := make([]string, 0, hi-lo)
		args := make([]interface{}, 0, (hi-lo)*4)
		for i, r := range rows[lo:hi] {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, uint64(lo+i), r.Time, r.Channel, r.Voltage)
		}
		q := fmt.Sprintf("INSERT INTO %s (seq, time, channel, voltage) VALUES %s", s.staging, strings.Join(values, ","))
		if _, err := s.db.ExecContext(ctx, q, args...); err != nil {
			return fmt.Errorf("insert rows %d-%d: %w", lo, hi, err)
		}
		return nil
	})
	if err != nil {
		s.logError("clickhouse replace insert error", err)
		return models.StorageError("replace signal", err)
	}

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("EXCHANGE TABLES %s AND %s", s.table, s.staging)); err != nil {
		s.logError("clickhouse replace exchange error", err)
		return models.StorageError("replace signal", fmt.Errorf("exchange: %w", err))
	}

	// staging now holds the previous signal
	if _, err := s.db.ExecContext(ctx, "TRUNCATE TABLE "+s.staging); err != nil {
		s.logError("clickhouse replace cleanup error", err)
	}

	if s.l != nil {
		s.l.Debug("clickhouse replace ok",
			applogger.String("table", s.table),
			applogger.Int("rows", len(rows)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return nil
}

func (s *CHSignalStore) Current(ctx context.Context) ([]models.Sample, error) {
	q := fmt.Sprintf("SELECT time, channel, voltage FROM %s ORDER BY seq ASC", s.table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		s.logError("clickhouse current query error", err)
		return nil, models.StorageError("read signal", err)
	}
	defer rows.Close()

	out := make([]models.Sample, 0, 1024)
	for rows.Next() {
		var smp models.Sample
		if err := rows.Scan(&smp.Time, &smp.Channel, &smp.Voltage); err != nil {
			return nil, models.StorageError("read signal", fmt.Errorf("scan: %w", err))
		}
		out = append(out, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, models.StorageError("read signal", fmt.Errorf("rows: %w", err))
	}
	if len(out) == 0 {
		return nil, models.ErrNoSignal
	}
	return out, nil
}

func (s *CHSignalStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *CHSignalStore) Close() error {
	return s.client.Close()
}

func (s *CHSignalStore) logError(msg string, err error) {
	if s.l == nil {
		return
	}
	s.l.Error(msg, applogger.String("table", s.table), applogger.Error(err))
}

var _ domrepo.SignalStore = (*CHSignalStore)(nil)
