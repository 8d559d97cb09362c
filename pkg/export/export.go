// Package export writes pass results to PostgreSQL.
package export

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/obsolescence-radar/pkg/engine"
	"github.com/dd0wney/obsolescence-radar/pkg/logging"
)

// ErrNoResult is returned when Export is called without a result.
var ErrNoResult = errors.New("export: no result")

// DBPool is the subset of *pgxpool.Pool the exporter uses.
type DBPool interface {
	Ping(ctx context.Context) error
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
	Close()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS application_risk (
	run_id        TEXT        NOT NULL,
	fact_sheet_id TEXT        NOT NULL,
	name          TEXT        NOT NULL,
	level         INTEGER     NOT NULL,
	risk          TEXT        NOT NULL,
	ref_date      DATE        NOT NULL,
	computed_at   TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, fact_sheet_id)
);

CREATE TABLE IF NOT EXISTS it_component_lifecycle (
	run_id               TEXT        NOT NULL,
	fact_sheet_id        TEXT        NOT NULL,
	name                 TEXT        NOT NULL,
	lifecycle            TEXT        NOT NULL,
	aggregated_lifecycle TEXT        NOT NULL,
	ref_date             DATE        NOT NULL,
	computed_at          TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (run_id, fact_sheet_id)
);

CREATE INDEX IF NOT EXISTS idx_application_risk_ref_date ON application_risk(ref_date);
CREATE INDEX IF NOT EXISTS idx_it_component_lifecycle_ref_date ON it_component_lifecycle(ref_date);
`

const upsertApplicationSQL = `
INSERT INTO application_risk (run_id, fact_sheet_id, name, level, risk, ref_date, computed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, fact_sheet_id) DO UPDATE SET
	name = EXCLUDED.name,
	level = EXCLUDED.level,
	risk = EXCLUDED.risk,
	ref_date = EXCLUDED.ref_date,
	computed_at = EXCLUDED.computed_at`

const upsertComponentSQL = `
INSERT INTO it_component_lifecycle (run_id, fact_sheet_id, name, lifecycle, aggregated_lifecycle, ref_date, computed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (run_id, fact_sheet_id) DO UPDATE SET
	name = EXCLUDED.name,
	lifecycle = EXCLUDED.lifecycle,
	aggregated_lifecycle = EXCLUDED.aggregated_lifecycle,
	ref_date = EXCLUDED.ref_date,
	computed_at = EXCLUDED.computed_at`

// PostgresExporter upserts pass results keyed by run id and fact sheet id.
type PostgresExporter struct {
	pool   DBPool
	logger logging.Logger
}

// Connect opens a pool for dsn and verifies the connection.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}
	config.MaxConns = 4
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}
	return pool, nil
}

// NewPostgresExporter wraps pool.
func NewPostgresExporter(pool DBPool, logger logging.Logger) *PostgresExporter {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &PostgresExporter{pool: pool, logger: logger.With(logging.Component("export"))}
}

// EnsureSchema creates the result tables if they do not exist.
func (e *PostgresExporter) EnsureSchema(ctx context.Context) error {
	if _, err := e.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Export writes every Application risk and IT Component lifecycle of res in
// a single batch.
func (e *PostgresExporter) Export(ctx context.Context, res *engine.Result) error {
	if res == nil || res.Graph == nil {
		return ErrNoResult
	}
	if !engine.ValidRefDate(res.RefDate) {
		return fmt.Errorf("export: %w: %d", engine.ErrInvalidRefDate, res.RefDate)
	}
	refDate := dateOf(res.RefDate)
	computedAt := res.ComputedAt.UTC()

	batch := &pgx.Batch{}
	apps := res.ApplicationRisks()
	for _, a := range apps {
		batch.Queue(upsertApplicationSQL, res.RunID, a.ID, a.Name, a.Level, a.Risk, refDate, computedAt)
	}
	comps := res.ComponentLifecycles()
	for _, c := range comps {
		batch.Queue(upsertComponentSQL, res.RunID, c.ID, c.Name, c.Lifecycle, c.AggregatedLifecycle, refDate, computedAt)
	}
	if batch.Len() == 0 {
		e.logger.Info("nothing to export", logging.RunID(res.RunID))
		return nil
	}

	timer := logging.StartTimer(e.logger, "result exported", logging.RunID(res.RunID), logging.RefDate(res.RefDate))
	br := e.pool.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			timer.EndError(err)
			return fmt.Errorf("export row %d of run %s: %w", i, res.RunID, err)
		}
	}
	if err := br.Close(); err != nil {
		timer.EndError(err)
		return fmt.Errorf("export run %s: %w", res.RunID, err)
	}
	timer.End()

	e.logger.Debug("export rows",
		logging.RunID(res.RunID),
		logging.Int("applications", len(apps)),
		logging.Int("it_components", len(comps)),
	)
	return nil
}

// dateOf converts a YYYYMMDD integer to midnight UTC.
func dateOf(d int) time.Time {
	return time.Date(d/10000, time.Month(d/100%100), d%100, 0, 0, 0, 0, time.UTC)
}

// Close releases the pool.
func (e *PostgresExporter) Close() {
	e.pool.Close()
}
