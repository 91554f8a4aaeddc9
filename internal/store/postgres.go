package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"plantwatch/internal/models"
)

// PostgresStore is a TelemetryStore backed by Postgres/TimescaleDB.
//
// Schema:
//
//	telemetry_snapshots(id, domain, captured_at, parameters jsonb)
//	violations(id, snapshot_id, domain, parameter, value, threshold,
//	           unit, severity, message, raised_at,
//	           UNIQUE (snapshot_id, parameter))
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore connects to the database and verifies connectivity
func NewPostgresStore(ctx context.Context, dsn string, maxConns int32) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create db pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping db: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// GetLatestSnapshot returns the newest snapshot for domain with its
// violations attached
func (s *PostgresStore) GetLatestSnapshot(ctx context.Context, domain models.Domain) (*models.Snapshot, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, domain, captured_at, parameters
		FROM telemetry_snapshots
		WHERE domain = $1
		ORDER BY captured_at DESC
		LIMIT 1`, string(domain))

	var snap models.Snapshot
	var rawParams []byte
	if err := row.Scan(&snap.ID, &snap.Domain, &snap.CapturedAt, &rawParams); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoSnapshot
		}
		return nil, fmt.Errorf("latest snapshot query failed: %w", err)
	}

	if err := json.Unmarshal(rawParams, &snap.Parameters); err != nil {
		return nil, fmt.Errorf("decode snapshot %s parameters: %w", snap.ID, err)
	}

	violations, err := s.loadViolations(ctx, snap.ID)
	if err != nil {
		return nil, err
	}
	snap.Violations = violations
	return &snap, nil
}

func (s *PostgresStore) loadViolations(ctx context.Context, snapshotID string) ([]models.Violation, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, snapshot_id, domain, parameter, value, threshold,
		       unit, severity, message, raised_at
		FROM violations
		WHERE snapshot_id = $1
		ORDER BY raised_at ASC`, snapshotID)
	if err != nil {
		return nil, fmt.Errorf("violations query failed: %w", err)
	}
	defer rows.Close()

	var out []models.Violation
	for rows.Next() {
		var v models.Violation
		if err := rows.Scan(&v.ID, &v.SnapshotID, &v.Domain, &v.Parameter,
			&v.Value, &v.Threshold, &v.Unit, &v.Severity, &v.Message, &v.RaisedAt); err != nil {
			return nil, fmt.Errorf("scan violation: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// AppendViolations inserts new violations; the unique constraint on
// (snapshot_id, parameter) makes re-raising a no-op
func (s *PostgresStore) AppendViolations(ctx context.Context, snapshotID string, violations []models.Violation) error {
	if len(violations) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, v := range violations {
		batch.Queue(`
			INSERT INTO violations
				(id, snapshot_id, domain, parameter, value, threshold,
				 unit, severity, message, raised_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (snapshot_id, parameter) DO NOTHING`,
			v.ID, snapshotID, string(v.Domain), v.Parameter, v.Value,
			v.Threshold, v.Unit, string(v.Severity), v.Message, v.RaisedAt)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range violations {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("append violations for snapshot %s: %w", snapshotID, err)
		}
	}
	return nil
}

// Ping checks database connectivity
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
