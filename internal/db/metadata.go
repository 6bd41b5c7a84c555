//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Metadata keys written by the pipeline operations.
const (
	KeySchemaVersion  = "schema_version"
	KeyVersion        = "version"
	KeyInitializedAt  = "initialized_at"
	KeyLastWasteLoad  = "last_waste_load"
	KeyLastFleetLoad  = "last_fleet_load"
	KeyLastRefresh    = "last_refresh"
	KeyLastRefreshRun = "last_refresh_run"
)

// CreateMetadataTablesSQL creates the bookkeeping tables. They live in the
// staging schema and survive re-initialization.
var CreateMetadataTablesSQL = []string{
	`CREATE TABLE IF NOT EXISTS staging.etl_metadata (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS staging.load_audit (
    id          BIGSERIAL PRIMARY KEY,
    run_id      UUID NOT NULL,
    operation   TEXT NOT NULL,
    metric      TEXT NOT NULL,
    value       BIGINT NOT NULL,
    recorded_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`,
	`CREATE INDEX IF NOT EXISTS idx_load_audit_run ON staging.load_audit(run_id)`,
}

// SaveMetadata upserts the given key/value pairs.
func SaveMetadata(ctx context.Context, d DB, values map[string]string) error {
	for key, value := range values {
		_, err := d.Exec(ctx, `
            INSERT INTO staging.etl_metadata (key, value) VALUES ($1, $2)
            ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
        `, key, value)
		if err != nil {
			return fmt.Errorf("failed to save metadata %s: %w", key, err)
		}
	}
	return nil
}

// Touch records the current UTC time under key.
func Touch(ctx context.Context, d DB, key string) error {
	return SaveMetadata(ctx, d, map[string]string{
		key: time.Now().UTC().Format(time.RFC3339),
	})
}

// GetMetadataValue retrieves a single metadata value by key.
func GetMetadataValue(ctx context.Context, d DB, key string) (string, error) {
	var value string
	err := d.QueryRow(ctx, `
        SELECT value FROM staging.etl_metadata WHERE key = $1
    `, key).Scan(&value)
	if err != nil {
		return "", err
	}
	return value, nil
}

// GetAllMetadata retrieves all metadata as a map.
func GetAllMetadata(ctx context.Context, d DB) (map[string]string, error) {
	rows, err := d.Query(ctx, `SELECT key, value FROM staging.etl_metadata`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		metadata[key] = value
	}

	return metadata, rows.Err()
}

// RecordAudit stores one row per metric for an operation of a run.
func RecordAudit(ctx context.Context, d DB, runID uuid.UUID, operation string, metrics map[string]int64) error {
	for metric, value := range metrics {
		_, err := d.Exec(ctx, `
            INSERT INTO staging.load_audit (run_id, operation, metric, value)
            VALUES ($1, $2, $3, $4)
        `, runID, operation, metric, value)
		if err != nil {
			return fmt.Errorf("failed to record audit %s/%s: %w", operation, metric, err)
		}
	}
	return nil
}

// AuditEntry is one recorded metric.
type AuditEntry struct {
	Operation  string
	Metric     string
	Value      int64
	RecordedAt time.Time
}

// GetAudit returns the metrics recorded for a run, oldest first.
func GetAudit(ctx context.Context, d DB, runID uuid.UUID) ([]AuditEntry, error) {
	rows, err := d.Query(ctx, `
        SELECT operation, metric, value, recorded_at
        FROM staging.load_audit
        WHERE run_id = $1
        ORDER BY id
    `, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var e AuditEntry
		if err := rows.Scan(&e.Operation, &e.Metric, &e.Value, &e.RecordedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// TableExists checks if a schema-qualified table exists.
func TableExists(ctx context.Context, d DB, schema, table string) (bool, error) {
	var exists bool
	err := d.QueryRow(ctx, `
        SELECT EXISTS (
            SELECT FROM information_schema.tables
            WHERE table_schema = $1 AND table_name = $2
        )
    `, schema, table).Scan(&exists)
	return exists, err
}
