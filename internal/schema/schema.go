//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package schema creates the staging and warehouse schemas, the raw
// landing tables, the cleaning views and the bookkeeping tables.
package schema

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-wastetrack/internal/cleaning"
	"github.com/pgEdge/pgedge-wastetrack/internal/db"
	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
	"github.com/pgEdge/pgedge-wastetrack/pkg/version"
)

// Options controls Initialize.
type Options struct {
	// PreserveWarehouse keeps existing warehouse tables and their rows.
	// By default the fact and dimension tables are dropped and recreated.
	PreserveWarehouse bool
}

// Statements returns the DDL executed by Initialize, in order.
func Statements(opts Options) []string {
	stmts := []string{
		"CREATE SCHEMA IF NOT EXISTS " + StagingSchema,
		"CREATE SCHEMA IF NOT EXISTS " + WarehouseSchema,
	}
	stmts = append(stmts, cleaning.FunctionsSQL...)

	if !opts.PreserveWarehouse {
		stmts = append(stmts, dropWarehouseSQL...)
	}
	stmts = append(stmts, createWarehouseSQL...)

	for _, t := range RawTables {
		stmts = append(stmts, t.DropSQL(), t.CreateSQL())
	}

	stmts = append(stmts, cleaning.ViewsSQL...)
	stmts = append(stmts, db.CreateMetadataTablesSQL...)
	return stmts
}

// Initialize (re)creates every object the pipeline needs in a single
// transaction. On error nothing is changed.
func Initialize(ctx context.Context, d db.DB, opts Options) error {
	start := time.Now()
	stmts := Statements(opts)

	logging.Info().
		Bool("preserve_warehouse", opts.PreserveWarehouse).
		Int("statements", len(stmts)).
		Msg("Initializing schema")

	err := db.InTx(ctx, d, func(tx pgx.Tx) error {
		for i, stmt := range stmts {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute statement %d (%s): %w",
					i+1, summarize(stmt), err)
			}
		}

		return db.SaveMetadata(ctx, tx, map[string]string{
			db.KeySchemaVersion: version.SchemaVersion,
			db.KeyVersion:       version.Short(),
			db.KeyInitializedAt: time.Now().UTC().Format(time.RFC3339),
		})
	})
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logging.Info().
		Dur("duration", time.Since(start)).
		Msg("Schema initialized")
	return nil
}

// summarize returns the first line of a statement for error messages.
func summarize(stmt string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(stmt), "\n")
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), "("))
}
