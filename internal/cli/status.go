//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package cli

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-wastetrack/internal/db"
	"github.com/pgEdge/pgedge-wastetrack/internal/schema"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show pipeline metadata and table row counts",
	Long: `Show when the schema was initialized, when each source was last
loaded, when the warehouse was last refreshed, and how many rows each
staging and warehouse table holds.`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	initialized, err := db.TableExists(ctx, pool, schema.StagingSchema, "etl_metadata")
	if err != nil {
		return fmt.Errorf("failed to check schema: %w", err)
	}
	if !initialized {
		return fmt.Errorf("database has not been initialized; run 'pgedge-wastetrack initialize' first")
	}

	meta, err := db.GetAllMetadata(ctx, pool)
	if err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	cmd.Println("Metadata:")
	for _, k := range keys {
		cmd.Printf("  %-18s %s\n", k, describeValue(meta[k]))
	}

	cmd.Println("Tables:")
	for _, name := range schema.CountedTables {
		count, err := countRows(ctx, pool, name)
		if err != nil {
			return err
		}
		if count < 0 {
			cmd.Printf("  %-22s %12s\n", name, "missing")
			continue
		}
		cmd.Printf("  %-22s %12s\n", name, humanize.Comma(count))
	}

	return nil
}

// describeValue appends a relative time to RFC 3339 timestamps.
func describeValue(v string) string {
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return v
	}
	return fmt.Sprintf("%s (%s)", v, humanize.Time(t))
}

// countRows returns -1 when the table does not exist.
func countRows(ctx context.Context, d db.DB, qualified string) (int64, error) {
	parts := strings.SplitN(qualified, ".", 2)
	exists, err := db.TableExists(ctx, d, parts[0], parts[1])
	if err != nil {
		return 0, fmt.Errorf("failed to check %s: %w", qualified, err)
	}
	if !exists {
		return -1, nil
	}

	var count int64
	sql := "SELECT count(*) FROM " + pgx.Identifier(parts).Sanitize()
	if err := d.QueryRow(ctx, sql).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", qualified, err)
	}
	return count, nil
}
