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

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-wastetrack/internal/pipeline"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh-warehouse",
	Short: "Upsert the warehouse dimensions and rebuild the fact table",
	Long: `Load dim_time, dim_location and dim_fleet from the cleaning views and
rebuild fact_waste. Each step runs in its own transaction; the refresh
stops at the first failing step.

Example:
  pgedge-wastetrack refresh-warehouse --connection "postgres://..."`,
	RunE: runRefresh,
}

func runRefresh(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	report, err := pipeline.NewRunner(pool, cfg).RefreshWarehouse(ctx)
	printReport(cmd, report)
	return err
}
