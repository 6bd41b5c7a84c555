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

	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
	"github.com/pgEdge/pgedge-wastetrack/internal/pipeline"
)

var initPreserveWarehouse bool

var initializeCmd = &cobra.Command{
	Use:   "initialize",
	Short: "Create the staging and warehouse schemas",
	Long: `Create the staging and warehouse schemas, the raw tables, the cleaning
views and the star schema tables. Existing warehouse tables are dropped and
recreated unless --preserve-warehouse is given. Raw staging tables are
always recreated.

Example:
  pgedge-wastetrack initialize --connection "postgres://..."`,
	RunE: runInitialize,
}

func init() {
	initializeCmd.Flags().BoolVar(&initPreserveWarehouse, "preserve-warehouse", false,
		"keep existing warehouse tables and their data")
}

func runInitialize(cmd *cobra.Command, args []string) error {
	if initPreserveWarehouse {
		cfg.Init.PreserveWarehouse = true
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	logging.Info().
		Bool("preserve_warehouse", cfg.Init.PreserveWarehouse).
		Msg("Initializing database")

	if err := pipeline.NewRunner(pool, cfg).Initialize(ctx); err != nil {
		return err
	}

	logging.Info().Msg("Database initialization complete")
	return nil
}
