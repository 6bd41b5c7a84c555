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

var (
	loadDataDir   string
	loadWasteFile string
	loadFleetFile string
)

var loadWasteCmd = &cobra.Command{
	Use:   "load-waste",
	Short: "Validate waste.csv and reload staging.raw_waste",
	Long: `Read the daily waste collection file, validate it, and replace the
contents of staging.raw_waste. A file that fails validation leaves the
table untouched.

Example:
  pgedge-wastetrack load-waste --data-dir ./data`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, (*pipeline.Runner).LoadWaste)
	},
}

var loadFleetCmd = &cobra.Command{
	Use:   "load-fleet",
	Short: "Validate sipsn.csv and reload staging.raw_sipsn",
	Long: `Read the district fleet/demographic survey file, validate it, and
replace the contents of staging.raw_sipsn. A file that fails validation
leaves the table untouched.

Example:
  pgedge-wastetrack load-fleet --fleet-file /srv/exports/sipsn_2024.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoad(cmd, (*pipeline.Runner).LoadFleet)
	},
}

func init() {
	for _, c := range []*cobra.Command{loadWasteCmd, loadFleetCmd, pipelineCmd} {
		c.Flags().StringVar(&loadDataDir, "data-dir", "",
			"directory holding the source files")
		c.Flags().StringVar(&loadWasteFile, "waste-file", "",
			"waste collection file name or path")
		c.Flags().StringVar(&loadFleetFile, "fleet-file", "",
			"fleet survey file name or path")
	}
}

// applyDataFlags overrides the data configuration with CLI flags.
func applyDataFlags() {
	if loadDataDir != "" {
		cfg.Data.Dir = loadDataDir
	}
	if loadWasteFile != "" {
		cfg.Data.WasteFile = loadWasteFile
	}
	if loadFleetFile != "" {
		cfg.Data.FleetFile = loadFleetFile
	}
}

func runLoad(cmd *cobra.Command, load func(*pipeline.Runner, context.Context) (pipeline.LoadResult, error)) error {
	applyDataFlags()

	if err := cfg.ValidateLoad(); err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	res, err := load(pipeline.NewRunner(pool, cfg), ctx)
	if err != nil {
		return err
	}

	printLoad(cmd, res)
	return nil
}
