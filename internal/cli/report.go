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
	"sort"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-wastetrack/internal/pipeline"
	"github.com/pgEdge/pgedge-wastetrack/internal/warehouse"
)

func printLoad(cmd *cobra.Command, res pipeline.LoadResult) {
	if res.Dataset == "" {
		return
	}
	cmd.Printf("%-6s %s rows loaded from %s in %s\n",
		res.Dataset, humanize.Comma(res.Rows), res.Source, res.Duration.Round(time.Millisecond))
	for _, w := range res.Warnings {
		cmd.Printf("       warning: %s\n", w)
	}
}

func printReport(cmd *cobra.Command, report warehouse.Report) {
	if len(report.Results) == 0 {
		return
	}

	cmd.Println("Warehouse refresh:")
	for _, res := range report.Results {
		cmd.Printf("  %-13s %10s inserted %10s updated\n",
			res.Operation, humanize.Comma(res.Inserted), humanize.Comma(res.Updated))
	}

	dropped := report.Dropped()
	if len(dropped) == 0 {
		return
	}
	reasons := make([]string, 0, len(dropped))
	for reason := range dropped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)

	cmd.Println("Dropped rows:")
	for _, reason := range reasons {
		cmd.Printf("  %-20s %10s\n", reason, humanize.Comma(dropped[reason]))
	}
}

func printSummary(cmd *cobra.Command, sum *pipeline.Summary) {
	if sum == nil {
		return
	}
	cmd.Printf("Run %s\n", sum.RunID)
	if sum.Initialized {
		cmd.Println("schema initialized")
	}
	printLoad(cmd, sum.Waste)
	printLoad(cmd, sum.Fleet)
	printReport(cmd, sum.Warehouse)
	cmd.Printf("Finished in %s\n", sum.Duration.Round(time.Millisecond))
}
