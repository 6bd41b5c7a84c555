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
	"strings"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-wastetrack/internal/ingest"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the source datasets and their validation rules",
	Long: `List the source datasets the loaders accept, with the columns each
file must provide and the columns that may not contain missing values.`,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("Source datasets:")
		for _, name := range ingest.List() {
			spec, err := ingest.Get(name)
			if err != nil {
				continue
			}
			cmd.Println()
			cmd.Printf("  %-8s %s\n", spec.Name, spec.Description)
			cmd.Printf("           table:    %s\n", spec.Table.QualifiedName())
			cmd.Printf("           required: %s\n", strings.Join(spec.Required, ", "))
			cmd.Printf("           critical: %s\n", strings.Join(spec.Critical, ", "))
			cmd.Printf("           numeric:  %s\n", strings.Join(spec.Numeric, ", "))
		}
	},
}
