//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cli implements the command-line interface for pgedge-wastetrack.
package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-wastetrack/internal/config"
	"github.com/pgEdge/pgedge-wastetrack/internal/db"
	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
	"github.com/pgEdge/pgedge-wastetrack/pkg/version"
)

var (
	// Global flags
	cfgFile    string
	connection string
	logLevel   string

	// Global config
	cfg *config.Config

	rootCmd = &cobra.Command{
		Use:   "pgedge-wastetrack",
		Short: "ELT pipeline and dashboard API for municipal waste data",
		Long: `pgedge-wastetrack loads daily waste collection records (waste.csv)
and the district fleet/demographic survey (sipsn.csv) into PostgreSQL.

Raw files are validated and copied into the staging schema, cleaned by
SQL views, and upserted into a star schema in the warehouse schema. The
serve command exposes read-only aggregates for a dashboard.

Typical usage:
  pgedge-wastetrack generate --output-dir ./data
  pgedge-wastetrack pipeline --connection "postgres://..."
  pgedge-wastetrack serve --connection "postgres://..."`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./pgedge-wastetrack.yaml)")
	rootCmd.PersistentFlags().StringVar(&connection, "connection", "",
		"PostgreSQL connection string (overrides secrets file and WASTE_DB_URL)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error)")

	// Add subcommands
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initializeCmd)
	rootCmd.AddCommand(loadWasteCmd)
	rootCmd.AddCommand(loadFleetCmd)
	rootCmd.AddCommand(refreshCmd)
	rootCmd.AddCommand(pipelineCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(datasetsCmd)
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return err
	}

	// Override with CLI flags
	if connection != "" {
		cfg.SetConnection(connection)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	// Reinitialize logger with config
	logging.Init(logging.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	return nil
}

// connect opens a pool using the resolved connection string.
func connect(ctx context.Context) (*pgxpool.Pool, error) {
	logging.Debug().
		Str("source", cfg.ConnectionSource).
		Msg("Using connection")

	pool, err := db.Connect(ctx, cfg.Connection)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return pool, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println(version.Info())
	},
}
