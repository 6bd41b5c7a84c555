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
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
	"github.com/pgEdge/pgedge-wastetrack/internal/pipeline"
)

var (
	pipelineRetries        int
	pipelineRetryDelay     int
	pipelineSkipInitialize bool
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run initialize, both loads and the warehouse refresh",
	Long: `Run the whole ELT chain: initialize the schema, load waste.csv and
sipsn.csv concurrently, and refresh the warehouse once both loads have
succeeded. A failed step is retried after a fixed delay; a missing file or
a failed validation is not retried.

Example:
  pgedge-wastetrack pipeline --data-dir ./data
  pgedge-wastetrack pipeline --retries 0 --skip-initialize`,
	RunE: runPipeline,
}

func init() {
	pipelineCmd.Flags().IntVar(&pipelineRetries, "retries", 0,
		"number of retries per step (default: 1)")
	pipelineCmd.Flags().IntVar(&pipelineRetryDelay, "retry-delay", 0,
		"seconds to wait between attempts (default: 300)")
	pipelineCmd.Flags().BoolVar(&pipelineSkipInitialize, "skip-initialize", false,
		"do not re-initialize the schema before loading")
}

func runPipeline(cmd *cobra.Command, args []string) error {
	applyDataFlags()
	if cmd.Flags().Changed("retries") {
		cfg.Pipeline.Retries = pipelineRetries
	}
	if cmd.Flags().Changed("retry-delay") {
		cfg.Pipeline.RetryDelay = pipelineRetryDelay
	}
	if pipelineSkipInitialize {
		cfg.Pipeline.SkipInitialize = true
	}

	if err := cfg.ValidatePipeline(); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	pool, err := connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	sum, err := pipeline.NewRunner(pool, cfg).Run(ctx)
	if errors.Is(err, context.Canceled) {
		logging.Info().Msg("Pipeline stopped")
	}
	printSummary(cmd, sum)
	return err
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logging.Info().
				Str("signal", sig.String()).
				Msg("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
