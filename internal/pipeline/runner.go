//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package pipeline orchestrates the ELT operations: initialize, load the
// two sources, then refresh the warehouse.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pgEdge/pgedge-wastetrack/internal/config"
	"github.com/pgEdge/pgedge-wastetrack/internal/db"
	"github.com/pgEdge/pgedge-wastetrack/internal/ingest"
	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
	"github.com/pgEdge/pgedge-wastetrack/internal/schema"
	"github.com/pgEdge/pgedge-wastetrack/internal/staging"
	"github.com/pgEdge/pgedge-wastetrack/internal/warehouse"
)

// Audit operation names.
const (
	auditInitialize = "initialize"
	auditLoadPrefix = "load_"
	auditWarehouse  = "warehouse."
)

// LoadResult describes one staging load.
type LoadResult struct {
	Dataset  string
	Source   string
	Rows     int64
	Warnings []ingest.Warning
	Duration time.Duration
}

// Summary describes a full pipeline run.
type Summary struct {
	RunID       uuid.UUID
	Initialized bool
	Waste       LoadResult
	Fleet       LoadResult
	Warehouse   warehouse.Report
	Duration    time.Duration
}

// Runner executes pipeline operations against one database. Each
// operation can be called on its own; Run chains them.
type Runner struct {
	db    db.DB
	cfg   *config.Config
	runID uuid.UUID
	sleep sleepFunc
}

// NewRunner creates a runner with a fresh run ID.
func NewRunner(d db.DB, cfg *config.Config) *Runner {
	return &Runner{
		db:    d,
		cfg:   cfg,
		runID: uuid.New(),
		sleep: sleepContext,
	}
}

// RunID identifies this runner's rows in the load audit table.
func (r *Runner) RunID() uuid.UUID {
	return r.runID
}

func (r *Runner) policy() RetryPolicy {
	return RetryPolicy{
		Retries: r.cfg.Pipeline.Retries,
		Delay:   r.cfg.Pipeline.RetryDelayDuration(),
	}
}

// Initialize creates the schemas, tables and views.
func (r *Runner) Initialize(ctx context.Context) error {
	opts := schema.Options{PreserveWarehouse: r.cfg.Init.PreserveWarehouse}
	if err := schema.Initialize(ctx, r.db, opts); err != nil {
		return err
	}
	return r.audit(ctx, auditInitialize, map[string]int64{
		"statements": int64(len(schema.Statements(opts))),
	})
}

// LoadWaste validates the waste file and replaces the raw_waste table.
func (r *Runner) LoadWaste(ctx context.Context) (LoadResult, error) {
	return r.load(ctx, ingest.WasteDataset, r.cfg.Data.WastePath(), db.KeyLastWasteLoad)
}

// LoadFleet validates the fleet file and replaces the raw_sipsn table.
func (r *Runner) LoadFleet(ctx context.Context) (LoadResult, error) {
	return r.load(ctx, ingest.FleetDataset, r.cfg.Data.FleetPath(), db.KeyLastFleetLoad)
}

// load reads and validates before touching the database, so a missing file
// or a failed validation leaves staging untouched.
func (r *Runner) load(ctx context.Context, name, path, metaKey string) (LoadResult, error) {
	start := time.Now()
	res := LoadResult{Dataset: name, Source: path}

	spec, err := ingest.Get(name)
	if err != nil {
		return res, err
	}

	logging.Info().
		Str("dataset", name).
		Str("source", path).
		Msg("Reading source file")

	ds, err := ingest.ReadCSV(path)
	if err != nil {
		return res, err
	}

	validation := ingest.Validate(ds, name)
	res.Warnings = validation.Warnings
	if err := validation.Err(); err != nil {
		return res, err
	}

	rows, err := staging.Load(ctx, r.db, ds, spec.Table)
	if err != nil {
		return res, err
	}
	res.Rows = rows
	res.Duration = time.Since(start)

	if err := db.Touch(ctx, r.db, metaKey); err != nil {
		return res, err
	}
	err = r.audit(ctx, auditLoadPrefix+name, map[string]int64{
		"rows":     rows,
		"warnings": int64(len(validation.Warnings)),
	})
	return res, err
}

// RefreshWarehouse runs the dimension and fact loads and records their
// results.
func (r *Runner) RefreshWarehouse(ctx context.Context) (warehouse.Report, error) {
	report, err := warehouse.NewLoader(r.db).Refresh(ctx)
	if err != nil {
		return report, err
	}

	for _, res := range report.Results {
		if err := r.audit(ctx, auditWarehouse+res.Operation, res.Metrics()); err != nil {
			return report, err
		}
	}

	err = db.SaveMetadata(ctx, r.db, map[string]string{
		db.KeyLastRefresh:    time.Now().UTC().Format(time.RFC3339),
		db.KeyLastRefreshRun: r.runID.String(),
	})
	return report, err
}

// Run executes initialize, then both loads concurrently, then the
// warehouse refresh once both loads have succeeded. Each step is retried
// according to the pipeline configuration.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	start := time.Now()
	sum := &Summary{RunID: r.runID}
	p := r.policy()

	logging.Info().
		Str("run_id", r.runID.String()).
		Int("retries", p.Retries).
		Dur("retry_delay", p.Delay).
		Msg("Starting pipeline")

	if !r.cfg.Pipeline.SkipInitialize {
		_, err := withRetry(ctx, p, r.sleep, "initialize", func(ctx context.Context) (struct{}, error) {
			return struct{}{}, r.Initialize(ctx)
		})
		if err != nil {
			return sum, fmt.Errorf("initialize: %w", err)
		}
		sum.Initialized = true
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		res, err := withRetry(gctx, p, r.sleep, "load-waste", r.LoadWaste)
		sum.Waste = res
		if err != nil {
			return fmt.Errorf("load-waste: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		res, err := withRetry(gctx, p, r.sleep, "load-fleet", r.LoadFleet)
		sum.Fleet = res
		if err != nil {
			return fmt.Errorf("load-fleet: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		sum.Duration = time.Since(start)
		return sum, err
	}

	report, err := withRetry(ctx, p, r.sleep, "refresh-warehouse", r.RefreshWarehouse)
	sum.Warehouse = report
	sum.Duration = time.Since(start)
	if err != nil {
		return sum, fmt.Errorf("refresh-warehouse: %w", err)
	}

	logging.Info().
		Str("run_id", r.runID.String()).
		Int64("waste_rows", sum.Waste.Rows).
		Int64("fleet_rows", sum.Fleet.Rows).
		Dur("duration", sum.Duration).
		Msg("Pipeline complete")

	return sum, nil
}

func (r *Runner) audit(ctx context.Context, op string, metrics map[string]int64) error {
	return db.RecordAudit(ctx, r.db, r.runID, op, metrics)
}
