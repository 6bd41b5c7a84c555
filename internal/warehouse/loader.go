//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package warehouse moves cleaned staging data into the star schema.
//
// Every operation reads only the cleaning views and runs in its own
// transaction. Dimension loads are upserts and may be repeated; the fact
// load truncates and rebuilds the fact table, so re-running it never
// duplicates rows.
package warehouse

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-wastetrack/internal/cleaning"
	"github.com/pgEdge/pgedge-wastetrack/internal/db"
	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
)

const insertTimeSQL = `
INSERT INTO warehouse.dim_time (date, year, month, day)
SELECT DISTINCT
    tanggal,
    EXTRACT(YEAR FROM tanggal)::int,
    EXTRACT(MONTH FROM tanggal)::int,
    EXTRACT(DAY FROM tanggal)::int
FROM ` + cleaning.WasteView + `
ON CONFLICT (date) DO NOTHING`

const insertLocationSQL = `
INSERT INTO warehouse.dim_location (kecamatan)
SELECT DISTINCT kecamatan
FROM ` + cleaning.WasteView + `
ON CONFLICT (kecamatan) DO NOTHING`

// latestFleetSQL keeps the last source row per location.
const latestFleetSQL = `
SELECT DISTINCT ON (kecamatan) *
FROM ` + cleaning.FleetView + `
WHERE kecamatan IS NOT NULL
ORDER BY kecamatan, source_row DESC`

const updateLocationSQL = `
UPDATE warehouse.dim_location l
SET penduduk = s.penduduk,
    luas_km2 = s.luas_km2
FROM (` + latestFleetSQL + `) s
WHERE l.kecamatan = s.kecamatan`

const fleetOnlySQL = `
SELECT COUNT(DISTINCT s.kecamatan)
FROM ` + cleaning.FleetView + ` s
WHERE s.kecamatan IS NOT NULL
  AND NOT EXISTS (
      SELECT 1 FROM warehouse.dim_location l WHERE l.kecamatan = s.kecamatan
  )`

const missingFleetLocationSQL = `
SELECT COUNT(*) FROM ` + cleaning.FleetView + ` WHERE kecamatan IS NULL`

// upsertFleetSQL reports per row whether it was inserted (xmax = 0) or
// updated.
const upsertFleetSQL = `
INSERT INTO warehouse.dim_fleet
    (kecamatan, armada_total, armada_operasional, ritase_harian, kapasitas_m3)
SELECT kecamatan, armada_total, armada_operasional, ritase_harian, kapasitas_m3
FROM (` + latestFleetSQL + `) s
ON CONFLICT (kecamatan) DO UPDATE SET
    armada_total       = EXCLUDED.armada_total,
    armada_operasional = EXCLUDED.armada_operasional,
    ritase_harian      = EXCLUDED.ritase_harian,
    kapasitas_m3       = EXCLUDED.kapasitas_m3
RETURNING (xmax = 0)`

const truncateFactSQL = `TRUNCATE TABLE warehouse.fact_waste RESTART IDENTITY`

const insertFactSQL = `
INSERT INTO warehouse.fact_waste (time_id, location_id, fleet_id, volume, category, source)
SELECT t.id, l.id, f.id, w.volume_ton, w.jenis_sampah, w.sumber_sampah
FROM ` + cleaning.WasteView + ` w
JOIN warehouse.dim_time t ON t.date = w.tanggal
JOIN warehouse.dim_location l ON l.kecamatan = w.kecamatan
LEFT JOIN warehouse.dim_fleet f ON f.kecamatan = w.kecamatan
ORDER BY w.source_row`

// factMissesSQL counts clean rows the fact join cannot place.
const factMissesSQL = `
SELECT
    COUNT(*) FILTER (WHERE l.id IS NULL),
    COUNT(*) FILTER (WHERE l.id IS NOT NULL AND t.id IS NULL)
FROM ` + cleaning.WasteView + ` w
LEFT JOIN warehouse.dim_time t ON t.date = w.tanggal
LEFT JOIN warehouse.dim_location l ON l.kecamatan = w.kecamatan`

// Loader runs the warehouse operations against a database handle.
type Loader struct {
	db db.DB
}

// NewLoader creates a loader.
func NewLoader(d db.DB) *Loader {
	return &Loader{db: d}
}

// LoadTimeDimension inserts every distinct clean date that is not already
// present.
func (l *Loader) LoadTimeDimension(ctx context.Context) (Result, error) {
	return l.run(ctx, OpTimeDimension, func(tx pgx.Tx, res *Result) error {
		tag, err := tx.Exec(ctx, insertTimeSQL)
		if err != nil {
			return fmt.Errorf("failed to insert dates: %w", err)
		}
		res.Inserted = tag.RowsAffected()
		return nil
	})
}

// LoadLocationDimension inserts the locations seen in the waste data and
// then copies population and area from the fleet data onto matching rows.
// Locations only present in the fleet data are not created.
func (l *Loader) LoadLocationDimension(ctx context.Context) (Result, error) {
	return l.run(ctx, OpLocationDimension, func(tx pgx.Tx, res *Result) error {
		tag, err := tx.Exec(ctx, insertLocationSQL)
		if err != nil {
			return fmt.Errorf("failed to insert locations: %w", err)
		}
		res.Inserted = tag.RowsAffected()

		tag, err = tx.Exec(ctx, updateLocationSQL)
		if err != nil {
			return fmt.Errorf("failed to update location profiles: %w", err)
		}
		res.Updated = tag.RowsAffected()

		var fleetOnly int64
		if err := tx.QueryRow(ctx, fleetOnlySQL).Scan(&fleetOnly); err != nil {
			return fmt.Errorf("failed to count fleet-only locations: %w", err)
		}
		res.drop(DropFleetOnlyLocation, fleetOnly)
		return nil
	})
}

// LoadFleetDimension upserts one row per fleet location, overwriting every
// non-key column on conflict. Within one file the last row for a location
// wins.
func (l *Loader) LoadFleetDimension(ctx context.Context) (Result, error) {
	return l.run(ctx, OpFleetDimension, func(tx pgx.Tx, res *Result) error {
		rows, err := tx.Query(ctx, upsertFleetSQL)
		if err != nil {
			return fmt.Errorf("failed to upsert fleet: %w", err)
		}
		for rows.Next() {
			var inserted bool
			if err := rows.Scan(&inserted); err != nil {
				rows.Close()
				return fmt.Errorf("failed to read upsert result: %w", err)
			}
			if inserted {
				res.Inserted++
			} else {
				res.Updated++
			}
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("failed to upsert fleet: %w", err)
		}

		var missing int64
		if err := tx.QueryRow(ctx, missingFleetLocationSQL).Scan(&missing); err != nil {
			return fmt.Errorf("failed to count fleet rows without location: %w", err)
		}
		res.drop(DropMissingLocation, missing)
		return nil
	})
}

// LoadFactWaste rebuilds the fact table from the clean waste rows. Rows
// whose date or location has no dimension row are skipped and counted.
func (l *Loader) LoadFactWaste(ctx context.Context) (Result, error) {
	return l.run(ctx, OpFactWaste, func(tx pgx.Tx, res *Result) error {
		if _, err := tx.Exec(ctx, truncateFactSQL); err != nil {
			return fmt.Errorf("failed to truncate fact table: %w", err)
		}

		tag, err := tx.Exec(ctx, insertFactSQL)
		if err != nil {
			return fmt.Errorf("failed to insert facts: %w", err)
		}
		res.Inserted = tag.RowsAffected()

		var total, badDate, badLocation, badVolume int64
		if err := tx.QueryRow(ctx, cleaning.WasteDropsSQL).Scan(
			&total, &badDate, &badLocation, &badVolume); err != nil {
			return fmt.Errorf("failed to count rejected rows: %w", err)
		}
		res.drop(DropInvalidDate, badDate)
		res.drop(DropInvalidLocation, badLocation)
		res.drop(DropInvalidVolume, badVolume)

		var unknownLocation, unknownDate int64
		if err := tx.QueryRow(ctx, factMissesSQL).Scan(&unknownLocation, &unknownDate); err != nil {
			return fmt.Errorf("failed to count unmatched rows: %w", err)
		}
		res.drop(DropUnknownLocation, unknownLocation)
		res.drop(DropUnknownDate, unknownDate)

		logging.Debug().
			Int64("raw_rows", total).
			Int64("facts", res.Inserted).
			Msg("Fact rows reconciled")
		return nil
	})
}

// Refresh runs the time, location, fleet and fact operations in that
// order. It stops at the first failure and returns the results gathered
// so far.
func (l *Loader) Refresh(ctx context.Context) (Report, error) {
	start := time.Now()
	var report Report

	steps := []func(context.Context) (Result, error){
		l.LoadTimeDimension,
		l.LoadLocationDimension,
		l.LoadFleetDimension,
		l.LoadFactWaste,
	}
	for _, step := range steps {
		res, err := step(ctx)
		if err != nil {
			report.Duration = time.Since(start)
			return report, err
		}
		report.Results = append(report.Results, res)
	}

	report.Duration = time.Since(start)
	return report, nil
}

func (l *Loader) run(ctx context.Context, op string, fn func(pgx.Tx, *Result) error) (Result, error) {
	start := time.Now()
	res := Result{Operation: op}

	logging.Debug().Str("operation", op).Msg("Starting warehouse operation")

	err := db.InTx(ctx, l.db, func(tx pgx.Tx) error {
		return fn(tx, &res)
	})
	if err != nil {
		return Result{Operation: op}, fmt.Errorf("%s: %w", op, err)
	}

	res.Duration = time.Since(start)
	res.log()
	return res, nil
}
