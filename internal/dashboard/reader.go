//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package dashboard serves read-only aggregates over the warehouse.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-wastetrack/internal/cleaning"
	"github.com/pgEdge/pgedge-wastetrack/internal/db"
)

// Filter restricts the facts an aggregate covers. Zero dates leave that
// end of the range open; an empty Locations list means every location.
type Filter struct {
	From      time.Time
	To        time.Time
	Locations []string
}

// MatchesNothing reports whether the filter names locations but none of
// them normalizes to a usable key, so no fact can match.
func (f Filter) MatchesNothing() bool {
	return len(f.Locations) > 0 && len(normalizeAll(f.Locations)) == 0
}

// args binds $1..$4 of filterClause. $3 is false when no location filter
// was given, in which case $4 is ignored.
func (f Filter) args() []any {
	return []any{
		dateArg(f.From),
		dateArg(f.To),
		len(f.Locations) > 0,
		normalizeAll(f.Locations),
	}
}

func dateArg(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// normalizeAll maps location names onto warehouse keys. The result is
// never nil so it binds as an empty array.
func normalizeAll(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if k := cleaning.NormalizeLocation(n); k != "" {
			out = append(out, k)
		}
	}
	return out
}

// DailyVolume is the total waste of one location on one day.
type DailyVolume struct {
	Date     time.Time
	Location string
	Volume   float64
}

// FleetLoad compares a location's fleet capacity with its average daily
// waste.
type FleetLoad struct {
	Location          string   `json:"kecamatan"`
	ArmadaTotal       *int32   `json:"armada_total"`
	ArmadaOperasional *int32   `json:"armada_operasional"`
	RitaseHarian      *float64 `json:"ritase_harian"`
	KapasitasM3       *float64 `json:"kapasitas_m3"`
	AvgDailyVolume    float64  `json:"avg_daily_waste_ton"`
	CapacityTon       *float64 `json:"capacity_ton"`
	LoadRatio         *float64 `json:"load_ratio"`
	Status            string   `json:"status"`
}

// Summary holds headline totals.
type Summary struct {
	TotalVolume float64 `json:"total_volume_ton"`
	Days        int64   `json:"days"`
	AvgPerDay   float64 `json:"avg_per_day_ton"`
	Locations   int64   `json:"locations"`
	Records     int64   `json:"records"`
}

// filterClause matches facts joined as f, t (dim_time) and l
// (dim_location) against $1..$4.
const filterClause = `
    ($1::date IS NULL OR t.date >= $1::date)
    AND ($2::date IS NULL OR t.date <= $2::date)
    AND (NOT $3::boolean OR l.kecamatan = ANY($4::text[]))`

const dailyVolumeSQL = `
SELECT t.date, l.kecamatan, SUM(f.volume)::float8
FROM warehouse.fact_waste f
JOIN warehouse.dim_time t ON f.time_id = t.id
JOIN warehouse.dim_location l ON f.location_id = l.id
WHERE` + filterClause + `
GROUP BY t.date, l.kecamatan
ORDER BY t.date, l.kecamatan`

const summarySQL = `
SELECT
    COALESCE(SUM(f.volume), 0)::float8,
    COUNT(DISTINCT t.date),
    COUNT(DISTINCT l.id),
    COUNT(*)
FROM warehouse.fact_waste f
JOIN warehouse.dim_time t ON f.time_id = t.id
JOIN warehouse.dim_location l ON f.location_id = l.id
WHERE` + filterClause

// fleetLoadSQL averages per-day totals, so several records on one day
// count once.
const fleetLoadSQL = `
WITH daily AS (
    SELECT l.kecamatan, t.date, SUM(f.volume) AS volume
    FROM warehouse.fact_waste f
    JOIN warehouse.dim_time t ON f.time_id = t.id
    JOIN warehouse.dim_location l ON f.location_id = l.id
    WHERE` + filterClause + `
    GROUP BY l.kecamatan, t.date
)
SELECT
    fl.kecamatan,
    fl.armada_total,
    fl.armada_operasional,
    fl.ritase_harian::float8,
    fl.kapasitas_m3::float8,
    AVG(d.volume)::float8
FROM warehouse.dim_fleet fl
JOIN daily d ON d.kecamatan = fl.kecamatan
GROUP BY fl.id
ORDER BY fl.kecamatan`

const locationsSQL = `SELECT kecamatan FROM warehouse.dim_location ORDER BY kecamatan`

// Reader runs dashboard queries. Every query executes in a read-only
// transaction.
type Reader struct {
	db db.DB
}

// NewReader creates a reader.
func NewReader(d db.DB) *Reader {
	return &Reader{db: d}
}

func (r *Reader) readOnly(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return db.InTx(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SET TRANSACTION READ ONLY"); err != nil {
			return err
		}
		return fn(tx)
	})
}

// DailyVolume returns the summed volume per date and location, ordered by
// date then location.
func (r *Reader) DailyVolume(ctx context.Context, f Filter) ([]DailyVolume, error) {
	if f.MatchesNothing() {
		return []DailyVolume{}, nil
	}

	var out []DailyVolume
	err := r.readOnly(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, dailyVolumeSQL, f.args()...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (DailyVolume, error) {
			var v DailyVolume
			err := row.Scan(&v.Date, &v.Location, &v.Volume)
			return v, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query daily volume: %w", err)
	}
	return out, nil
}

// FleetAnalysis returns, for each fleet location with waste in [from, to],
// its fleet profile, average daily waste and load status.
func (r *Reader) FleetAnalysis(ctx context.Context, from, to time.Time) ([]FleetLoad, error) {
	var out []FleetLoad
	err := r.readOnly(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, fleetLoadSQL, Filter{From: from, To: to}.args()...)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (FleetLoad, error) {
			var fl FleetLoad
			err := row.Scan(&fl.Location, &fl.ArmadaTotal, &fl.ArmadaOperasional,
				&fl.RitaseHarian, &fl.KapasitasM3, &fl.AvgDailyVolume)
			return fl, err
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query fleet analysis: %w", err)
	}

	for i := range out {
		out[i].analyze()
	}
	return out, nil
}

// Summary returns the total volume and the average per calendar day with
// data.
func (r *Reader) Summary(ctx context.Context, f Filter) (Summary, error) {
	var s Summary
	if f.MatchesNothing() {
		return s, nil
	}

	err := r.readOnly(ctx, func(tx pgx.Tx) error {
		return tx.QueryRow(ctx, summarySQL, f.args()...).Scan(
			&s.TotalVolume, &s.Days, &s.Locations, &s.Records)
	})
	if err != nil {
		return Summary{}, fmt.Errorf("failed to query summary: %w", err)
	}
	if s.Days > 0 {
		s.AvgPerDay = s.TotalVolume / float64(s.Days)
	}
	return s, nil
}

// Locations returns every location name in the warehouse.
func (r *Reader) Locations(ctx context.Context) ([]string, error) {
	var out []string
	err := r.readOnly(ctx, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, locationsSQL)
		if err != nil {
			return err
		}
		out, err = pgx.CollectRows(rows, pgx.RowTo[string])
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query locations: %w", err)
	}
	return out, nil
}
