//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package warehouse

import (
	"sort"
	"time"

	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
)

// Operation names.
const (
	OpTimeDimension     = "dim_time"
	OpLocationDimension = "dim_location"
	OpFleetDimension    = "dim_fleet"
	OpFactWaste         = "fact_waste"
)

// Reasons a source row did not reach the warehouse.
const (
	DropInvalidDate       = "invalid_date"
	DropInvalidLocation   = "invalid_location"
	DropInvalidVolume     = "invalid_volume"
	DropUnknownLocation   = "unknown_location"
	DropUnknownDate       = "unknown_date"
	DropFleetOnlyLocation = "fleet_only_location"
	DropMissingLocation   = "missing_location"
)

// Result summarizes one warehouse operation.
type Result struct {
	Operation string

	// Inserted and Updated count rows written to the target table.
	Inserted int64
	Updated  int64

	// Dropped counts source rows (or location keys, for
	// fleet_only_location) that were skipped, by reason. Zero counts are
	// omitted.
	Dropped map[string]int64

	Duration time.Duration
}

// RowsAffected returns the number of rows written.
func (r Result) RowsAffected() int64 {
	return r.Inserted + r.Updated
}

// TotalDropped returns the sum of all drop counts.
func (r Result) TotalDropped() int64 {
	var n int64
	for _, c := range r.Dropped {
		n += c
	}
	return n
}

// Metrics flattens the result for the load audit table.
func (r Result) Metrics() map[string]int64 {
	m := map[string]int64{
		"inserted": r.Inserted,
		"updated":  r.Updated,
	}
	for reason, n := range r.Dropped {
		m["dropped_"+reason] = n
	}
	return m
}

func (r *Result) drop(reason string, n int64) {
	if n <= 0 {
		return
	}
	if r.Dropped == nil {
		r.Dropped = make(map[string]int64)
	}
	r.Dropped[reason] += n
}

func (r Result) log() {
	event := logging.Info().
		Str("operation", r.Operation).
		Int64("inserted", r.Inserted).
		Int64("updated", r.Updated).
		Dur("duration", r.Duration)

	reasons := make([]string, 0, len(r.Dropped))
	for reason := range r.Dropped {
		reasons = append(reasons, reason)
	}
	sort.Strings(reasons)
	for _, reason := range reasons {
		event = event.Int64("dropped_"+reason, r.Dropped[reason])
	}
	event.Msg("Warehouse operation complete")
}

// Report collects the results of a full refresh.
type Report struct {
	Results  []Result
	Duration time.Duration
}

// Dropped sums drop counts across all operations.
func (r Report) Dropped() map[string]int64 {
	total := make(map[string]int64)
	for _, res := range r.Results {
		for reason, n := range res.Dropped {
			total[reason] += n
		}
	}
	return total
}

// Result returns the result for an operation.
func (r Report) Result(op string) (Result, bool) {
	for _, res := range r.Results {
		if res.Operation == op {
			return res, true
		}
	}
	return Result{}, false
}
