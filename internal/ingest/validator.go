//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pgEdge/pgedge-wastetrack/internal/cleaning"
	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
)

// ErrValidation is returned when a dataset fails validation.
var ErrValidation = errors.New("validation failed")

// Check identifies the validation step that rejected a dataset.
type Check string

// Validation checks, in the order they run.
const (
	CheckDataset         Check = "dataset"
	CheckEmpty           Check = "empty"
	CheckRequiredColumns Check = "required_columns"
	CheckCriticalNulls   Check = "critical_nulls"
)

// Warning reports non-numeric values found in a numeric column.
type Warning struct {
	Column string
	Count  int
}

func (w Warning) String() string {
	return fmt.Sprintf("column '%s' has %d non-numeric rows", w.Column, w.Count)
}

// Result is the outcome of validating a dataset.
type Result struct {
	Dataset string
	Valid   bool

	// Check and Reason describe the failure; both are empty when Valid.
	Check  Check
	Reason string

	// Missing lists required columns absent from the file.
	Missing []string

	// Warnings never affect Valid.
	Warnings []Warning
}

// Err returns nil for a valid result and an error wrapping ErrValidation
// otherwise.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrValidation, r.Dataset, r.Reason)
}

// IsValid reports whether ds passes validation for the named dataset.
// Unknown dataset names are invalid.
func IsValid(ds *Dataset, name string) bool {
	return Validate(ds, name).Valid
}

// Validate runs the checks for the named dataset and stops at the first
// failing one: non-empty, required columns, then critical nulls. Numeric
// columns only produce warnings.
func Validate(ds *Dataset, name string) Result {
	log := logging.Component("validator")

	spec, err := Get(name)
	if err != nil {
		log.Error().Str("dataset", name).Msg("VALIDATION FAILED: unknown dataset")
		return Result{Dataset: name, Check: CheckDataset, Reason: err.Error()}
	}

	res := validate(ds, spec)

	for _, w := range res.Warnings {
		log.Warn().
			Str("dataset", spec.Description).
			Str("column", w.Column).
			Int("count", w.Count).
			Msg("VALIDATION WARNING: non-numeric values")
	}

	if res.Valid {
		log.Info().
			Str("dataset", spec.Description).
			Int("rows", ds.Len()).
			Msg("VALIDATION PASSED")
	} else {
		log.Error().
			Str("dataset", spec.Description).
			Str("check", string(res.Check)).
			Msg("VALIDATION FAILED: " + res.Reason)
	}

	return res
}

func validate(ds *Dataset, spec DatasetSpec) Result {
	res := Result{Dataset: spec.Name}

	if ds.Empty() {
		res.Check = CheckEmpty
		res.Reason = "file is empty"
		return res
	}

	for _, col := range spec.Required {
		if !ds.HasColumn(col) {
			res.Missing = append(res.Missing, col)
		}
	}
	if len(res.Missing) > 0 {
		res.Check = CheckRequiredColumns
		res.Reason = "missing columns " + strings.Join(res.Missing, ", ")
		return res
	}

	var nullCols []string
	for _, col := range spec.Critical {
		for _, v := range ds.Column(col) {
			if IsMissing(v) {
				nullCols = append(nullCols, col)
				break
			}
		}
	}
	if len(nullCols) > 0 {
		res.Check = CheckCriticalNulls
		res.Reason = "rows with empty " + strings.Join(nullCols, " or ")
		return res
	}

	for _, col := range spec.Numeric {
		if !ds.HasColumn(col) {
			continue
		}
		count := 0
		for _, v := range ds.Column(col) {
			if IsMissing(v) || !cleaning.IsNumeric(v) {
				count++
			}
		}
		if count > 0 {
			res.Warnings = append(res.Warnings, Warning{Column: col, Count: count})
		}
	}

	res.Valid = true
	return res
}
