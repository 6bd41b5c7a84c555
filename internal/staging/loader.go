//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package staging replaces the contents of a raw staging table with a
// validated dataset.
package staging

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/pgEdge/pgedge-wastetrack/internal/db"
	"github.com/pgEdge/pgedge-wastetrack/internal/ingest"
	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
	"github.com/pgEdge/pgedge-wastetrack/internal/schema"
)

// DefaultProgressInterval is how often, in rows, the copy logs progress.
const DefaultProgressInterval = 50000

// Load truncates table and copies every row of ds into it inside one
// transaction, returning the number of rows written. Values are stored as
// text and missing cells as NULL. File columns the table does not have are
// ignored; table columns the file does not have are left NULL.
//
// The dataset is expected to have passed ingest.Validate.
func Load(ctx context.Context, d db.DB, ds *ingest.Dataset, table schema.RawTable) (int64, error) {
	start := time.Now()
	plan := planColumns(ds, table)

	for _, col := range plan.ignored {
		logging.Warn().
			Str("table", table.QualifiedName()).
			Str("column", col).
			Msg("Ignoring column not present in staging table")
	}
	for _, col := range plan.absent {
		logging.Debug().
			Str("table", table.QualifiedName()).
			Str("column", col).
			Msg("Column missing from source, loading NULL")
	}

	var copied int64
	err := db.InTx(ctx, d, func(tx pgx.Tx) error {
		ident := pgx.Identifier{schema.StagingSchema, table.Name}
		if _, err := tx.Exec(ctx, "TRUNCATE TABLE "+ident.Sanitize()); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table.QualifiedName(), err)
		}

		src := newRowSource(ds, plan, table.QualifiedName(), DefaultProgressInterval)
		n, err := tx.CopyFrom(ctx, ident, plan.columns, src)
		if err != nil {
			return fmt.Errorf("failed to copy into %s: %w", table.QualifiedName(), err)
		}
		copied = n
		src.done()
		return nil
	})
	if err != nil {
		return 0, err
	}

	logging.Info().
		Str("table", table.QualifiedName()).
		Int64("rows", copied).
		Dur("duration", time.Since(start)).
		Msg("Staging load complete")

	return copied, nil
}

// columnPlan maps dataset columns onto table columns.
type columnPlan struct {
	// columns are the target columns, source_row first.
	columns []string

	// sourceIndex[i] is the dataset column feeding columns[i+1], or -1.
	sourceIndex []int

	ignored []string
	absent  []string
}

func planColumns(ds *ingest.Dataset, table schema.RawTable) columnPlan {
	plan := columnPlan{
		columns:     append([]string{schema.SourceRowColumn}, table.Columns...),
		sourceIndex: make([]int, len(table.Columns)),
	}

	for i, col := range table.Columns {
		plan.sourceIndex[i] = ds.ColumnIndex(col)
		if plan.sourceIndex[i] < 0 {
			plan.absent = append(plan.absent, col)
		}
	}
	for _, col := range ds.Columns {
		if !table.HasColumn(col) {
			plan.ignored = append(plan.ignored, col)
		}
	}
	return plan
}

// rowValues builds the copy values for data row i.
func (p columnPlan) rowValues(ds *ingest.Dataset, i int) []any {
	values := make([]any, len(p.columns))
	values[0] = int64(i + 1)
	row := ds.Rows[i]
	for j, idx := range p.sourceIndex {
		if idx < 0 || ingest.IsMissing(row[idx]) {
			values[j+1] = nil
			continue
		}
		values[j+1] = row[idx]
	}
	return values
}

// rowSource implements pgx.CopyFromSource over a dataset and logs progress
// every interval rows.
type rowSource struct {
	ds       *ingest.Dataset
	plan     columnPlan
	table    string
	interval int64
	pos      int
}

func newRowSource(ds *ingest.Dataset, plan columnPlan, table string, interval int64) *rowSource {
	return &rowSource{ds: ds, plan: plan, table: table, interval: interval, pos: -1}
}

func (s *rowSource) Next() bool {
	s.pos++
	if s.pos >= s.ds.Len() {
		return false
	}
	if n := int64(s.pos); n > 0 && s.interval > 0 && n%s.interval == 0 {
		logging.Info().
			Str("table", s.table).
			Int64("rows", n).
			Int("total", s.ds.Len()).
			Float64("percent", float64(n)/float64(s.ds.Len())*100).
			Msg("Loading staging table")
	}
	return true
}

func (s *rowSource) Values() ([]any, error) {
	return s.plan.rowValues(s.ds, s.pos), nil
}

func (s *rowSource) Err() error {
	return nil
}

func (s *rowSource) done() {
	logging.Debug().
		Str("table", s.table).
		Int("rows", s.ds.Len()).
		Msg("Copy complete")
}
