//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package schema

import (
	"strings"
	"testing"
)

func indexOf(stmts []string, prefix string) int {
	for i, s := range stmts {
		if strings.HasPrefix(strings.TrimSpace(s), prefix) {
			return i
		}
	}
	return -1
}

func TestStatementsOrder(t *testing.T) {
	stmts := Statements(Options{})

	order := []string{
		"CREATE SCHEMA IF NOT EXISTS staging",
		"CREATE SCHEMA IF NOT EXISTS warehouse",
		"CREATE OR REPLACE FUNCTION staging.normalize_location",
		"DROP TABLE IF EXISTS warehouse.fact_waste",
		"DROP TABLE IF EXISTS warehouse.dim_time",
		"CREATE TABLE IF NOT EXISTS warehouse.dim_time",
		"CREATE TABLE IF NOT EXISTS warehouse.fact_waste",
		"DROP TABLE IF EXISTS staging.raw_waste",
		"CREATE TABLE staging.raw_waste",
		"CREATE TABLE staging.raw_sipsn",
		"CREATE OR REPLACE VIEW staging.view_waste_clean",
		"CREATE OR REPLACE VIEW staging.view_sipsn_clean",
		"CREATE TABLE IF NOT EXISTS staging.etl_metadata",
	}

	last := -1
	for _, prefix := range order {
		idx := indexOf(stmts, prefix)
		if idx < 0 {
			t.Fatalf("statement %q not found", prefix)
		}
		if idx <= last {
			t.Errorf("statement %q at %d, expected after %d", prefix, idx, last)
		}
		last = idx
	}
}

func TestStatementsDropFactBeforeDimensions(t *testing.T) {
	stmts := Statements(Options{})
	fact := indexOf(stmts, "DROP TABLE IF EXISTS warehouse.fact_waste")
	for _, dim := range []string{"dim_time", "dim_location", "dim_fleet"} {
		idx := indexOf(stmts, "DROP TABLE IF EXISTS warehouse."+dim)
		if idx < 0 {
			t.Fatalf("no drop for %s", dim)
		}
		if idx < fact {
			t.Errorf("%s dropped before fact_waste", dim)
		}
	}
}

func TestStatementsPreserveWarehouse(t *testing.T) {
	stmts := Statements(Options{PreserveWarehouse: true})

	if idx := indexOf(stmts, "DROP TABLE IF EXISTS warehouse."); idx >= 0 {
		t.Errorf("preserve mode drops warehouse table: %s", stmts[idx])
	}
	if indexOf(stmts, "CREATE TABLE IF NOT EXISTS warehouse.fact_waste") < 0 {
		t.Error("preserve mode does not create fact_waste")
	}
	// Staging tables are always rebuilt.
	if indexOf(stmts, "DROP TABLE IF EXISTS staging.raw_waste") < 0 {
		t.Error("preserve mode does not rebuild raw_waste")
	}
}

func TestRawTableCreateSQL(t *testing.T) {
	got := RawWaste.CreateSQL()

	if !strings.HasPrefix(got, "CREATE TABLE staging.raw_waste (") {
		t.Errorf("unexpected prefix: %s", got)
	}
	if !strings.Contains(got, "source_row BIGINT") {
		t.Error("missing source_row column")
	}
	for _, col := range RawWaste.Columns {
		if !strings.Contains(got, col+" TEXT") {
			t.Errorf("column %s not declared as TEXT", col)
		}
	}
}

func TestRawTableHasColumn(t *testing.T) {
	if !RawFleet.HasColumn("kapasitas_m3") {
		t.Error("raw_sipsn should have kapasitas_m3")
	}
	if RawFleet.HasColumn("tanggal") {
		t.Error("raw_sipsn should not have tanggal")
	}
}

func TestLookupRawTable(t *testing.T) {
	tbl, ok := LookupRawTable("raw_sipsn")
	if !ok || tbl.QualifiedName() != "staging.raw_sipsn" {
		t.Errorf("LookupRawTable(raw_sipsn) = %v, %v", tbl, ok)
	}
	if _, ok := LookupRawTable("raw_unknown"); ok {
		t.Error("LookupRawTable should fail for unknown table")
	}
}

func TestSummarize(t *testing.T) {
	stmt := "\nCREATE TABLE IF NOT EXISTS warehouse.dim_time (\n    id SERIAL\n)"
	if got := summarize(stmt); got != "CREATE TABLE IF NOT EXISTS warehouse.dim_time" {
		t.Errorf("summarize = %q", got)
	}
}
