//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

//go:build integration
// +build integration

// Integration tests for the warehouse loader.
// Run with: go test -tags=integration ./internal/warehouse/...
// Requires PostgreSQL 13 or later with a UTF8 database encoding.
// Set WASTETRACK_TEST_CONN to override the connection string.

package warehouse_test

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-wastetrack/internal/ingest"
	"github.com/pgEdge/pgedge-wastetrack/internal/testutil"
	"github.com/pgEdge/pgedge-wastetrack/internal/warehouse"
)

const (
	wasteHeader = "tanggal,kecamatan,volume_ton,jenis_sampah,sumber_sampah\n"
	fleetHeader = "kecamatan,armada_total,armada_operasional,ritase_harian,kapasitas_m3,penduduk,luas_km2\n"
)

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func count(t *testing.T, pool *pgxpool.Pool, query string, args ...any) int64 {
	t.Helper()
	var n int64
	if err := pool.QueryRow(testContext(t), query, args...).Scan(&n); err != nil {
		t.Fatalf("Query %q failed: %v", query, err)
	}
	return n
}

func refresh(t *testing.T, pool *pgxpool.Pool) warehouse.Report {
	t.Helper()
	report, err := warehouse.NewLoader(pool).Refresh(testContext(t))
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	return report
}

func TestRoundTrip(t *testing.T) {
	pool, _ := testutil.NewInitializedDB(t, "roundtrip")

	testutil.StageCSV(t, pool, ingest.WasteDataset,
		wasteHeader+"2024-01-01,Menteng,12.5,Organik,Rumah Tangga\n")
	refresh(t, pool)

	if n := count(t, pool, "SELECT COUNT(*) FROM warehouse.dim_time"); n != 1 {
		t.Errorf("dim_time rows = %d, want 1", n)
	}

	var kecamatan string
	if err := pool.QueryRow(testContext(t),
		"SELECT kecamatan FROM warehouse.dim_location").Scan(&kecamatan); err != nil {
		t.Fatalf("Failed to read dim_location: %v", err)
	}
	if kecamatan != "MENTENG" {
		t.Errorf("kecamatan = %q, want MENTENG", kecamatan)
	}

	var volume string
	var category, source string
	if err := pool.QueryRow(testContext(t),
		"SELECT volume::text, category, source FROM warehouse.fact_waste").Scan(
		&volume, &category, &source); err != nil {
		t.Fatalf("Failed to read fact_waste: %v", err)
	}
	if volume != "12.50" {
		t.Errorf("volume = %s, want 12.50", volume)
	}
	if category != "Organik" || source != "Rumah Tangga" {
		t.Errorf("category/source = %q/%q", category, source)
	}
}

func TestFactRefreshIsIdempotent(t *testing.T) {
	pool, _ := testutil.NewInitializedDB(t, "idempotent")

	testutil.StageCSV(t, pool, ingest.WasteDataset, wasteHeader+
		"2024-01-01,Menteng,12.5,Organik,Rumah Tangga\n"+
		"2024-01-02,Menteng,8,Anorganik,Pasar\n"+
		"2024-01-02,Gambir,3.25,Organik,Kantor\n")

	refresh(t, pool)
	first := count(t, pool, "SELECT COUNT(*) FROM warehouse.fact_waste")

	refresh(t, pool)
	second := count(t, pool, "SELECT COUNT(*) FROM warehouse.fact_waste")

	if first != 3 || second != 3 {
		t.Errorf("fact rows = %d then %d, want 3 both times", first, second)
	}
	if n := count(t, pool, "SELECT COUNT(*) FROM warehouse.dim_time"); n != 2 {
		t.Errorf("dim_time rows = %d, want 2", n)
	}
	if n := count(t, pool, "SELECT MIN(id) FROM warehouse.fact_waste"); n != 1 {
		t.Errorf("fact ids should restart at 1, got %d", n)
	}
}

func TestFleetOverwriteOnConflict(t *testing.T) {
	pool, _ := testutil.NewInitializedDB(t, "fleet_overwrite")
	loader := warehouse.NewLoader(pool)

	testutil.StageCSV(t, pool, ingest.FleetDataset, fleetHeader+"Menteng,10,8,2.5,6,68000,6.53\n")
	res, err := loader.LoadFleetDimension(testContext(t))
	if err != nil {
		t.Fatalf("LoadFleetDimension failed: %v", err)
	}
	if res.Inserted != 1 || res.Updated != 0 {
		t.Errorf("first load inserted/updated = %d/%d, want 1/0", res.Inserted, res.Updated)
	}

	testutil.StageCSV(t, pool, ingest.FleetDataset, fleetHeader+"Menteng,12,9,3,7,68000,6.53\n")
	res, err = loader.LoadFleetDimension(testContext(t))
	if err != nil {
		t.Fatalf("LoadFleetDimension failed: %v", err)
	}
	if res.Inserted != 0 || res.Updated != 1 {
		t.Errorf("second load inserted/updated = %d/%d, want 0/1", res.Inserted, res.Updated)
	}

	if n := count(t, pool, "SELECT COUNT(*) FROM warehouse.dim_fleet"); n != 1 {
		t.Errorf("dim_fleet rows = %d, want 1", n)
	}
	if n := count(t, pool, "SELECT armada_total FROM warehouse.dim_fleet WHERE kecamatan = 'MENTENG'"); n != 12 {
		t.Errorf("armada_total = %d, want 12", n)
	}
}

func TestFleetLastRowWins(t *testing.T) {
	pool, _ := testutil.NewInitializedDB(t, "fleet_last_row")

	testutil.StageCSV(t, pool, ingest.FleetDataset, fleetHeader+
		"Menteng,10,8,2.5,6,68000,6.53\n"+
		"menteng ,14,9,2.5,6,69000,6.53\n")
	if _, err := warehouse.NewLoader(pool).LoadFleetDimension(testContext(t)); err != nil {
		t.Fatalf("LoadFleetDimension failed: %v", err)
	}

	if n := count(t, pool, "SELECT armada_total FROM warehouse.dim_fleet WHERE kecamatan = 'MENTENG'"); n != 14 {
		t.Errorf("armada_total = %d, want 14", n)
	}
}

func TestInvalidVolumesExcluded(t *testing.T) {
	pool, _ := testutil.NewInitializedDB(t, "bad_volume")

	testutil.StageCSV(t, pool, ingest.WasteDataset, wasteHeader+
		"2024-01-01,Menteng,12.5,Organik,Rumah Tangga\n"+
		"2024-01-01,Menteng,,Organik,Rumah Tangga\n"+
		"2024-01-01,Menteng,abc,Organik,Rumah Tangga\n"+
		"2023-02-30,Menteng,4,Organik,Rumah Tangga\n"+
		"2024-01-03,!!!,4,Organik,Rumah Tangga\n")
	report := refresh(t, pool)

	if n := count(t, pool, "SELECT COUNT(*) FROM warehouse.fact_waste"); n != 1 {
		t.Errorf("fact rows = %d, want 1", n)
	}

	fact, ok := report.Result(warehouse.OpFactWaste)
	if !ok {
		t.Fatal("no fact_waste result")
	}
	if fact.Dropped[warehouse.DropInvalidVolume] != 2 {
		t.Errorf("invalid_volume = %d, want 2", fact.Dropped[warehouse.DropInvalidVolume])
	}
	if fact.Dropped[warehouse.DropInvalidDate] != 1 {
		t.Errorf("invalid_date = %d, want 1", fact.Dropped[warehouse.DropInvalidDate])
	}
	if fact.Dropped[warehouse.DropInvalidLocation] != 1 {
		t.Errorf("invalid_location = %d, want 1", fact.Dropped[warehouse.DropInvalidLocation])
	}
}

func TestDateWithTimePartAccepted(t *testing.T) {
	pool, _ := testutil.NewInitializedDB(t, "date_time")

	testutil.StageCSV(t, pool, ingest.WasteDataset, wasteHeader+
		"2024-01-05 00:00:00,Menteng,12.5,Organik,Rumah Tangga\n"+
		"2024-01-05T08:30:00,Menteng,2,Organik,Pasar\n"+
		"2024-01-05x,Menteng,3,Organik,Pasar\n")
	report := refresh(t, pool)

	if n := count(t, pool, "SELECT COUNT(*) FROM warehouse.fact_waste"); n != 2 {
		t.Errorf("fact rows = %d, want 2", n)
	}
	if n := count(t, pool,
		"SELECT COUNT(*) FROM warehouse.dim_time WHERE date = '2024-01-05'"); n != 1 {
		t.Errorf("dim_time rows for 2024-01-05 = %d, want 1", n)
	}

	fact, _ := report.Result(warehouse.OpFactWaste)
	if fact.Dropped[warehouse.DropInvalidDate] != 1 {
		t.Errorf("invalid_date = %d, want 1", fact.Dropped[warehouse.DropInvalidDate])
	}
}

func TestOrphanLocationHasNullProfile(t *testing.T) {
	pool, _ := testutil.NewInitializedDB(t, "orphan")

	testutil.StageCSV(t, pool, ingest.WasteDataset, wasteHeader+
		"2024-01-01,Menteng,12.5,Organik,Rumah Tangga\n"+
		"2024-01-01,Gambang,3,Organik,Pasar\n")
	testutil.StageCSV(t, pool, ingest.FleetDataset, fleetHeader+
		"Menteng,10,8,2.5,6,68000,6.53\n"+
		"Cilincing,20,18,3,8,150000,39.7\n")
	report := refresh(t, pool)

	if n := count(t, pool,
		"SELECT COUNT(*) FROM warehouse.dim_location WHERE kecamatan = 'GAMBANG' AND penduduk IS NULL AND luas_km2 IS NULL"); n != 1 {
		t.Error("GAMBANG should exist with NULL penduduk and luas_km2")
	}
	if n := count(t, pool,
		"SELECT penduduk FROM warehouse.dim_location WHERE kecamatan = 'MENTENG'"); n != 68000 {
		t.Errorf("MENTENG penduduk = %d, want 68000", n)
	}

	// Fleet-only locations are counted, never created.
	if n := count(t, pool,
		"SELECT COUNT(*) FROM warehouse.dim_location WHERE kecamatan = 'CILINCING'"); n != 0 {
		t.Error("CILINCING should not be in dim_location")
	}
	loc, _ := report.Result(warehouse.OpLocationDimension)
	if loc.Dropped[warehouse.DropFleetOnlyLocation] != 1 {
		t.Errorf("fleet_only_location = %d, want 1", loc.Dropped[warehouse.DropFleetOnlyLocation])
	}

	// Facts carry the fleet reference when one exists.
	if n := count(t, pool, `
        SELECT COUNT(*) FROM warehouse.fact_waste f
        JOIN warehouse.dim_location l ON l.id = f.location_id
        WHERE l.kecamatan = 'GAMBANG' AND f.fleet_id IS NULL`); n != 1 {
		t.Error("GAMBANG fact should have NULL fleet_id")
	}
	if n := count(t, pool, `
        SELECT COUNT(*) FROM warehouse.fact_waste f
        JOIN warehouse.dim_location l ON l.id = f.location_id
        WHERE l.kecamatan = 'MENTENG' AND f.fleet_id IS NOT NULL`); n != 1 {
		t.Error("MENTENG fact should reference dim_fleet")
	}
}

func TestLocationKeysNormalized(t *testing.T) {
	pool, _ := testutil.NewInitializedDB(t, "normalized")

	testutil.StageCSV(t, pool, ingest.WasteDataset, wasteHeader+
		"2024-01-01,Kebayoran  Baru,1,Organik,Pasar\n"+
		"2024-01-01,kebayoran baru.,2,Organik,Pasar\n"+
		"2024-01-01,\"KEBAYORAN\tBARU\",3,Organik,Pasar\n")
	refresh(t, pool)

	if n := count(t, pool, "SELECT COUNT(*) FROM warehouse.dim_location"); n != 1 {
		t.Errorf("dim_location rows = %d, want 1", n)
	}
	if n := count(t, pool,
		"SELECT COUNT(*) FROM warehouse.dim_location WHERE kecamatan = staging.normalize_location(kecamatan)"); n != 1 {
		t.Error("stored key is not a fixed point of normalize_location")
	}
}

func TestMissingFleetLocationCounted(t *testing.T) {
	pool, _ := testutil.NewInitializedDB(t, "fleet_missing_key")

	testutil.StageCSV(t, pool, ingest.FleetDataset, fleetHeader+
		"Menteng,10,8,2.5,6,68000,6.53\n"+
		"???,10,8,2.5,6,68000,6.53\n")
	res, err := warehouse.NewLoader(pool).LoadFleetDimension(testContext(t))
	if err != nil {
		t.Fatalf("LoadFleetDimension failed: %v", err)
	}
	if res.Dropped[warehouse.DropMissingLocation] != 1 {
		t.Errorf("missing_location = %d, want 1", res.Dropped[warehouse.DropMissingLocation])
	}
}
