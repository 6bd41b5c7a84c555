//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package sample

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/pgEdge/pgedge-wastetrack/internal/ingest"
)

func testConfig(dirty float64) Config {
	return Config{
		StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Days:      7,
		Districts: 5,
		DirtyRate: dirty,
		Seed:      20240101,
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a := NewGenerator(testConfig(0.2)).Generate()
	b := NewGenerator(testConfig(0.2)).Generate()

	if !reflect.DeepEqual(a, b) {
		t.Error("same seed produced different datasets")
	}
}

func TestGenerateShape(t *testing.T) {
	cfg := testConfig(0)
	ds := NewGenerator(cfg).Generate()

	if len(ds.Fleet) != cfg.Districts {
		t.Errorf("fleet rows = %d, want %d", len(ds.Fleet), cfg.Districts)
	}
	min, max := cfg.Days*cfg.Districts, 2*cfg.Days*cfg.Districts
	if len(ds.Waste) < min || len(ds.Waste) > max {
		t.Errorf("waste rows = %d, want between %d and %d", len(ds.Waste), min, max)
	}
	if ds.Dirty != 0 {
		t.Errorf("Dirty = %d with zero dirty rate", ds.Dirty)
	}

	last := cfg.StartDate.AddDate(0, 0, cfg.Days-1).Format(time.DateOnly)
	if ds.Waste[len(ds.Waste)-1].Tanggal != last {
		t.Errorf("last date = %s, want %s", ds.Waste[len(ds.Waste)-1].Tanggal, last)
	}
}

func TestGenerateDistrictsCapped(t *testing.T) {
	cfg := testConfig(0)
	cfg.Days = 1
	cfg.Districts = len(Districts) + 10

	ds := NewGenerator(cfg).Generate()
	if len(ds.Fleet) != len(Districts) {
		t.Errorf("fleet rows = %d, want %d", len(ds.Fleet), len(Districts))
	}
}

func TestGenerateDirtyKeepsCriticalColumns(t *testing.T) {
	ds := NewGenerator(testConfig(1)).Generate()

	if ds.Dirty != len(ds.Waste)+len(ds.Fleet) {
		t.Errorf("Dirty = %d, want every row", ds.Dirty)
	}
	for i, rec := range ds.Waste {
		if rec.Tanggal == "" || rec.Kecamatan == "" {
			t.Errorf("waste row %d has an empty critical column: %+v", i, rec)
		}
	}
	for i, rec := range ds.Fleet {
		if rec.Kecamatan == "" {
			t.Errorf("fleet row %d has an empty kecamatan", i)
		}
	}
}

func TestWriteFilesPassValidation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	ds := NewGenerator(testConfig(0.3)).Generate()

	paths, err := WriteFiles(dir, ds)
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("WriteFiles returned %d paths, want 2", len(paths))
	}

	tests := []struct {
		file    string
		dataset string
		rows    int
	}{
		{WasteFile, ingest.WasteDataset, len(ds.Waste)},
		{FleetFile, ingest.FleetDataset, len(ds.Fleet)},
	}

	for _, tt := range tests {
		t.Run(tt.dataset, func(t *testing.T) {
			parsed, err := ingest.ReadCSV(filepath.Join(dir, tt.file))
			if err != nil {
				t.Fatalf("ReadCSV failed: %v", err)
			}
			if parsed.Len() != tt.rows {
				t.Errorf("rows = %d, want %d", parsed.Len(), tt.rows)
			}
			if res := ingest.Validate(parsed, tt.dataset); !res.Valid {
				t.Errorf("generated file failed validation: %s", res.Reason)
			}
		})
	}
}

func TestWriteFilesRoundTrip(t *testing.T) {
	dir := t.TempDir()
	ds := NewGenerator(testConfig(0.3)).Generate()

	if _, err := WriteFiles(dir, ds); err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, FleetFile))
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}

	var fleet []FleetRecord
	if err := csvutil.Unmarshal(data, &fleet); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(fleet, ds.Fleet) {
		t.Error("decoded fleet records differ from generated ones")
	}
}
