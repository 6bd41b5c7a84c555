//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pgEdge/pgedge-wastetrack/internal/config"
	"github.com/pgEdge/pgedge-wastetrack/internal/ingest"
)

// newTestRunner returns a runner without a database. Operations that
// fail before staging never touch it.
func newTestRunner(t *testing.T, dir string) *Runner {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Data.Dir = dir
	return NewRunner(nil, cfg)
}

func TestLoadWasteMissingFile(t *testing.T) {
	r := newTestRunner(t, t.TempDir())

	_, err := r.LoadWaste(context.Background())
	if !errors.Is(err, ingest.ErrSourceNotFound) {
		t.Errorf("expected ErrSourceNotFound, got %v", err)
	}
}

func TestLoadWasteValidatorGate(t *testing.T) {
	dir := t.TempDir()
	content := "tanggal,volume_ton,jenis_sampah,sumber_sampah\n2024-01-01,12.5,Organik,Pasar\n"
	if err := os.WriteFile(filepath.Join(dir, "waste.csv"), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	r := newTestRunner(t, dir)
	res, err := r.LoadWaste(context.Background())
	if !errors.Is(err, ingest.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if res.Rows != 0 {
		t.Errorf("rows = %d, want 0", res.Rows)
	}
}

func TestLoadFleetEmptyFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "sipsn.csv"), nil, 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	r := newTestRunner(t, dir)
	if _, err := r.LoadFleet(context.Background()); !errors.Is(err, ingest.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestRunStopsBeforeRefreshOnLoadFailure(t *testing.T) {
	r := newTestRunner(t, t.TempDir())
	r.cfg.Pipeline.SkipInitialize = true

	sum, err := r.Run(context.Background())
	if !errors.Is(err, ingest.ErrSourceNotFound) {
		t.Fatalf("expected ErrSourceNotFound, got %v", err)
	}
	if len(sum.Warehouse.Results) != 0 {
		t.Error("warehouse refresh should not run after a failed load")
	}
	if sum.RunID != r.RunID() {
		t.Error("summary run ID does not match runner")
	}
}

func TestNewRunnerUniqueRunIDs(t *testing.T) {
	cfg := config.DefaultConfig()
	a := NewRunner(nil, cfg)
	b := NewRunner(nil, cfg)
	if a.RunID() == b.RunID() {
		t.Error("run IDs should differ")
	}
}
