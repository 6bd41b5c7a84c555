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
	"fmt"
	"sort"
	"sync"

	"github.com/pgEdge/pgedge-wastetrack/internal/schema"
)

// Dataset names.
const (
	WasteDataset = "waste"
	FleetDataset = "sipsn"
)

// DatasetSpec describes the validation rules for one source file and the
// staging table it lands in.
type DatasetSpec struct {
	// Name identifies the dataset.
	Name string

	// Description is a human-readable label used in log output.
	Description string

	// Table is the staging table that receives the file.
	Table schema.RawTable

	// Required columns must all be present.
	Required []string

	// Critical columns must not contain missing values.
	Critical []string

	// Numeric columns are checked for non-numeric values (warning only).
	Numeric []string
}

var (
	registry = make(map[string]DatasetSpec)
	mu       sync.RWMutex
)

func init() {
	Register(DatasetSpec{
		Name:        WasteDataset,
		Description: "Waste Data",
		Table:       schema.RawWaste,
		Required:    []string{"tanggal", "kecamatan", "volume_ton", "jenis_sampah", "sumber_sampah"},
		Critical:    []string{"kecamatan", "tanggal"},
		Numeric:     []string{"volume_ton"},
	})
	Register(DatasetSpec{
		Name:        FleetDataset,
		Description: "SIPSN Data",
		Table:       schema.RawFleet,
		Required:    []string{"kecamatan", "armada_total", "penduduk", "luas_km2"},
		Critical:    []string{"kecamatan"},
		Numeric:     []string{"armada_total", "penduduk", "luas_km2"},
	})
}

// Register adds a dataset spec to the registry.
func Register(spec DatasetSpec) {
	mu.Lock()
	defer mu.Unlock()
	registry[spec.Name] = spec
}

// Get retrieves a dataset spec by name.
func Get(name string) (DatasetSpec, error) {
	mu.RLock()
	defer mu.RUnlock()

	spec, ok := registry[name]
	if !ok {
		return DatasetSpec{}, fmt.Errorf("unknown dataset: %s", name)
	}
	return spec, nil
}

// List returns all registered dataset names, sorted.
func List() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
