//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package dashboard

import (
	"math"
	"testing"
)

func TestDailyCapacity(t *testing.T) {
	tests := []struct {
		name        string
		operational int32
		trips       float64
		volume      float64
		want        float64
	}{
		{"typical", 10, 2, 6, 10 * 2 * 6 * 0.33},
		{"no trucks", 0, 2, 6, MinCapacity},
		{"no trips", 10, 0, 6, MinCapacity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyCapacity(tt.operational, tt.trips, tt.volume)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("DailyCapacity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoadStatus(t *testing.T) {
	tests := []struct {
		ratio float64
		want  string
	}{
		{0, StatusSafe},
		{90, StatusSafe},
		{90.01, StatusWarning},
		{110, StatusWarning},
		{110.5, StatusCritical},
		{5000, StatusCritical},
	}

	for _, tt := range tests {
		if got := LoadStatus(tt.ratio); got != tt.want {
			t.Errorf("LoadStatus(%v) = %s, want %s", tt.ratio, got, tt.want)
		}
	}
}

func TestFleetLoadAnalyze(t *testing.T) {
	op := int32(5)
	trips := 2.0
	m3 := 10.0

	fl := FleetLoad{
		Location:          "MENTENG",
		ArmadaOperasional: &op,
		RitaseHarian:      &trips,
		KapasitasM3:       &m3,
		AvgDailyVolume:    33,
	}
	fl.analyze()

	// 5 * 2 * 10 * 0.33 = 33 tonnes capacity, so the ratio is 100%.
	if fl.CapacityTon == nil || math.Abs(*fl.CapacityTon-33) > 1e-9 {
		t.Fatalf("CapacityTon = %v, want 33", fl.CapacityTon)
	}
	if fl.LoadRatio == nil || math.Abs(*fl.LoadRatio-100) > 1e-9 {
		t.Fatalf("LoadRatio = %v, want 100", fl.LoadRatio)
	}
	if fl.Status != StatusWarning {
		t.Errorf("Status = %s, want %s", fl.Status, StatusWarning)
	}
}

func TestFleetLoadAnalyzeIncompleteProfile(t *testing.T) {
	trips := 2.0
	fl := FleetLoad{Location: "GAMBIR", RitaseHarian: &trips, AvgDailyVolume: 10}
	fl.analyze()

	if fl.Status != StatusUnknown {
		t.Errorf("Status = %s, want %s", fl.Status, StatusUnknown)
	}
	if fl.CapacityTon != nil || fl.LoadRatio != nil {
		t.Error("capacity and ratio should stay nil")
	}
}

func TestNormalizeAll(t *testing.T) {
	got := normalizeAll([]string{" menteng ", "Kebayoran  Baru", "!!"})
	want := []string{"MENTENG", "KEBAYORAN BARU"}
	if len(got) != len(want) {
		t.Fatalf("normalizeAll = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("normalizeAll[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if empty := normalizeAll(nil); empty == nil {
		t.Error("normalizeAll(nil) should return an empty, non-nil slice")
	}
}

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name       string
		locations  []string
		restricted bool
		keys       []string
		nothing    bool
	}{
		{"no filter", nil, false, []string{}, false},
		{"usable names", []string{"menteng", "!!"}, true, []string{"MENTENG"}, false},
		{"only unusable names", []string{"!!!", " . "}, true, []string{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Filter{Locations: tt.locations}
			args := f.args()
			if len(args) != 4 {
				t.Fatalf("args has %d entries, want 4", len(args))
			}
			if args[2] != tt.restricted {
				t.Errorf("restricted = %v, want %v", args[2], tt.restricted)
			}
			keys := args[3].([]string)
			if len(keys) != len(tt.keys) {
				t.Fatalf("keys = %v, want %v", keys, tt.keys)
			}
			for i := range keys {
				if keys[i] != tt.keys[i] {
					t.Errorf("keys[%d] = %q, want %q", i, keys[i], tt.keys[i])
				}
			}
			if got := f.MatchesNothing(); got != tt.nothing {
				t.Errorf("MatchesNothing() = %v, want %v", got, tt.nothing)
			}
		})
	}
}
