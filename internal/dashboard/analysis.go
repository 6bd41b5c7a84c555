//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package dashboard

// WasteDensity converts truck volume (m3) to mass (tonnes).
const WasteDensity = 0.33

// MinCapacity replaces a zero capacity so the load ratio stays finite.
const MinCapacity = 0.1

// Load thresholds, in percent of daily capacity.
const (
	CriticalThreshold = 110.0
	WarningThreshold  = 90.0
)

// Fleet load statuses.
const (
	StatusCritical = "CRITICAL"
	StatusWarning  = "WARNING"
	StatusSafe     = "SAFE"
	StatusUnknown  = "UNKNOWN"
)

// DailyCapacity returns the tonnes a location's fleet can haul per day:
// operational trucks x trips per truck x truck volume x density. A zero
// result is replaced by MinCapacity.
func DailyCapacity(operational int32, trips, volumeM3 float64) float64 {
	c := float64(operational) * trips * volumeM3 * WasteDensity
	if c == 0 {
		return MinCapacity
	}
	return c
}

// LoadRatio returns the average daily waste as a percentage of capacity.
func LoadRatio(avgDailyTon, capacityTon float64) float64 {
	return avgDailyTon / capacityTon * 100
}

// LoadStatus classifies a load ratio.
func LoadStatus(ratio float64) string {
	switch {
	case ratio > CriticalThreshold:
		return StatusCritical
	case ratio > WarningThreshold:
		return StatusWarning
	default:
		return StatusSafe
	}
}

// analyze fills the derived capacity fields. Without a complete fleet
// profile the status is UNKNOWN.
func (f *FleetLoad) analyze() {
	if f.ArmadaOperasional == nil || f.RitaseHarian == nil || f.KapasitasM3 == nil {
		f.Status = StatusUnknown
		return
	}
	capacity := DailyCapacity(*f.ArmadaOperasional, *f.RitaseHarian, *f.KapasitasM3)
	ratio := LoadRatio(f.AvgDailyVolume, capacity)
	f.CapacityTon = &capacity
	f.LoadRatio = &ratio
	f.Status = LoadStatus(ratio)
}
