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
	"fmt"
	"strings"

	"github.com/pgEdge/pgedge-wastetrack/internal/cleaning"
)

// Schema names.
const (
	StagingSchema   = "staging"
	WarehouseSchema = "warehouse"
)

// SourceRowColumn holds the 1-based data row ordinal from the source file.
const SourceRowColumn = "source_row"

// RawTable describes a staging table that receives one CSV file verbatim.
// Every source column is TEXT; no type coercion happens at load time.
type RawTable struct {
	// Name is the unqualified table name in the staging schema.
	Name string

	// Columns are the source columns in file order.
	Columns []string
}

// Raw tables.
var (
	RawWaste = RawTable{
		Name: "raw_waste",
		Columns: []string{
			"tanggal",
			"kecamatan",
			"volume_ton",
			"jenis_sampah",
			"sumber_sampah",
		},
	}

	RawFleet = RawTable{
		Name: "raw_sipsn",
		Columns: []string{
			"kecamatan",
			"armada_total",
			"armada_operasional",
			"ritase_harian",
			"kapasitas_m3",
			"penduduk",
			"luas_km2",
		},
	}
)

// RawTables lists the staging tables in creation order.
var RawTables = []RawTable{RawWaste, RawFleet}

// LookupRawTable returns the raw table with the given unqualified name.
func LookupRawTable(name string) (RawTable, bool) {
	for _, t := range RawTables {
		if t.Name == name {
			return t, true
		}
	}
	return RawTable{}, false
}

// QualifiedName returns schema.table.
func (t RawTable) QualifiedName() string {
	return StagingSchema + "." + t.Name
}

// HasColumn reports whether the table has a source column named col.
func (t RawTable) HasColumn(col string) bool {
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// CreateSQL returns the CREATE TABLE statement.
func (t RawTable) CreateSQL() string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n    %s BIGINT", t.QualifiedName(), SourceRowColumn)
	for _, c := range t.Columns {
		fmt.Fprintf(&b, ",\n    %s TEXT", c)
	}
	b.WriteString("\n)")
	return b.String()
}

// DropSQL returns the DROP TABLE statement. Dependent views go with it.
func (t RawTable) DropSQL() string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", t.QualifiedName())
}

// Warehouse table names.
const (
	DimTime     = "warehouse.dim_time"
	DimLocation = "warehouse.dim_location"
	DimFleet    = "warehouse.dim_fleet"
	FactWaste   = "warehouse.fact_waste"
)

// createWarehouseSQL creates the star schema. Dimensions come first so the
// fact table's foreign keys resolve.
var createWarehouseSQL = []string{
	`CREATE TABLE IF NOT EXISTS warehouse.dim_time (
    id    SERIAL PRIMARY KEY,
    date  DATE NOT NULL UNIQUE,
    year  INTEGER NOT NULL,
    month INTEGER NOT NULL,
    day   INTEGER NOT NULL
)`,
	`CREATE TABLE IF NOT EXISTS warehouse.dim_location (
    id                SERIAL PRIMARY KEY,
    kecamatan         TEXT NOT NULL UNIQUE,
    kota_administrasi TEXT,
    penduduk          INTEGER,
    luas_km2          DECIMAL(10,2)
)`,
	`CREATE TABLE IF NOT EXISTS warehouse.dim_fleet (
    id                 SERIAL PRIMARY KEY,
    kecamatan          TEXT NOT NULL UNIQUE,
    armada_total       INTEGER,
    armada_operasional INTEGER,
    ritase_harian      DECIMAL(5,1),
    kapasitas_m3       DECIMAL(10,1)
)`,
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS warehouse.fact_waste (
    id          BIGSERIAL PRIMARY KEY,
    time_id     INTEGER NOT NULL REFERENCES warehouse.dim_time(id),
    location_id INTEGER NOT NULL REFERENCES warehouse.dim_location(id),
    fleet_id    INTEGER REFERENCES warehouse.dim_fleet(id),
    volume      DECIMAL(%d,%d) NOT NULL,
    category    TEXT,
    source      TEXT
)`, cleaning.VolumePrecision, cleaning.VolumeScale),
	`CREATE INDEX IF NOT EXISTS idx_fact_waste_time ON warehouse.fact_waste(time_id)`,
	`CREATE INDEX IF NOT EXISTS idx_fact_waste_location ON warehouse.fact_waste(location_id)`,
	`CREATE INDEX IF NOT EXISTS idx_dim_time_year_month ON warehouse.dim_time(year, month)`,
}

// dropWarehouseSQL drops the fact table before the dimensions it
// references.
var dropWarehouseSQL = []string{
	`DROP TABLE IF EXISTS warehouse.fact_waste CASCADE`,
	`DROP TABLE IF EXISTS warehouse.dim_fleet CASCADE`,
	`DROP TABLE IF EXISTS warehouse.dim_location CASCADE`,
	`DROP TABLE IF EXISTS warehouse.dim_time CASCADE`,
}

// CountedTables are the tables reported by the status command.
var CountedTables = []string{
	RawWaste.QualifiedName(),
	RawFleet.QualifiedName(),
	DimTime,
	DimLocation,
	DimFleet,
	FactWaste,
}
