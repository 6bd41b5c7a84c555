//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package cleaning defines the transform layer between the raw staging
// tables and the warehouse: SQL helper functions, the two cleaning views,
// and Go mirrors of the normalization rules.
//
// The views are evaluated on every read, so a staging reload is visible to
// the warehouse loader without a refresh step. Cast helpers never raise;
// a value that cannot be converted becomes NULL.
package cleaning

import "fmt"

// View names.
const (
	WasteView = "staging.view_waste_clean"
	FleetView = "staging.view_sipsn_clean"
)

// Volume precision used by the waste view and fact table.
const (
	VolumePrecision = 10
	VolumeScale     = 2
)

// FunctionsSQL installs the helper functions used by the views. The
// statements are idempotent (CREATE OR REPLACE).
var FunctionsSQL = []string{
	// NFKC, any whitespace to a plain space, uppercase, keep A-Z 0-9 and
	// space, collapse runs of spaces, trim. Empty results become NULL.
	`CREATE OR REPLACE FUNCTION staging.normalize_location(v TEXT)
RETURNS TEXT
LANGUAGE sql IMMUTABLE PARALLEL SAFE
AS $$
    SELECT NULLIF(
        btrim(regexp_replace(
            regexp_replace(
                upper(regexp_replace(normalize(v, NFKC), '\s', ' ', 'g')),
                '[^A-Z0-9 ]', '', 'g'),
            ' +', ' ', 'g')),
        '')
$$`,

	// YYYY-MM-DD; a trailing time part after a space or T is ignored.
	`CREATE OR REPLACE FUNCTION staging.try_date(v TEXT)
RETURNS DATE
LANGUAGE plpgsql IMMUTABLE PARALLEL SAFE
AS $$
DECLARE
    d TEXT;
BEGIN
    IF v IS NULL OR btrim(v) !~ '^\d{4}-\d{1,2}-\d{1,2}([T ].*)?$' THEN
        RETURN NULL;
    END IF;
    d := substring(btrim(v) from '^\d{4}-\d{1,2}-\d{1,2}');
    RETURN make_date(
        split_part(d, '-', 1)::int,
        split_part(d, '-', 2)::int,
        split_part(d, '-', 3)::int);
EXCEPTION WHEN others THEN
    RETURN NULL;
END
$$`,

	`CREATE OR REPLACE FUNCTION staging.try_integer(v TEXT)
RETURNS INTEGER
LANGUAGE plpgsql IMMUTABLE PARALLEL SAFE
AS $$
BEGIN
    RETURN NULLIF(btrim(v), '')::integer;
EXCEPTION WHEN others THEN
    RETURN NULL;
END
$$`,

	// Rounds to scale and rejects NaN, infinities and values that would
	// overflow DECIMAL(prec, scale).
	`CREATE OR REPLACE FUNCTION staging.try_decimal(v TEXT, prec INT, scale INT)
RETURNS NUMERIC
LANGUAGE plpgsql IMMUTABLE PARALLEL SAFE
AS $$
DECLARE
    n NUMERIC;
BEGIN
    n := NULLIF(btrim(v), '')::numeric;
    IF n IS NULL OR n = 'NaN'::numeric THEN
        RETURN NULL;
    END IF;
    n := round(n, scale);
    IF abs(n) >= power(10::numeric, prec - scale) THEN
        RETURN NULL;
    END IF;
    RETURN n;
EXCEPTION WHEN others THEN
    RETURN NULL;
END
$$`,
}

// ViewsSQL defines the cleaning views. Raw tables must exist first.
var ViewsSQL = []string{
	fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS
SELECT
    source_row,
    tanggal,
    kecamatan,
    volume_ton,
    jenis_sampah,
    sumber_sampah
FROM (
    SELECT
        source_row,
        staging.try_date(tanggal)                  AS tanggal,
        staging.normalize_location(kecamatan)      AS kecamatan,
        staging.try_decimal(volume_ton, %[2]d, %[3]d)::DECIMAL(%[2]d,%[3]d) AS volume_ton,
        jenis_sampah,
        sumber_sampah
    FROM staging.raw_waste
) w
WHERE tanggal IS NOT NULL
  AND kecamatan IS NOT NULL
  AND volume_ton IS NOT NULL`, WasteView, VolumePrecision, VolumeScale),

	fmt.Sprintf(`CREATE OR REPLACE VIEW %s AS
SELECT
    source_row,
    staging.normalize_location(kecamatan)                     AS kecamatan,
    staging.try_integer(armada_total)                         AS armada_total,
    staging.try_integer(armada_operasional)                   AS armada_operasional,
    staging.try_decimal(ritase_harian, 5, 1)::DECIMAL(5,1)    AS ritase_harian,
    staging.try_decimal(kapasitas_m3, 10, 1)::DECIMAL(10,1)   AS kapasitas_m3,
    staging.try_integer(penduduk)                             AS penduduk,
    staging.try_decimal(luas_km2, 10, 2)::DECIMAL(10,2)       AS luas_km2
FROM staging.raw_sipsn`, FleetView),
}

// WasteDropsSQL classifies raw waste rows the view excludes. Each row is
// counted under the first rule it fails: date, then location, then volume.
var WasteDropsSQL = fmt.Sprintf(`
SELECT
    COUNT(*),
    COUNT(*) FILTER (WHERE d IS NULL),
    COUNT(*) FILTER (WHERE d IS NOT NULL AND k IS NULL),
    COUNT(*) FILTER (WHERE d IS NOT NULL AND k IS NOT NULL AND v IS NULL)
FROM (
    SELECT
        staging.try_date(tanggal)              AS d,
        staging.normalize_location(kecamatan)  AS k,
        staging.try_decimal(volume_ton, %d, %d) AS v
    FROM staging.raw_waste
) r`, VolumePrecision, VolumeScale)
