//-------------------------------------------------------------------------
//
// pgEdge Waste Tracker
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package sample generates synthetic waste.csv and sipsn.csv files for
// demos and tests. A configurable share of rows carries the kind of
// defects real exports contain.
package sample

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/jszwec/csvutil"

	"github.com/pgEdge/pgedge-wastetrack/internal/logging"
)

// Districts are Jakarta kecamatan used as locations.
var Districts = []string{
	"Menteng", "Gambir", "Tanah Abang", "Senen", "Cempaka Putih",
	"Kemayoran", "Sawah Besar", "Johar Baru", "Kebayoran Baru", "Kebayoran Lama",
	"Pesanggrahan", "Cilandak", "Pasar Minggu", "Jagakarsa", "Mampang Prapatan",
	"Pancoran", "Tebet", "Setiabudi", "Cilincing", "Koja",
	"Kelapa Gading", "Tanjung Priok", "Pademangan", "Penjaringan", "Cengkareng",
	"Grogol Petamburan", "Taman Sari", "Tambora", "Kebon Jeruk", "Kalideres",
	"Palmerah", "Kembangan", "Matraman", "Pulo Gadung", "Jatinegara",
	"Duren Sawit", "Kramat Jati", "Makasar", "Pasar Rebo", "Ciracas",
	"Cipayung", "Cakung",
}

var (
	categories      = []string{"Organik", "Anorganik", "B3", "Residu"}
	categoryWeights = []int{60, 30, 3, 7}
	sources         = []string{"Rumah Tangga", "Pasar", "Perkantoran", "Fasilitas Publik", "Kawasan Industri"}
	sourceWeights   = []int{55, 20, 10, 10, 5}
	truckVolumes    = []float64{6, 8, 10, 14}
)

// Config controls generation.
type Config struct {
	StartDate time.Time
	Days      int
	Districts int
	DirtyRate float64
	Seed      uint64
}

// WasteRecord is one row of waste.csv.
type WasteRecord struct {
	Tanggal      string `csv:"tanggal"`
	Kecamatan    string `csv:"kecamatan"`
	VolumeTon    string `csv:"volume_ton"`
	JenisSampah  string `csv:"jenis_sampah"`
	SumberSampah string `csv:"sumber_sampah"`
}

// FleetRecord is one row of sipsn.csv.
type FleetRecord struct {
	Kecamatan         string `csv:"kecamatan"`
	ArmadaTotal       string `csv:"armada_total"`
	ArmadaOperasional string `csv:"armada_operasional"`
	RitaseHarian      string `csv:"ritase_harian"`
	KapasitasM3       string `csv:"kapasitas_m3"`
	Penduduk          string `csv:"penduduk"`
	LuasKm2           string `csv:"luas_km2"`
}

// Dataset holds generated records.
type Dataset struct {
	Waste []WasteRecord
	Fleet []FleetRecord

	// Dirty counts rows that received a defect.
	Dirty int
}

// Generator produces sample datasets.
type Generator struct {
	cfg   Config
	faker *Faker
}

// NewGenerator creates a generator. A zero seed picks a random one.
func NewGenerator(cfg Config) *Generator {
	f := NewFaker()
	if cfg.Seed != 0 {
		f = NewFakerWithSeed(cfg.Seed)
	}
	if cfg.Districts > len(Districts) {
		cfg.Districts = len(Districts)
	}
	return &Generator{cfg: cfg, faker: f}
}

type districtProfile struct {
	name       string
	population int
	areaKm2    float64
	trucks     int
	active     int
	trips      float64
	truckM3    float64
}

// Generate builds one waste row per district per day, one or two
// collections on busy days, and one fleet row per district.
func (g *Generator) Generate() *Dataset {
	ds := &Dataset{}
	profiles := make([]districtProfile, g.cfg.Districts)

	for i := range profiles {
		trucks := g.faker.Int(4, 30)
		profiles[i] = districtProfile{
			name:       Districts[i],
			population: g.faker.Int(50000, 350000),
			areaKm2:    g.faker.Round(2, 40, 2),
			trucks:     trucks,
			active:     g.faker.Int(trucks*2/3, trucks),
			trips:      g.faker.Round(1.5, 3.5, 1),
			truckM3:    Choose(g.faker, truckVolumes),
		}
	}

	for day := 0; day < g.cfg.Days; day++ {
		date := g.cfg.StartDate.AddDate(0, 0, day)
		for _, p := range profiles {
			collections := 1
			if g.faker.Chance(0.3) {
				collections = 2
			}
			// About 0.7 kg per resident per day, split across collections.
			base := float64(p.population) * 0.0007 / float64(collections)
			for c := 0; c < collections; c++ {
				rec := WasteRecord{
					Tanggal:      date.Format(time.DateOnly),
					Kecamatan:    p.name,
					VolumeTon:    strconv.FormatFloat(g.faker.Round(base*0.7, base*1.3, 2), 'f', 2, 64),
					JenisSampah:  ChooseWeighted(g.faker, categories, categoryWeights),
					SumberSampah: ChooseWeighted(g.faker, sources, sourceWeights),
				}
				if g.faker.Chance(g.cfg.DirtyRate) {
					g.dirtyWaste(&rec)
					ds.Dirty++
				}
				ds.Waste = append(ds.Waste, rec)
			}
		}
	}

	for _, p := range profiles {
		rec := FleetRecord{
			Kecamatan:         p.name,
			ArmadaTotal:       strconv.Itoa(p.trucks),
			ArmadaOperasional: strconv.Itoa(p.active),
			RitaseHarian:      strconv.FormatFloat(p.trips, 'f', 1, 64),
			KapasitasM3:       strconv.FormatFloat(p.truckM3, 'f', 1, 64),
			Penduduk:          strconv.Itoa(p.population),
			LuasKm2:           strconv.FormatFloat(p.areaKm2, 'f', 2, 64),
		}
		if g.faker.Chance(g.cfg.DirtyRate) {
			g.dirtyFleet(&rec)
			ds.Dirty++
		}
		ds.Fleet = append(ds.Fleet, rec)
	}

	return ds
}

// dirtyWaste applies one defect. Date and location always stay non-empty
// so the file still passes validation.
func (g *Generator) dirtyWaste(rec *WasteRecord) {
	switch g.faker.Int(0, 5) {
	case 0:
		rec.VolumeTon = ""
	case 1:
		rec.VolumeTon = Choose(g.faker, []string{"abc", "N/A", "-", "12,5"})
	case 2:
		rec.Tanggal = Choose(g.faker, []string{"2024-02-30", "31/12/2024", "kemarin"})
	case 3:
		rec.Kecamatan = "  " + strings.ToLower(rec.Kecamatan) + ". "
	case 4:
		rec.Kecamatan = "Kec. " + strings.ToUpper(rec.Kecamatan) + "!!"
	default:
		rec.Kecamatan = strings.ReplaceAll(rec.Kecamatan, " ", "  ")
	}
}

func (g *Generator) dirtyFleet(rec *FleetRecord) {
	switch g.faker.Int(0, 2) {
	case 0:
		rec.KapasitasM3 = ""
	case 1:
		rec.ArmadaTotal = g.faker.Word()
	default:
		rec.Kecamatan = strings.ToLower(rec.Kecamatan) + " "
	}
}

// File names written by WriteFiles.
const (
	WasteFile = "waste.csv"
	FleetFile = "sipsn.csv"
)

// WriteFiles encodes the dataset into dir, creating it if needed, and
// returns the paths written.
func WriteFiles(dir string, ds *Dataset) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	waste, err := csvutil.Marshal(ds.Waste)
	if err != nil {
		return nil, fmt.Errorf("failed to encode waste records: %w", err)
	}
	fleet, err := csvutil.Marshal(ds.Fleet)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fleet records: %w", err)
	}

	files := []struct {
		name string
		data []byte
		rows int
	}{
		{WasteFile, waste, len(ds.Waste)},
		{FleetFile, fleet, len(ds.Fleet)},
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := os.WriteFile(path, f.data, 0644); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", path, err)
		}
		logging.Info().
			Str("file", path).
			Int("rows", f.rows).
			Msg("Wrote sample file")
		paths = append(paths, path)
	}
	return paths, nil
}
