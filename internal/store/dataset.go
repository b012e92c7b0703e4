// Package store persists generated datasets and trained model artifacts.
// Datasets are delimited text plus a JSON sidecar; artifacts are gob files
// plus a JSON metadata record. Loads surface PersistenceError and never
// regenerate anything.
package store

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pvoronin/underwriter/internal/model"
)

// DatasetMetadata is the sidecar record written next to a dataset.
type DatasetMetadata struct {
	Filename    string    `json:"filename"`
	NSamples    int       `json:"n_samples"`
	Features    []string  `json:"features"`
	GeneratedAt time.Time `json:"generated_at"`
	Seed        int64     `json:"seed"`
}

// SaveDataset writes records as CSV with the full 13-column header plus the
// metadata sidecar, and returns the dataset path.
func SaveDataset(dir, name string, records []model.Record, seed int64) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &model.PersistenceError{Path: dir, Err: err}
	}

	path := filepath.Join(dir, name)
	if err := writeCSV(path, records); err != nil {
		return "", err
	}

	meta := DatasetMetadata{
		Filename:    name,
		NSamples:    len(records),
		Features:    model.RecordColumns,
		GeneratedAt: time.Now().UTC(),
		Seed:        seed,
	}
	if err := writeJSON(metadataPath(path), meta); err != nil {
		return "", err
	}
	return path, nil
}

func writeCSV(path string, records []model.Record) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &model.PersistenceError{Path: path, Err: closeErr}
		}
	}()

	w := csv.NewWriter(f)
	if err := w.Write(model.RecordColumns); err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	for _, r := range records {
		hasClaim := "0"
		if r.HasClaim {
			hasClaim = "1"
		}
		row := []string{
			strconv.Itoa(r.DriverAge),
			strconv.Itoa(r.VehicleAge),
			string(r.VehicleType),
			strconv.Itoa(r.Violations),
			strconv.Itoa(r.Accidents),
			strconv.Itoa(r.PriorClaims),
			formatFloat(r.GeographicRisk),
			strconv.Itoa(r.CreditScore),
			formatFloat(r.RiskScore),
			formatFloat(r.ClaimProbability),
			hasClaim,
			formatFloat(r.ClaimCost),
			formatFloat(r.AnnualPremium),
		}
		if err := w.Write(row); err != nil {
			return &model.PersistenceError{Path: path, Err: err}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	return nil
}

// LoadDataset reads a dataset written by SaveDataset. A missing file or any
// malformed row is a PersistenceError.
func LoadDataset(path string) (records []model.Record, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &model.PersistenceError{Path: path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &model.PersistenceError{Path: path, Err: closeErr}
		}
	}()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, &model.PersistenceError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	if len(header) != len(model.RecordColumns) {
		return nil, &model.PersistenceError{Path: path, Err: fmt.Errorf("expected %d columns, got %d", len(model.RecordColumns), len(header))}
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &model.PersistenceError{Path: path, Err: err}
	}
	records = make([]model.Record, 0, len(rows))
	for i, row := range rows {
		rec, err := parseRow(row)
		if err != nil {
			return nil, &model.PersistenceError{Path: path, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (model.Record, error) {
	var rec model.Record
	var err error

	ints := []struct {
		dst *int
		idx int
	}{
		{&rec.DriverAge, 0}, {&rec.VehicleAge, 1}, {&rec.Violations, 3},
		{&rec.Accidents, 4}, {&rec.PriorClaims, 5}, {&rec.CreditScore, 7},
	}
	for _, p := range ints {
		if *p.dst, err = strconv.Atoi(row[p.idx]); err != nil {
			return rec, fmt.Errorf("column %s: %w", model.RecordColumns[p.idx], err)
		}
	}

	floats := []struct {
		dst *float64
		idx int
	}{
		{&rec.GeographicRisk, 6}, {&rec.RiskScore, 8}, {&rec.ClaimProbability, 9},
		{&rec.ClaimCost, 11}, {&rec.AnnualPremium, 12},
	}
	for _, p := range floats {
		if *p.dst, err = strconv.ParseFloat(row[p.idx], 64); err != nil {
			return rec, fmt.Errorf("column %s: %w", model.RecordColumns[p.idx], err)
		}
	}

	rec.VehicleType = model.VehicleType(row[2])
	switch strings.TrimSpace(row[10]) {
	case "1", "true", "True":
		rec.HasClaim = true
	case "0", "false", "False":
		rec.HasClaim = false
	default:
		return rec, fmt.Errorf("column Has_Claim: unrecognized value %q", row[10])
	}
	return rec, nil
}

// LoadDatasetMetadata reads the sidecar next to a dataset path.
func LoadDatasetMetadata(datasetPath string) (DatasetMetadata, error) {
	var meta DatasetMetadata
	if err := readJSON(metadataPath(datasetPath), &meta); err != nil {
		return meta, err
	}
	return meta, nil
}

func metadataPath(datasetPath string) string {
	ext := filepath.Ext(datasetPath)
	return strings.TrimSuffix(datasetPath, ext) + "_metadata.json"
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func writeJSON(path string, v any) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &model.PersistenceError{Path: path, Err: closeErr}
		}
	}()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	return nil
}

func readJSON(path string, v any) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = &model.PersistenceError{Path: path, Err: closeErr}
		}
	}()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return &model.PersistenceError{Path: path, Err: err}
	}
	return nil
}
