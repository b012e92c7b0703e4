package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pvoronin/underwriter/internal/model"
)

// applicantColumns is the expected header of a batch scoring input file. The
// last two columns are optional; missing values default like the single
// predict command (geographic risk 1.0, credit score 700).
var applicantColumns = []string{
	"driver_age",
	"vehicle_age",
	"vehicle_type",
	"violations",
	"accidents",
	"prior_claims",
	"geographic_risk",
	"credit_score",
}

// ReadApplicants loads applicants for batch scoring from a CSV file.
func ReadApplicants(path string) (applicants []model.Applicant, err error) {
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
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, &model.PersistenceError{Path: path, Err: fmt.Errorf("read header: %w", err)}
	}
	for i, want := range applicantColumns[:6] {
		if i >= len(header) || strings.TrimSpace(header[i]) != want {
			return nil, &model.PersistenceError{Path: path, Err: fmt.Errorf("expected column %d to be %q", i+1, want)}
		}
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, &model.PersistenceError{Path: path, Err: err}
	}
	for i, row := range rows {
		a, err := parseApplicant(row)
		if err != nil {
			return nil, &model.PersistenceError{Path: path, Err: fmt.Errorf("row %d: %w", i+1, err)}
		}
		applicants = append(applicants, a)
	}
	return applicants, nil
}

func parseApplicant(row []string) (model.Applicant, error) {
	a := model.Applicant{GeographicRisk: 1.0, CreditScore: 700}
	if len(row) < 6 {
		return a, fmt.Errorf("expected at least 6 columns, got %d", len(row))
	}

	var err error
	if a.DriverAge, err = strconv.Atoi(row[0]); err != nil {
		return a, fmt.Errorf("driver_age: %w", err)
	}
	if a.VehicleAge, err = strconv.Atoi(row[1]); err != nil {
		return a, fmt.Errorf("vehicle_age: %w", err)
	}
	a.VehicleType = model.VehicleType(strings.TrimSpace(row[2]))
	if a.Violations, err = strconv.Atoi(row[3]); err != nil {
		return a, fmt.Errorf("violations: %w", err)
	}
	if a.Accidents, err = strconv.Atoi(row[4]); err != nil {
		return a, fmt.Errorf("accidents: %w", err)
	}
	if a.PriorClaims, err = strconv.Atoi(row[5]); err != nil {
		return a, fmt.Errorf("prior_claims: %w", err)
	}
	if len(row) > 6 && strings.TrimSpace(row[6]) != "" {
		if a.GeographicRisk, err = strconv.ParseFloat(row[6], 64); err != nil {
			return a, fmt.Errorf("geographic_risk: %w", err)
		}
	}
	if len(row) > 7 && strings.TrimSpace(row[7]) != "" {
		if a.CreditScore, err = strconv.Atoi(row[7]); err != nil {
			return a, fmt.Errorf("credit_score: %w", err)
		}
	}
	return a, nil
}
