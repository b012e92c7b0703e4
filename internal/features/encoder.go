// Package features turns simulated records into numeric matrices and target
// vectors for a given task type.
package features

import (
	"sort"

	"github.com/pvoronin/underwriter/internal/model"
)

// Encoder is a bijective mapping between the vehicle-type vocabulary and
// integer codes. It is fit once on the observed vocabulary and reused
// identically at training and inference time. Unseen categories fail hard.
type Encoder struct {
	Codes   map[string]int
	Classes []string
}

// NewEncoder fits an encoder on the given vocabulary. Codes are assigned in
// lexicographic class order, so the mapping is independent of input order.
func NewEncoder(vocabulary []model.VehicleType) *Encoder {
	seen := make(map[string]bool, len(vocabulary))
	classes := make([]string, 0, len(vocabulary))
	for _, v := range vocabulary {
		if !seen[string(v)] {
			seen[string(v)] = true
			classes = append(classes, string(v))
		}
	}
	sort.Strings(classes)

	codes := make(map[string]int, len(classes))
	for i, c := range classes {
		codes[c] = i
	}
	return &Encoder{Codes: codes, Classes: classes}
}

// Encode maps a vehicle type to its integer code. An unseen category is an
// UnknownCategoryError, never a silent default.
func (e *Encoder) Encode(v model.VehicleType) (int, error) {
	code, ok := e.Codes[string(v)]
	if !ok {
		return 0, &model.UnknownCategoryError{Category: string(v)}
	}
	return code, nil
}

// Decode maps an integer code back to its vehicle type.
func (e *Encoder) Decode(code int) (model.VehicleType, bool) {
	if code < 0 || code >= len(e.Classes) {
		return "", false
	}
	return model.VehicleType(e.Classes[code]), true
}
