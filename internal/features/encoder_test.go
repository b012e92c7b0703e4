package features

import (
	"errors"
	"testing"

	"github.com/pvoronin/underwriter/internal/model"
)

func TestNewEncoder_LexicographicCodes(t *testing.T) {
	enc := NewEncoder(model.VehicleTypes)

	want := map[string]int{
		"Economy":    0,
		"Luxury":     1,
		"SUV":        2,
		"Sedan":      3,
		"Sports Car": 4,
		"Truck":      5,
	}
	for class, code := range want {
		got, err := enc.Encode(model.VehicleType(class))
		if err != nil {
			t.Fatalf("Encode(%s): %v", class, err)
		}
		if got != code {
			t.Errorf("Encode(%s): expected %d, got %d", class, code, got)
		}
	}
}

func TestNewEncoder_OrderIndependent(t *testing.T) {
	reversed := make([]model.VehicleType, len(model.VehicleTypes))
	for i, v := range model.VehicleTypes {
		reversed[len(reversed)-1-i] = v
	}

	a := NewEncoder(model.VehicleTypes)
	b := NewEncoder(reversed)
	for class, code := range a.Codes {
		if b.Codes[class] != code {
			t.Errorf("code for %s differs by input order: %d vs %d", class, code, b.Codes[class])
		}
	}
}

func TestEncode_UnknownCategory(t *testing.T) {
	enc := NewEncoder(model.VehicleTypes)

	_, err := enc.Encode("Motorcycle")
	if err == nil {
		t.Fatal("expected error for unknown category, got nil")
	}
	var uce *model.UnknownCategoryError
	if !errors.As(err, &uce) {
		t.Fatalf("expected UnknownCategoryError, got %T", err)
	}
	if uce.Category != "Motorcycle" {
		t.Errorf("expected category 'Motorcycle', got %q", uce.Category)
	}
}

func TestDecode_RoundTrip(t *testing.T) {
	enc := NewEncoder(model.VehicleTypes)

	for _, v := range model.VehicleTypes {
		code, err := enc.Encode(v)
		if err != nil {
			t.Fatalf("Encode(%s): %v", v, err)
		}
		back, ok := enc.Decode(code)
		if !ok || back != v {
			t.Errorf("Decode(%d): expected %s, got %s (ok=%v)", code, v, back, ok)
		}
	}

	if _, ok := enc.Decode(-1); ok {
		t.Error("expected Decode(-1) to fail")
	}
	if _, ok := enc.Decode(len(model.VehicleTypes)); ok {
		t.Error("expected Decode out of range to fail")
	}
}
