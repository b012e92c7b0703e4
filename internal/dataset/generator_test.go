package dataset

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/pvoronin/underwriter/internal/model"
)

func TestNewGenerator_NegativeSeed(t *testing.T) {
	_, err := NewGenerator(-1)
	if err == nil {
		t.Fatal("expected error for negative seed, got nil")
	}
	var ipe *model.InvalidParameterError
	if !errors.As(err, &ipe) {
		t.Errorf("expected InvalidParameterError, got %T", err)
	}
	if ipe.Param != "seed" {
		t.Errorf("expected param 'seed', got %q", ipe.Param)
	}
}

func TestGenerate_InvalidCount(t *testing.T) {
	g, err := NewGenerator(42)
	if err != nil {
		t.Fatalf("NewGenerator: %v", err)
	}

	for _, n := range []int{0, -5} {
		if _, err := g.Generate(n); err == nil {
			t.Errorf("expected error for n=%d, got nil", n)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	g1, _ := NewGenerator(42)
	g2, _ := NewGenerator(42)

	a, err := g1.Generate(200)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	b, err := g2.Generate(200)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if !reflect.DeepEqual(a, b) {
		t.Error("expected identical datasets for the same seed")
	}
}

func TestGenerate_PrefixStable(t *testing.T) {
	g1, _ := NewGenerator(7)
	g2, _ := NewGenerator(7)

	short, _ := g1.Generate(50)
	long, _ := g2.Generate(200)

	if !reflect.DeepEqual(short, long[:50]) {
		t.Error("expected the first 50 records to be independent of the total count")
	}
}

func TestGenerate_DifferentSeedsDiffer(t *testing.T) {
	g1, _ := NewGenerator(1)
	g2, _ := NewGenerator(2)

	a, _ := g1.Generate(100)
	b, _ := g2.Generate(100)

	if reflect.DeepEqual(a, b) {
		t.Error("expected different seeds to produce different datasets")
	}
}

func TestGenerate_RecordInvariants(t *testing.T) {
	g, _ := NewGenerator(42)
	records, err := g.Generate(2000)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for i, r := range records {
		if r.DriverAge < 16 || r.DriverAge > 80 {
			t.Fatalf("record %d: driver age %d out of range", i, r.DriverAge)
		}
		if r.VehicleAge < 0 || r.VehicleAge > 25 {
			t.Fatalf("record %d: vehicle age %d out of range", i, r.VehicleAge)
		}
		if r.Violations < 0 || r.Violations > 8 {
			t.Fatalf("record %d: violations %d out of range", i, r.Violations)
		}
		if r.Accidents < 0 || r.Accidents > 5 {
			t.Fatalf("record %d: accidents %d out of range", i, r.Accidents)
		}
		if r.PriorClaims < 0 || r.PriorClaims > 6 {
			t.Fatalf("record %d: prior claims %d out of range", i, r.PriorClaims)
		}
		if r.GeographicRisk < 0.5 || r.GeographicRisk > 2.0 {
			t.Fatalf("record %d: geographic risk %g out of range", i, r.GeographicRisk)
		}
		if r.CreditScore < 300 || r.CreditScore > 850 {
			t.Fatalf("record %d: credit score %d out of range", i, r.CreditScore)
		}
		if r.RiskScore < 0 || r.RiskScore > 100 {
			t.Fatalf("record %d: risk score %g out of range", i, r.RiskScore)
		}

		want := RiskScore(r.DriverAge, r.VehicleAge, r.VehicleType,
			r.Violations, r.Accidents, r.PriorClaims, r.GeographicRisk, r.CreditScore)
		if r.RiskScore != want {
			t.Fatalf("record %d: risk score %g does not match formula %g", i, r.RiskScore, want)
		}
		if r.ClaimProbability != ClaimProbability(r.RiskScore) {
			t.Fatalf("record %d: claim probability inconsistent with risk score", i)
		}
		if !r.HasClaim && r.ClaimCost != 0 {
			t.Fatalf("record %d: claim cost %g without a claim", i, r.ClaimCost)
		}
		if r.HasClaim && (r.ClaimCost < 0 || r.ClaimCost > 100000) {
			t.Fatalf("record %d: claim cost %g out of range", i, r.ClaimCost)
		}

		premium := model.BasePremium * (1 + r.RiskScore/100)
		if math.Abs(r.AnnualPremium-premium) > 1e-9 {
			t.Fatalf("record %d: premium %g, expected %g", i, r.AnnualPremium, premium)
		}
	}
}

func TestRiskScore_Monotonicity(t *testing.T) {
	// Baseline away from the 0 and 100 clips so deltas are visible.
	base := RiskScore(40, 5, model.VehicleSedan, 0, 0, 0, 1.0, 750)

	tests := []struct {
		name  string
		score float64
		delta float64
	}{
		{"one violation", RiskScore(40, 5, model.VehicleSedan, 1, 0, 0, 1.0, 750), 15},
		{"one accident", RiskScore(40, 5, model.VehicleSedan, 0, 1, 0, 1.0, 750), 20},
		{"one prior claim", RiskScore(40, 5, model.VehicleSedan, 0, 0, 1, 1.0, 750), 12},
		{"sports car", RiskScore(40, 5, model.VehicleSportsCar, 0, 0, 0, 1.0, 750), 20},
		{"riskier area", RiskScore(40, 5, model.VehicleSedan, 0, 0, 0, 1.5, 750), 15},
	}
	for _, tt := range tests {
		if got := tt.score - base; math.Abs(got-tt.delta) > 1e-9 {
			t.Errorf("%s: expected delta %g, got %g", tt.name, tt.delta, got)
		}
	}

	// Young drivers carry the age surcharge.
	young := RiskScore(20, 5, model.VehicleSedan, 0, 0, 0, 1.0, 750)
	if young <= base {
		t.Errorf("expected a 20-year-old to score above a 40-year-old (%g vs %g)", young, base)
	}

	// Economy cars sit below sedans.
	economy := RiskScore(40, 5, model.VehicleEconomy, 0, 0, 0, 1.0, 750)
	if economy >= base {
		t.Errorf("expected economy below sedan (%g vs %g)", economy, base)
	}
}

func TestRiskScore_Clipped(t *testing.T) {
	high := RiskScore(18, 25, model.VehicleSportsCar, 8, 5, 6, 2.0, 300)
	if high != 100 {
		t.Errorf("expected worst case to clip at 100, got %g", high)
	}
	low := RiskScore(40, 0, model.VehicleEconomy, 0, 0, 0, 0.5, 850)
	if low != 0 {
		t.Errorf("expected best case to clip at 0, got %g", low)
	}
}

func TestClaimProbability_Bounds(t *testing.T) {
	lo := ClaimProbability(0)
	hi := ClaimProbability(100)
	if lo <= 0 || lo >= hi || hi >= 1 {
		t.Errorf("expected 0 < p(0) < p(100) < 1, got %g and %g", lo, hi)
	}
}

func TestClaimRate_Sanity(t *testing.T) {
	g, _ := NewGenerator(42)
	records, _ := g.Generate(2000)

	// The sigmoid claim formula centers the expected rate near 0.41 at the
	// default population parameters.
	rate := ClaimRate(records)
	if rate < 0.3 || rate > 0.5 {
		t.Errorf("claim rate %g outside the expected band", rate)
	}
	if ClaimRate(nil) != 0 {
		t.Error("expected zero claim rate for an empty dataset")
	}
}

func TestMeanClaimCost(t *testing.T) {
	g, _ := NewGenerator(42)
	records, _ := g.Generate(2000)

	mean := MeanClaimCost(records)
	if math.IsNaN(mean) || mean <= 0 {
		t.Errorf("expected a positive mean claim cost, got %g", mean)
	}

	noClaims := []model.Record{{HasClaim: false}}
	if !math.IsNaN(MeanClaimCost(noClaims)) {
		t.Error("expected NaN mean cost when no record has a claim")
	}
}
