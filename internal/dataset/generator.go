// Package dataset simulates insurance records from parametrized
// distributions. Raw predictor fields are drawn stochastically; risk score,
// claim probability, claim cost and premium are derived from them by a fixed
// formula, so every record is internally consistent.
package dataset

import (
	"math"

	"github.com/pvoronin/underwriter/internal/model"
)

// vehicleWeights are the categorical draw weights, aligned with
// model.VehicleTypes.
var vehicleWeights = []float64{0.30, 0.25, 0.15, 0.10, 0.10, 0.10}

// vehicleRisk is the additive risk contribution per vehicle type.
var vehicleRisk = map[model.VehicleType]float64{
	model.VehicleEconomy:   -5,
	model.VehicleSedan:     0,
	model.VehicleSUV:       5,
	model.VehicleTruck:     8,
	model.VehicleLuxury:    10,
	model.VehicleSportsCar: 20,
}

// Generator produces deterministic synthetic datasets: the same seed and
// count always yield identical records.
type Generator struct {
	seed int64
}

// NewGenerator creates a generator with the given seed.
func NewGenerator(seed int64) (*Generator, error) {
	if seed < 0 {
		return nil, &model.InvalidParameterError{Param: "seed", Reason: "must be non-negative"}
	}
	return &Generator{seed: seed}, nil
}

// Seed returns the generator's seed, for dataset metadata.
func (g *Generator) Seed() int64 { return g.seed }

// Generate draws n records. Records consume the stream strictly in sequence
// and never depend on later records, so the first k records of Generate(n)
// and Generate(m) are identical for any n, m >= k.
func (g *Generator) Generate(n int) ([]model.Record, error) {
	if n <= 0 {
		return nil, &model.InvalidParameterError{Param: "n_samples", Reason: "must be a positive integer"}
	}

	s := newSampler(g.seed)
	records := make([]model.Record, n)
	for i := range records {
		records[i] = g.draw(s)
	}
	return records, nil
}

// draw samples one record. The claim-cost draw is consumed even when no claim
// occurs, so a record's position in the stream never depends on earlier
// claim outcomes.
func (g *Generator) draw(s *sampler) model.Record {
	r := model.Record{
		DriverAge:      int(clip(s.normal(40, 15), 16, 80)),
		VehicleAge:     int(clip(s.exponential(5), 0, 25)),
		VehicleType:    model.VehicleTypes[s.categorical(vehicleWeights)],
		Violations:     int(clip(float64(s.poisson(0.8)), 0, 8)),
		Accidents:      int(clip(float64(s.poisson(0.3)), 0, 5)),
		PriorClaims:    int(clip(float64(s.poisson(0.4)), 0, 6)),
		GeographicRisk: clip(s.normal(1.0, 0.2), 0.5, 2.0),
		CreditScore:    int(clip(s.normal(700, 100), 300, 850)),
	}

	r.RiskScore = RiskScore(r.DriverAge, r.VehicleAge, r.VehicleType,
		r.Violations, r.Accidents, r.PriorClaims, r.GeographicRisk, r.CreditScore)
	r.ClaimProbability = sigmoid(r.RiskScore/20 - 2.5)
	r.HasClaim = s.bernoulli(r.ClaimProbability)

	baseCost := s.logNormal(8, 1.5)
	if r.HasClaim {
		severity := 1 + (r.RiskScore/100)*2
		r.ClaimCost = clip(baseCost*severity, 0, 100000)
	}

	r.AnnualPremium = model.BasePremium * (1 + r.RiskScore/100)
	return r
}

// RiskScore computes the deterministic 0-100 risk score from the raw
// predictor fields.
func RiskScore(driverAge, vehicleAge int, vtype model.VehicleType,
	violations, accidents, priorClaims int, geographicRisk float64, creditScore int) float64 {

	score := 0.0

	// U-shaped age curve: young and very old drivers carry extra risk.
	switch {
	case driverAge < 25:
		score += float64(25-driverAge) * 2
	case driverAge > 65:
		score += float64(driverAge-65) * 1.5
	}

	score += float64(vehicleAge) * 1.5
	score += vehicleRisk[vtype]
	score += float64(violations) * 15
	score += float64(accidents) * 20
	score += float64(priorClaims) * 12
	score += (geographicRisk - 1) * 30
	score += clip((750-float64(creditScore))/10, -10, 20)

	return clip(score, 0, 100)
}

// ClaimProbability maps a risk score to the probability of a claim.
func ClaimProbability(riskScore float64) float64 {
	return sigmoid(riskScore/20 - 2.5)
}

// ClaimRate returns the fraction of records with a claim.
func ClaimRate(records []model.Record) float64 {
	if len(records) == 0 {
		return 0
	}
	claims := 0
	for _, r := range records {
		if r.HasClaim {
			claims++
		}
	}
	return float64(claims) / float64(len(records))
}

// MeanClaimCost returns the mean claim cost among claim-positive records, or
// NaN when there are none.
func MeanClaimCost(records []model.Record) float64 {
	sum, n := 0.0, 0
	for _, r := range records {
		if r.HasClaim {
			sum += r.ClaimCost
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
