// Package predict selects the best classification model and turns its
// probability output into a business-facing risk assessment.
package predict

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/pvoronin/underwriter/internal/cache"
	"github.com/pvoronin/underwriter/internal/features"
	"github.com/pvoronin/underwriter/internal/model"
	"github.com/pvoronin/underwriter/internal/trainer"
)

// Predictor holds the trained artifacts, their performance records and the
// fitted encoder. It is safe for concurrent use: everything it references is
// immutable after construction.
type Predictor struct {
	artifacts   map[model.ModelKey]*trainer.Artifact
	performance map[model.ModelKey]model.Performance
	encoder     *features.Encoder

	store    cache.Cache // optional assessment cache
	cacheTTL time.Duration
}

// New builds a predictor over the given artifacts and performance records.
func New(artifacts map[model.ModelKey]*trainer.Artifact, performance map[model.ModelKey]model.Performance, enc *features.Encoder) *Predictor {
	return &Predictor{
		artifacts:   artifacts,
		performance: performance,
		encoder:     enc,
	}
}

// WithCache memoizes assessments in the given cache.
func (p *Predictor) WithCache(c cache.Cache, ttl time.Duration) *Predictor {
	p.store = c
	p.cacheTTL = ttl
	return p
}

// Encoder exposes the fitted category encoder.
func (p *Predictor) Encoder() *features.Encoder { return p.encoder }

// Select returns the best classification model: the strictly highest ROC-AUC
// among the models reporting one, ties broken by the fixed family order. When
// no classification model reports ROC-AUC the documented default is used; a
// missing default is an error, never an undefined choice.
func (p *Predictor) Select() (model.ModelKey, error) {
	best := model.ModelKey{}
	bestAUC := math.Inf(-1)
	found := false

	for _, family := range model.Families {
		key := model.ModelKey{Family: family, Task: model.TaskClassification}
		perf, ok := p.performance[key]
		if !ok || perf.ROCAUC == nil {
			continue
		}
		if _, ok := p.artifacts[key]; !ok {
			continue
		}
		// Strict inequality keeps the earlier family on an exact tie.
		if *perf.ROCAUC > bestAUC {
			best, bestAUC, found = key, *perf.ROCAUC, true
		}
	}

	if !found {
		if _, ok := p.artifacts[model.DefaultModel]; !ok {
			return model.ModelKey{}, fmt.Errorf("no usable classification model (default %s not trained)", model.DefaultModel)
		}
		return model.DefaultModel, nil
	}
	return best, nil
}

// PredictRisk scores an applicant with the selected model and derives the
// premium recommendation. Unseen vehicle types fail with
// UnknownCategoryError.
func (p *Predictor) PredictRisk(a model.Applicant) (*model.RiskAssessment, error) {
	key, err := p.Select()
	if err != nil {
		return nil, err
	}

	cacheKey := assessmentKey(key, a)
	if p.store != nil {
		if raw, ok := p.store.Get(cacheKey); ok {
			var cached model.RiskAssessment
			if err := json.Unmarshal(raw, &cached); err == nil {
				return &cached, nil
			}
		}
	}

	row, err := features.ApplicantRow(p.encoder, a)
	if err != nil {
		return nil, err
	}

	artifact := p.artifacts[key]
	probability := artifact.Classifier.PredictProba(row)
	assessment := Assess(probability, key.String())
	assessment.FeatureImportance = artifact.Importance

	if p.store != nil {
		if raw, err := json.Marshal(assessment); err == nil {
			_ = p.store.Set(cacheKey, raw, p.cacheTTL)
		}
	}
	return assessment, nil
}

// Assess derives the business-facing outputs from a calibrated claim
// probability.
func Assess(probability float64, modelID string) *model.RiskAssessment {
	riskScore := int(math.Round(probability * 100))
	category := "Low"
	if riskScore > 60 {
		category = "High"
	}
	multiplier := 1 + probability*1.5
	adjustPct := int(math.Round((multiplier - 1) * 100))

	return &model.RiskAssessment{
		RiskScore:         riskScore,
		ClaimProbability:  round3(probability),
		RiskCategory:      category,
		BasePremium:       model.BasePremium,
		SuggestedPremium:  int(math.Round(model.BasePremium * multiplier)),
		PremiumAdjustPct:  adjustPct,
		PremiumAdjustment: fmt.Sprintf("+%d%% due to risk factors", adjustPct),
		Model:             modelID,
	}
}

func assessmentKey(key model.ModelKey, a model.Applicant) string {
	return cache.Key(
		key.String(),
		fmt.Sprintf("%d|%d|%s|%d|%d|%d|%g|%d",
			a.DriverAge, a.VehicleAge, a.VehicleType,
			a.Violations, a.Accidents, a.PriorClaims,
			a.GeographicRisk, a.CreditScore),
	)
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
