package model

// VehicleType is one of the six fixed vehicle categories.
type VehicleType string

const (
	VehicleSedan     VehicleType = "Sedan"
	VehicleSUV       VehicleType = "SUV"
	VehicleTruck     VehicleType = "Truck"
	VehicleSportsCar VehicleType = "Sports Car"
	VehicleLuxury    VehicleType = "Luxury"
	VehicleEconomy   VehicleType = "Economy"
)

// VehicleTypes lists the vocabulary in the canonical sampling order.
var VehicleTypes = []VehicleType{
	VehicleSedan,
	VehicleSUV,
	VehicleTruck,
	VehicleSportsCar,
	VehicleLuxury,
	VehicleEconomy,
}

// Record is one synthetic policyholder-vehicle-claim tuple. The derived fields
// (RiskScore onward) are pure functions of the raw fields plus the generator's
// seeded stream; records are never mutated after generation.
type Record struct {
	DriverAge        int         `json:"driver_age"`       // 16-80
	VehicleAge       int         `json:"vehicle_age"`      // 0-25
	VehicleType      VehicleType `json:"vehicle_type"`     //
	Violations       int         `json:"violations"`       // 0-8
	Accidents        int         `json:"accidents"`        // 0-5
	PriorClaims      int         `json:"prior_claims"`     // 0-6
	GeographicRisk   float64     `json:"geographic_risk"`  // 0.5-2.0
	CreditScore      int         `json:"credit_score"`     // 300-850
	RiskScore        float64     `json:"risk_score"`       // 0-100, derived
	ClaimProbability float64     `json:"claim_probability"` // 0-1, derived
	HasClaim         bool        `json:"has_claim"`        // Bernoulli draw
	ClaimCost        float64     `json:"claim_cost"`       // 0 unless HasClaim
	AnnualPremium    float64     `json:"annual_premium"`   // 1200*(1+risk/100)
}

// RecordColumns is the dataset header, in field order.
var RecordColumns = []string{
	"Driver_Age",
	"Vehicle_Age",
	"Vehicle_Type",
	"Violations",
	"Accidents",
	"Prior_Claims",
	"Geographic_Risk",
	"Credit_Score",
	"Risk_Score",
	"Claim_Probability",
	"Has_Claim",
	"Claim_Cost",
	"Annual_Premium",
}

// Applicant is the raw input to risk inference: the eight predictor fields of
// a Record, before any claim has happened.
type Applicant struct {
	DriverAge      int         `json:"driver_age"`
	VehicleAge     int         `json:"vehicle_age"`
	VehicleType    VehicleType `json:"vehicle_type"`
	Violations     int         `json:"violations"`
	Accidents      int         `json:"accidents"`
	PriorClaims    int         `json:"prior_claims"`
	GeographicRisk float64     `json:"geographic_risk"`
	CreditScore    int         `json:"credit_score"`
}

// BasePremium is the flat annual premium before any risk loading.
const BasePremium = 1200.0

// RiskAssessment is the business-facing output of risk inference.
type RiskAssessment struct {
	RiskScore         int                `json:"risk_score"`         // round(probability*100)
	ClaimProbability  float64            `json:"claim_probability"`  // calibrated class-1 probability
	RiskCategory      string             `json:"risk_category"`      // "High" above 60, else "Low"
	BasePremium       float64            `json:"base_premium"`
	SuggestedPremium  int                `json:"suggested_premium"`  // round(1200*(1+p*1.5))
	PremiumAdjustPct  int                `json:"premium_adjustment_pct"`
	PremiumAdjustment string             `json:"premium_adjustment"` // "+N% due to risk factors"
	Model             string             `json:"model"`              // identifier of the selected model
	FeatureImportance map[string]float64 `json:"feature_importance,omitempty"`
	Explanation       string             `json:"explanation,omitempty"` // optional LLM text, never affects scores
}
