package domain

import "time"

// DelayRiskLevel buckets a 0-100 risk score.
type DelayRiskLevel string

const (
	RiskLow    DelayRiskLevel = "LOW"
	RiskMedium DelayRiskLevel = "MEDIUM"
	RiskHigh   DelayRiskLevel = "HIGH"
)

// Risk factor identifiers. Each identifies one independent, capped
// contribution to the delay-risk score.
const (
	FactorCurrentDelay      = "CURRENT_DELAY"
	FactorHubCongestion     = "HUB_CONGESTION"
	FactorRoutePerformance  = "ROUTE_PERFORMANCE"
	FactorJourneyComplexity = "JOURNEY_COMPLEXITY"
	FactorTimeOfDay         = "TIME_OF_DAY"
	FactorPartnerDependency = "PARTNER_DEPENDENCY"
)

// RiskFactor is one triggered contributor to a shipment's delay risk.
// ImpactMinutes values are additive across factors and not independently
// bounded; Weight is informational only.
type RiskFactor struct {
	Factor        string  `json:"factor" bson:"factor"`
	ImpactMinutes float64 `json:"impact_minutes" bson:"impact_minutes"`
	Weight        float64 `json:"weight" bson:"weight"`
	Description   string  `json:"description" bson:"description"`
}

// RiskAssessment is the output of the delay-risk scorer.
//
// RiskScore and PredictedDelayMinutes are computed from the same factors but
// through numerically independent formulas: the score ranks urgency on a
// capped 0-100 scale, the delay minutes shift the ETA. Consumers must not
// derive one from the other.
type RiskAssessment struct {
	RiskScore             float64        `json:"risk_score"`
	DelayRisk             DelayRiskLevel `json:"delay_risk"`
	Factors               []RiskFactor   `json:"factors"`
	PredictedDelayMinutes float64        `json:"predicted_delay_minutes"`
}

// ETAPrediction is one persisted risk+ETA snapshot for a shipment. Snapshots
// are superseded, never updated in place: exactly one row per AWB has
// IsActive=true at any time, and storing a new one flips the previous active
// row to inactive in the same logical operation.
type ETAPrediction struct {
	ID                    string         `json:"id" bson:"_id,omitempty"`
	AWB                   string         `json:"awb" bson:"awb"`
	PredictedDeliveryTime time.Time      `json:"predicted_delivery_time" bson:"predicted_delivery_time"`
	DelayMinutes          float64        `json:"delay_minutes" bson:"delay_minutes"`
	RiskScore             float64        `json:"risk_score" bson:"risk_score"`
	DelayRisk             DelayRiskLevel `json:"delay_risk" bson:"delay_risk"`
	ConfidenceLow         time.Time      `json:"confidence_low" bson:"confidence_low"`
	ConfidenceHigh        time.Time      `json:"confidence_high" bson:"confidence_high"`
	ConfidencePercent     int            `json:"confidence_percent" bson:"confidence_percent"`
	TransitSource         string         `json:"transit_source" bson:"transit_source"`
	Factors               []RiskFactor   `json:"factors" bson:"factors"`
	CalculatedAt          time.Time      `json:"calculated_at" bson:"calculated_at"`
	IsActive              bool           `json:"is_active" bson:"is_active"`
}
