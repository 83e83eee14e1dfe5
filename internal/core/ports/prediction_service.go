package ports

import (
	"context"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// RiskScorer computes a shipment's delay risk from live state and route
// statistics. It is best-effort: missing upstream data is treated as zero
// signal, never as an error.
type RiskScorer interface {
	CalculateDelayRisk(ctx context.Context, shipment *domain.Shipment, transit *domain.TransitTimeResult) *domain.RiskAssessment
}

// BatchPredictionInput selects and shapes a batch prediction run.
type BatchPredictionInput struct {
	AWBs       []string                // optional: explicit shipment set
	Statuses   []domain.ShipmentStatus // optional: restrict by status
	RiskLevels []domain.DelayRiskLevel // optional: filter results after scoring
	Limit      int
	Offset     int
}

// BatchPredictionSummary aggregates one batch run.
type BatchPredictionSummary struct {
	Total           int     `json:"total"`
	Failed          int     `json:"failed"`
	HighRisk        int     `json:"high_risk"`
	MediumRisk      int     `json:"medium_risk"`
	LowRisk         int     `json:"low_risk"`
	AvgDelayMinutes float64 `json:"avg_delay_minutes"`
}

// BatchPredictionResult carries the per-shipment predictions sorted by
// descending risk score, plus the run summary.
type BatchPredictionResult struct {
	Predictions []*domain.ETAPrediction `json:"predictions"`
	Summary     BatchPredictionSummary  `json:"summary"`
}

// PredictionService orchestrates transit-time stats and risk scoring into
// stored ETA predictions.
type PredictionService interface {
	// GeneratePrediction computes (but does not store) a prediction.
	GeneratePrediction(ctx context.Context, shipment *domain.Shipment) (*domain.ETAPrediction, error)
	// RefreshPrediction generates and stores a prediction for the AWB,
	// superseding the previous active one.
	RefreshPrediction(ctx context.Context, awb string) (*domain.ETAPrediction, error)
	// GenerateBatchPredictions predicts for every selected shipment,
	// tolerating per-shipment failures.
	GenerateBatchPredictions(ctx context.Context, input BatchPredictionInput) (*BatchPredictionResult, error)
	// StorePrediction persists p, flipping the prior active row to inactive.
	StorePrediction(ctx context.Context, p *domain.ETAPrediction) error
	// GetActivePrediction returns the current active prediction for the AWB.
	GetActivePrediction(ctx context.Context, awb string) (*domain.ETAPrediction, error)
}
