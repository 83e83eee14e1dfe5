package service

import "github.com/dispatchgrid/fulfillment-engine/internal/core/domain"

// EngineConfig collects every business constant the engine scores and routes
// with. The legacy implementation buried these as inline literals; keeping
// them in one injectable struct lets deployments tune thresholds and tests
// override them deterministically.
type EngineConfig struct {
	// Routing
	DefaultPartnerTATDays int // used when no partner zone covers the route
	OwnFleetLegDays       int // estimate for each own-fleet leg

	// Transit-time lookup tiers
	MinHistoricalSamples int // exact-pair rows below this are ignored
	MinRegionSamples     int // region-prefix rows below this are ignored

	// Aggregation job
	AggregationWindowDays int
	MinAggregationSamples int // pairs below this are not written

	// Risk scoring: caps per contribution
	CurrentDelayCap        float64
	CongestionCap          float64
	RouteHistoryCap        float64
	ComplexityCap          float64
	TimeOfDayCap           float64
	PointsPerDelayHour     float64
	PointsPerLeg           float64
	ComplexityMinLegs      int
	CongestionThresholdPct float64
	OnTimeThresholdPct     float64
	MinRouteSamples        int
	PartnerModePoints      float64
	HybridModePoints       float64

	// Risk buckets
	HighRiskScore   float64
	MediumRiskScore float64

	// Prediction
	DefaultStdDevMinutes float64
	ConfidencePercent    int
	BatchWorkers         int
	MaxBatchLimit        int
}

// DefaultEngineConfig returns the production constants.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		DefaultPartnerTATDays: 5,
		OwnFleetLegDays:       1,

		MinHistoricalSamples: 5,
		MinRegionSamples:     10,

		AggregationWindowDays: 30,
		MinAggregationSamples: 5,

		CurrentDelayCap:        30,
		CongestionCap:          20,
		RouteHistoryCap:        25,
		ComplexityCap:          15,
		TimeOfDayCap:           10,
		PointsPerDelayHour:     10,
		PointsPerLeg:           5,
		ComplexityMinLegs:      2,
		CongestionThresholdPct: 70,
		OnTimeThresholdPct:     80,
		MinRouteSamples:        5,
		PartnerModePoints:      10,
		HybridModePoints:       5,

		HighRiskScore:   60,
		MediumRiskScore: 30,

		DefaultStdDevMinutes: 120,
		ConfidencePercent:    80,
		BatchWorkers:         8,
		MaxBatchLimit:        500,
	}
}

// RiskLevelForScore buckets a 0-100 score using the configured thresholds.
func (c EngineConfig) RiskLevelForScore(score float64) domain.DelayRiskLevel {
	switch {
	case score >= c.HighRiskScore:
		return domain.RiskHigh
	case score >= c.MediumRiskScore:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}
