package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

// Informational factor weights, reported alongside each triggered factor.
const (
	weightCurrentDelay      = 0.30
	weightHubCongestion     = 0.20
	weightRoutePerformance  = 0.25
	weightJourneyComplexity = 0.15
	weightTimeOfDay         = 0.10
	weightPartnerDependency = 0.10
)

// Impact-minute conversions per factor. Impacts feed the predicted delay and
// are deliberately independent of the 0-100 score arithmetic.
const (
	congestionMinutesPerPct = 4  // minutes per utilization point above threshold
	shortfallMinutesPerPct  = 6  // minutes per on-time point below threshold
	minutesPerRemainingLeg  = 30 // minutes per leg still ahead
	minutesPerTimePoint     = 10 // minutes per time-of-day sub-point
	partnerModeMinutes      = 120
	hybridModeMinutes       = 60
)

// Time-of-day sub-factor points, capped together at EngineConfig.TimeOfDayCap.
const (
	sundayPoints     = 5
	peakHourPoints   = 3
	eveningPoints    = 5
	finalHoursPoints = 7
)

type riskService struct {
	hubs      ports.HubRepository
	shipments ports.ShipmentRepository
	cfg       EngineConfig
	clock     clockwork.Clock
	log       zerolog.Logger
}

// NewRiskService returns a RiskScorer over the given stores.
func NewRiskService(
	hubs ports.HubRepository,
	shipments ports.ShipmentRepository,
	cfg EngineConfig,
	clock clockwork.Clock,
	log zerolog.Logger,
) ports.RiskScorer {
	return &riskService{hubs: hubs, shipments: shipments, cfg: cfg, clock: clock, log: log}
}

// CalculateDelayRisk scores a shipment 0-100 from six additive, independently
// capped contributions. Missing upstream data (unknown hub, no capacity) is
// zero signal rather than an error; the scorer always answers.
func (s *riskService) CalculateDelayRisk(ctx context.Context, shipment *domain.Shipment, transit *domain.TransitTimeResult) *domain.RiskAssessment {
	now := s.clock.Now().UTC()

	score := 0.0
	var factors []domain.RiskFactor

	add := func(points float64, f domain.RiskFactor) {
		score += points
		factors = append(factors, f)
	}

	if points, factor, ok := s.currentDelay(shipment, transit, now); ok {
		add(points, factor)
	}
	if points, factor, ok := s.hubCongestion(ctx, shipment); ok {
		add(points, factor)
	}
	if points, factor, ok := s.routePerformance(transit); ok {
		add(points, factor)
	}
	if points, factor, ok := s.journeyComplexity(shipment); ok {
		add(points, factor)
	}
	if points, factor, ok := s.timeOfDay(shipment, now); ok {
		add(points, factor)
	}
	if points, factor, ok := s.partnerDependency(shipment); ok {
		add(points, factor)
	}

	score = clamp(score, 0, 100)

	predictedDelay := 0.0
	for _, f := range factors {
		predictedDelay += f.ImpactMinutes
	}

	return &domain.RiskAssessment{
		RiskScore:             score,
		DelayRisk:             s.cfg.RiskLevelForScore(score),
		Factors:               factors,
		PredictedDelayMinutes: predictedDelay,
	}
}

// currentDelay compares elapsed time against the expected-elapsed checkpoint
// for the shipment's status, at PointsPerDelayHour points per hour behind.
func (s *riskService) currentDelay(shipment *domain.Shipment, transit *domain.TransitTimeResult, now time.Time) (float64, domain.RiskFactor, bool) {
	plannedMinutes := transit.AvgTransitMinutes
	if shipment.ExpectedDeliveryDate != nil {
		plannedMinutes = shipment.ExpectedDeliveryDate.Sub(shipment.CreatedAt).Minutes()
	}
	if plannedMinutes <= 0 {
		return 0, domain.RiskFactor{}, false
	}

	expectedElapsed := plannedMinutes * shipment.Status.Progress()
	actualElapsed := now.Sub(shipment.CreatedAt).Minutes()

	delayMinutes := actualElapsed - expectedElapsed
	if delayMinutes <= 0 {
		return 0, domain.RiskFactor{}, false
	}

	points := math.Min(s.cfg.CurrentDelayCap, delayMinutes/60*s.cfg.PointsPerDelayHour)
	return points, domain.RiskFactor{
		Factor:        domain.FactorCurrentDelay,
		ImpactMinutes: delayMinutes,
		Weight:        weightCurrentDelay,
		Description:   fmt.Sprintf("%.0f minutes behind the %s progress checkpoint", delayMinutes, shipment.Status),
	}, true
}

// hubCongestion scores hub utilization above the configured threshold,
// scaled linearly up to the cap between threshold and 100%.
func (s *riskService) hubCongestion(ctx context.Context, shipment *domain.Shipment) (float64, domain.RiskFactor, bool) {
	if shipment.CurrentHubID == "" || !shipment.Status.OccupiesHub() {
		return 0, domain.RiskFactor{}, false
	}

	hub, err := s.hubs.FindByID(ctx, shipment.CurrentHubID)
	if err != nil {
		s.log.Debug().Err(err).Str("awb", shipment.AWB).Str("hub_id", shipment.CurrentHubID).Msg("hub lookup failed, congestion treated as zero")
		return 0, domain.RiskFactor{}, false
	}
	if hub.SortingCapacity <= 0 {
		return 0, domain.RiskFactor{}, false
	}

	inHub, err := s.shipments.CountAtHub(ctx, hub.ID, domain.HubOccupancyStatuses)
	if err != nil {
		s.log.Debug().Err(err).Str("awb", shipment.AWB).Str("hub_id", hub.ID).Msg("hub occupancy count failed, congestion treated as zero")
		return 0, domain.RiskFactor{}, false
	}

	utilization := math.Min(100, float64(inHub)/float64(hub.SortingCapacity)*100)
	if utilization <= s.cfg.CongestionThresholdPct {
		return 0, domain.RiskFactor{}, false
	}

	over := utilization - s.cfg.CongestionThresholdPct
	span := 100 - s.cfg.CongestionThresholdPct
	points := over / span * s.cfg.CongestionCap

	return points, domain.RiskFactor{
		Factor:        domain.FactorHubCongestion,
		ImpactMinutes: over * congestionMinutesPerPct,
		Weight:        weightHubCongestion,
		Description:   fmt.Sprintf("hub %s at %.0f%% of sorting capacity", hub.Code, utilization),
	}, true
}

// routePerformance scores the route's historical on-time shortfall below the
// threshold, when enough samples exist to trust the history.
func (s *riskService) routePerformance(transit *domain.TransitTimeResult) (float64, domain.RiskFactor, bool) {
	if transit.SampleCount <= s.cfg.MinRouteSamples {
		return 0, domain.RiskFactor{}, false
	}
	if transit.OnTimePercentage >= s.cfg.OnTimeThresholdPct {
		return 0, domain.RiskFactor{}, false
	}

	shortfall := s.cfg.OnTimeThresholdPct - transit.OnTimePercentage
	points := math.Min(s.cfg.RouteHistoryCap, shortfall/s.cfg.OnTimeThresholdPct*s.cfg.RouteHistoryCap)

	return points, domain.RiskFactor{
		Factor:        domain.FactorRoutePerformance,
		ImpactMinutes: shortfall * shortfallMinutesPerPct,
		Weight:        weightRoutePerformance,
		Description:   fmt.Sprintf("route historically %.0f%% on time over %d shipments", transit.OnTimePercentage, transit.SampleCount),
	}, true
}

// journeyComplexity scores the legs still ahead of the shipment, at
// PointsPerLeg points per leg, only when more than ComplexityMinLegs remain.
func (s *riskService) journeyComplexity(shipment *domain.Shipment) (float64, domain.RiskFactor, bool) {
	legs := shipment.Status.LegsRemaining()
	if legs <= s.cfg.ComplexityMinLegs {
		return 0, domain.RiskFactor{}, false
	}

	points := math.Min(s.cfg.ComplexityCap, float64(legs)*s.cfg.PointsPerLeg)
	return points, domain.RiskFactor{
		Factor:        domain.FactorJourneyComplexity,
		ImpactMinutes: float64(legs) * minutesPerRemainingLeg,
		Weight:        weightJourneyComplexity,
		Description:   fmt.Sprintf("%d journey legs still ahead", legs),
	}, true
}

// timeOfDay adds calendar sub-factors: Sunday operations, peak-hour windows
// near the delivery deadline, evening cutoffs, and a generic final-hours
// squeeze. Sub-points are summed then capped.
func (s *riskService) timeOfDay(shipment *domain.Shipment, now time.Time) (float64, domain.RiskFactor, bool) {
	remaining := time.Duration(math.MaxInt64)
	if shipment.ExpectedDeliveryDate != nil {
		remaining = shipment.ExpectedDeliveryDate.Sub(now)
	}

	sub := 0.0
	hour := now.Hour()

	if now.Weekday() == time.Sunday {
		sub += sundayPoints
	}
	peakHour := (hour >= 9 && hour < 11) || (hour >= 16 && hour < 19)
	if peakHour && remaining < 24*time.Hour {
		sub += peakHourPoints
	}
	if hour >= 18 && remaining < 6*time.Hour {
		sub += eveningPoints
	}
	if remaining < 4*time.Hour {
		sub += finalHoursPoints
	}

	if sub <= 0 {
		return 0, domain.RiskFactor{}, false
	}

	points := math.Min(s.cfg.TimeOfDayCap, sub)
	return points, domain.RiskFactor{
		Factor:        domain.FactorTimeOfDay,
		ImpactMinutes: sub * minutesPerTimePoint,
		Weight:        weightTimeOfDay,
		Description:   "unfavorable delivery window",
	}, true
}

// partnerDependency scores reliance on a third-party partner.
func (s *riskService) partnerDependency(shipment *domain.Shipment) (float64, domain.RiskFactor, bool) {
	switch shipment.FulfillmentMode {
	case domain.ModePartner:
		return s.cfg.PartnerModePoints, domain.RiskFactor{
			Factor:        domain.FactorPartnerDependency,
			ImpactMinutes: partnerModeMinutes,
			Weight:        weightPartnerDependency,
			Description:   "entire journey depends on a partner",
		}, true
	case domain.ModeHybrid:
		return s.cfg.HybridModePoints, domain.RiskFactor{
			Factor:        domain.FactorPartnerDependency,
			ImpactMinutes: hybridModeMinutes,
			Weight:        weightPartnerDependency,
			Description:   "last mile depends on a partner handover",
		}, true
	default:
		return 0, domain.RiskFactor{}, false
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
