package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

// riskNow is a Thursday at noon: no time-of-day sub-factor fires unless a
// test sets an imminent delivery deadline or moves the clock.
var riskNow = time.Date(2026, 8, 20, 12, 0, 0, 0, time.UTC)

func newTestRiskService(hubs *stubHubRepo, shipments *stubShipmentRepo, at time.Time) ports.RiskScorer {
	return NewRiskService(hubs, shipments, DefaultEngineConfig(),
		clockwork.NewFakeClockAt(at), zerolog.Nop())
}

// eightDayTransit keeps the planned journey long enough that fresh shipments
// never trip the current-delay factor.
func eightDayTransit() *domain.TransitTimeResult {
	return &domain.TransitTimeResult{
		OriginPincode: "400093", DestinationPincode: "110001",
		RouteType:         domain.RouteNational,
		AvgTransitMinutes: 8 * 24 * 60,
		StdDevMinutes:     600,
		OnTimePercentage:  95,
		SampleCount:       0,
		Source:            domain.TransitSourceEstimated,
	}
}

func findFactor(factors []domain.RiskFactor, name string) *domain.RiskFactor {
	for i := range factors {
		if factors[i].Factor == name {
			return &factors[i]
		}
	}
	return nil
}

func TestCalculateDelayRiskCurrentDelay(t *testing.T) {
	svc := newTestRiskService(newStubHubRepo(), newStubShipmentRepo(), riskNow)

	// Ten days in transit against an eight-day plan: 14400 elapsed minutes vs
	// a 6912-minute checkpoint, 7488 minutes behind.
	shipment := &domain.Shipment{
		AWB:             "AWB2001",
		Status:          domain.StatusInTransit,
		FulfillmentMode: domain.ModeOwnFleet,
		CreatedAt:       riskNow.AddDate(0, 0, -10),
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, eightDayTransit())

	if len(got.Factors) != 1 {
		t.Fatalf("got %d factors %v, want only CURRENT_DELAY", len(got.Factors), got.Factors)
	}
	f := got.Factors[0]
	if f.Factor != domain.FactorCurrentDelay {
		t.Fatalf("factor = %s", f.Factor)
	}
	if math.Abs(f.ImpactMinutes-7488) > 0.01 {
		t.Errorf("impact = %v minutes, want 7488", f.ImpactMinutes)
	}
	if got.RiskScore != 30 { // capped
		t.Errorf("score = %v, want capped 30", got.RiskScore)
	}
	if got.DelayRisk != domain.RiskMedium {
		t.Errorf("level = %s, want MEDIUM", got.DelayRisk)
	}
	if math.Abs(got.PredictedDelayMinutes-7488) > 0.01 {
		t.Errorf("predicted delay = %v, want 7488", got.PredictedDelayMinutes)
	}
}

func TestCalculateDelayRiskOnScheduleShipmentScoresZero(t *testing.T) {
	svc := newTestRiskService(newStubHubRepo(), newStubShipmentRepo(), riskNow)

	shipment := &domain.Shipment{
		AWB:             "AWB2002",
		Status:          domain.StatusInTransit,
		FulfillmentMode: domain.ModeOwnFleet,
		CreatedAt:       riskNow.AddDate(0, 0, -1), // well ahead of the checkpoint
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, eightDayTransit())

	if got.RiskScore != 0 || got.DelayRisk != domain.RiskLow {
		t.Errorf("score=%v level=%s, want 0/LOW", got.RiskScore, got.DelayRisk)
	}
	if len(got.Factors) != 0 {
		t.Errorf("factors = %v, want none", got.Factors)
	}
	if got.PredictedDelayMinutes != 0 {
		t.Errorf("predicted delay = %v, want 0", got.PredictedDelayMinutes)
	}
}

func TestCalculateDelayRiskHubCongestion(t *testing.T) {
	hubs := newStubHubRepo()
	hubs.addHub("HUB-1", 100)
	shipments := newStubShipmentRepo()
	shipments.hubCounts["HUB-1"] = 85

	svc := newTestRiskService(hubs, shipments, riskNow)

	shipment := &domain.Shipment{
		AWB:             "AWB2003",
		Status:          domain.StatusAtDestinationHub,
		CurrentHubID:    "HUB-1",
		FulfillmentMode: domain.ModeOwnFleet,
		CreatedAt:       riskNow.Add(-time.Hour),
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, eightDayTransit())

	f := findFactor(got.Factors, domain.FactorHubCongestion)
	if f == nil {
		t.Fatalf("congestion factor missing, got %v", got.Factors)
	}
	// 85% utilization: 15 points over the 70% threshold out of a 30-point
	// span, scaled to the 20-point cap.
	if math.Abs(got.RiskScore-10) > 0.01 {
		t.Errorf("score = %v, want 10", got.RiskScore)
	}
	if math.Abs(f.ImpactMinutes-60) > 0.01 {
		t.Errorf("impact = %v, want 60 minutes", f.ImpactMinutes)
	}
}

func TestCalculateDelayRiskCongestionBelowThresholdIsSilent(t *testing.T) {
	hubs := newStubHubRepo()
	hubs.addHub("HUB-1", 100)
	shipments := newStubShipmentRepo()
	shipments.hubCounts["HUB-1"] = 60

	svc := newTestRiskService(hubs, shipments, riskNow)

	shipment := &domain.Shipment{
		Status:          domain.StatusAtDestinationHub,
		CurrentHubID:    "HUB-1",
		FulfillmentMode: domain.ModeOwnFleet,
		CreatedAt:       riskNow.Add(-time.Hour),
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, eightDayTransit())
	if got.RiskScore != 0 {
		t.Errorf("score = %v, want 0 below the threshold", got.RiskScore)
	}
}

func TestCalculateDelayRiskHubLookupFailureIsZeroSignal(t *testing.T) {
	hubs := newStubHubRepo()
	hubs.err = errors.New("connection reset")

	svc := newTestRiskService(hubs, newStubShipmentRepo(), riskNow)

	shipment := &domain.Shipment{
		Status:          domain.StatusAtDestinationHub,
		CurrentHubID:    "HUB-GONE",
		FulfillmentMode: domain.ModeOwnFleet,
		CreatedAt:       riskNow.Add(-time.Hour),
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, eightDayTransit())
	if got == nil || got.RiskScore != 0 {
		t.Errorf("lookup failure must degrade to zero signal, got %+v", got)
	}
}

func TestCalculateDelayRiskRoutePerformance(t *testing.T) {
	svc := newTestRiskService(newStubHubRepo(), newStubShipmentRepo(), riskNow)

	transit := eightDayTransit()
	transit.SampleCount = 10
	transit.OnTimePercentage = 60

	shipment := &domain.Shipment{
		Status:          domain.StatusAtDestinationHub,
		FulfillmentMode: domain.ModeOwnFleet,
		CreatedAt:       riskNow.Add(-time.Hour),
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, transit)

	f := findFactor(got.Factors, domain.FactorRoutePerformance)
	if f == nil {
		t.Fatalf("route performance factor missing, got %v", got.Factors)
	}
	// 20-point shortfall below the 80% threshold: 20/80 of the 25-point cap.
	if math.Abs(got.RiskScore-6.25) > 0.001 {
		t.Errorf("score = %v, want 6.25", got.RiskScore)
	}
	if math.Abs(f.ImpactMinutes-120) > 0.01 {
		t.Errorf("impact = %v, want 120", f.ImpactMinutes)
	}
}

func TestCalculateDelayRiskRoutePerformanceNeedsSamples(t *testing.T) {
	svc := newTestRiskService(newStubHubRepo(), newStubShipmentRepo(), riskNow)

	transit := eightDayTransit()
	transit.SampleCount = 5 // at the minimum, not above it
	transit.OnTimePercentage = 10

	shipment := &domain.Shipment{
		Status:          domain.StatusAtDestinationHub,
		FulfillmentMode: domain.ModeOwnFleet,
		CreatedAt:       riskNow.Add(-time.Hour),
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, transit)
	if got.RiskScore != 0 {
		t.Errorf("score = %v, want 0 with too few samples", got.RiskScore)
	}
}

func TestCalculateDelayRiskJourneyComplexity(t *testing.T) {
	svc := newTestRiskService(newStubHubRepo(), newStubShipmentRepo(), riskNow)

	shipment := &domain.Shipment{
		Status:          domain.StatusBooked, // four legs ahead
		FulfillmentMode: domain.ModeOwnFleet,
		CreatedAt:       riskNow,
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, eightDayTransit())

	f := findFactor(got.Factors, domain.FactorJourneyComplexity)
	if f == nil {
		t.Fatalf("complexity factor missing, got %v", got.Factors)
	}
	if got.RiskScore != 15 { // 4 legs × 5 points, capped at 15
		t.Errorf("score = %v, want 15", got.RiskScore)
	}
	if f.ImpactMinutes != 120 { // 4 legs × 30 minutes
		t.Errorf("impact = %v, want 120", f.ImpactMinutes)
	}
}

func TestCalculateDelayRiskPartnerDependency(t *testing.T) {
	svc := newTestRiskService(newStubHubRepo(), newStubShipmentRepo(), riskNow)

	cases := []struct {
		mode       domain.FulfillmentMode
		wantScore  float64
		wantImpact float64
	}{
		{domain.ModePartner, 10, 120},
		{domain.ModeHybrid, 5, 60},
		{domain.ModeOwnFleet, 0, 0},
	}
	for _, tc := range cases {
		shipment := &domain.Shipment{
			Status:          domain.StatusInTransit,
			FulfillmentMode: tc.mode,
			CreatedAt:       riskNow,
		}
		got := svc.CalculateDelayRisk(context.Background(), shipment, eightDayTransit())
		if got.RiskScore != tc.wantScore {
			t.Errorf("%s: score = %v, want %v", tc.mode, got.RiskScore, tc.wantScore)
		}
		if f := findFactor(got.Factors, domain.FactorPartnerDependency); tc.wantScore > 0 {
			if f == nil || f.ImpactMinutes != tc.wantImpact {
				t.Errorf("%s: factor = %+v, want impact %v", tc.mode, f, tc.wantImpact)
			}
		} else if f != nil {
			t.Errorf("%s: unexpected partner factor", tc.mode)
		}
	}
}

func TestCalculateDelayRiskSundayOperations(t *testing.T) {
	sunday := time.Date(2026, 8, 23, 8, 0, 0, 0, time.UTC)
	svc := newTestRiskService(newStubHubRepo(), newStubShipmentRepo(), sunday)

	shipment := &domain.Shipment{
		Status:          domain.StatusAtDestinationHub,
		FulfillmentMode: domain.ModeOwnFleet,
		CreatedAt:       sunday,
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, eightDayTransit())

	f := findFactor(got.Factors, domain.FactorTimeOfDay)
	if f == nil {
		t.Fatalf("time-of-day factor missing, got %v", got.Factors)
	}
	if got.RiskScore != 5 {
		t.Errorf("score = %v, want 5 for Sunday alone", got.RiskScore)
	}
}

func TestCalculateDelayRiskTimeOfDaySubPointsAreCapped(t *testing.T) {
	// Sunday evening in a peak window with the deadline already passed: all
	// four sub-factors fire (5+3+5+7 = 20) but the cap holds at 10.
	sundayEvening := time.Date(2026, 8, 23, 18, 30, 0, 0, time.UTC)
	svc := newTestRiskService(newStubHubRepo(), newStubShipmentRepo(), sundayEvening)

	expected := sundayEvening.Add(2 * time.Hour)
	shipment := &domain.Shipment{
		Status:               domain.StatusAtDestinationHub,
		FulfillmentMode:      domain.ModeOwnFleet,
		CreatedAt:            sundayEvening.Add(-time.Minute),
		ExpectedDeliveryDate: &expected,
	}

	got := svc.CalculateDelayRisk(context.Background(), shipment, eightDayTransit())

	if got.RiskScore != 10 {
		t.Errorf("score = %v, want capped 10", got.RiskScore)
	}
}

func TestCalculateDelayRiskScoreIsClampedToHundred(t *testing.T) {
	// Worst case trips every factor: 30+20+25+15+10+10 = 110 raw points.
	sundayEvening := time.Date(2026, 8, 23, 18, 30, 0, 0, time.UTC)
	hubs := newStubHubRepo()
	hubs.addHub("HUB-1", 100)
	shipments := newStubShipmentRepo()
	shipments.hubCounts["HUB-1"] = 100

	svc := newTestRiskService(hubs, shipments, sundayEvening)

	expected := sundayEvening.AddDate(0, 0, -2)
	shipment := &domain.Shipment{
		AWB:                  "AWB2999",
		Status:               domain.StatusAtOriginHub,
		CurrentHubID:         "HUB-1",
		FulfillmentMode:      domain.ModePartner,
		CreatedAt:            sundayEvening.AddDate(0, 0, -60),
		ExpectedDeliveryDate: &expected,
	}
	transit := eightDayTransit()
	transit.SampleCount = 100
	transit.OnTimePercentage = 0

	got := svc.CalculateDelayRisk(context.Background(), shipment, transit)

	if len(got.Factors) != 6 {
		t.Fatalf("got %d factors, want all 6: %v", len(got.Factors), got.Factors)
	}
	if got.RiskScore != 100 {
		t.Errorf("score = %v, want clamped 100", got.RiskScore)
	}
	if got.DelayRisk != domain.RiskHigh {
		t.Errorf("level = %s, want HIGH", got.DelayRisk)
	}
}

func TestCalculateDelayRiskBoundsAcrossStatusesAndModes(t *testing.T) {
	cfg := DefaultEngineConfig()
	hubs := newStubHubRepo()
	hubs.addHub("HUB-1", 50)
	shipments := newStubShipmentRepo()
	shipments.hubCounts["HUB-1"] = 50

	svc := newTestRiskService(hubs, shipments, riskNow)

	statuses := []domain.ShipmentStatus{
		domain.StatusBooked, domain.StatusPickupScheduled, domain.StatusPickedUp,
		domain.StatusAtOriginHub, domain.StatusInTransit, domain.StatusAtDestinationHub,
		domain.StatusOutForDelivery,
	}
	modes := []domain.FulfillmentMode{domain.ModeOwnFleet, domain.ModePartner, domain.ModeHybrid}

	for _, status := range statuses {
		for _, mode := range modes {
			expected := riskNow.AddDate(0, 0, -1)
			shipment := &domain.Shipment{
				AWB:                  "AWB-FUZZ",
				Status:               status,
				CurrentHubID:         "HUB-1",
				FulfillmentMode:      mode,
				CreatedAt:            riskNow.AddDate(0, 0, -30),
				ExpectedDeliveryDate: &expected,
			}
			transit := eightDayTransit()
			transit.SampleCount = 50
			transit.OnTimePercentage = 40

			got := svc.CalculateDelayRisk(context.Background(), shipment, transit)
			if got.RiskScore < 0 || got.RiskScore > 100 {
				t.Errorf("%s/%s: score %v out of range", status, mode, got.RiskScore)
			}
			if got.DelayRisk != cfg.RiskLevelForScore(got.RiskScore) {
				t.Errorf("%s/%s: level %s does not match score %v", status, mode, got.DelayRisk, got.RiskScore)
			}
			sum := 0.0
			for _, f := range got.Factors {
				sum += f.ImpactMinutes
			}
			if math.Abs(sum-got.PredictedDelayMinutes) > 0.001 {
				t.Errorf("%s/%s: predicted delay %v does not equal factor sum %v", status, mode, got.PredictedDelayMinutes, sum)
			}
		}
	}
}
