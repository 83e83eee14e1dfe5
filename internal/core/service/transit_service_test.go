package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory stubs
// ---------------------------------------------------------------------------

type stubTransitRepo struct {
	exact      map[string]*domain.HistoricalTransitTime // "origin:destination"
	region     map[string]*domain.HistoricalTransitTime // "originRegion:destinationRegion"
	upserted   []*domain.HistoricalTransitTime
	exactCalls int
	upsertErr  error
}

func newStubTransitRepo() *stubTransitRepo {
	return &stubTransitRepo{
		exact:  make(map[string]*domain.HistoricalTransitTime),
		region: make(map[string]*domain.HistoricalTransitTime),
	}
}

func (r *stubTransitRepo) FindLatestExact(_ context.Context, origin, destination string, minSamples int) (*domain.HistoricalTransitTime, error) {
	r.exactCalls++
	row, ok := r.exact[origin+":"+destination]
	if !ok || row.SampleCount < minSamples {
		return nil, domain.ErrNoTransitHistory
	}
	clone := *row
	return &clone, nil
}

func (r *stubTransitRepo) FindBestRegion(_ context.Context, originRegion, destinationRegion string, minSamples int) (*domain.HistoricalTransitTime, error) {
	row, ok := r.region[originRegion+":"+destinationRegion]
	if !ok || row.SampleCount < minSamples {
		return nil, domain.ErrNoTransitHistory
	}
	clone := *row
	return &clone, nil
}

func (r *stubTransitRepo) Upsert(_ context.Context, row *domain.HistoricalTransitTime) error {
	if r.upsertErr != nil {
		return r.upsertErr
	}
	clone := *row
	r.upserted = append(r.upserted, &clone)
	return nil
}

type stubShipmentRepo struct {
	byAWB     map[string]*domain.Shipment
	delivered []*domain.Shipment
	hubCounts map[string]int64
	listErr   error
	countErr  error
}

func newStubShipmentRepo() *stubShipmentRepo {
	return &stubShipmentRepo{
		byAWB:     make(map[string]*domain.Shipment),
		hubCounts: make(map[string]int64),
	}
}

func (r *stubShipmentRepo) FindByAWB(_ context.Context, awb string) (*domain.Shipment, error) {
	s, ok := r.byAWB[awb]
	if !ok {
		return nil, domain.ErrShipmentNotFound
	}
	clone := *s
	return &clone, nil
}

// ListForPrediction applies the same filters the real Mongo repo would use.
func (r *stubShipmentRepo) ListForPrediction(_ context.Context, f ports.ListShipmentsFilter) ([]*domain.Shipment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}

	wantAWB := make(map[string]bool, len(f.AWBs))
	for _, a := range f.AWBs {
		wantAWB[a] = true
	}
	wantStatus := make(map[domain.ShipmentStatus]bool, len(f.Statuses))
	for _, s := range f.Statuses {
		wantStatus[s] = true
	}

	var matched []*domain.Shipment
	for _, s := range r.byAWB {
		if s.Status.IsTerminal() {
			continue
		}
		if len(wantAWB) > 0 && !wantAWB[s.AWB] {
			continue
		}
		if len(wantStatus) > 0 && !wantStatus[s.Status] {
			continue
		}
		clone := *s
		matched = append(matched, &clone)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].CreatedAt.Before(matched[j].CreatedAt) })

	if f.Offset > len(matched) {
		return nil, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	return matched, nil
}

func (r *stubShipmentRepo) ListDeliveredSince(_ context.Context, since time.Time) ([]*domain.Shipment, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []*domain.Shipment
	for _, s := range r.delivered {
		if s.DeliveredAt != nil && !s.DeliveredAt.Before(since) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubShipmentRepo) CountAtHub(_ context.Context, hubID string, _ []domain.ShipmentStatus) (int64, error) {
	if r.countErr != nil {
		return 0, r.countErr
	}
	return r.hubCounts[hubID], nil
}

type fakeTransitCache struct {
	entries map[string]*domain.TransitTimeResult
	getErr  error
	setErr  error
	sets    int
}

func newFakeTransitCache() *fakeTransitCache {
	return &fakeTransitCache{entries: make(map[string]*domain.TransitTimeResult)}
}

func (c *fakeTransitCache) Get(_ context.Context, origin, destination string) (*domain.TransitTimeResult, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[origin+":"+destination], nil
}

func (c *fakeTransitCache) Set(_ context.Context, result *domain.TransitTimeResult) error {
	if c.setErr != nil {
		return c.setErr
	}
	c.sets++
	c.entries[result.OriginPincode+":"+result.DestinationPincode] = result
	return nil
}

// ---------------------------------------------------------------------------
// CalculateTransitTime
// ---------------------------------------------------------------------------

var transitNow = time.Date(2026, 8, 20, 10, 30, 0, 0, time.UTC)

func newTestTransitService(transits *stubTransitRepo, shipments *stubShipmentRepo, cache TransitCache) ports.TransitTimeService {
	return NewTransitTimeService(transits, shipments, cache, DefaultEngineConfig(),
		clockwork.NewFakeClockAt(transitNow), zerolog.Nop())
}

func TestCalculateTransitTimeExactTier(t *testing.T) {
	transits := newStubTransitRepo()
	transits.exact["400093:400001"] = &domain.HistoricalTransitTime{
		OriginPincode: "400093", DestinationPincode: "400001",
		SampleCount: 12, AvgTransitMinutes: 900, StdDevMinutes: 120,
		Percentile90: 1100, OnTimePercentage: 92,
	}

	svc := newTestTransitService(transits, newStubShipmentRepo(), nil)

	got, err := svc.CalculateTransitTime(context.Background(), "400093", "400001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Source != domain.TransitSourceHistorical {
		t.Errorf("source = %q, want historical", got.Source)
	}
	if got.AvgTransitMinutes != 900 || got.SampleCount != 12 {
		t.Errorf("avg=%v samples=%d, want 900/12", got.AvgTransitMinutes, got.SampleCount)
	}
	if got.RouteType != domain.RouteLocal {
		t.Errorf("route type = %s, want LOCAL", got.RouteType)
	}
}

func TestCalculateTransitTimeRegionFallback(t *testing.T) {
	transits := newStubTransitRepo()
	// Exact row exists but is below the minimum sample count.
	transits.exact["400093:110001"] = &domain.HistoricalTransitTime{SampleCount: 3, AvgTransitMinutes: 100}
	transits.region["400:110"] = &domain.HistoricalTransitTime{
		SampleCount: 40, AvgTransitMinutes: 4000, StdDevMinutes: 600,
		Percentile90: 5000, OnTimePercentage: 88,
	}

	svc := newTestTransitService(transits, newStubShipmentRepo(), nil)

	got, err := svc.CalculateTransitTime(context.Background(), "400093", "110001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Source != domain.TransitSourceHistorical || got.AvgTransitMinutes != 4000 {
		t.Errorf("source=%q avg=%v, want historical regional row", got.Source, got.AvgTransitMinutes)
	}
}

func TestCalculateTransitTimeStaticDefaults(t *testing.T) {
	svc := newTestTransitService(newStubTransitRepo(), newStubShipmentRepo(), nil)

	cases := []struct {
		origin      string
		destination string
		routeType   domain.RouteType
		wantAvg     float64
	}{
		{"400093", "400001", domain.RouteLocal, 1440},
		{"110001", "201001", domain.RouteZonal, 2880},
		{"400093", "110001", domain.RouteNational, 5760},
	}
	for _, tc := range cases {
		got, err := svc.CalculateTransitTime(context.Background(), tc.origin, tc.destination)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Source != domain.TransitSourceEstimated {
			t.Errorf("%s: source = %q, want estimated", tc.routeType, got.Source)
		}
		if got.RouteType != tc.routeType || got.AvgTransitMinutes != tc.wantAvg {
			t.Errorf("route %s→%s: type=%s avg=%v, want %s/%v",
				tc.origin, tc.destination, got.RouteType, got.AvgTransitMinutes, tc.routeType, tc.wantAvg)
		}
		if got.SampleCount != 0 {
			t.Errorf("estimated result should carry zero samples, got %d", got.SampleCount)
		}
	}
}

func TestCalculateTransitTimeCacheHitSkipsRepository(t *testing.T) {
	transits := newStubTransitRepo()
	cache := newFakeTransitCache()
	cache.entries["400093:400001"] = &domain.TransitTimeResult{
		OriginPincode: "400093", DestinationPincode: "400001",
		AvgTransitMinutes: 777, Source: domain.TransitSourceHistorical,
	}

	svc := newTestTransitService(transits, newStubShipmentRepo(), cache)

	got, err := svc.CalculateTransitTime(context.Background(), "400093", "400001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.AvgTransitMinutes != 777 {
		t.Errorf("avg = %v, want cached 777", got.AvgTransitMinutes)
	}
	if transits.exactCalls != 0 {
		t.Errorf("repository consulted %d times on a cache hit", transits.exactCalls)
	}
}

func TestCalculateTransitTimeCacheFailuresAreBypassed(t *testing.T) {
	transits := newStubTransitRepo()
	cache := newFakeTransitCache()
	cache.getErr = errors.New("connection refused")

	svc := newTestTransitService(transits, newStubShipmentRepo(), cache)

	got, err := svc.CalculateTransitTime(context.Background(), "400093", "400001")
	if err != nil {
		t.Fatalf("cache failure must not fail the lookup: %v", err)
	}
	if got.Source != domain.TransitSourceEstimated {
		t.Errorf("source = %q, want computed estimate", got.Source)
	}
}

func TestCalculateTransitTimeWritesCache(t *testing.T) {
	cache := newFakeTransitCache()
	svc := newTestTransitService(newStubTransitRepo(), newStubShipmentRepo(), cache)

	if _, err := svc.CalculateTransitTime(context.Background(), "400093", "400001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cache.sets != 1 {
		t.Errorf("cache writes = %d, want 1", cache.sets)
	}
}

// ---------------------------------------------------------------------------
// AggregateHistoricalTransitTimes
// ---------------------------------------------------------------------------

func deliveredShipment(awb, origin, destination string, created time.Time, transitMinutes float64, late bool) *domain.Shipment {
	delivered := created.Add(time.Duration(transitMinutes) * time.Minute)
	s := &domain.Shipment{
		AWB:                awb,
		OriginPincode:      origin,
		DestinationPincode: destination,
		Status:             domain.StatusDelivered,
		CreatedAt:          created,
		DeliveredAt:        &delivered,
	}
	if late {
		expected := delivered.Add(-time.Hour)
		s.ExpectedDeliveryDate = &expected
	}
	return s
}

func TestAggregateHistoricalTransitTimes(t *testing.T) {
	shipments := newStubShipmentRepo()
	created := transitNow.AddDate(0, 0, -10)

	// Six samples for 400093→400001: one delivered after its commitment.
	minutes := []float64{1000, 1200, 1400, 1600, 1800, 2000}
	for i, m := range minutes {
		late := i == 5
		shipments.delivered = append(shipments.delivered,
			deliveredShipment("AWB-A"+string(rune('0'+i)), "400093", "400001", created.Add(time.Duration(i)*time.Hour), m, late))
	}
	// Only four samples for the second pair: below the minimum, skipped.
	for i := 0; i < 4; i++ {
		shipments.delivered = append(shipments.delivered,
			deliveredShipment("AWB-B"+string(rune('0'+i)), "110001", "110092", created, 500, false))
	}

	transits := newStubTransitRepo()
	svc := newTestTransitService(transits, shipments, nil)

	result, err := svc.AggregateHistoricalTransitTimes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ShipmentsScanned != 10 || result.PairsSeen != 2 {
		t.Errorf("scanned=%d pairs=%d, want 10/2", result.ShipmentsScanned, result.PairsSeen)
	}
	if result.RoutesUpserted != 1 || result.PairsSkipped != 1 {
		t.Errorf("upserted=%d skipped=%d, want 1/1", result.RoutesUpserted, result.PairsSkipped)
	}
	if len(transits.upserted) != 1 {
		t.Fatalf("repo received %d rows, want 1", len(transits.upserted))
	}

	row := transits.upserted[0]
	if row.OriginPincode != "400093" || row.DestinationPincode != "400001" {
		t.Errorf("row pair = %s→%s", row.OriginPincode, row.DestinationPincode)
	}
	if row.OriginRegion != "400" || row.DestinationRegion != "400" {
		t.Errorf("row regions = %s/%s, want 400/400", row.OriginRegion, row.DestinationRegion)
	}
	if row.SampleCount != 6 {
		t.Errorf("sample count = %d, want 6", row.SampleCount)
	}
	if row.AvgTransitMinutes != 1500 || row.MedianTransitMinutes != 1500 {
		t.Errorf("mean=%v median=%v, want 1500/1500", row.AvgTransitMinutes, row.MedianTransitMinutes)
	}
	if math.Abs(row.StdDevMinutes-341.565) > 0.01 {
		t.Errorf("stddev = %v, want ≈341.565", row.StdDevMinutes)
	}
	if row.Percentile90 != 2000 {
		t.Errorf("p90 = %v, want 2000", row.Percentile90)
	}
	if math.Abs(row.OnTimePercentage-83.333) > 0.01 {
		t.Errorf("on-time = %v, want ≈83.333", row.OnTimePercentage)
	}
	wantPeriod := time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)
	if !row.PeriodStart.Equal(wantPeriod) {
		t.Errorf("period start = %v, want %v", row.PeriodStart, wantPeriod)
	}
}

func TestAggregateSkipsShipmentsWithoutDeliveryTimestamp(t *testing.T) {
	shipments := newStubShipmentRepo()
	created := transitNow.AddDate(0, 0, -5)
	for i := 0; i < 6; i++ {
		sh := deliveredShipment("AWB-C"+string(rune('0'+i)), "400093", "400001", created, 1200, false)
		if i == 0 {
			sh.DeliveredAt = nil
		}
		shipments.delivered = append(shipments.delivered, sh)
	}

	transits := newStubTransitRepo()
	svc := newTestTransitService(transits, shipments, nil)

	result, err := svc.AggregateHistoricalTransitTimes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.RoutesUpserted != 1 {
		t.Fatalf("upserted = %d, want 1", result.RoutesUpserted)
	}
	if transits.upserted[0].SampleCount != 5 {
		t.Errorf("sample count = %d, want 5 (nil delivered_at excluded)", transits.upserted[0].SampleCount)
	}
}
