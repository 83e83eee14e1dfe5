package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/montanaflynn/stats"
	"github.com/rs/zerolog"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

// TransitCache abstracts the short-TTL result cache (Redis). A nil result
// with a nil error is a miss.
type TransitCache interface {
	Get(ctx context.Context, originPincode, destinationPincode string) (*domain.TransitTimeResult, error)
	Set(ctx context.Context, result *domain.TransitTimeResult) error
}

// staticDefault holds the fallback statistics for one route type, used when
// no historical row qualifies.
type staticDefault struct {
	avgMinutes    float64
	stdDevMinutes float64
	p90Minutes    float64
	onTimePct     float64
}

// routeTypeDefaults is the fixed tier-3 fallback table: LOCAL 24h, ZONAL 48h,
// NATIONAL 96h.
var routeTypeDefaults = map[domain.RouteType]staticDefault{
	domain.RouteLocal:    {avgMinutes: 1440, stdDevMinutes: 240, p90Minutes: 1800, onTimePct: 95},
	domain.RouteZonal:    {avgMinutes: 2880, stdDevMinutes: 480, p90Minutes: 3600, onTimePct: 90},
	domain.RouteNational: {avgMinutes: 5760, stdDevMinutes: 960, p90Minutes: 7200, onTimePct: 85},
}

type transitTimeService struct {
	transits  ports.TransitTimeRepository
	shipments ports.ShipmentRepository
	cache     TransitCache
	cfg       EngineConfig
	clock     clockwork.Clock
	log       zerolog.Logger
}

// NewTransitTimeService returns a TransitTimeService. cache may be nil, in
// which case every call computes from the repository.
func NewTransitTimeService(
	transits ports.TransitTimeRepository,
	shipments ports.ShipmentRepository,
	cache TransitCache,
	cfg EngineConfig,
	clock clockwork.Clock,
	log zerolog.Logger,
) ports.TransitTimeService {
	return &transitTimeService{transits: transits, shipments: shipments, cache: cache, cfg: cfg, clock: clock, log: log}
}

// CalculateTransitTime resolves transit statistics through three tiers:
// exact pincode pair, 3-digit region prefix, then static route-type defaults.
// Insufficient data is never an error; the caller always gets an estimate.
func (s *transitTimeService) CalculateTransitTime(ctx context.Context, originPincode, destinationPincode string) (*domain.TransitTimeResult, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, originPincode, destinationPincode)
		if err != nil {
			s.log.Warn().Err(err).Str("origin", originPincode).Str("destination", destinationPincode).Msg("transit cache read failed, computing")
		} else if cached != nil {
			return cached, nil
		}
	}

	result, err := s.resolve(ctx, originPincode, destinationPincode)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, result); err != nil {
			s.log.Warn().Err(err).Str("origin", originPincode).Str("destination", destinationPincode).Msg("transit cache write failed")
		}
	}
	return result, nil
}

func (s *transitTimeService) resolve(ctx context.Context, originPincode, destinationPincode string) (*domain.TransitTimeResult, error) {
	routeType := domain.ClassifyRoute(originPincode, destinationPincode)

	// Tier 1: exact pair, most recent period.
	row, err := s.transits.FindLatestExact(ctx, originPincode, destinationPincode, s.cfg.MinHistoricalSamples)
	if err != nil && !errors.Is(err, domain.ErrNoTransitHistory) {
		return nil, fmt.Errorf("calculate transit time: exact lookup: %w", err)
	}

	// Tier 2: 3-digit region prefix, highest sample count.
	if row == nil {
		row, err = s.transits.FindBestRegion(ctx,
			domain.RegionPrefix(originPincode),
			domain.RegionPrefix(destinationPincode),
			s.cfg.MinRegionSamples,
		)
		if err != nil && !errors.Is(err, domain.ErrNoTransitHistory) {
			return nil, fmt.Errorf("calculate transit time: region lookup: %w", err)
		}
	}

	if row != nil {
		return &domain.TransitTimeResult{
			OriginPincode:      originPincode,
			DestinationPincode: destinationPincode,
			RouteType:          routeType,
			AvgTransitMinutes:  row.AvgTransitMinutes,
			StdDevMinutes:      row.StdDevMinutes,
			Percentile90:       row.Percentile90,
			OnTimePercentage:   row.OnTimePercentage,
			SampleCount:        row.SampleCount,
			Source:             domain.TransitSourceHistorical,
		}, nil
	}

	// Tier 3: static defaults keyed by route type.
	def := routeTypeDefaults[routeType]
	return &domain.TransitTimeResult{
		OriginPincode:      originPincode,
		DestinationPincode: destinationPincode,
		RouteType:          routeType,
		AvgTransitMinutes:  def.avgMinutes,
		StdDevMinutes:      def.stdDevMinutes,
		Percentile90:       def.p90Minutes,
		OnTimePercentage:   def.onTimePct,
		SampleCount:        0,
		Source:             domain.TransitSourceEstimated,
	}, nil
}

// pairSamples accumulates delivered-shipment observations for one route pair.
type pairSamples struct {
	origin      string
	destination string
	minutes     []float64
	onTime      int
}

// AggregateHistoricalTransitTimes scans shipments delivered inside the
// configured window, groups them by exact pincode pair, and upserts one
// statistics row per pair for today's period. Pairs with fewer than the
// minimum samples are skipped.
func (s *transitTimeService) AggregateHistoricalTransitTimes(ctx context.Context) (*ports.AggregationResult, error) {
	now := s.clock.Now().UTC()
	since := now.AddDate(0, 0, -s.cfg.AggregationWindowDays)

	delivered, err := s.shipments.ListDeliveredSince(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("aggregate transit times: %w", err)
	}

	pairs := make(map[string]*pairSamples)
	for _, sh := range delivered {
		if sh.DeliveredAt == nil {
			continue
		}
		key := sh.OriginPincode + ":" + sh.DestinationPincode
		p, ok := pairs[key]
		if !ok {
			p = &pairSamples{origin: sh.OriginPincode, destination: sh.DestinationPincode}
			pairs[key] = p
		}
		p.minutes = append(p.minutes, sh.DeliveredAt.Sub(sh.CreatedAt).Minutes())
		// Shipments without a committed delivery date count as on time.
		if sh.ExpectedDeliveryDate == nil || !sh.DeliveredAt.After(*sh.ExpectedDeliveryDate) {
			p.onTime++
		}
	}

	periodStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	result := &ports.AggregationResult{ShipmentsScanned: len(delivered), PairsSeen: len(pairs)}

	for _, p := range pairs {
		if len(p.minutes) < s.cfg.MinAggregationSamples {
			result.PairsSkipped++
			continue
		}

		row, err := buildTransitRow(p, periodStart)
		if err != nil {
			s.log.Error().Err(err).Str("origin", p.origin).Str("destination", p.destination).Msg("transit statistics computation failed, pair skipped")
			result.PairsSkipped++
			continue
		}
		if err := s.transits.Upsert(ctx, row); err != nil {
			s.log.Error().Err(err).Str("origin", p.origin).Str("destination", p.destination).Msg("transit row upsert failed, pair skipped")
			result.PairsSkipped++
			continue
		}
		result.RoutesUpserted++
	}

	s.log.Info().
		Int("shipments", result.ShipmentsScanned).
		Int("pairs", result.PairsSeen).
		Int("upserted", result.RoutesUpserted).
		Int("skipped", result.PairsSkipped).
		Msg("transit time aggregation completed")

	return result, nil
}

// buildTransitRow computes the statistics row for one pair's samples.
func buildTransitRow(p *pairSamples, periodStart time.Time) (*domain.HistoricalTransitTime, error) {
	data := stats.Float64Data(p.minutes)

	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return nil, err
	}
	// Nearest-rank percentiles stay defined down to the minimum sample count,
	// where interpolated percentiles error out.
	p10, err := stats.PercentileNearestRank(data, 10)
	if err != nil {
		return nil, err
	}
	p90, err := stats.PercentileNearestRank(data, 90)
	if err != nil {
		return nil, err
	}

	return &domain.HistoricalTransitTime{
		OriginPincode:        p.origin,
		DestinationPincode:   p.destination,
		OriginRegion:         domain.RegionPrefix(p.origin),
		DestinationRegion:    domain.RegionPrefix(p.destination),
		SampleCount:          len(p.minutes),
		AvgTransitMinutes:    mean,
		MedianTransitMinutes: median,
		StdDevMinutes:        stdDev,
		Percentile10:         p10,
		Percentile90:         p90,
		OnTimePercentage:     float64(p.onTime) / float64(len(p.minutes)) * 100,
		PeriodStart:          periodStart,
	}, nil
}
