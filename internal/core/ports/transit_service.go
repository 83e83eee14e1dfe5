package ports

import (
	"context"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// AggregationResult summarizes one run of the transit-time aggregation job.
type AggregationResult struct {
	ShipmentsScanned int
	PairsSeen        int
	RoutesUpserted   int
	PairsSkipped     int // pairs below the minimum sample count
}

// TransitTimeService estimates transit time for a route, falling back from
// exact history to regional history to static defaults. It never fails the
// caller for lack of data.
type TransitTimeService interface {
	CalculateTransitTime(ctx context.Context, originPincode, destinationPincode string) (*domain.TransitTimeResult, error)
	// AggregateHistoricalTransitTimes recomputes per-pair statistics from
	// shipments delivered inside the configured window.
	AggregateHistoricalTransitTimes(ctx context.Context) (*AggregationResult, error)
}
