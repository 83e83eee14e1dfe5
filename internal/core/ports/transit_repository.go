package ports

import (
	"context"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// TransitTimeRepository reads and writes aggregated route statistics.
type TransitTimeRepository interface {
	// FindLatestExact returns the most recent (by period_start) row for the
	// exact pincode pair with at least minSamples samples, or
	// domain.ErrNoTransitHistory.
	FindLatestExact(ctx context.Context, originPincode, destinationPincode string, minSamples int) (*domain.HistoricalTransitTime, error)
	// FindBestRegion returns the row with the highest sample count matching
	// the 3-digit region prefixes with at least minSamples samples, or
	// domain.ErrNoTransitHistory.
	FindBestRegion(ctx context.Context, originRegion, destinationRegion string, minSamples int) (*domain.HistoricalTransitTime, error)
	// Upsert writes one row keyed by (origin, destination, period_start).
	Upsert(ctx context.Context, row *domain.HistoricalTransitTime) error
}
