package ports

import (
	"context"
	"time"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// ListShipmentsFilter selects shipments for batch prediction. Terminal
// statuses are always excluded by the repository.
type ListShipmentsFilter struct {
	AWBs     []string                // optional: restrict to these shipments
	Statuses []domain.ShipmentStatus // optional: restrict to these statuses
	Limit    int                     // max rows (capped by the service)
	Offset   int
}

// ShipmentRepository is the engine's read-only view of live shipments.
// Shipment writes belong to the surrounding order-management system.
type ShipmentRepository interface {
	FindByAWB(ctx context.Context, awb string) (*domain.Shipment, error)
	// ListForPrediction returns non-terminal shipments matching filter,
	// ordered by created_at ascending.
	ListForPrediction(ctx context.Context, filter ListShipmentsFilter) ([]*domain.Shipment, error)
	// ListDeliveredSince returns shipments delivered on or after since,
	// for the transit-time aggregation job.
	ListDeliveredSince(ctx context.Context, since time.Time) ([]*domain.Shipment, error)
	// CountAtHub counts shipments currently occupying the hub in the given
	// statuses. Used for congestion scoring.
	CountAtHub(ctx context.Context, hubID string, statuses []domain.ShipmentStatus) (int64, error)
}
