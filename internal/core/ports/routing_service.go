package ports

import (
	"context"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// CreateJourneyPlanInput carries the data needed to build and persist a
// journey plan at booking time.
type CreateJourneyPlanInput struct {
	AWB                string // optional: link the plan to a booked shipment
	OriginPincode      string
	DestinationPincode string
}

// RoutingService decides how a shipment moves between two pincodes and
// persists the resulting journey plan.
type RoutingService interface {
	// FindNearestHub resolves the covering hub for a pincode and direction.
	FindNearestHub(ctx context.Context, pincode string, t domain.MappingType) (*domain.Hub, *domain.HubPincodeMapping, error)
	// GetPartnerZone resolves the partner zone covering a pincode.
	GetPartnerZone(ctx context.Context, pincode string) (*domain.PartnerZoneMapping, error)
	// DetermineFulfillment classifies the route and builds the journey legs.
	// Coverage gaps are decision branches, not errors; only infrastructure
	// failures are returned.
	DetermineFulfillment(ctx context.Context, originPincode, destinationPincode string) (*domain.FulfillmentDecision, error)
	// CreateJourneyPlan runs DetermineFulfillment and persists the plan with
	// its estimated delivery date.
	CreateJourneyPlan(ctx context.Context, input CreateJourneyPlanInput) (*domain.JourneyPlan, error)
}
