package ports

import (
	"context"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// HubRepository reads the hub network and its pincode coverage.
type HubRepository interface {
	// FindByID retrieves a hub by id regardless of active flag.
	FindByID(ctx context.Context, hubID string) (*domain.Hub, error)
	// FindNearestMapping returns the active hub with the lowest-priority
	// active mapping covering pincode for the requested direction.
	// Returns domain.ErrNoHubCoverage when no active hub covers the pincode.
	FindNearestMapping(ctx context.Context, pincode string, t domain.MappingType) (*domain.Hub, *domain.HubPincodeMapping, error)
}

// PartnerZoneRepository reads partner-only zone coverage.
type PartnerZoneRepository interface {
	// FindZoneForPincode returns the active zone containing pincode with the
	// lowest (priority, id) — the documented tie-break for overlapping zones.
	// Returns domain.ErrNoPartnerZone when no active zone matches.
	FindZoneForPincode(ctx context.Context, pincode string) (*domain.PartnerZoneMapping, error)
}
