package ports

import (
	"context"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// JourneyPlanRepository persists journey plans. Plans are write-once.
type JourneyPlanRepository interface {
	Create(ctx context.Context, plan *domain.JourneyPlan) error
}
