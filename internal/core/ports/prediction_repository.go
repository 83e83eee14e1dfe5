package ports

import (
	"context"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

// PredictionRepository persists ETA prediction snapshots.
type PredictionRepository interface {
	// StoreActive deactivates any previously active prediction for the
	// shipment and inserts p as the new active row, atomically with respect
	// to concurrent writers for the same AWB.
	StoreActive(ctx context.Context, p *domain.ETAPrediction) error
	// FindActiveByAWB returns the single active prediction for the shipment,
	// or domain.ErrPredictionNotFound.
	FindActiveByAWB(ctx context.Context, awb string) (*domain.ETAPrediction, error)
}
