package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
	"github.com/dispatchgrid/fulfillment-engine/internal/core/ports"
)

const collectionShipments = "shipments"

// ShipmentRepository is the engine's read-only window onto the shipment
// collection owned by the surrounding order-management system.
type ShipmentRepository struct {
	col *mongo.Collection
}

func NewShipmentRepository(db *mongo.Database) *ShipmentRepository {
	return &ShipmentRepository{col: db.Collection(collectionShipments)}
}

// FindByAWB retrieves a shipment by air waybill number.
func (r *ShipmentRepository) FindByAWB(ctx context.Context, awb string) (*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var s domain.Shipment
	err := r.col.FindOne(ctx, bson.M{"awb": awb}).Decode(&s)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return &s, nil
}

// ListForPrediction returns non-terminal shipments matching filter, oldest
// first. Terminal statuses are always excluded regardless of the filter.
func (r *ShipmentRepository) ListForPrediction(ctx context.Context, filter ports.ListShipmentsFilter) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	query := bson.M{"status": bson.M{"$nin": domain.TerminalStatuses}}
	if len(filter.AWBs) > 0 {
		query["awb"] = bson.M{"$in": filter.AWBs}
	}
	if len(filter.Statuses) > 0 {
		query["status"] = bson.M{
			"$in":  filter.Statuses,
			"$nin": domain.TerminalStatuses,
		}
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}

	cursor, err := r.col.Find(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shipments []*domain.Shipment
	if err := cursor.All(ctx, &shipments); err != nil {
		return nil, err
	}
	return shipments, nil
}

// ListDeliveredSince returns shipments delivered on or after since, for the
// transit-time aggregation job.
func (r *ShipmentRepository) ListDeliveredSince(ctx context.Context, since time.Time) ([]*domain.Shipment, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	query := bson.M{
		"status":       domain.StatusDelivered,
		"delivered_at": bson.M{"$gte": since},
	}

	cursor, err := r.col.Find(ctx, query)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var shipments []*domain.Shipment
	if err := cursor.All(ctx, &shipments); err != nil {
		return nil, err
	}
	return shipments, nil
}

// CountAtHub counts shipments currently occupying the hub in the given
// statuses.
func (r *ShipmentRepository) CountAtHub(ctx context.Context, hubID string, statuses []domain.ShipmentStatus) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.M{
		"current_hub_id": hubID,
		"status":         bson.M{"$in": statuses},
	})
}

// EnsureIndexes creates the indexes backing the engine's shipment reads.
func (r *ShipmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "awb", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "current_hub_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "delivered_at", Value: 1}}},
	})
	return err
}
