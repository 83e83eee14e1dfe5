package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

const (
	collectionHubs     = "hubs"
	collectionMappings = "hub_pincode_mappings"
)

type HubRepository struct {
	hubs     *mongo.Collection
	mappings *mongo.Collection
}

func NewHubRepository(db *mongo.Database) *HubRepository {
	return &HubRepository{
		hubs:     db.Collection(collectionHubs),
		mappings: db.Collection(collectionMappings),
	}
}

// FindByID retrieves a hub by id.
func (r *HubRepository) FindByID(ctx context.Context, hubID string) (*domain.Hub, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var hub domain.Hub
	err := r.hubs.FindOne(ctx, bson.M{"_id": hubID}).Decode(&hub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrHubNotFound
		}
		return nil, err
	}
	return &hub, nil
}

// FindNearestMapping walks the active mappings covering pincode in priority
// order and returns the first one whose hub is itself active. Inactive hubs
// are never eligible for routing even when their mapping is still active.
func (r *HubRepository) FindNearestMapping(ctx context.Context, pincode string, t domain.MappingType) (*domain.Hub, *domain.HubPincodeMapping, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"pincode":   pincode,
		"is_active": true,
		"type":      bson.M{"$in": []domain.MappingType{t, domain.MappingBoth}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "priority", Value: 1}})

	cursor, err := r.mappings.Find(ctx, filter, opts)
	if err != nil {
		return nil, nil, err
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var mapping domain.HubPincodeMapping
		if err := cursor.Decode(&mapping); err != nil {
			return nil, nil, err
		}

		var hub domain.Hub
		err := r.hubs.FindOne(ctx, bson.M{"_id": mapping.HubID, "is_active": true}).Decode(&hub)
		if errors.Is(err, mongo.ErrNoDocuments) {
			continue
		}
		if err != nil {
			return nil, nil, err
		}
		return &hub, &mapping, nil
	}
	if err := cursor.Err(); err != nil {
		return nil, nil, err
	}

	return nil, nil, domain.ErrNoHubCoverage
}

// EnsureIndexes creates the indexes backing the coverage lookups.
func (r *HubRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.mappings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pincode", Value: 1}, {Key: "is_active", Value: 1}, {Key: "priority", Value: 1}}},
		{Keys: bson.D{{Key: "hub_id", Value: 1}}},
	})
	return err
}
