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

const collectionPartnerZones = "partner_zone_mappings"

type PartnerZoneRepository struct {
	col *mongo.Collection
}

func NewPartnerZoneRepository(db *mongo.Database) *PartnerZoneRepository {
	return &PartnerZoneRepository{col: db.Collection(collectionPartnerZones)}
}

// FindZoneForPincode returns the active zone containing pincode. Overlapping
// zones resolve by ascending priority, then _id — an explicit, documented
// tie-break rather than datastore iteration order.
func (r *PartnerZoneRepository) FindZoneForPincode(ctx context.Context, pincode string) (*domain.PartnerZoneMapping, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"pincodes": pincode, "is_active": true}
	opts := options.FindOne().SetSort(bson.D{{Key: "priority", Value: 1}, {Key: "_id", Value: 1}})

	var zone domain.PartnerZoneMapping
	err := r.col.FindOne(ctx, filter, opts).Decode(&zone)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoPartnerZone
		}
		return nil, err
	}
	return &zone, nil
}

// EnsureIndexes creates the multikey index over the zone pincode sets.
func (r *PartnerZoneRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "pincodes", Value: 1}, {Key: "is_active", Value: 1}}},
		{Keys: bson.D{{Key: "priority", Value: 1}}},
	})
	return err
}
