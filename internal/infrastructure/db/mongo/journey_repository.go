package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dispatchgrid/fulfillment-engine/internal/core/domain"
)

const collectionJourneyPlans = "journey_plans"

type JourneyPlanRepository struct {
	col *mongo.Collection
}

func NewJourneyPlanRepository(db *mongo.Database) *JourneyPlanRepository {
	return &JourneyPlanRepository{col: db.Collection(collectionJourneyPlans)}
}

// Create inserts a new journey plan document. Plans are write-once; legs are
// stored as a structured array, never as a serialized blob.
func (r *JourneyPlanRepository) Create(ctx context.Context, plan *domain.JourneyPlan) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, plan)
	return err
}

// EnsureIndexes creates the lookup indexes on journey plans.
func (r *JourneyPlanRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "awb", Value: 1}}},
		{Keys: bson.D{{Key: "origin_pincode", Value: 1}, {Key: "destination_pincode", Value: 1}}},
	})
	return err
}
