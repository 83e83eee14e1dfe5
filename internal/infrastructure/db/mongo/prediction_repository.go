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

const collectionPredictions = "eta_predictions"

type PredictionRepository struct {
	col *mongo.Collection
}

func NewPredictionRepository(db *mongo.Database) *PredictionRepository {
	return &PredictionRepository{col: db.Collection(collectionPredictions)}
}

// StoreActive deactivates the shipment's previously active predictions and
// inserts p as the new active row. The two writes run inside one transaction
// when the deployment supports sessions, preserving the invariant that no two
// predictions for the same AWB are active simultaneously. On standalone
// deployments without sessions the writes run sequentially; last writer wins.
func (r *PredictionRepository) StoreActive(ctx context.Context, p *domain.ETAPrediction) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	session, err := r.col.Database().Client().StartSession()
	if err != nil {
		return r.storeSequential(ctx, p)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		if err := r.deactivate(sc, p.AWB); err != nil {
			return nil, err
		}
		return r.col.InsertOne(sc, p)
	})
	return err
}

func (r *PredictionRepository) storeSequential(ctx context.Context, p *domain.ETAPrediction) error {
	if err := r.deactivate(ctx, p.AWB); err != nil {
		return err
	}
	_, err := r.col.InsertOne(ctx, p)
	return err
}

func (r *PredictionRepository) deactivate(ctx context.Context, awb string) error {
	_, err := r.col.UpdateMany(ctx,
		bson.M{"awb": awb, "is_active": true},
		bson.M{"$set": bson.M{"is_active": false}},
	)
	return err
}

// FindActiveByAWB returns the single active prediction for the shipment.
func (r *PredictionRepository) FindActiveByAWB(ctx context.Context, awb string) (*domain.ETAPrediction, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.ETAPrediction
	err := r.col.FindOne(ctx, bson.M{"awb": awb, "is_active": true}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrPredictionNotFound
		}
		return nil, err
	}
	return &p, nil
}

// EnsureIndexes creates prediction indexes, including the partial unique
// index that backs the one-active-row-per-shipment invariant.
func (r *PredictionRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "awb", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"is_active": true}),
		},
		{Keys: bson.D{{Key: "awb", Value: 1}, {Key: "calculated_at", Value: -1}}},
		{Keys: bson.D{{Key: "risk_score", Value: -1}}},
	})
	return err
}
