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

const collectionTransitTimes = "historical_transit_times"

type TransitTimeRepository struct {
	col *mongo.Collection
}

func NewTransitTimeRepository(db *mongo.Database) *TransitTimeRepository {
	return &TransitTimeRepository{col: db.Collection(collectionTransitTimes)}
}

// FindLatestExact returns the most recent qualifying row for the exact pair.
func (r *TransitTimeRepository) FindLatestExact(ctx context.Context, originPincode, destinationPincode string, minSamples int) (*domain.HistoricalTransitTime, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"origin_pincode":      originPincode,
		"destination_pincode": destinationPincode,
		"sample_count":        bson.M{"$gte": minSamples},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "period_start", Value: -1}})

	var row domain.HistoricalTransitTime
	err := r.col.FindOne(ctx, filter, opts).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoTransitHistory
		}
		return nil, err
	}
	return &row, nil
}

// FindBestRegion returns the qualifying row with the highest sample count for
// the 3-digit region prefix pair.
func (r *TransitTimeRepository) FindBestRegion(ctx context.Context, originRegion, destinationRegion string, minSamples int) (*domain.HistoricalTransitTime, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"origin_region":      originRegion,
		"destination_region": destinationRegion,
		"sample_count":       bson.M{"$gte": minSamples},
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "sample_count", Value: -1}})

	var row domain.HistoricalTransitTime
	err := r.col.FindOne(ctx, filter, opts).Decode(&row)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNoTransitHistory
		}
		return nil, err
	}
	return &row, nil
}

// Upsert writes one statistics row keyed by (pair, period_start), so the
// aggregation job produces exactly one row per pair per day.
func (r *TransitTimeRepository) Upsert(ctx context.Context, row *domain.HistoricalTransitTime) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"origin_pincode":      row.OriginPincode,
		"destination_pincode": row.DestinationPincode,
		"period_start":        row.PeriodStart,
	}
	update := bson.M{"$set": bson.M{
		"origin_region":          row.OriginRegion,
		"destination_region":     row.DestinationRegion,
		"sample_count":           row.SampleCount,
		"avg_transit_minutes":    row.AvgTransitMinutes,
		"median_transit_minutes": row.MedianTransitMinutes,
		"std_dev_minutes":        row.StdDevMinutes,
		"percentile_10":          row.Percentile10,
		"percentile_90":          row.Percentile90,
		"on_time_percentage":     row.OnTimePercentage,
	}}

	_, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// EnsureIndexes creates the indexes backing the tiered lookups.
func (r *TransitTimeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "origin_pincode", Value: 1},
				{Key: "destination_pincode", Value: 1},
				{Key: "period_start", Value: -1},
			},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "origin_region", Value: 1}, {Key: "destination_region", Value: 1}, {Key: "sample_count", Value: -1}}},
	})
	return err
}
