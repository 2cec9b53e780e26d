package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seekeradv/internal/models"
	"seekeradv/internal/repositories/interfaces"
	"seekeradv/internal/utils"
	"seekeradv/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

type tripRepository struct {
	collection *mongo.Collection
	cache      interfaces.Cache
	cacheTTL   time.Duration
}

// NewTripRepository returns a read-through cached trip lookup. cache may be
// nil.
func NewTripRepository(db *mongo.Database, cache interfaces.Cache, cacheTTL time.Duration) interfaces.TripRepository {
	return &tripRepository{
		collection: db.Collection(database.CollectionTrips),
		cache:      cache,
		cacheTTL:   cacheTTL,
	}
}

func (r *tripRepository) GetByTripID(ctx context.Context, tripID string) (*models.Trip, error) {
	if trip := r.getTripFromCache(ctx, tripID); trip != nil {
		return trip, nil
	}

	var trip models.Trip
	err := r.collection.FindOne(ctx, bson.M{"trip_id": tripID}).Decode(&trip)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}

	r.cacheTrip(ctx, &trip)
	return &trip, nil
}

func (r *tripRepository) cacheTrip(ctx context.Context, trip *models.Trip) {
	if r.cache == nil {
		return
	}
	_ = r.cache.Set(ctx, utils.CacheTripPrefix+trip.TripID, trip, r.cacheTTL)
}

func (r *tripRepository) getTripFromCache(ctx context.Context, tripID string) *models.Trip {
	if r.cache == nil {
		return nil
	}

	var trip models.Trip
	if err := r.cache.Get(ctx, utils.CacheTripPrefix+tripID, &trip); err != nil {
		return nil
	}
	return &trip
}
