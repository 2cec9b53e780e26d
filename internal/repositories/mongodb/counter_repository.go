package mongodb

import (
	"context"
	"fmt"

	"seekeradv/internal/repositories/interfaces"
	"seekeradv/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type counterRepository struct {
	collection *mongo.Collection
}

func NewCounterRepository(db *mongo.Database) interfaces.CounterRepository {
	return &counterRepository{
		collection: db.Collection(database.CollectionCounters),
	}
}

func (r *counterRepository) Next(ctx context.Context, name string) (int64, error) {
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var result struct {
		Seq int64 `bson:"seq"`
	}
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": 1}},
		opts,
	).Decode(&result)
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", name, err)
	}

	return result.Seq, nil
}
