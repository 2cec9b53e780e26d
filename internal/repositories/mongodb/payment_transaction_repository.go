package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seekeradv/internal/models"
	"seekeradv/internal/repositories/interfaces"
	"seekeradv/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type paymentTransactionRepository struct {
	collection *mongo.Collection
}

func NewPaymentTransactionRepository(db *mongo.Database) interfaces.PaymentTransactionRepository {
	return &paymentTransactionRepository{
		collection: db.Collection(database.CollectionPaymentTransactions),
	}
}

func (r *paymentTransactionRepository) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	tx.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, tx); err != nil {
		return fmt.Errorf("failed to create payment transaction: %w", err)
	}

	return nil
}

func (r *paymentTransactionRepository) GetBySessionID(ctx context.Context, sessionID string) (*models.PaymentTransaction, error) {
	var tx models.PaymentTransaction
	err := r.collection.FindOne(ctx, bson.M{"session_id": sessionID}).Decode(&tx)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get payment transaction: %w", err)
	}

	return &tx, nil
}

func (r *paymentTransactionRepository) UpdateStatus(ctx context.Context, sessionID string, status models.TransactionStatus, gatewayStatus string) error {
	set := bson.M{
		"payment_status": status,
		"updated_at":     time.Now().UTC(),
	}
	if gatewayStatus != "" {
		set["status"] = gatewayStatus
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"session_id": sessionID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to update payment transaction: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	return nil
}
