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

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection(database.CollectionBookings),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	now := time.Now().UTC()
	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = now
	}
	booking.UpdatedAt = now
	booking.Version = 1
	if booking.Payments == nil {
		booking.Payments = []models.PaymentRecord{}
	}

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}

	return nil
}

func (r *bookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"booking_id": bookingID})
}

func (r *bookingRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	return r.findOne(ctx, bson.M{"payments.payment_id": paymentID})
}

func (r *bookingRepository) findOne(ctx context.Context, filter bson.M) (*models.Booking, error) {
	var booking models.Booking
	err := r.collection.FindOne(ctx, filter).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}

	return &booking, nil
}

func (r *bookingRepository) Save(ctx context.Context, booking *models.Booking) error {
	expected := booking.Version
	booking.Version = expected + 1

	result, err := r.collection.ReplaceOne(ctx, bson.M{
		"booking_id": booking.BookingID,
		"version":    expected,
	}, booking)
	if err != nil {
		booking.Version = expected
		return fmt.Errorf("failed to save booking: %w", err)
	}
	if result.MatchedCount == 0 {
		booking.Version = expected
		return interfaces.ErrVersionConflict
	}

	return nil
}

func (r *bookingRepository) List(ctx context.Context, filter models.BookingListFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.BookingStatus != "" {
		query["booking_status"] = filter.BookingStatus
	}
	if filter.PaymentStatus != "" {
		query["payment_status"] = filter.PaymentStatus
	}

	total, err := r.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	cursor, err := r.collection.Find(ctx, query, params.GetFindOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*models.Booking, 0, params.Limit)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("failed to decode bookings: %w", err)
	}

	return bookings, total, nil
}
