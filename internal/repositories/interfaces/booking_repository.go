package interfaces

import (
	"context"

	"seekeradv/internal/models"
	"seekeradv/internal/utils"
)

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error)

	// Save replaces the stored booking if its version still matches and
	// bumps the version. A stale booking yields ErrVersionConflict.
	Save(ctx context.Context, booking *models.Booking) error

	List(ctx context.Context, filter models.BookingListFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error)
}
