package interfaces

import (
	"context"

	"seekeradv/internal/models"
)

type TripRepository interface {
	GetByTripID(ctx context.Context, tripID string) (*models.Trip, error)
}
