package interfaces

import (
	"context"

	"seekeradv/internal/models"
)

type UserRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.User, error)
}
