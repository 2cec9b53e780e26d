package interfaces

import (
	"context"

	"seekeradv/internal/models"
)

type PaymentTransactionRepository interface {
	Create(ctx context.Context, tx *models.PaymentTransaction) error
	GetBySessionID(ctx context.Context, sessionID string) (*models.PaymentTransaction, error)
	UpdateStatus(ctx context.Context, sessionID string, status models.TransactionStatus, gatewayStatus string) error
}
