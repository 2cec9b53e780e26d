package models

import (
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TransactionStatus string

const (
	TransactionStatusInitiated TransactionStatus = "initiated"
	TransactionStatusPaid      TransactionStatus = "paid"
	TransactionStatusExpired   TransactionStatus = "expired"
)

// PaymentTransaction mirrors a Stripe checkout session so that callbacks can
// be matched by session id without loading the booking.
type PaymentTransaction struct {
	ID            primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	SessionID     string             `json:"session_id" bson:"session_id"`
	PaymentID     string             `json:"payment_id" bson:"payment_id"`
	BookingID     string             `json:"booking_id" bson:"booking_id"`
	UserID        string             `json:"user_id" bson:"user_id"`
	Email         string             `json:"email" bson:"email"`
	Amount        decimal.Decimal    `json:"amount" bson:"amount"`
	Currency      string             `json:"currency" bson:"currency"`
	PaymentStatus TransactionStatus  `json:"payment_status" bson:"payment_status"`
	GatewayStatus string             `json:"status,omitempty" bson:"status,omitempty"`
	Metadata      map[string]string  `json:"metadata" bson:"metadata"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

func (t *PaymentTransaction) IsPaid() bool {
	return t.PaymentStatus == TransactionStatusPaid
}
