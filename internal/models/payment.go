package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string
type PaymentMethod string
type PaymentType string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPartial   PaymentStatus = "partial"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"

	PaymentMethodBillplz      PaymentMethod = "billplz"
	PaymentMethodStripe       PaymentMethod = "stripe"
	PaymentMethodBayarcash    PaymentMethod = "bayarcash"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"

	PaymentTypeDeposit PaymentType = "deposit"
	PaymentTypeFull    PaymentType = "full"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodBillplz, PaymentMethodStripe, PaymentMethodBayarcash, PaymentMethodBankTransfer:
		return true
	}
	return false
}

func (t PaymentType) IsValid() bool {
	return t == PaymentTypeDeposit || t == PaymentTypeFull
}

// PaymentRecord is one attempt to pay part or all of a booking. Records are
// owned by their Booking and only change status through Booking methods.
type PaymentRecord struct {
	PaymentID     string          `json:"payment_id" bson:"payment_id"`
	BillID        string          `json:"bill_id,omitempty" bson:"bill_id,omitempty"`
	BillURL       string          `json:"bill_url,omitempty" bson:"bill_url,omitempty"`
	Amount        decimal.Decimal `json:"amount" bson:"amount"`
	ProcessingFee decimal.Decimal `json:"processing_fee" bson:"processing_fee"`
	ChargeAmount  decimal.Decimal `json:"charge_amount" bson:"charge_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method" bson:"payment_method"`
	Status        PaymentStatus   `json:"status" bson:"status"`
	TransactionID string          `json:"transaction_id,omitempty" bson:"transaction_id,omitempty"`
	ProofURL      string          `json:"proof_url,omitempty" bson:"proof_url,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty" bson:"failure_reason,omitempty"`
	PaidAt        *time.Time      `json:"paid_at" bson:"paid_at"`
	FailedAt      *time.Time      `json:"failed_at,omitempty" bson:"failed_at,omitempty"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
}

func (p *PaymentRecord) IsPending() bool {
	return p.Status == PaymentStatusPending
}

// BankDetails is returned to the payer for manual bank transfers.
type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Reference     string `json:"reference"`
}

type PaymentCreateRequest struct {
	BookingID     string          `json:"booking_id"`
	Amount        decimal.Decimal `json:"amount" binding:"required,money"`
	PaymentMethod PaymentMethod   `json:"payment_method" binding:"required,oneof=billplz stripe bayarcash bank_transfer"`
}

type PaymentCreateResponse struct {
	PaymentID     string          `json:"payment_id"`
	BillURL       string          `json:"bill_url,omitempty"`
	SessionID     string          `json:"session_id,omitempty"`
	BankDetails   *BankDetails    `json:"bank_details,omitempty"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	Amount        decimal.Decimal `json:"amount"`
	ProcessingFee decimal.Decimal `json:"processing_fee"`
	ChargeAmount  decimal.Decimal `json:"charge_amount"`
	Message       string          `json:"message"`
}
