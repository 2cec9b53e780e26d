package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	GatewayBillplz      = "billplz"
	GatewayStripe       = "stripe"
	GatewayBayarcash    = "bayarcash"
	GatewayBankTransfer = "bank_transfer"
)

var (
	ErrInvalidSignature       = errors.New("invalid signature")
	ErrSignatureNotConfigured = errors.New("signature secret not configured")
	ErrNotConfigured          = errors.New("gateway credentials not configured")
	ErrMissingOrderNumber     = errors.New("order number is required")
)

// Gateway creates a hosted payment for one payment record.
type Gateway interface {
	Name() string
	CreateCheckout(ctx context.Context, request *CheckoutRequest) (*CheckoutResult, error)
}

type CheckoutRequest struct {
	BookingID    string          `json:"booking_id"`
	PaymentID    string          `json:"payment_id"`
	OrderNumber  string          `json:"order_number,omitempty"`
	UserID       string          `json:"user_id"`
	PayerName    string          `json:"payer_name"`
	PayerEmail   string          `json:"payer_email"`
	PayerPhone   string          `json:"payer_phone"`
	ChargeAmount decimal.Decimal `json:"charge_amount"`
	Description  string          `json:"description"`
	CallbackURL  string          `json:"callback_url"`
	RedirectURL  string          `json:"redirect_url"`
	CancelURL    string          `json:"cancel_url"`
}

type CheckoutResult struct {
	// Reference is the gateway's id for the payment (bill id, session id).
	Reference   string       `json:"reference"`
	URL         string       `json:"url"`
	BankDetails *BankDetails `json:"bank_details,omitempty"`
}

type BankDetails struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountName   string `json:"account_name"`
	Reference     string `json:"reference"`
}

// APIError is returned when a gateway answers with a non-success status.
type APIError struct {
	Gateway    string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s API error (status %d): %s", e.Gateway, e.StatusCode, e.Body)
}

func toMinorUnits(d decimal.Decimal) int64 {
	return d.Round(2).Shift(2).IntPart()
}
