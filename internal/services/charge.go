package services

import (
	"fmt"

	"seekeradv/internal/models"
	"seekeradv/internal/utils"

	"github.com/shopspring/decimal"
)

var (
	BillplzFee       = decimal.RequireFromString("1.50")
	StripeFeePercent = decimal.NewFromInt(4)
	MinPaymentAmount = decimal.RequireFromString("2.00")
)

// Charge returns the processing fee for method and the amount the payer is
// actually charged.
func Charge(amount decimal.Decimal, method models.PaymentMethod) (fee, charge decimal.Decimal) {
	switch method {
	case models.PaymentMethodBillplz:
		fee = BillplzFee
	case models.PaymentMethodStripe:
		fee = amount.Mul(StripeFeePercent).Div(decimal.NewFromInt(100)).Round(models.MoneyScale)
	default:
		fee = decimal.Zero
	}
	return fee, models.RoundMoney(amount.Add(fee))
}

// ValidatePaymentAmount checks a requested payment against the booking
// balance. min is the smallest accepted amount.
func ValidatePaymentAmount(booking *models.Booking, amount, min decimal.Decimal) error {
	if booking.BookingStatus == models.BookingStatusCancelled {
		return utils.NewValidationError("Booking is cancelled")
	}
	if booking.IsFullyPaid() {
		return utils.NewValidationError("Booking is already fully paid")
	}
	remaining := models.MaxMoney(decimal.Zero, booking.TotalAmount.Sub(booking.PaidAmount))
	if amount.GreaterThan(remaining) {
		return utils.NewValidationError(fmt.Sprintf("Amount exceeds remaining balance of %s", remaining.StringFixed(models.MoneyScale)))
	}
	if amount.LessThan(min) {
		return utils.NewValidationError(fmt.Sprintf("Minimum payment amount is RM%s", min.StringFixed(models.MoneyScale)))
	}
	return nil
}
