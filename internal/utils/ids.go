package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	PaymentIDPrefix      = "pay_"
	BookingIDFormat      = "BK-%06d"
	OrderNumberSeparator = "-" + PaymentIDPrefix
)

// NewPaymentID returns "pay_" followed by 12 hex characters.
func NewPaymentID() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return PaymentIDPrefix + hex[:12]
}

func FormatBookingID(seq int64) string {
	return fmt.Sprintf(BookingIDFormat, seq)
}

func NewRequestID() string {
	return uuid.NewString()
}

// FormatOrderNumber joins a booking and payment id into the order number
// sent to Bayarcash.
func FormatOrderNumber(bookingID, paymentID string) string {
	return bookingID + "-" + paymentID
}

// ParseOrderNumber splits an order number at "-pay_". ok is false when the
// separator is missing.
func ParseOrderNumber(orderNumber string) (bookingID, paymentID string, ok bool) {
	idx := strings.Index(orderNumber, OrderNumberSeparator)
	if idx <= 0 {
		return "", "", false
	}
	return orderNumber[:idx], orderNumber[idx+1:], true
}
