package utils

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaymentID(t *testing.T) {
	re := regexp.MustCompile(`^pay_[0-9a-f]{12}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewPaymentID()
		assert.Regexp(t, re, id)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestFormatBookingID(t *testing.T) {
	assert.Equal(t, "BK-000001", FormatBookingID(1))
	assert.Equal(t, "BK-123456", FormatBookingID(123456))
	assert.Equal(t, "BK-1234567", FormatBookingID(1234567))
}

func TestParseOrderNumber(t *testing.T) {
	order := FormatOrderNumber("BK-000042", "pay_0123456789ab")
	assert.Equal(t, "BK-000042-pay_0123456789ab", order)

	bookingID, paymentID, ok := ParseOrderNumber(order)
	assert.True(t, ok)
	assert.Equal(t, "BK-000042", bookingID)
	assert.Equal(t, "pay_0123456789ab", paymentID)

	_, _, ok = ParseOrderNumber("BK-000042")
	assert.False(t, ok)

	_, _, ok = ParseOrderNumber("-pay_abc")
	assert.False(t, ok)
}

func TestPaginationClamp(t *testing.T) {
	p := NewPaginationParams(0, 500, MaxMyBookingsSize)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxMyBookingsSize, p.Limit)
	assert.Equal(t, 1, p.TotalPages(0))
	assert.Equal(t, 3, NewPaginationParams(1, 10, 50).TotalPages(21))
	assert.Equal(t, 20, NewPaginationParams(3, 10, 50).GetSkip())
}
