package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBillplzTestClient(t *testing.T, handler http.HandlerFunc) *BillplzClient {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewBillplzClient(BillplzConfig{
		APIKey:        "api-key",
		CollectionID:  "col_1",
		XSignatureKey: "sig-key",
		BaseURL:       server.URL,
		Timeout:       2 * time.Second,
		QueryTimeout:  time.Second,
	})
}

func TestBillplzCreateCheckout(t *testing.T) {
	client := newBillplzTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/bills", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "api-key", user)
		assert.Empty(t, pass)

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "col_1", r.PostForm.Get("collection_id"))
		assert.Equal(t, "10150", r.PostForm.Get("amount"))
		assert.Equal(t, "BK-000001", r.PostForm.Get("reference_1"))
		assert.Equal(t, "Booking ID", r.PostForm.Get("reference_1_label"))
		assert.Equal(t, "pay_0123456789ab", r.PostForm.Get("reference_2"))
		assert.Equal(t, "Payment ID", r.PostForm.Get("reference_2_label"))
		assert.Equal(t, "https://api.example/api/payments/webhook/billplz", r.PostForm.Get("callback_url"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"bill_1","url":"https://billplz.example/bills/bill_1","paid":false,"state":"due","amount":10150}`))
	})

	result, err := client.CreateCheckout(context.Background(), &CheckoutRequest{
		BookingID:    "BK-000001",
		PaymentID:    "pay_0123456789ab",
		PayerEmail:   "a@example.com",
		PayerName:    "Aina",
		ChargeAmount: decimal.RequireFromString("101.50"),
		Description:  "Payment for booking BK-000001",
		CallbackURL:  "https://api.example/api/payments/webhook/billplz",
		RedirectURL:  "https://web.example/bookings/BK-000001?payment=success",
	})
	require.NoError(t, err)
	assert.Equal(t, "bill_1", result.Reference)
	assert.Equal(t, "https://billplz.example/bills/bill_1", result.URL)
}

func TestBillplzCreateCheckoutAPIError(t *testing.T) {
	client := newBillplzTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":{"type":"RecordInvalid"}}`))
	})

	_, err := client.CreateCheckout(context.Background(), &CheckoutRequest{ChargeAmount: decimal.NewFromInt(10)})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
}

func TestBillplzNotConfigured(t *testing.T) {
	client := NewBillplzClient(BillplzConfig{})
	_, err := client.CreateCheckout(context.Background(), &CheckoutRequest{})
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBillplzGetBill(t *testing.T) {
	client := newBillplzTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v3/bills/bill_1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"bill_1","paid":true,"state":"paid","amount":10150,"paid_amount":10150}`))
	})

	bill, err := client.GetBill(context.Background(), "bill_1")
	require.NoError(t, err)
	assert.True(t, bill.Paid)
	assert.Equal(t, int64(10150), bill.PaidAmount)
}

func TestBillplzGetBillTimeout(t *testing.T) {
	client := newBillplzTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(3 * time.Second):
		}
	})
	client.config.QueryTimeout = 50 * time.Millisecond

	_, err := client.GetBill(context.Background(), "bill_slow")
	assert.Error(t, err)
}

func sign(key string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBillplzVerifySignature(t *testing.T) {
	client := NewBillplzClient(BillplzConfig{XSignatureKey: "sig-key"})
	body := []byte("id=bill_1&paid=true&reference_1=BK-000001&reference_2=pay_a")

	assert.NoError(t, client.VerifySignature(body, sign("sig-key", body)))
	assert.ErrorIs(t, client.VerifySignature(body, sign("other-key", body)), ErrInvalidSignature)
	assert.ErrorIs(t, client.VerifySignature(body, ""), ErrInvalidSignature, "missing header with a key configured")

	unsigned := NewBillplzClient(BillplzConfig{})
	assert.False(t, unsigned.SignatureEnabled())
	assert.NoError(t, unsigned.VerifySignature(body, "garbage"))
}
