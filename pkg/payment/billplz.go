package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type BillplzConfig struct {
	APIKey        string
	CollectionID  string
	XSignatureKey string
	BaseURL       string
	Timeout       time.Duration
	QueryTimeout  time.Duration
}

type BillplzClient struct {
	config     BillplzConfig
	httpClient *http.Client
}

type Bill struct {
	ID           string `json:"id"`
	CollectionID string `json:"collection_id"`
	Paid         bool   `json:"paid"`
	State        string `json:"state"`
	Amount       int64  `json:"amount"`
	PaidAmount   int64  `json:"paid_amount"`
	URL          string `json:"url"`
	Reference1   string `json:"reference_1"`
	Reference2   string `json:"reference_2"`
}

func NewBillplzClient(config BillplzConfig) *BillplzClient {
	return &BillplzClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func (b *BillplzClient) Name() string {
	return GatewayBillplz
}

func (b *BillplzClient) CreateCheckout(ctx context.Context, request *CheckoutRequest) (*CheckoutResult, error) {
	if b.config.APIKey == "" || b.config.CollectionID == "" {
		return nil, ErrNotConfigured
	}

	form := url.Values{}
	form.Set("collection_id", b.config.CollectionID)
	form.Set("email", request.PayerEmail)
	form.Set("name", request.PayerName)
	form.Set("amount", strconv.FormatInt(toMinorUnits(request.ChargeAmount), 10))
	form.Set("description", request.Description)
	form.Set("callback_url", request.CallbackURL)
	form.Set("redirect_url", request.RedirectURL)
	form.Set("reference_1_label", "Booking ID")
	form.Set("reference_1", request.BookingID)
	form.Set("reference_2_label", "Payment ID")
	form.Set("reference_2", request.PaymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.BaseURL+"/v3/bills", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(b.config.APIKey, "")

	var bill Bill
	if err := b.do(req, &bill); err != nil {
		return nil, err
	}
	if bill.ID == "" || bill.URL == "" {
		return nil, fmt.Errorf("billplz response missing bill id or url")
	}

	return &CheckoutResult{
		Reference: bill.ID,
		URL:       bill.URL,
	}, nil
}

// GetBill fetches the current state of a bill using the shorter query
// timeout.
func (b *BillplzClient) GetBill(ctx context.Context, billID string) (*Bill, error) {
	if b.config.APIKey == "" {
		return nil, ErrNotConfigured
	}

	if b.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.QueryTimeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.config.BaseURL+"/v3/bills/"+url.PathEscape(billID), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(b.config.APIKey, "")

	var bill Bill
	if err := b.do(req, &bill); err != nil {
		return nil, err
	}
	return &bill, nil
}

// SignatureEnabled reports whether callbacks must carry a valid X-Signature
// header.
func (b *BillplzClient) SignatureEnabled() bool {
	return b.config.XSignatureKey != ""
}

// VerifySignature checks the hex HMAC-SHA256 of the raw callback body.
// Verification is skipped only when no key is configured; with a key, a
// missing signature is a mismatch.
func (b *BillplzClient) VerifySignature(body []byte, signature string) error {
	if !b.SignatureEnabled() {
		return nil
	}
	if signature == "" {
		return ErrInvalidSignature
	}

	mac := hmac.New(sha256.New, []byte(b.config.XSignatureKey))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrInvalidSignature
	}
	return nil
}

func (b *BillplzClient) do(req *http.Request, dest interface{}) error {
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{Gateway: GatewayBillplz, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}
