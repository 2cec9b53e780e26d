package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	BayarcashChecksumField = "checksum"
	defaultPayerPhone      = "0000000000"
	bayarcashFPXChannel    = "1"
)

type BayarcashConfig struct {
	APIToken  string
	PortalKey string
	APISecret string
	BaseURL   string
	Timeout   time.Duration
}

type BayarcashClient struct {
	config     BayarcashConfig
	httpClient *http.Client
}

type bayarcashIntentRequest struct {
	PortalKey            string `json:"portal_key"`
	OrderNumber          string `json:"order_number"`
	Amount               int64  `json:"amount"`
	PayerName            string `json:"payer_name"`
	PayerEmail           string `json:"payer_email"`
	PayerTelephoneNumber string `json:"payer_telephone_number"`
	PaymentChannel       string `json:"payment_channel"`
	CallbackURL          string `json:"callback_url"`
	ReturnURL            string `json:"return_url"`
}

func NewBayarcashClient(config BayarcashConfig) *BayarcashClient {
	return &BayarcashClient{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

func (b *BayarcashClient) Name() string {
	return GatewayBayarcash
}

func (b *BayarcashClient) CreateCheckout(ctx context.Context, request *CheckoutRequest) (*CheckoutResult, error) {
	if b.config.APIToken == "" || b.config.PortalKey == "" {
		return nil, ErrNotConfigured
	}
	if request.OrderNumber == "" {
		return nil, ErrMissingOrderNumber
	}

	phone := request.PayerPhone
	if phone == "" {
		phone = defaultPayerPhone
	}

	reqBody, err := json.Marshal(bayarcashIntentRequest{
		PortalKey:            b.config.PortalKey,
		OrderNumber:          request.OrderNumber,
		Amount:               toMinorUnits(request.ChargeAmount),
		PayerName:            request.PayerName,
		PayerEmail:           request.PayerEmail,
		PayerTelephoneNumber: phone,
		PaymentChannel:       bayarcashFPXChannel,
		CallbackURL:          request.CallbackURL,
		ReturnURL:            request.RedirectURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.config.BaseURL+"/payment-intents", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.config.APIToken)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Gateway: GatewayBayarcash, StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result map[string]interface{}
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	paymentURL := firstString(result, "url", "payment_url")
	if paymentURL == "" {
		if data, ok := result["data"].(map[string]interface{}); ok {
			paymentURL = firstString(data, "url")
		}
	}

	return &CheckoutResult{
		Reference: firstString(result, "id", "transaction_id"),
		URL:       paymentURL,
	}, nil
}

// VerifyChecksum checks the callback checksum. Callbacks are rejected when
// no secret is configured.
func (b *BayarcashClient) VerifyChecksum(fields map[string]string) error {
	if b.config.APISecret == "" {
		return ErrSignatureNotConfigured
	}

	received := fields[BayarcashChecksumField]
	if received == "" {
		return ErrInvalidSignature
	}

	expected := BayarcashChecksum(b.config.APISecret, fields)
	if !hmac.Equal([]byte(expected), []byte(strings.ToLower(received))) {
		return ErrInvalidSignature
	}
	return nil
}

// BayarcashChecksum is the hex HMAC-SHA256 of every field except checksum,
// ordered by key and joined with "|".
func BayarcashChecksum(secret string, fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k == BayarcashChecksumField {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	values := make([]string, len(keys))
	for i, k := range keys {
		values[i] = fields[k]
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(strings.Join(values, "|")))
	return hex.EncodeToString(mac.Sum(nil))
}

func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
