package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

const (
	StripeEventSessionCompleted      = "checkout.session.completed"
	StripeEventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
	StripeEventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	StripeEventSessionExpired        = "checkout.session.expired"
)

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
	Timeout       time.Duration
	// APIURL overrides the Stripe API base URL. Empty means api.stripe.com.
	APIURL string
}

type StripeClient struct {
	client        *client.API
	currency      string
	webhookSecret string
	configured    bool
}

type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

func (s *CheckoutSession) IsPaid() bool {
	return s.PaymentStatus == string(stripe.CheckoutSessionPaymentStatusPaid)
}

type StripeEvent struct {
	ID      string
	Type    string
	Session *CheckoutSession
}

func NewStripeClient(config StripeConfig) *StripeClient {
	backendConfig := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: config.Timeout},
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     &stripe.LeveledLogger{Level: stripe.LevelError},
	}
	if config.APIURL != "" {
		backendConfig.URL = stripe.String(config.APIURL)
	}

	sc := &client.API{}
	sc.Init(config.SecretKey, &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig),
		Connect: stripe.GetBackend(stripe.ConnectBackend),
		Uploads: stripe.GetBackend(stripe.UploadsBackend),
	})

	currency := strings.ToLower(config.Currency)
	if currency == "" {
		currency = string(stripe.CurrencyMYR)
	}

	return &StripeClient{
		client:        sc,
		currency:      currency,
		webhookSecret: config.WebhookSecret,
		configured:    config.SecretKey != "",
	}
}

func (s *StripeClient) Name() string {
	return GatewayStripe
}

func (s *StripeClient) CreateCheckout(ctx context.Context, request *CheckoutRequest) (*CheckoutResult, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		SuccessURL:         stripe.String(request.RedirectURL),
		CancelURL:          stripe.String(request.CancelURL),
		ClientReferenceID:  stripe.String(request.BookingID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(s.currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(request.Description),
					},
					UnitAmount: stripe.Int64(toMinorUnits(request.ChargeAmount)),
				},
				Quantity: stripe.Int64(1),
			},
		},
	}
	if request.PayerEmail != "" {
		params.CustomerEmail = stripe.String(request.PayerEmail)
	}
	params.Context = ctx
	params.AddMetadata("booking_id", request.BookingID)
	params.AddMetadata("payment_id", request.PaymentID)
	params.AddMetadata("user_id", request.UserID)

	session, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutResult{
		Reference: session.ID,
		URL:       session.URL,
	}, nil
}

func (s *StripeClient) GetSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	if !s.configured {
		return nil, ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := s.client.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	return convertStripeSession(session), nil
}

// ParseWebhook verifies the Stripe-Signature header and decodes checkout
// session events. Session is nil for other event types.
func (s *StripeClient) ParseWebhook(payload []byte, signature string) (*StripeEvent, error) {
	if s.webhookSecret == "" {
		return nil, ErrSignatureNotConfigured
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	result := &StripeEvent{
		ID:   event.ID,
		Type: string(event.Type),
	}

	if strings.HasPrefix(result.Type, "checkout.session.") && event.Data != nil {
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		result.Session = convertStripeSession(&session)
	}

	return result, nil
}

func convertStripeSession(session *stripe.CheckoutSession) *CheckoutSession {
	return &CheckoutSession{
		ID:            session.ID,
		URL:           session.URL,
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
		AmountTotal:   session.AmountTotal,
		Currency:      string(session.Currency),
		Metadata:      session.Metadata,
	}
}
