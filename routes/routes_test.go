package routes

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seekeradv/internal/handlers/admin"
	handlers "seekeradv/internal/handlers/shared"
	"seekeradv/internal/handlers/webhooks"
	"seekeradv/internal/models"
	"seekeradv/internal/services"
	"seekeradv/internal/utils"
	"seekeradv/internal/validators"
	"seekeradv/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "routes-secret"

type stubBookings struct {
	services.BookingService
	lastActor  *services.Actor
	lastStatus models.BookingStatus
	err        error
}

func (s *stubBookings) GetBooking(ctx context.Context, actor *services.Actor, bookingID string) (*models.Booking, error) {
	s.lastActor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &models.Booking{BookingID: bookingID, UserID: actor.UserID, TotalAmount: decimal.NewFromInt(899)}, nil
}

func (s *stubBookings) ListMyBookings(ctx context.Context, actor *services.Actor, status models.BookingStatus, params *utils.PaginationParams) (*services.BookingList, error) {
	s.lastActor = actor
	s.lastStatus = status
	return &services.BookingList{Bookings: []*models.Booking{}, Page: params.Page, Pages: 1}, nil
}

func (s *stubBookings) UpdateBookingStatus(ctx context.Context, actor *services.Actor, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	s.lastActor = actor
	s.lastStatus = status
	return &models.Booking{BookingID: bookingID, BookingStatus: status}, nil
}

func (s *stubBookings) GetAuditTrail(ctx context.Context, bookingID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	return []*models.AuditLog{{ActorID: "user_1", Action: models.AuditActionStatusChange, ResourceID: bookingID}}, 1, nil
}

func (s *stubBookings) ConfirmPayment(ctx context.Context, actor *services.Actor, bookingID, paymentID string) (*models.Booking, error) {
	s.lastActor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &models.Booking{BookingID: bookingID}, nil
}

type stubPayments struct {
	request   *models.PaymentCreateRequest
	bookingID string
	origin    string
}

func (s *stubPayments) CreatePayment(ctx context.Context, actor *services.Actor, bookingID string, request *models.PaymentCreateRequest, origin string) (*models.PaymentCreateResponse, error) {
	s.request, s.bookingID, s.origin = request, bookingID, origin
	return &models.PaymentCreateResponse{PaymentID: "pay_1", PaymentMethod: request.PaymentMethod, Message: "Payment created"}, nil
}

type stubWebhooks struct {
	services.WebhookService
	billplzErr   error
	stripeStatus string
	fields       map[string]string
	signature    string
}

func (s *stubWebhooks) HandleBillplz(ctx context.Context, body []byte, signature string) (*services.WebhookResult, error) {
	s.signature = signature
	if s.billplzErr != nil {
		return nil, s.billplzErr
	}
	return &services.WebhookResult{Status: utils.WebhookReceived}, nil
}

func (s *stubWebhooks) HandleStripe(ctx context.Context, payload []byte, signature string) *services.WebhookResult {
	s.signature = signature
	return &services.WebhookResult{Status: s.stripeStatus}
}

func (s *stubWebhooks) HandleBayarcash(ctx context.Context, fields map[string]string) (*services.WebhookResult, error) {
	s.fields = fields
	return &services.WebhookResult{Status: utils.WebhookIgnored}, nil
}

type testServer struct {
	router   *gin.Engine
	bookings *stubBookings
	payments *stubPayments
	webhooks *stubWebhooks
}

func newTestServer(t *testing.T, checks map[string]HealthCheck) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validators.RegisterGin()

	s := &testServer{
		router:   gin.New(),
		bookings: &stubBookings{},
		payments: &stubPayments{},
		webhooks: &stubWebhooks{stripeStatus: utils.WebhookReceived},
	}
	log := logger.NewNop()
	SetupRoutes(s.router, &Handlers{
		Booking: handlers.NewBookingHandler(s.bookings, nil, 0, log),
		Payment: handlers.NewPaymentHandler(s.payments, s.webhooks),
		Admin:   admin.NewBookingHandler(s.bookings),
		Webhook: webhooks.NewWebhookHandler(s.webhooks, log),
	}, testSecret, "1.0.0", checks)
	return s
}

func (s *testServer) do(t *testing.T, method, path, body, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if role != "" {
		tok, err := utils.GenerateAccessToken("user_1", role, "aina@example.com", testSecret, time.Hour)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestBookingRoutesRequireAuth(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/bookings/BK-000001", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodGet, "/api/bookings/BK-000001", "", "client")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user_1", s.bookings.lastActor.UserID)
	assert.Equal(t, models.UserRoleClient, s.bookings.lastActor.Role)

	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "BK-000001", data["booking_id"])
}

func TestErrorKindsMapToStatus(t *testing.T) {
	s := newTestServer(t, nil)

	s.bookings.err = utils.NewAuthorizationError("Access denied")
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, "/api/bookings/BK-000001", "", "client").Code)

	s.bookings.err = utils.NewNotFoundError("Booking")
	w := s.do(t, http.MethodGet, "/api/bookings/BK-000001", "", "client")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["error"].(map[string]interface{})["code"])

	s.bookings.err = errors.New("mongo exploded")
	w = s.do(t, http.MethodGet, "/api/bookings/BK-000001", "", "client")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "mongo exploded")
}

func TestMyBookingsRouteIsNotShadowed(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/bookings/my-bookings?status=confirmed&limit=500", "", "client")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.BookingStatusConfirmed, s.bookings.lastStatus)

	meta := decode(t, w)["meta"].(map[string]interface{})
	assert.Equal(t, float64(utils.MaxMyBookingsSize), meta["pagination"].(map[string]interface{})["limit"])

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/bookings/my-bookings?status=archived", "", "client").Code)
}

func TestCreatePaymentRoute(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/bookings/BK-000001/pay", `{"amount": 100.5, "payment_method": "billplz"}`, "client")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "BK-000001", s.payments.bookingID)
	assert.True(t, decimal.RequireFromString("100.5").Equal(s.payments.request.Amount))

	w = s.do(t, http.MethodPost, "/api/bookings/BK-000001/pay", `{"amount": 100, "payment_method": "cash"}`, "client")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodPut, "/api/admin/bookings/BK-000001/payment-confirm?payment_id=pay_1", "", "client").Code)

	w := s.do(t, http.MethodPut, "/api/admin/bookings/BK-000001/payment-confirm?payment_id=pay_1", "", "admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.UserRoleAdmin, s.bookings.lastActor.Role)

	s.bookings.err = utils.NewConflictError("Payment already processed", utils.ErrAlreadyProcessed)
	w = s.do(t, http.MethodPut, "/api/admin/bookings/BK-000001/payment-confirm?payment_id=pay_1", "", "admin")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPut, "/api/admin/bookings/BK-000001/status?status=completed", "", "admin")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.BookingStatusCompleted, s.bookings.lastStatus)

	w = s.do(t, http.MethodGet, "/api/admin/bookings/BK-000001/audit", "", "admin")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	entries := body["data"].([]interface{})
	require.Len(t, entries, 1)
	assert.Equal(t, "booking_status_change", entries[0].(map[string]interface{})["action"])
}

func TestWebhookRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/api/payments/webhook/billplz", "/api/bookings/webhook/billplz"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("id=bill_1&paid=true"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Signature", "abc")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
		assert.JSONEq(t, `{"status":"received"}`, w.Body.String())
		assert.Equal(t, "abc", s.webhooks.signature)
	}

	s.webhooks.billplzErr = utils.NewSignatureError("Invalid signature")
	w := s.do(t, http.MethodPost, "/api/payments/webhook/billplz", "x", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	s.webhooks.stripeStatus = utils.WebhookError
	w = s.do(t, http.MethodPost, "/api/webhook/stripe", `{}`, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"error"}`, w.Body.String())
}

func TestBayarcashWebhookAcceptsJSONAndForm(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/webhooks/bayarcash", `{"order_number":"BK-000001-pay_1","status":3,"checksum":"abc"}`, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ignored"}`, w.Body.String())
	assert.Equal(t, "3", s.webhooks.fields["status"])
	assert.Equal(t, "BK-000001-pay_1", s.webhooks.fields["order_number"])

	req := httptest.NewRequest(http.MethodPost, "/api/bookings/webhook/bayarcash", strings.NewReader("order_number=BK-000002-pay_2&status=failed"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "failed", s.webhooks.fields["status"])
	assert.Equal(t, "BK-000002-pay_2", s.webhooks.fields["order_number"])
}

func TestSystemRoutes(t *testing.T) {
	healthy := newTestServer(t, map[string]HealthCheck{
		"mongodb": func(ctx context.Context) error { return nil },
	})
	w := healthy.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])

	w = healthy.do(t, http.MethodGet, "/api", "", "")
	assert.Equal(t, http.StatusOK, w.Code)

	unhealthy := newTestServer(t, map[string]HealthCheck{
		"redis": func(ctx context.Context) error { return errors.New("down") },
	})
	w = unhealthy.do(t, http.MethodGet, "/api/health", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "unhealthy", decode(t, w)["components"].(map[string]interface{})["redis"])
}
