package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"seekeradv/internal/models"
	"seekeradv/internal/repositories/interfaces"
	"seekeradv/internal/utils"
	"seekeradv/pkg/logger"
	"seekeradv/pkg/payment"
	"seekeradv/pkg/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func cloneBooking(b *models.Booking) *models.Booking {
	c := *b
	c.Payments = append([]models.PaymentRecord(nil), b.Payments...)
	c.ParticipantDetails = append([]models.Participant(nil), b.ParticipantDetails...)
	return &c
}

type memBookingRepo struct {
	mu       sync.Mutex
	bookings map[string]*models.Booking
	saves    int
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{bookings: make(map[string]*models.Booking)}
}

func (r *memBookingRepo) Create(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bookings[booking.BookingID]; exists {
		return fmt.Errorf("duplicate booking %s", booking.BookingID)
	}
	booking.Version = 1
	r.bookings[booking.BookingID] = cloneBooking(booking)
	return nil
}

func (r *memBookingRepo) GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[bookingID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return cloneBooking(b), nil
}

func (r *memBookingRepo) GetByPaymentID(ctx context.Context, paymentID string) (*models.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bookings {
		if _, ok := b.FindPayment(paymentID); ok {
			return cloneBooking(b), nil
		}
	}
	return nil, interfaces.ErrNotFound
}

func (r *memBookingRepo) Save(ctx context.Context, booking *models.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.bookings[booking.BookingID]
	if !ok || stored.Version != booking.Version {
		return interfaces.ErrVersionConflict
	}
	booking.Version++
	r.bookings[booking.BookingID] = cloneBooking(booking)
	r.saves++
	return nil
}

func (r *memBookingRepo) List(ctx context.Context, filter models.BookingListFilter, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched []*models.Booking
	for _, b := range r.bookings {
		if filter.UserID != "" && b.UserID != filter.UserID {
			continue
		}
		if filter.BookingStatus != "" && b.BookingStatus != filter.BookingStatus {
			continue
		}
		if filter.PaymentStatus != "" && b.PaymentStatus != filter.PaymentStatus {
			continue
		}
		matched = append(matched, cloneBooking(b))
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].BookingID > matched[j].BookingID })

	total := int64(len(matched))
	start := params.GetSkip()
	if start > len(matched) {
		start = len(matched)
	}
	end := start + params.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *memBookingRepo) get(t *testing.T, bookingID string) *models.Booking {
	t.Helper()
	b, err := r.GetByBookingID(context.Background(), bookingID)
	require.NoError(t, err)
	return b
}

type memTripRepo struct {
	trips map[string]*models.Trip
}

func (r *memTripRepo) GetByTripID(ctx context.Context, tripID string) (*models.Trip, error) {
	t, ok := r.trips[tripID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return t, nil
}

type memUserRepo struct {
	users map[string]*models.User
}

func (r *memUserRepo) GetByUserID(ctx context.Context, userID string) (*models.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	return u, nil
}

type memTransactionRepo struct {
	mu  sync.Mutex
	txs map[string]*models.PaymentTransaction
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{txs: make(map[string]*models.PaymentTransaction)}
}

func (r *memTransactionRepo) Create(ctx context.Context, tx *models.PaymentTransaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *tx
	r.txs[tx.SessionID] = &c
	return nil
}

func (r *memTransactionRepo) GetBySessionID(ctx context.Context, sessionID string) (*models.PaymentTransaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[sessionID]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	c := *tx
	return &c, nil
}

func (r *memTransactionRepo) UpdateStatus(ctx context.Context, sessionID string, status models.TransactionStatus, gatewayStatus string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.txs[sessionID]
	if !ok {
		return interfaces.ErrNotFound
	}
	tx.PaymentStatus = status
	if gatewayStatus != "" {
		tx.GatewayStatus = gatewayStatus
	}
	return nil
}

type memCounterRepo struct {
	mu  sync.Mutex
	seq map[string]int64
}

func (r *memCounterRepo) Next(ctx context.Context, name string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seq == nil {
		r.seq = make(map[string]int64)
	}
	r.seq[name]++
	return r.seq[name], nil
}

type memAuditRepo struct {
	mu   sync.Mutex
	logs []*models.AuditLog
}

func (r *memAuditRepo) Create(ctx context.Context, auditLog *models.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logs = append(r.logs, auditLog)
	return nil
}

// GetResourceHistory returns the newest entries first.
func (r *memAuditRepo) GetResourceHistory(ctx context.Context, resource, resourceID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuditLog
	for i := len(r.logs) - 1; i >= 0; i-- {
		if r.logs[i].Resource == resource && r.logs[i].ResourceID == resourceID {
			out = append(out, r.logs[i])
		}
	}
	return out, int64(len(out)), nil
}

type fakeGateway struct {
	mu       sync.Mutex
	name     string
	err      error
	requests []*payment.CheckoutRequest
}

func (g *fakeGateway) Name() string {
	return g.name
}

func (g *fakeGateway) CreateCheckout(ctx context.Context, request *payment.CheckoutRequest) (*payment.CheckoutResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.requests = append(g.requests, request)
	if g.err != nil {
		return nil, g.err
	}
	ref := fmt.Sprintf("%s_ref_%d", g.name, len(g.requests))
	return &payment.CheckoutResult{Reference: ref, URL: "https://pay.example/" + ref}, nil
}

func (g *fakeGateway) last() *payment.CheckoutRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.requests[len(g.requests)-1]
}

type fakeBillplz struct {
	*payment.BillplzClient
	bills map[string]*payment.Bill
}

func (f *fakeBillplz) GetBill(ctx context.Context, billID string) (*payment.Bill, error) {
	bill, ok := f.bills[billID]
	if !ok {
		return nil, &payment.APIError{Gateway: payment.GatewayBillplz, StatusCode: 404}
	}
	return bill, nil
}

type fakeStripe struct {
	*payment.StripeClient
	sessions map[string]*payment.CheckoutSession
}

func (f *fakeStripe) GetSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error) {
	s, ok := f.sessions[sessionID]
	if !ok {
		return nil, &payment.APIError{Gateway: payment.GatewayStripe, StatusCode: 404}
	}
	return s, nil
}

type notification struct {
	bookingID string
	event     string
	payload   interface{}
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []notification
}

func (n *recordingNotifier) NotifyBooking(bookingID, event string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, notification{bookingID: bookingID, event: event, payload: payload})
}

func (n *recordingNotifier) count(event string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, e := range n.events {
		if e.event == event {
			c++
		}
	}
	return c
}

const (
	testStripeWebhookSecret = "whsec_test"
	testBayarcashSecret     = "bc-secret"
)

type harness struct {
	bookingRepo *memBookingRepo
	txRepo      *memTransactionRepo
	notifier    *recordingNotifier
	billplzGW   *fakeGateway
	stripeGW    *fakeGateway
	bayarcashGW *fakeGateway
	billplz     *fakeBillplz
	stripe      *fakeStripe

	reconciler ReconciliationService
	payments   PaymentService
	bookings   BookingService
	webhooks   WebhookService
}

var (
	owner = &Actor{UserID: "user_1", Role: models.UserRoleClient, Email: "aina@example.com"}
	other = &Actor{UserID: "user_2", Role: models.UserRoleClient, Email: "other@example.com"}
	admin = &Actor{UserID: "admin_1", Role: models.UserRoleAdmin, Email: "admin@example.com"}
	host  = &Actor{UserID: "host_1", Role: models.UserRoleHost, Email: "host@example.com"}
)

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.NewNop()

	h := &harness{
		bookingRepo: newMemBookingRepo(),
		txRepo:      newMemTransactionRepo(),
		notifier:    &recordingNotifier{},
		billplzGW:   &fakeGateway{name: payment.GatewayBillplz},
		stripeGW:    &fakeGateway{name: payment.GatewayStripe},
		bayarcashGW: &fakeGateway{name: payment.GatewayBayarcash},
		billplz: &fakeBillplz{
			BillplzClient: payment.NewBillplzClient(payment.BillplzConfig{}),
			bills:         make(map[string]*payment.Bill),
		},
		stripe: &fakeStripe{
			StripeClient: payment.NewStripeClient(payment.StripeConfig{SecretKey: "sk_test_123", WebhookSecret: testStripeWebhookSecret}),
			sessions:     make(map[string]*payment.CheckoutSession),
		},
	}

	deposit := dec("100")
	trips := &memTripRepo{trips: map[string]*models.Trip{
		"trip_1": {TripID: "trip_1", Title: "Gunung Tahan", Price: dec("899"), MaxGuests: 4, HostID: "host_1", Images: []string{"cover.jpg"}},
		"trip_2": {TripID: "trip_2", Title: "Pulau Tioman", Price: dec("250"), DepositPrice: &deposit},
	}}
	users := &memUserRepo{users: map[string]*models.User{
		"user_1": {UserID: "user_1", Name: "Aina", Email: "aina@example.com", Phone: "0123456789"},
	}}

	locker := NewLocalLocker()
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8001/uploads", utils.MaxProofSize)
	require.NoError(t, err)

	h.reconciler = NewReconciliationService(h.bookingRepo, locker, h.notifier, log)
	h.payments = NewPaymentService(h.bookingRepo, users, h.txRepo, []payment.Gateway{
		h.billplzGW,
		h.stripeGW,
		h.bayarcashGW,
		payment.NewBankTransferGateway(payment.BankAccount{BankName: "Maybank", AccountNumber: "5123 4567 8901", AccountName: "Seeker Adventure Sdn Bhd"}),
	}, locker, PaymentServiceConfig{
		FrontendURL: "https://seekeradventure.com/",
		BackendURL:  "https://api.seekeradventure.com",
		Currency:    "myr",
	}, log)
	h.bookings = NewBookingService(h.bookingRepo, trips, &memCounterRepo{}, &memAuditRepo{}, h.reconciler, locker, store, h.notifier, log)
	h.webhooks = NewWebhookService(
		h.reconciler,
		h.bookingRepo,
		h.txRepo,
		h.billplz,
		h.stripe,
		payment.NewBayarcashClient(payment.BayarcashConfig{APISecret: testBayarcashSecret}),
		log,
	)
	return h
}

func participants(n int) []models.Participant {
	out := make([]models.Participant, n)
	for i := range out {
		out[i] = models.Participant{Name: fmt.Sprintf("Guest %d", i+1)}
	}
	return out
}

// newBooking creates a booking of trip_1 (RM899 per guest) for owner.
func (h *harness) newBooking(t *testing.T, guests int) *models.Booking {
	t.Helper()
	booking, err := h.bookings.CreateBooking(context.Background(), owner, &models.BookingCreateRequest{
		TripID:             "trip_1",
		StartDate:          "2026-12-01",
		Guests:             guests,
		ParticipantDetails: participants(guests),
	})
	require.NoError(t, err)
	return booking
}

func (h *harness) pay(t *testing.T, bookingID, amount string, method models.PaymentMethod) *models.PaymentCreateResponse {
	t.Helper()
	resp, err := h.payments.CreatePayment(context.Background(), owner, bookingID, &models.PaymentCreateRequest{
		Amount:        dec(amount),
		PaymentMethod: method,
	}, "")
	require.NoError(t, err)
	return resp
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}
