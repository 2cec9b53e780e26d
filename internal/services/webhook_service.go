package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"seekeradv/internal/metrics"
	"seekeradv/internal/models"
	"seekeradv/internal/repositories/interfaces"
	"seekeradv/internal/utils"
	"seekeradv/pkg/logger"
	"seekeradv/pkg/payment"
)

var (
	bayarcashSuccess = map[string]bool{"3": true, "success": true, "successful": true, "completed": true, "paid": true}
	bayarcashFailure = map[string]bool{"2": true, "4": true, "failed": true, "cancelled": true}
)

type BillplzGateway interface {
	GetBill(ctx context.Context, billID string) (*payment.Bill, error)
	VerifySignature(body []byte, signature string) error
}

type StripeGateway interface {
	GetSession(ctx context.Context, sessionID string) (*payment.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*payment.StripeEvent, error)
}

type BayarcashVerifier interface {
	VerifyChecksum(fields map[string]string) error
}

// WebhookResult is the acknowledgement returned to a gateway.
type WebhookResult struct {
	Status    string
	BookingID string
	PaymentID string
}

type StripeSessionStatus struct {
	Status           string `json:"status"`
	PaymentStatus    string `json:"payment_status,omitempty"`
	AmountTotal      int64  `json:"amount_total,omitempty"`
	Currency         string `json:"currency,omitempty"`
	AlreadyProcessed bool   `json:"already_processed,omitempty"`
}

type BillplzCheckResult struct {
	Updated   bool   `json:"updated"`
	BookingID string `json:"booking_id"`
}

type WebhookService interface {
	// Signature failures are returned as errors. Every other outcome is an
	// acknowledgement.
	HandleBillplz(ctx context.Context, body []byte, signature string) (*WebhookResult, error)
	HandleStripe(ctx context.Context, payload []byte, signature string) *WebhookResult
	HandleBayarcash(ctx context.Context, fields map[string]string) (*WebhookResult, error)

	PollStripeSession(ctx context.Context, actor *Actor, bookingID, sessionID string) (*StripeSessionStatus, error)
	CheckBillplzPayments(ctx context.Context, actor *Actor, bookingID string) (*BillplzCheckResult, error)
}

type webhookService struct {
	reconciler      ReconciliationService
	bookingRepo     interfaces.BookingRepository
	transactionRepo interfaces.PaymentTransactionRepository
	billplz         BillplzGateway
	stripe          StripeGateway
	bayarcash       BayarcashVerifier
	logger          *logger.Logger
}

func NewWebhookService(
	reconciler ReconciliationService,
	bookingRepo interfaces.BookingRepository,
	transactionRepo interfaces.PaymentTransactionRepository,
	billplz BillplzGateway,
	stripe StripeGateway,
	bayarcash BayarcashVerifier,
	logger *logger.Logger,
) WebhookService {
	return &webhookService{
		reconciler:      reconciler,
		bookingRepo:     bookingRepo,
		transactionRepo: transactionRepo,
		billplz:         billplz,
		stripe:          stripe,
		bayarcash:       bayarcash,
		logger:          logger,
	}
}

func (s *webhookService) HandleBillplz(ctx context.Context, body []byte, signature string) (*WebhookResult, error) {
	if err := s.billplz.VerifySignature(body, signature); err != nil {
		s.reject(payment.GatewayBillplz, err)
		return nil, utils.NewSignatureError("Invalid signature")
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		return s.ack(payment.GatewayBillplz, &WebhookResult{Status: utils.WebhookError}), nil
	}

	bookingID := form.Get("reference_1")
	paymentID := form.Get("reference_2")
	billID := form.Get("id")
	result := &WebhookResult{Status: utils.WebhookReceived, BookingID: bookingID, PaymentID: paymentID}
	if bookingID == "" {
		result.Status = utils.WebhookIgnored
		return s.ack(payment.GatewayBillplz, result), nil
	}

	sig := Signal{
		Method:        models.PaymentMethodBillplz,
		BookingID:     bookingID,
		PaymentID:     paymentID,
		TransactionID: billID,
		Source:        "billplz_webhook",
	}
	switch {
	case strings.EqualFold(form.Get("paid"), "true"):
		sig.Outcome = SignalPaid
	case strings.EqualFold(form.Get("state"), "deleted"):
		sig.Outcome = SignalFailed
		sig.Reason = "bill deleted"
	default:
		return s.ack(payment.GatewayBillplz, result), nil
	}

	if sig.PaymentID == "" {
		sig.PaymentID = s.paymentIDForBill(ctx, bookingID, billID)
		result.PaymentID = sig.PaymentID
	}

	result.Status = s.apply(ctx, sig)
	return s.ack(payment.GatewayBillplz, result), nil
}

// paymentIDForBill finds the Billplz record created for billID.
func (s *webhookService) paymentIDForBill(ctx context.Context, bookingID, billID string) string {
	booking, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
	if err != nil || billID == "" {
		return ""
	}
	for _, p := range booking.Payments {
		if p.PaymentMethod == models.PaymentMethodBillplz && p.BillID == billID {
			return p.PaymentID
		}
	}
	return ""
}

func (s *webhookService) HandleStripe(ctx context.Context, payload []byte, signature string) *WebhookResult {
	event, err := s.stripe.ParseWebhook(payload, signature)
	if err != nil {
		s.reject(payment.GatewayStripe, err)
		return s.ack(payment.GatewayStripe, &WebhookResult{Status: utils.WebhookError})
	}

	result := &WebhookResult{Status: utils.WebhookReceived}
	session := event.Session
	if session == nil {
		return s.ack(payment.GatewayStripe, result)
	}

	sig := Signal{
		Method:    models.PaymentMethodStripe,
		BookingID: session.Metadata["booking_id"],
		PaymentID: session.Metadata["payment_id"],
		Source:    "stripe_webhook",
	}

	tx, err := s.transactionRepo.GetBySessionID(ctx, session.ID)
	switch {
	case err == nil:
		if tx.IsPaid() {
			result.Status = utils.WebhookAlreadyProcessed
			return s.ack(payment.GatewayStripe, result)
		}
		if sig.BookingID == "" {
			sig.BookingID = tx.BookingID
		}
		if sig.PaymentID == "" {
			sig.PaymentID = tx.PaymentID
		}
	case !errors.Is(err, interfaces.ErrNotFound):
		s.logger.WithError(err).WithField("session_id", session.ID).Warn("Failed to load stripe transaction")
	}
	result.BookingID, result.PaymentID = sig.BookingID, sig.PaymentID

	var txStatus models.TransactionStatus
	switch event.Type {
	case payment.StripeEventSessionCompleted, payment.StripeEventAsyncPaymentSucceeded:
		if !session.IsPaid() {
			return s.ack(payment.GatewayStripe, result)
		}
		sig.Outcome = SignalPaid
		txStatus = models.TransactionStatusPaid
	case payment.StripeEventSessionExpired, payment.StripeEventAsyncPaymentFailed:
		sig.Outcome = SignalFailed
		sig.Reason = event.Type
		txStatus = models.TransactionStatusExpired
	default:
		return s.ack(payment.GatewayStripe, result)
	}
	if sig.PaymentID == "" {
		result.Status = utils.WebhookIgnored
		return s.ack(payment.GatewayStripe, result)
	}

	result.Status = s.apply(ctx, sig)
	if result.Status != utils.WebhookError {
		s.updateTransaction(ctx, session.ID, txStatus, session.Status)
	}
	return s.ack(payment.GatewayStripe, result)
}

func (s *webhookService) HandleBayarcash(ctx context.Context, fields map[string]string) (*WebhookResult, error) {
	if err := s.bayarcash.VerifyChecksum(fields); err != nil {
		s.reject(payment.GatewayBayarcash, err)
		return nil, utils.NewSignatureError("Invalid checksum")
	}

	orderNumber := firstField(fields, "order_number", "record_token")
	result := &WebhookResult{Status: utils.WebhookReceived}

	bookingID, paymentID, ok := utils.ParseOrderNumber(orderNumber)
	if !ok {
		return s.ack(payment.GatewayBayarcash, result), nil
	}
	result.BookingID, result.PaymentID = bookingID, paymentID

	sig := Signal{
		Method:        models.PaymentMethodBayarcash,
		BookingID:     bookingID,
		PaymentID:     paymentID,
		TransactionID: firstField(fields, "transaction_id", "id"),
		Source:        "bayarcash_webhook",
	}

	status := strings.ToLower(firstField(fields, "status", "payment_status"))
	switch {
	case bayarcashSuccess[status]:
		sig.Outcome = SignalPaid
	case bayarcashFailure[status]:
		sig.Outcome = SignalFailed
		sig.Reason = "bayarcash status " + status
	default:
		return s.ack(payment.GatewayBayarcash, result), nil
	}

	result.Status = s.apply(ctx, sig)
	return s.ack(payment.GatewayBayarcash, result), nil
}

func (s *webhookService) PollStripeSession(ctx context.Context, actor *Actor, bookingID, sessionID string) (*StripeSessionStatus, error) {
	booking, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, lookupError(err, "Booking")
	}
	if !actor.canManage(booking) {
		return nil, utils.NewAuthorizationError("Access denied")
	}

	tx, err := s.transactionRepo.GetBySessionID(ctx, sessionID)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, err
	}
	if tx != nil {
		if tx.BookingID != bookingID {
			return nil, utils.NewNotFoundError("Session")
		}
		if tx.IsPaid() {
			return &StripeSessionStatus{Status: "paid", AlreadyProcessed: true}, nil
		}
	}

	session, err := s.stripe.GetSession(ctx, sessionID)
	if err != nil {
		return nil, utils.NewGatewayError(payment.GatewayStripe, err)
	}

	paymentID := session.Metadata["payment_id"]
	if tx != nil {
		paymentID = tx.PaymentID
	} else if session.Metadata["booking_id"] != bookingID {
		return nil, utils.NewNotFoundError("Session")
	}

	if session.IsPaid() && paymentID != "" {
		_, err := s.reconciler.Reconcile(ctx, Signal{
			Method:    models.PaymentMethodStripe,
			BookingID: bookingID,
			PaymentID: paymentID,
			Outcome:   SignalPaid,
			Source:    "stripe_poll",
		})
		if err != nil && !errors.Is(err, utils.ErrAlreadyProcessed) {
			return nil, err
		}
		s.updateTransaction(ctx, sessionID, models.TransactionStatusPaid, session.Status)
	}

	return &StripeSessionStatus{
		Status:        session.Status,
		PaymentStatus: session.PaymentStatus,
		AmountTotal:   session.AmountTotal,
		Currency:      session.Currency,
	}, nil
}

func (s *webhookService) CheckBillplzPayments(ctx context.Context, actor *Actor, bookingID string) (*BillplzCheckResult, error) {
	booking, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, lookupError(err, "Booking")
	}
	if !actor.canManage(booking) {
		return nil, utils.NewAuthorizationError("Access denied")
	}

	result := &BillplzCheckResult{BookingID: bookingID}
	for _, record := range booking.PendingPayments(models.PaymentMethodBillplz) {
		if record.BillID == "" {
			continue
		}

		log := s.logger.WithBookingID(bookingID).WithField("bill_id", record.BillID)
		bill, err := s.billplz.GetBill(ctx, record.BillID)
		if err != nil {
			log.WithError(err).Warn("Failed to check Billplz bill")
			continue
		}
		if !bill.Paid {
			continue
		}

		outcome, err := s.reconciler.Reconcile(ctx, Signal{
			Method:        models.PaymentMethodBillplz,
			BookingID:     bookingID,
			PaymentID:     record.PaymentID,
			TransactionID: bill.ID,
			Outcome:       SignalPaid,
			Source:        "billplz_query",
		})
		if err != nil {
			if !errors.Is(err, utils.ErrAlreadyProcessed) {
				log.WithError(err).Warn("Failed to apply Billplz bill status")
			}
			continue
		}
		if outcome.Applied {
			result.Updated = true
		}
	}

	return result, nil
}

// apply reconciles sig and maps the outcome to a webhook status.
func (s *webhookService) apply(ctx context.Context, sig Signal) string {
	_, err := s.reconciler.Reconcile(ctx, sig)
	switch {
	case err == nil:
		return utils.WebhookReceived
	case errors.Is(err, utils.ErrAlreadyProcessed):
		return utils.WebhookAlreadyProcessed
	case utils.IsKind(err, utils.KindNotFound):
		return utils.WebhookIgnored
	default:
		return utils.WebhookError
	}
}

func (s *webhookService) updateTransaction(ctx context.Context, sessionID string, status models.TransactionStatus, gatewayStatus string) {
	err := s.transactionRepo.UpdateStatus(ctx, sessionID, status, gatewayStatus)
	if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		s.logger.WithError(err).WithField("session_id", sessionID).Warn("Failed to update stripe transaction")
	}
}

func (s *webhookService) ack(gateway string, result *WebhookResult) *WebhookResult {
	metrics.IncWebhook(gateway, result.Status)
	s.logger.LogWebhookEvent(gateway, result.Status, map[string]interface{}{
		"booking_id": result.BookingID,
		"payment_id": result.PaymentID,
	})
	return result
}

func (s *webhookService) reject(gateway string, err error) {
	metrics.IncWebhook(gateway, "rejected")
	s.logger.LogSecurityEvent("webhook_signature_invalid", "high", map[string]interface{}{
		"gateway": gateway,
		"error":   err.Error(),
	})
}

func firstField(fields map[string]string, keys ...string) string {
	for _, k := range keys {
		if v := fields[k]; v != "" {
			return v
		}
	}
	return ""
}
