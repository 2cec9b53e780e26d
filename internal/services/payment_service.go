package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"seekeradv/internal/metrics"
	"seekeradv/internal/models"
	"seekeradv/internal/repositories/interfaces"
	"seekeradv/internal/utils"
	"seekeradv/pkg/logger"
	"seekeradv/pkg/payment"

	"github.com/shopspring/decimal"
)

type PaymentService interface {
	// CreatePayment opens a gateway payment for part of a booking balance
	// and records it as pending. origin is the caller's frontend origin.
	CreatePayment(ctx context.Context, actor *Actor, bookingID string, request *models.PaymentCreateRequest, origin string) (*models.PaymentCreateResponse, error)
}

type PaymentServiceConfig struct {
	FrontendURL string
	BackendURL  string
	MinAmount   decimal.Decimal
	Currency    string
}

type paymentService struct {
	bookingRepo     interfaces.BookingRepository
	userRepo        interfaces.UserRepository
	transactionRepo interfaces.PaymentTransactionRepository
	gateways        map[models.PaymentMethod]payment.Gateway
	locker          BookingLocker
	config          PaymentServiceConfig
	logger          *logger.Logger
	now             func() time.Time
}

func NewPaymentService(
	bookingRepo interfaces.BookingRepository,
	userRepo interfaces.UserRepository,
	transactionRepo interfaces.PaymentTransactionRepository,
	gateways []payment.Gateway,
	locker BookingLocker,
	config PaymentServiceConfig,
	logger *logger.Logger,
) PaymentService {
	byMethod := make(map[models.PaymentMethod]payment.Gateway, len(gateways))
	for _, g := range gateways {
		byMethod[models.PaymentMethod(g.Name())] = g
	}
	if config.MinAmount.IsZero() {
		config.MinAmount = MinPaymentAmount
	}
	config.FrontendURL = strings.TrimRight(config.FrontendURL, "/")
	config.BackendURL = strings.TrimRight(config.BackendURL, "/")

	return &paymentService{
		bookingRepo:     bookingRepo,
		userRepo:        userRepo,
		transactionRepo: transactionRepo,
		gateways:        byMethod,
		locker:          locker,
		config:          config,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (s *paymentService) CreatePayment(ctx context.Context, actor *Actor, bookingID string, request *models.PaymentCreateRequest, origin string) (*models.PaymentCreateResponse, error) {
	booking, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, lookupError(err, "Booking")
	}
	if !booking.IsOwnedBy(actor.UserID) {
		return nil, utils.NewAuthorizationError("Access denied")
	}

	if !request.PaymentMethod.IsValid() {
		return nil, utils.NewValidationError("Invalid payment method")
	}
	amount := models.RoundMoney(request.Amount)
	if err := ValidatePaymentAmount(booking, amount, s.config.MinAmount); err != nil {
		return nil, err
	}

	gateway, ok := s.gateways[request.PaymentMethod]
	if !ok {
		return nil, utils.NewValidationError(fmt.Sprintf("Payment method %s is not available", request.PaymentMethod))
	}

	fee, charge := Charge(amount, request.PaymentMethod)
	paymentID := utils.NewPaymentID()
	checkout := s.checkoutRequest(ctx, actor, booking, paymentID, request.PaymentMethod, charge, origin)

	start := time.Now()
	result, err := gateway.CreateCheckout(ctx, checkout)
	metrics.ObserveGateway(gateway.Name(), start, err)
	if err != nil {
		s.logger.WithBookingID(bookingID).WithError(err).WithField("gateway", gateway.Name()).Error("Gateway checkout failed")
		if errors.Is(err, payment.ErrNotConfigured) {
			return nil, utils.NewValidationError(fmt.Sprintf("Payment method %s is not available", request.PaymentMethod))
		}
		return nil, utils.NewGatewayError(gateway.Name(), err)
	}

	record := models.PaymentRecord{
		PaymentID:     paymentID,
		BillID:        result.Reference,
		BillURL:       result.URL,
		Amount:        amount,
		ProcessingFee: fee,
		ChargeAmount:  charge,
		PaymentMethod: request.PaymentMethod,
	}

	err = s.locker.WithLock(ctx, bookingID, func(ctx context.Context) error {
		current, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
		if err != nil {
			return lookupError(err, "Booking")
		}
		if err := ValidatePaymentAmount(current, amount, s.config.MinAmount); err != nil {
			return err
		}
		if err := current.AddPayment(record, s.now()); err != nil {
			return err
		}
		if err := s.bookingRepo.Save(ctx, current); err != nil {
			return saveError(err)
		}

		if request.PaymentMethod == models.PaymentMethodStripe {
			s.recordStripeTransaction(ctx, current, &record, checkout.PayerEmail)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.IncPaymentInitiated(string(request.PaymentMethod))
	s.logger.LogPaymentEvent(bookingID, paymentID, "initiated", string(request.PaymentMethod), amount.StringFixed(models.MoneyScale))

	response := &models.PaymentCreateResponse{
		PaymentID:     paymentID,
		BillURL:       result.URL,
		PaymentMethod: request.PaymentMethod,
		Amount:        amount,
		ProcessingFee: fee,
		ChargeAmount:  charge,
		Message:       paymentMessage(request.PaymentMethod, fee),
	}
	if request.PaymentMethod == models.PaymentMethodStripe {
		response.SessionID = result.Reference
	}
	if result.BankDetails != nil {
		response.BankDetails = &models.BankDetails{
			BankName:      result.BankDetails.BankName,
			AccountNumber: result.BankDetails.AccountNumber,
			AccountName:   result.BankDetails.AccountName,
			Reference:     result.BankDetails.Reference,
		}
	}
	return response, nil
}

func (s *paymentService) checkoutRequest(ctx context.Context, actor *Actor, booking *models.Booking, paymentID string, method models.PaymentMethod, charge decimal.Decimal, origin string) *payment.CheckoutRequest {
	origin = strings.TrimRight(origin, "/")
	if origin == "" {
		origin = s.config.FrontendURL
	}
	bookingURL := fmt.Sprintf("%s/bookings/%s", origin, booking.BookingID)

	request := &payment.CheckoutRequest{
		BookingID:    booking.BookingID,
		PaymentID:    paymentID,
		UserID:       actor.UserID,
		PayerEmail:   actor.Email,
		ChargeAmount: charge,
		Description:  fmt.Sprintf("Payment for %s (%s)", booking.TripTitle, booking.BookingID),
		RedirectURL:  bookingURL + "?payment=success",
		CancelURL:    bookingURL + "?payment=cancelled",
	}

	if user, err := s.userRepo.GetByUserID(ctx, actor.UserID); err == nil {
		request.PayerName = user.Name
		request.PayerPhone = user.Phone
		if user.Email != "" {
			request.PayerEmail = user.Email
		}
	} else if !errors.Is(err, interfaces.ErrNotFound) {
		s.logger.WithError(err).WithField("user_id", actor.UserID).Warn("Failed to load payer profile")
	}

	switch method {
	case models.PaymentMethodBillplz:
		request.CallbackURL = s.config.BackendURL + "/api/payments/webhook/billplz"
	case models.PaymentMethodBayarcash:
		request.CallbackURL = s.config.BackendURL + "/api/webhooks/bayarcash"
		request.OrderNumber = utils.FormatOrderNumber(booking.BookingID, paymentID)
	case models.PaymentMethodStripe:
		request.RedirectURL = bookingURL + "?payment=success&session_id={CHECKOUT_SESSION_ID}"
	}
	return request
}

func (s *paymentService) recordStripeTransaction(ctx context.Context, booking *models.Booking, record *models.PaymentRecord, email string) {
	tx := &models.PaymentTransaction{
		SessionID:     record.BillID,
		PaymentID:     record.PaymentID,
		BookingID:     booking.BookingID,
		UserID:        booking.UserID,
		Email:         email,
		Amount:        record.ChargeAmount,
		Currency:      s.config.Currency,
		PaymentStatus: models.TransactionStatusInitiated,
		Metadata: map[string]string{
			"booking_id": booking.BookingID,
			"payment_id": record.PaymentID,
		},
	}
	if err := s.transactionRepo.Create(ctx, tx); err != nil {
		s.logger.WithBookingID(booking.BookingID).WithError(err).Error("Failed to record stripe transaction")
	}
}

func paymentMessage(method models.PaymentMethod, fee decimal.Decimal) string {
	switch method {
	case models.PaymentMethodBillplz:
		return fmt.Sprintf("Payment bill created (RM%s processing fee included).", fee.StringFixed(models.MoneyScale))
	case models.PaymentMethodStripe:
		return "Stripe checkout created (4% processing fee included)."
	case models.PaymentMethodBayarcash:
		return "Bayarcash payment created. No processing fee."
	default:
		return "Please transfer to the bank account and upload proof of payment."
	}
}
