package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seekeradv/internal/metrics"
	"seekeradv/internal/models"
	"seekeradv/internal/repositories/interfaces"
	"seekeradv/internal/utils"
	"seekeradv/pkg/logger"
)

type SignalOutcome string

const (
	SignalPaid   SignalOutcome = "paid"
	SignalFailed SignalOutcome = "failed"
)

// Signal is one normalized statement from a gateway (or an admin) that a
// payment record succeeded or failed.
type Signal struct {
	Method        models.PaymentMethod
	BookingID     string
	PaymentID     string
	TransactionID string
	Outcome       SignalOutcome
	Reason        string
	Source        string
}

type ReconcileResult struct {
	Applied   bool
	PaymentID string
	Booking   *models.Booking
}

// BookingNotifier pushes booking events to live subscribers.
type BookingNotifier interface {
	NotifyBooking(bookingID, event string, payload interface{})
}

type ReconciliationService interface {
	// Reconcile applies sig to its payment record. A record that is no
	// longer pending yields utils.ErrAlreadyProcessed and no change.
	Reconcile(ctx context.Context, sig Signal) (*ReconcileResult, error)
}

type reconciliationService struct {
	bookingRepo interfaces.BookingRepository
	locker      BookingLocker
	notifier    BookingNotifier
	logger      *logger.Logger
	now         func() time.Time
}

func NewReconciliationService(
	bookingRepo interfaces.BookingRepository,
	locker BookingLocker,
	notifier BookingNotifier,
	logger *logger.Logger,
) ReconciliationService {
	return &reconciliationService{
		bookingRepo: bookingRepo,
		locker:      locker,
		notifier:    notifier,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *reconciliationService) Reconcile(ctx context.Context, sig Signal) (*ReconcileResult, error) {
	bookingID := sig.BookingID
	if bookingID == "" {
		if sig.PaymentID == "" {
			return nil, utils.NewValidationError("booking or payment reference required")
		}
		booking, err := s.bookingRepo.GetByPaymentID(ctx, sig.PaymentID)
		if err != nil {
			return nil, lookupError(err, "Booking")
		}
		bookingID = booking.BookingID
	}

	result := &ReconcileResult{}
	err := s.locker.WithLock(ctx, bookingID, func(ctx context.Context) error {
		booking, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
		if err != nil {
			return lookupError(err, "Booking")
		}
		result.Booking = booking

		record, err := resolveRecord(booking, sig)
		if err != nil {
			return err
		}
		result.PaymentID = record.PaymentID

		now := s.now()
		switch sig.Outcome {
		case SignalPaid:
			err = booking.CompletePayment(record.PaymentID, sig.TransactionID, now)
		case SignalFailed:
			err = booking.FailPayment(record.PaymentID, sig.Reason, now)
		default:
			return utils.NewValidationError("unknown payment outcome")
		}
		if err != nil {
			if errors.Is(err, models.ErrPaymentNotPending) {
				return utils.ErrAlreadyProcessed
			}
			return err
		}

		if err := s.bookingRepo.Save(ctx, booking); err != nil {
			return saveError(err)
		}
		result.Applied = true
		return nil
	})

	log := s.logger.WithBookingID(bookingID).WithFields(map[string]interface{}{
		"payment_id": result.PaymentID,
		"source":     sig.Source,
		"outcome":    string(sig.Outcome),
	})

	if errors.Is(err, utils.ErrAlreadyProcessed) {
		log.Info("Payment signal ignored, record already processed")
		return result, err
	}
	if err != nil {
		log.WithError(err).Warn("Payment signal not applied")
		return nil, err
	}

	booking := result.Booking
	s.logger.LogPaymentEvent(booking.BookingID, result.PaymentID, "reconciled_"+string(sig.Outcome), string(sig.Method), booking.PaidAmount.StringFixed(models.MoneyScale))
	metrics.IncPaymentReconciled(string(sig.Method), string(sig.Outcome))

	if s.notifier != nil {
		s.notifier.NotifyBooking(booking.BookingID, utils.EventPaymentUpdated, NewPaymentUpdate(booking, result.PaymentID))
	}

	return result, nil
}

// resolveRecord finds the record a signal refers to. A payment id present on
// the booking always wins, settled or not.
func resolveRecord(booking *models.Booking, sig Signal) (*models.PaymentRecord, error) {
	if sig.PaymentID != "" {
		if record, ok := booking.FindPayment(sig.PaymentID); ok {
			if sig.Method != "" && record.PaymentMethod != sig.Method {
				return nil, utils.NewValidationError("payment method does not match record")
			}
			return record, nil
		}
	}

	// Bayarcash order numbers may carry a payment id the booking never
	// stored; those settle the oldest pending Bayarcash record.
	if sig.Method == models.PaymentMethodBayarcash {
		if record, ok := booking.FirstPendingPayment(models.PaymentMethodBayarcash); ok {
			return record, nil
		}
	}

	return nil, utils.NewNotFoundError("Payment")
}

// PaymentUpdate is the payload published after a payment record changes.
type PaymentUpdate struct {
	BookingID       string               `json:"booking_id"`
	PaymentID       string               `json:"payment_id"`
	PaymentStatus   models.PaymentStatus `json:"payment_status"`
	BookingStatus   models.BookingStatus `json:"booking_status"`
	RecordStatus    models.PaymentStatus `json:"record_status"`
	PaidAmount      string               `json:"paid_amount"`
	RemainingAmount string               `json:"remaining_amount"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func NewPaymentUpdate(booking *models.Booking, paymentID string) *PaymentUpdate {
	update := &PaymentUpdate{
		BookingID:       booking.BookingID,
		PaymentID:       paymentID,
		PaymentStatus:   booking.PaymentStatus,
		BookingStatus:   booking.BookingStatus,
		PaidAmount:      booking.PaidAmount.StringFixed(models.MoneyScale),
		RemainingAmount: booking.RemainingAmount.StringFixed(models.MoneyScale),
		UpdatedAt:       booking.UpdatedAt,
	}
	if record, ok := booking.FindPayment(paymentID); ok {
		update.RecordStatus = record.Status
	}
	return update
}

func lookupError(err error, resource string) error {
	if errors.Is(err, interfaces.ErrNotFound) {
		return utils.NewNotFoundError(resource)
	}
	return fmt.Errorf("failed to load %s: %w", resource, err)
}

func saveError(err error) error {
	if errors.Is(err, interfaces.ErrVersionConflict) {
		return utils.NewConflictError("Booking was modified concurrently, please retry", err)
	}
	return err
}
