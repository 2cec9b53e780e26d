package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"seekeradv/internal/models"
	"seekeradv/internal/repositories/interfaces"
	"seekeradv/internal/utils"
	"seekeradv/pkg/logger"
	"seekeradv/pkg/storage"

	"github.com/shopspring/decimal"
)

const (
	bookingCounter       = "booking_id"
	auditResourceBooking = "booking"
)

type BookingService interface {
	CreateBooking(ctx context.Context, actor *Actor, request *models.BookingCreateRequest) (*models.Booking, error)
	GetBooking(ctx context.Context, actor *Actor, bookingID string) (*models.Booking, error)
	ListMyBookings(ctx context.Context, actor *Actor, status models.BookingStatus, params *utils.PaginationParams) (*BookingList, error)
	CancelBooking(ctx context.Context, actor *Actor, bookingID string) (*models.Booking, error)
	UploadPaymentProof(ctx context.Context, actor *Actor, bookingID, paymentID string, proof *ProofUpload) (*models.Booking, error)

	// Admin
	ListBookings(ctx context.Context, filter models.BookingListFilter, params *utils.PaginationParams) (*BookingList, error)
	UpdateBookingStatus(ctx context.Context, actor *Actor, bookingID string, status models.BookingStatus) (*models.Booking, error)
	ConfirmPayment(ctx context.Context, actor *Actor, bookingID, paymentID string) (*models.Booking, error)
	FailPayment(ctx context.Context, actor *Actor, bookingID, paymentID, reason string) (*models.Booking, error)
	GetAuditTrail(ctx context.Context, bookingID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error)
}

type BookingList struct {
	Bookings []*models.Booking `json:"bookings"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	Pages    int               `json:"pages"`
}

type ProofUpload struct {
	Filename string
	Size     int64
	Reader   io.Reader
}

type bookingService struct {
	bookingRepo interfaces.BookingRepository
	tripRepo    interfaces.TripRepository
	counterRepo interfaces.CounterRepository
	auditRepo   interfaces.AuditLogRepository
	reconciler  ReconciliationService
	locker      BookingLocker
	proofs      storage.ProofStore
	notifier    BookingNotifier
	logger      *logger.Logger
	now         func() time.Time
}

func NewBookingService(
	bookingRepo interfaces.BookingRepository,
	tripRepo interfaces.TripRepository,
	counterRepo interfaces.CounterRepository,
	auditRepo interfaces.AuditLogRepository,
	reconciler ReconciliationService,
	locker BookingLocker,
	proofs storage.ProofStore,
	notifier BookingNotifier,
	logger *logger.Logger,
) BookingService {
	return &bookingService{
		bookingRepo: bookingRepo,
		tripRepo:    tripRepo,
		counterRepo: counterRepo,
		auditRepo:   auditRepo,
		reconciler:  reconciler,
		locker:      locker,
		proofs:      proofs,
		notifier:    notifier,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) CreateBooking(ctx context.Context, actor *Actor, request *models.BookingCreateRequest) (*models.Booking, error) {
	trip, err := s.tripRepo.GetByTripID(ctx, request.TripID)
	if err != nil {
		return nil, lookupError(err, "Trip")
	}

	if request.Guests < 1 {
		return nil, utils.NewValidationError("At least one guest is required")
	}
	if maxGuests := trip.EffectiveMaxGuests(); request.Guests > maxGuests {
		return nil, utils.NewValidationError(fmt.Sprintf("Maximum %d guests allowed", maxGuests))
	}
	if len(request.ParticipantDetails) != request.Guests {
		return nil, utils.NewValidationError("Participant details must match number of guests")
	}

	tripType := request.TripType
	if tripType == "" {
		tripType = models.TripTypeOpen
	}
	paymentType := request.PaymentType
	if paymentType == "" {
		paymentType = models.PaymentTypeDeposit
	}

	guests := decimal.NewFromInt(int64(request.Guests))
	total := models.RoundMoney(trip.Price.Mul(guests))

	seq, err := s.counterRepo.Next(ctx, bookingCounter)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate booking id: %w", err)
	}

	now := s.now()
	booking := &models.Booking{
		BookingID:          utils.FormatBookingID(seq),
		UserID:             actor.UserID,
		TripID:             trip.TripID,
		TripTitle:          trip.Title,
		TripImage:          trip.CoverImage(),
		TripType:           tripType,
		HostID:             trip.HostID,
		StartDate:          request.StartDate,
		Guests:             request.Guests,
		Currency:           trip.EffectiveCurrency(),
		ParticipantDetails: request.ParticipantDetails,
		TotalAmount:        total,
		DepositAmount:      models.RoundMoney(trip.EffectiveDepositPrice().Mul(guests)),
		PaidAmount:         decimal.Zero,
		RemainingAmount:    total,
		PaymentType:        paymentType,
		PaymentStatus:      models.PaymentStatusPending,
		BookingStatus:      models.BookingStatusPending,
		Payments:           []models.PaymentRecord{},
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}

	s.logger.WithBookingID(booking.BookingID).WithFields(map[string]interface{}{
		"user_id": actor.UserID,
		"trip_id": trip.TripID,
		"guests":  request.Guests,
		"total":   total.StringFixed(models.MoneyScale),
	}).Info("Booking created")

	return booking, nil
}

func (s *bookingService) GetBooking(ctx context.Context, actor *Actor, bookingID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, lookupError(err, "Booking")
	}
	if !actor.canView(booking) {
		return nil, utils.NewAuthorizationError("Access denied")
	}
	return booking, nil
}

func (s *bookingService) ListMyBookings(ctx context.Context, actor *Actor, status models.BookingStatus, params *utils.PaginationParams) (*BookingList, error) {
	return s.list(ctx, models.BookingListFilter{UserID: actor.UserID, BookingStatus: status}, params)
}

func (s *bookingService) ListBookings(ctx context.Context, filter models.BookingListFilter, params *utils.PaginationParams) (*BookingList, error) {
	return s.list(ctx, filter, params)
}

func (s *bookingService) list(ctx context.Context, filter models.BookingListFilter, params *utils.PaginationParams) (*BookingList, error) {
	bookings, total, err := s.bookingRepo.List(ctx, filter, params)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []*models.Booking{}
	}
	return &BookingList{
		Bookings: bookings,
		Total:    total,
		Page:     params.Page,
		Pages:    params.TotalPages(total),
	}, nil
}

func (s *bookingService) CancelBooking(ctx context.Context, actor *Actor, bookingID string) (*models.Booking, error) {
	booking, err := s.mutate(ctx, bookingID, func(b *models.Booking) error {
		if !actor.canManage(b) {
			return utils.NewAuthorizationError("Access denied")
		}
		if err := b.Cancel(s.now()); err != nil {
			return utils.NewValidationError("Cannot cancel this booking")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(booking, utils.EventBookingCancelled)
	return booking, nil
}

func (s *bookingService) UpdateBookingStatus(ctx context.Context, actor *Actor, bookingID string, status models.BookingStatus) (*models.Booking, error) {
	if !status.IsValid() {
		return nil, utils.NewValidationError("Invalid status")
	}

	var previous models.BookingStatus
	booking, err := s.mutate(ctx, bookingID, func(b *models.Booking) error {
		previous = b.BookingStatus
		return b.SetStatus(status, s.now())
	})
	if err != nil {
		return nil, err
	}

	s.audit(ctx, actor, models.AuditActionStatusChange, bookingID,
		map[string]interface{}{"booking_status": previous},
		map[string]interface{}{"booking_status": status},
		nil,
	)
	s.publish(booking, utils.EventBookingStatus)
	return booking, nil
}

func (s *bookingService) ConfirmPayment(ctx context.Context, actor *Actor, bookingID, paymentID string) (*models.Booking, error) {
	return s.adminSignal(ctx, actor, Signal{
		BookingID: bookingID,
		PaymentID: paymentID,
		Outcome:   SignalPaid,
		Source:    "admin",
	})
}

func (s *bookingService) FailPayment(ctx context.Context, actor *Actor, bookingID, paymentID, reason string) (*models.Booking, error) {
	if reason == "" {
		reason = "rejected by admin"
	}
	return s.adminSignal(ctx, actor, Signal{
		BookingID: bookingID,
		PaymentID: paymentID,
		Outcome:   SignalFailed,
		Reason:    reason,
		Source:    "admin",
	})
}

func (s *bookingService) adminSignal(ctx context.Context, actor *Actor, sig Signal) (*models.Booking, error) {
	if sig.PaymentID == "" {
		return nil, utils.NewValidationError("payment_id is required")
	}

	result, err := s.reconciler.Reconcile(ctx, sig)
	if err != nil {
		if errors.Is(err, utils.ErrAlreadyProcessed) {
			return nil, utils.NewConflictError("Payment already processed", err)
		}
		return nil, err
	}

	s.logger.LogSecurityEvent("admin_payment_"+string(sig.Outcome), "medium", map[string]interface{}{
		"admin_id":   actor.UserID,
		"booking_id": sig.BookingID,
		"payment_id": sig.PaymentID,
	})

	action := models.AuditActionPaymentConfirm
	if sig.Outcome == SignalFailed {
		action = models.AuditActionPaymentFail
	}
	s.audit(ctx, actor, action, sig.BookingID,
		map[string]interface{}{"record_status": models.PaymentStatusPending},
		map[string]interface{}{"record_status": recordStatus(result.Booking, sig.PaymentID)},
		map[string]interface{}{"payment_id": sig.PaymentID, "reason": sig.Reason},
	)
	return result.Booking, nil
}

func (s *bookingService) GetAuditTrail(ctx context.Context, bookingID string, params *utils.PaginationParams) ([]*models.AuditLog, int64, error) {
	if s.auditRepo == nil {
		return []*models.AuditLog{}, 0, nil
	}
	logs, total, err := s.auditRepo.GetResourceHistory(ctx, auditResourceBooking, bookingID, params)
	if err != nil {
		return nil, 0, err
	}
	if logs == nil {
		logs = []*models.AuditLog{}
	}
	return logs, total, nil
}

// audit never fails the admin action it describes.
func (s *bookingService) audit(ctx context.Context, actor *Actor, action models.AuditAction, bookingID string, oldValues, newValues, metadata map[string]interface{}) {
	if s.auditRepo == nil {
		return
	}
	err := s.auditRepo.Create(ctx, &models.AuditLog{
		ActorID:    actor.UserID,
		Action:     action,
		Resource:   auditResourceBooking,
		ResourceID: bookingID,
		OldValues:  oldValues,
		NewValues:  newValues,
		Metadata:   metadata,
		CreatedAt:  s.now(),
	})
	if err != nil {
		s.logger.WithError(err).WithBookingID(bookingID).Warn("Failed to write audit log")
	}
}

func recordStatus(booking *models.Booking, paymentID string) models.PaymentStatus {
	if record, ok := booking.FindPayment(paymentID); ok {
		return record.Status
	}
	return ""
}

func (s *bookingService) UploadPaymentProof(ctx context.Context, actor *Actor, bookingID, paymentID string, proof *ProofUpload) (*models.Booking, error) {
	if !utils.IsProofFile(proof.Filename) {
		return nil, utils.NewValidationError("Unsupported proof file type")
	}
	if proof.Size > utils.MaxProofSize {
		return nil, utils.NewValidationError("Proof file is too large")
	}

	// Access checks run before anything is written to storage.
	booking, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, lookupError(err, "Booking")
	}
	if err := checkProofTarget(booking, actor, paymentID); err != nil {
		return nil, err
	}

	key := storage.ProofKey(bookingID, paymentID, proof.Filename)
	uploaded, err := s.proofs.Put(ctx, &storage.Object{
		Key:         key,
		Body:        proof.Reader,
		ContentType: utils.GetContentType(proof.Filename),
		Size:        proof.Size,
		Tags: map[string]string{
			"booking_id": bookingID,
			"payment_id": paymentID,
		},
	})
	if errors.Is(err, storage.ErrTooLarge) {
		return nil, utils.NewValidationError("Proof file is too large")
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", utils.ErrFileUploadFailed, err)
	}

	booking, err = s.mutate(ctx, bookingID, func(b *models.Booking) error {
		if err := checkProofTarget(b, actor, paymentID); err != nil {
			return err
		}
		return b.AttachProof(paymentID, uploaded.URL, s.now())
	})
	if err != nil {
		if delErr := s.proofs.Remove(ctx, key); delErr != nil {
			s.logger.WithError(delErr).WithField("key", key).Warn("Failed to remove orphaned proof")
		}
		return nil, err
	}

	s.logger.LogPaymentEvent(bookingID, paymentID, "proof_uploaded", string(models.PaymentMethodBankTransfer), "")
	return booking, nil
}

func checkProofTarget(booking *models.Booking, actor *Actor, paymentID string) error {
	if !booking.IsOwnedBy(actor.UserID) {
		return utils.NewAuthorizationError("Access denied")
	}
	record, ok := booking.FindPayment(paymentID)
	if !ok {
		return utils.NewNotFoundError("Payment")
	}
	if record.PaymentMethod != models.PaymentMethodBankTransfer || !record.IsPending() {
		return utils.NewValidationError("Proof can only be attached to a pending bank transfer")
	}
	return nil
}

// mutate runs fn on a freshly loaded booking under the booking lock and
// saves the result.
func (s *bookingService) mutate(ctx context.Context, bookingID string, fn func(b *models.Booking) error) (*models.Booking, error) {
	var booking *models.Booking
	err := s.locker.WithLock(ctx, bookingID, func(ctx context.Context) error {
		b, err := s.bookingRepo.GetByBookingID(ctx, bookingID)
		if err != nil {
			return lookupError(err, "Booking")
		}
		if err := fn(b); err != nil {
			return err
		}
		if err := s.bookingRepo.Save(ctx, b); err != nil {
			return saveError(err)
		}
		booking = b
		return nil
	})
	return booking, err
}

func (s *bookingService) publish(booking *models.Booking, event string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyBooking(booking.BookingID, event, map[string]interface{}{
		"booking_id":     booking.BookingID,
		"booking_status": booking.BookingStatus,
		"payment_status": booking.PaymentStatus,
		"updated_at":     booking.UpdatedAt,
	})
}
