package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string
type TripType string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"

	TripTypeOpen    TripType = "open"
	TripTypePrivate TripType = "private"
)

var (
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPaymentNotPending     = errors.New("payment already processed")
	ErrDuplicatePayment      = errors.New("payment id already exists on booking")
	ErrBookingNotCancellable = errors.New("booking cannot be cancelled")
	ErrInvalidBookingStatus  = errors.New("invalid booking status")
)

func (s BookingStatus) IsValid() bool {
	switch s {
	case BookingStatusPending, BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// IsTerminal reports whether payment activity may no longer move the status.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusCancelled || s == BookingStatusCompleted
}

type Participant struct {
	Name    string `json:"name" bson:"name" binding:"required"`
	Email   string `json:"email,omitempty" bson:"email,omitempty"`
	Phone   string `json:"phone,omitempty" bson:"phone,omitempty" binding:"omitempty,phone_number"`
	IDNo    string `json:"id_no,omitempty" bson:"id_no,omitempty"`
	Age     int    `json:"age,omitempty" bson:"age,omitempty"`
	Remarks string `json:"remarks,omitempty" bson:"remarks,omitempty"`
}

type Booking struct {
	ID                 primitive.ObjectID `json:"-" bson:"_id,omitempty"`
	BookingID          string             `json:"booking_id" bson:"booking_id"`
	UserID             string             `json:"user_id" bson:"user_id"`
	TripID             string             `json:"trip_id" bson:"trip_id"`
	TripTitle          string             `json:"trip_title" bson:"trip_title"`
	TripImage          string             `json:"trip_image" bson:"trip_image"`
	TripType           TripType           `json:"trip_type" bson:"trip_type"`
	HostID             string             `json:"host_id,omitempty" bson:"host_id,omitempty"`
	StartDate          string             `json:"start_date" bson:"start_date"`
	Guests             int                `json:"guests" bson:"guests"`
	Currency           string             `json:"currency" bson:"currency"`
	ParticipantDetails []Participant      `json:"participant_details" bson:"participant_details"`
	TotalAmount        decimal.Decimal    `json:"total_amount" bson:"total_amount"`
	DepositAmount      decimal.Decimal    `json:"deposit_amount" bson:"deposit_amount"`
	PaidAmount         decimal.Decimal    `json:"paid_amount" bson:"paid_amount"`
	RemainingAmount    decimal.Decimal    `json:"remaining_amount" bson:"remaining_amount"`
	PaymentType        PaymentType        `json:"payment_type" bson:"payment_type"`
	PaymentStatus      PaymentStatus      `json:"payment_status" bson:"payment_status"`
	BookingStatus      BookingStatus      `json:"booking_status" bson:"booking_status"`
	Payments           []PaymentRecord    `json:"payments" bson:"payments"`
	Version            int64              `json:"version" bson:"version"`
	CreatedAt          time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) FindPayment(paymentID string) (*PaymentRecord, bool) {
	for i := range b.Payments {
		if b.Payments[i].PaymentID == paymentID {
			return &b.Payments[i], true
		}
	}
	return nil, false
}

// FirstPendingPayment returns the oldest pending record for the given method.
func (b *Booking) FirstPendingPayment(method PaymentMethod) (*PaymentRecord, bool) {
	for i := range b.Payments {
		p := &b.Payments[i]
		if p.PaymentMethod == method && p.IsPending() {
			return p, true
		}
	}
	return nil, false
}

func (b *Booking) PendingPayments(method PaymentMethod) []PaymentRecord {
	var out []PaymentRecord
	for _, p := range b.Payments {
		if p.PaymentMethod == method && p.IsPending() {
			out = append(out, p)
		}
	}
	return out
}

func (b *Booking) AddPayment(p PaymentRecord, at time.Time) error {
	if _, exists := b.FindPayment(p.PaymentID); exists {
		return ErrDuplicatePayment
	}
	p.Status = PaymentStatusPending
	p.PaidAt = nil
	p.FailedAt = nil
	if p.CreatedAt.IsZero() {
		p.CreatedAt = at
	}
	b.Payments = append(b.Payments, p)
	b.Recalculate(at)
	return nil
}

// CompletePayment moves a pending record to completed and recomputes the
// booking aggregates. A non-pending record is left untouched.
func (b *Booking) CompletePayment(paymentID, transactionID string, at time.Time) error {
	p, ok := b.FindPayment(paymentID)
	if !ok {
		return ErrPaymentNotFound
	}
	if !p.IsPending() {
		return ErrPaymentNotPending
	}
	paidAt := at
	p.Status = PaymentStatusCompleted
	p.PaidAt = &paidAt
	if transactionID != "" {
		p.TransactionID = transactionID
	}
	b.Recalculate(at)
	return nil
}

func (b *Booking) FailPayment(paymentID, reason string, at time.Time) error {
	p, ok := b.FindPayment(paymentID)
	if !ok {
		return ErrPaymentNotFound
	}
	if !p.IsPending() {
		return ErrPaymentNotPending
	}
	failedAt := at
	p.Status = PaymentStatusFailed
	p.FailedAt = &failedAt
	p.FailureReason = reason
	b.Recalculate(at)
	return nil
}

func (b *Booking) AttachProof(paymentID, proofURL string, at time.Time) error {
	p, ok := b.FindPayment(paymentID)
	if !ok {
		return ErrPaymentNotFound
	}
	if !p.IsPending() {
		return ErrPaymentNotPending
	}
	p.ProofURL = proofURL
	b.UpdatedAt = at
	return nil
}

// Recalculate re-derives the money aggregates and payment status from the
// full payment history.
func (b *Booking) Recalculate(at time.Time) {
	paid := decimal.Zero
	for _, p := range b.Payments {
		if p.Status == PaymentStatusCompleted {
			paid = paid.Add(p.Amount)
		}
	}
	b.PaidAmount = RoundMoney(paid)
	b.RemainingAmount = RoundMoney(MaxMoney(decimal.Zero, b.TotalAmount.Sub(paid)))

	switch {
	case !b.RemainingAmount.IsPositive():
		b.PaymentStatus = PaymentStatusCompleted
	case b.PaidAmount.IsPositive():
		b.PaymentStatus = PaymentStatusPartial
	default:
		b.PaymentStatus = PaymentStatusPending
	}

	if !b.BookingStatus.IsTerminal() && b.PaidAmount.IsPositive() {
		b.BookingStatus = BookingStatusConfirmed
	}
	b.UpdatedAt = at
}

func (b *Booking) IsFullyPaid() bool {
	return b.PaymentStatus == PaymentStatusCompleted
}

func (b *Booking) Cancel(at time.Time) error {
	if b.BookingStatus.IsTerminal() {
		return ErrBookingNotCancellable
	}
	b.BookingStatus = BookingStatusCancelled
	b.UpdatedAt = at
	return nil
}

func (b *Booking) SetStatus(status BookingStatus, at time.Time) error {
	if !status.IsValid() {
		return ErrInvalidBookingStatus
	}
	b.BookingStatus = status
	b.UpdatedAt = at
	return nil
}

func (b *Booking) IsOwnedBy(userID string) bool {
	return b.UserID == userID
}

type BookingCreateRequest struct {
	TripID             string        `json:"trip_id" binding:"required"`
	TripType           TripType      `json:"trip_type" binding:"omitempty,oneof=open private"`
	StartDate          string        `json:"start_date" binding:"required,booking_date"`
	Guests             int           `json:"guests" binding:"required,min=1"`
	PaymentType        PaymentType   `json:"payment_type" binding:"omitempty,oneof=deposit full"`
	ParticipantDetails []Participant `json:"participant_details" binding:"dive"`
}

type BookingListFilter struct {
	UserID        string
	BookingStatus BookingStatus
	PaymentStatus PaymentStatus
}
