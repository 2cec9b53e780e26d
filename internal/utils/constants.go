package utils

import "time"

const (
	AppName = "SeekerAdventure"

	DefaultCurrency = "RM"

	// Pagination
	DefaultPageSize   = 20
	MaxPageSize       = 100
	MaxMyBookingsSize = 50
	MinPageSize       = 1

	JWTAccessTokenTTL = 24 * time.Hour

	// File Upload
	MaxProofSize = 10 * 1024 * 1024
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Webhook acknowledgement statuses
const (
	WebhookReceived         = "received"
	WebhookIgnored          = "ignored"
	WebhookError            = "error"
	WebhookAlreadyProcessed = "already_processed"
)

// Error Messages
const (
	ErrInvalidToken     = "invalid token"
	ErrInternalServer   = "internal server error"
	ErrUnauthorized     = "unauthorized"
	ErrForbidden        = "forbidden"
	ErrNotFound         = "not found"
	ErrValidationFailed = "validation failed"
	ErrFileUploadFailed = "file upload failed"
)

// Cache Keys
const (
	CacheTripPrefix        = "trip:"
	CacheBookingLockPrefix = "lock:booking:"
)

// Event Types
const (
	EventPaymentCreated   = "payment.created"
	EventPaymentCompleted = "payment.completed"
	EventPaymentFailed    = "payment.failed"
	EventPaymentUpdated   = "booking.payment_updated"
	EventBookingCancelled = "booking.cancelled"
	EventBookingStatus    = "booking.status_changed"
)

var AllowedProofTypes = []string{"jpg", "jpeg", "png", "pdf", "webp"}
