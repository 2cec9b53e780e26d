package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

type ErrorKind int

const (
	KindInternal ErrorKind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindUnauthenticated
	KindGatewayTransport
	KindSignature
	KindConflict
)

// ErrAlreadyProcessed marks a gateway signal for a record that is no longer
// pending. Callers acknowledge it without changing state.
var ErrAlreadyProcessed = errors.New("payment already processed")

type AppError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewValidationError(message string) *AppError {
	return &AppError{Kind: KindValidation, Message: message}
}

func NewNotFoundError(resource string) *AppError {
	return &AppError{Kind: KindNotFound, Message: resource + " not found"}
}

func NewAuthorizationError(message string) *AppError {
	return &AppError{Kind: KindAuthorization, Message: message}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{Kind: KindUnauthenticated, Message: message}
}

func NewGatewayError(gateway string, err error) *AppError {
	return &AppError{Kind: KindGatewayTransport, Message: "payment gateway " + gateway + " unavailable", Err: err}
}

func NewSignatureError(message string) *AppError {
	return &AppError{Kind: KindSignature, Message: message}
}

func NewConflictError(message string, err error) *AppError {
	return &AppError{Kind: KindConflict, Message: message, Err: err}
}

func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, ErrAlreadyProcessed) {
		return KindConflict
	}
	return KindInternal
}

func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}

func statusAndCode(kind ErrorKind) (int, string) {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest, "VALIDATION_ERROR"
	case KindNotFound:
		return http.StatusNotFound, "NOT_FOUND"
	case KindAuthorization:
		return http.StatusForbidden, "FORBIDDEN"
	case KindUnauthenticated:
		return http.StatusUnauthorized, "UNAUTHORIZED"
	case KindGatewayTransport:
		return http.StatusBadGateway, "GATEWAY_ERROR"
	case KindSignature:
		return http.StatusForbidden, "INVALID_SIGNATURE"
	case KindConflict:
		return http.StatusConflict, "CONFLICT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

// HandleError writes err using the standard envelope. Internal errors never
// expose their message.
func HandleError(c *gin.Context, err error) {
	kind := KindOf(err)
	status, code := statusAndCode(kind)
	if kind == KindInternal {
		_ = c.Error(err)
		ErrorResponse(c, status, code, ErrInternalServer)
		return
	}

	message := err.Error()
	var appErr *AppError
	if errors.As(err, &appErr) {
		message = appErr.Message
	}
	ErrorResponse(c, status, code, message)
}
