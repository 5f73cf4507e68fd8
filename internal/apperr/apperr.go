// Package apperr defines the coded business errors returned by the store and
// workflow layers and rendered by the API.
//
// Store functions return *Error for rule violations and plain wrapped errors
// for infrastructure failures. Handlers check with errors.As:
//
//	var appErr *apperr.Error
//	if errors.As(err, &appErr) {
//	    // render appErr.Status() with appErr.Code
//	}
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups codes into the categories that decide the HTTP status.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthenticated
	KindForbidden
	KindInvalidTransition
	KindRateLimited
)

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindInvalidTransition:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// Stable machine-readable codes. Clients switch on these.
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeMissingRequiredFields = "MISSING_REQUIRED_FIELDS"
	CodeInvalidDateRange      = "INVALID_DATE_RANGE"
	CodeInvalidPIN            = "INVALID_PIN"
	CodeInvalidStatus         = "INVALID_STATUS"
	CodeInvalidCategory       = "INVALID_CATEGORY"
	CodeMissingItemIdentifier = "MISSING_ITEM_IDENTIFIER"
	CodeQRCodeRequired        = "QR_CODE_REQUIRED"
	CodeQRCodeMismatch        = "QR_CODE_MISMATCH"
	CodeTripClosed            = "TRIP_CLOSED"
	CodeTripAlreadyClosed     = "TRIP_ALREADY_CLOSED"

	CodeTripNotFound     = "TRIP_NOT_FOUND"
	CodeItemNotFound     = "ITEM_NOT_FOUND"
	CodeItemNotInTrip    = "ITEM_NOT_IN_TRIP"
	CodeUserNotFound     = "USER_NOT_FOUND"
	CodeCategoryNotFound = "CATEGORY_NOT_FOUND"
	CodeImageNotFound    = "IMAGE_NOT_FOUND"
	CodeNotFound         = "NOT_FOUND"

	CodeItemAlreadyInTrip = "ITEM_ALREADY_IN_TRIP"
	CodeDuplicateQRCode   = "DUPLICATE_QR_CODE"
	CodeDuplicateCategory = "DUPLICATE_CATEGORY"

	CodeAuthRequired       = "AUTHENTICATION_REQUIRED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInvalidToken       = "INVALID_TOKEN"
	CodeUnauthorized       = "UNAUTHORIZED"

	CodeInvalidStatusTransition = "INVALID_STATUS_TRANSITION"

	CodeRateLimited = "RATE_LIMITED"
	CodeServerError = "SERVER_ERROR"
)

// Error is a business error with a kind, a stable code and optional details.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details any
	cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is matches another *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// Status returns the HTTP status code for this error.
func (e *Error) Status() int {
	return e.Kind.Status()
}

// WithDetails returns a copy of the error carrying details.
func (e *Error) WithDetails(details any) *Error {
	c := *e
	c.Details = details
	return &c
}

// WithCause returns a copy of the error wrapping err.
func (e *Error) WithCause(err error) *Error {
	c := *e
	c.cause = err
	return &c
}

// New creates an error of the given kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

// Newf creates an error with a formatted message.
func Newf(kind Kind, code, format string, args ...any) *Error {
	return &Error{Kind: kind, Code: code, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a 400 error with the given code.
func Validation(code, message string) *Error {
	return New(KindValidation, code, message)
}

// NotFound creates a 404 error with the given code.
func NotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// Conflict creates a 409 error with the given code.
func Conflict(code, message string) *Error {
	return New(KindConflict, code, message)
}

// Forbidden creates a 403 error for a failed role or ownership check.
func Forbidden(message string) *Error {
	return New(KindForbidden, CodeUnauthorized, message)
}

// Unauthenticated creates a 401 error.
func Unauthenticated(code, message string) *Error {
	return New(KindUnauthenticated, code, message)
}

const qrRequiredMessage = "QR code scan is required to mark item as returned. " +
	"Use lost or not_found status for manual updates."

// Sentinels for errors.Is checks.
var (
	ErrTripNotFound            = NotFound(CodeTripNotFound, "Trip not found")
	ErrItemNotFound            = NotFound(CodeItemNotFound, "Item not found")
	ErrItemNotInTrip           = NotFound(CodeItemNotInTrip, "Item not found in this trip")
	ErrUserNotFound            = NotFound(CodeUserNotFound, "User not found")
	ErrCategoryNotFound        = NotFound(CodeCategoryNotFound, "Category not found")
	ErrImageNotFound           = NotFound(CodeImageNotFound, "Image not found")
	ErrTripClosed              = Validation(CodeTripClosed, "Trip is closed")
	ErrTripAlreadyClosed       = Validation(CodeTripAlreadyClosed, "Trip is already closed")
	ErrQRCodeRequired          = Validation(CodeQRCodeRequired, qrRequiredMessage)
	ErrQRCodeMismatch          = Validation(CodeQRCodeMismatch, "Scanned QR code does not match the item in this trip")
	ErrMissingItemIdentifier   = Validation(CodeMissingItemIdentifier, "Either item_id or qr_code_id is required")
	ErrItemAlreadyInTrip       = Conflict(CodeItemAlreadyInTrip, "Item is already in this trip")
	ErrInvalidStatusTransition = New(KindInvalidTransition, CodeInvalidStatusTransition, "Invalid status transition")
	ErrInvalidCredentials      = Unauthenticated(CodeInvalidCredentials, "Invalid PIN")
	ErrForbidden               = Forbidden("Not authorized to perform this action")
)
