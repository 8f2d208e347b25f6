package appErrors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies an application error class.
type ErrorCode string

// AppError is the application-level error carried from services up to the
// HTTP layer. HTTPCode decides the response status; Err keeps the cause for
// logs and is never serialized.
type AppError struct {
	Code     ErrorCode   `json:"code"`
	Message  string      `json:"message"`
	Details  interface{} `json:"details,omitempty"`
	Err      error       `json:"-"`
	HTTPCode int         `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		HTTPCode: httpCode,
	}
}

// Wrap attaches a cause to a new AppError.
func Wrap(err error, code ErrorCode, message string, httpCode int) *AppError {
	return &AppError{
		Code:     code,
		Message:  message,
		Err:      err,
		HTTPCode: httpCode,
	}
}

// WithDetails returns a copy carrying client-visible details. Predefined
// errors are package-level variables, so the receiver is never mutated.
func (e *AppError) WithDetails(details interface{}) *AppError {
	clone := *e
	clone.Details = details
	return &clone
}

// WithError returns a copy carrying the underlying cause.
func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	type alias struct {
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}
	return json.Marshal(&alias{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target interface{}) bool {
	return stderrors.As(err, target)
}

// Predefined errors for the payment pipeline.
var (
	// Validation / authorization
	ErrValidationFailed  = New(CodeValidationFailed, "Validation failed", http.StatusBadRequest)
	ErrOwnershipMismatch = New(CodeOwnershipMismatch, "Transaction belongs to another user", http.StatusForbidden)

	// Gateway
	ErrGatewayUnavailable  = New(CodeGatewayUnavailable, "Payment gateway is unavailable", http.StatusBadRequest)
	ErrVerificationFailed  = New(CodeVerificationFailed, "Payment could not be verified", http.StatusBadRequest)
	ErrPaymentNotCompleted = New(CodePaymentNotCompleted, "Payment is not completed", http.StatusBadRequest)

	// Persistence
	ErrPersistenceFailed = New(CodePersistenceFailed, "Failed to persist enrollment", http.StatusInternalServerError)

	// Configuration
	ErrMissingGatewayCredentials = New(CodeConfiguration, "Payment gateway credentials are not configured", http.StatusInternalServerError)
)

// ValidationError builds a 400 with per-field details.
func ValidationError(details interface{}) *AppError {
	return ErrValidationFailed.WithDetails(details)
}

// InternalError wraps an unexpected error into a 500.
func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "Internal server error", http.StatusInternalServerError)
}
