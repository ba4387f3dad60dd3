// Package errors provides the error taxonomy of the wallet session subsystem.
// Every failure is an *AppError carrying a machine-readable code, a
// user-facing message, a retryable flag and the HTTP status the bridge
// server responds with.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// HTTPStatus is the recommended HTTP status code for this error.
	HTTPStatus int `json:"-"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// HasCode reports whether err is, or wraps, an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// --- Provider errors ---

// UserRejected reports that the user declined the request in the wallet UI.
func UserRejected(kind string) *AppError {
	return &AppError{
		Code: ErrCodeUserRejected, Message: "The request was rejected in the wallet.",
		HTTPStatus: http.StatusConflict, Retryable: true,
		Details: map[string]any{"kind": kind},
	}
}

// ProviderUnavailable reports that the wallet provider is not installed or not reachable.
func ProviderUnavailable(kind string) *AppError {
	return &AppError{
		Code: ErrCodeProviderUnavailable, Message: fmt.Sprintf("The %s wallet is not available. Install or unlock it and try again.", kind),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"kind": kind},
	}
}

// AlreadyPending reports that an adapter already has a connect request in flight.
func AlreadyPending(kind string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyPending, Message: fmt.Sprintf("A %s connection request is already pending.", kind),
		HTTPStatus: http.StatusConflict, Retryable: true,
		Details: map[string]any{"kind": kind},
	}
}

// SilentUnsupported reports that an adapter cannot reconnect without user interaction.
func SilentUnsupported(kind string) *AppError {
	return &AppError{
		Code: ErrCodeSilentUnsupported, Message: fmt.Sprintf("The %s wallet cannot reconnect silently.", kind),
		HTTPStatus: http.StatusPreconditionFailed, Retryable: false,
		Details: map[string]any{"kind": kind},
	}
}

// --- Session errors ---

// ConnectionInProgress reports a duplicate concurrent connect for the same kind.
func ConnectionInProgress(kind string) *AppError {
	return &AppError{
		Code: ErrCodeConnectionInProgress, Message: "Already connecting. Finish the request in your wallet.",
		HTTPStatus: http.StatusConflict, Retryable: true,
		Details: map[string]any{"kind": kind},
	}
}

// UnknownWallet reports a switch or disconnect target that is not connected.
func UnknownWallet(target string) *AppError {
	return &AppError{
		Code: ErrCodeUnknownWallet, Message: fmt.Sprintf("No connected wallet matches %s.", target),
		HTTPStatus: http.StatusNotFound, Retryable: false,
		Details: map[string]any{"target": target},
	}
}

// PersistenceFailure reports a session store read or write failure.
func PersistenceFailure(op string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePersistenceFailure, Message: "The wallet session could not be persisted.",
		HTTPStatus: http.StatusInternalServerError, Retryable: true,
		Details: map[string]any{"operation": op}, Cause: cause,
	}
}

// --- Validation errors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false, Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest, Retryable: false,
	}
}

// InvalidEvent reports a malformed provider event payload.
func InvalidEvent(kind, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidEvent, Message: fmt.Sprintf("Malformed provider event: %s", reason),
		HTTPStatus: http.StatusBadRequest, Retryable: false,
		Details: map[string]any{"kind": kind},
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		HTTPStatus: http.StatusInternalServerError, Retryable: false, Cause: cause,
	}
}
