package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Provider errors, surfaced to the caller of the command that triggered them.
const (
	// ErrCodeUserRejected indicates the user declined the request in the provider UI.
	ErrCodeUserRejected ErrorCode = "USER_REJECTED"
	// ErrCodeProviderUnavailable indicates the provider is not installed or not reachable.
	ErrCodeProviderUnavailable ErrorCode = "PROVIDER_UNAVAILABLE"
	// ErrCodeAlreadyPending indicates the adapter already has a connect request in flight.
	ErrCodeAlreadyPending ErrorCode = "ALREADY_PENDING"
	// ErrCodeSilentUnsupported indicates the adapter cannot reconnect without prompting.
	ErrCodeSilentUnsupported ErrorCode = "SILENT_RECONNECT_UNSUPPORTED"
)

// Session errors
const (
	// ErrCodeConnectionInProgress indicates a connect for the same kind is already running.
	ErrCodeConnectionInProgress ErrorCode = "CONNECTION_IN_PROGRESS"
	// ErrCodeUnknownWallet indicates the target is not in the connected set.
	ErrCodeUnknownWallet ErrorCode = "UNKNOWN_WALLET"
	// ErrCodePersistenceFailure indicates the session store could not be read or written.
	ErrCodePersistenceFailure ErrorCode = "PERSISTENCE_FAILURE"
)

// Validation errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeInvalidEvent indicates a provider event carried a malformed payload.
	ErrCodeInvalidEvent ErrorCode = "INVALID_EVENT"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUserRejected:         true,
	ErrCodeProviderUnavailable:  true,
	ErrCodeAlreadyPending:       true,
	ErrCodeConnectionInProgress: true,
	ErrCodePersistenceFailure:   true,
	ErrCodeInternal:             false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
