package apperrors

import "errors"

// Common errors
var (
	// Session errors
	ErrNoSession      = errors.New("no active wallet session")
	ErrTokenExpired   = errors.New("session token expired")
	ErrTokenInvalid   = errors.New("invalid session token")
	ErrInvalidAddress = errors.New("invalid account address")

	// Encryption engine errors
	ErrInitializationFailed = errors.New("encryption engine initialization failed")
	ErrEngineInitializing   = errors.New("encryption engine is initializing")
	ErrEngineNotInitialized = errors.New("encryption engine not initialized")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")

	// Workflow errors
	ErrOperationInFlight = errors.New("operation already in flight")

	// Ledger errors
	ErrUserRejected      = errors.New("transaction rejected by signer")
	ErrAlreadyVerified   = errors.New("record already verified")
	ErrTransactionFailed = errors.New("ledger transaction failed")
	ErrLedgerUnavailable = errors.New("ledger unavailable")
	ErrReadOnlyClient    = errors.New("ledger client is read-only")

	// Oracle errors
	ErrOracleFailed = errors.New("decryption oracle round trip failed")

	// Record errors
	ErrRecordNotFound = errors.New("exam record not found")
)

// Is returns whether err matches target or any of the errors in errList.
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}
