package dto

import "time"

// ErrorCode represents standardized error codes
type ErrorCode string

// Standard error codes for the application
const (
	// Session errors
	ErrorCodeInvalidAddress ErrorCode = "AUTH_001"
	ErrorCodeInvalidToken   ErrorCode = "AUTH_002"
	ErrorCodeExpiredToken   ErrorCode = "AUTH_003"
	ErrorCodeUnauthorized   ErrorCode = "AUTH_004"

	// Validation errors
	ErrorCodeValidationFailed ErrorCode = "VAL_001"

	// Resource errors
	ErrorCodeResourceNotFound ErrorCode = "RES_001"

	// Workflow errors
	ErrorCodeOperationInFlight  ErrorCode = "FLOW_001"
	ErrorCodeEngineInitializing ErrorCode = "FLOW_002"
	ErrorCodeEngineInitFailed   ErrorCode = "FLOW_003"

	// Ledger errors
	ErrorCodeTransactionRejected ErrorCode = "LEDGER_001"
	ErrorCodeTransactionFailed   ErrorCode = "LEDGER_002"
	ErrorCodeLedgerUnavailable   ErrorCode = "LEDGER_003"

	// Oracle errors
	ErrorCodeOracleFailed ErrorCode = "ORACLE_001"

	// Server errors
	ErrorCodeInternalServer ErrorCode = "SRV_001"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

// Severity levels
const (
	ErrorSeverityInfo     ErrorSeverity = "INFO"
	ErrorSeverityWarning  ErrorSeverity = "WARNING"
	ErrorSeverityError    ErrorSeverity = "ERROR"
	ErrorSeverityCritical ErrorSeverity = "CRITICAL"
)

// ErrorDetail represents detailed error information
type ErrorDetail struct {
	Code     ErrorCode     `json:"code" example:"LEDGER_001"`
	Message  string        `json:"message" example:"Transaction rejected"`
	Field    string        `json:"field,omitempty" example:"score"`
	Severity ErrorSeverity `json:"severity" example:"ERROR"`
	Details  interface{}   `json:"details,omitempty"`
}

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Success   bool         `json:"success" example:"false"`
	Error     *ErrorDetail `json:"error"`
	Timestamp time.Time    `json:"timestamp" example:"2025-08-14T12:01:05.123Z"`
}

// NewErrorDetail creates a new error detail
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:     code,
		Message:  message,
		Severity: ErrorSeverityError,
	}
}

// WithField adds a field name to the error detail
func (e *ErrorDetail) WithField(field string) *ErrorDetail {
	e.Field = field
	return e
}

// WithSeverity sets the severity level of the error
func (e *ErrorDetail) WithSeverity(severity ErrorSeverity) *ErrorDetail {
	e.Severity = severity
	return e
}

// WithDetails adds additional details to the error
func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

// NewErrorResponse creates a standard error response
func NewErrorResponse(errorDetail *ErrorDetail) *ErrorResponse {
	return &ErrorResponse{
		Success:   false,
		Error:     errorDetail,
		Timestamp: time.Now(),
	}
}
