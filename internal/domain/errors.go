package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a machine-readable error code
type ErrorCode string

const (
	// Validation errors (VALIDATION_*): caller/business-rule failures,
	// non-retryable, surfaced as CANCELED outcomes
	ErrorCodeValidationMissingPaymentMethod  ErrorCode = "VALIDATION_MISSING_PAYMENT_METHOD"
	ErrorCodeValidationInvalidPaymentMethod  ErrorCode = "VALIDATION_INVALID_PAYMENT_METHOD"
	ErrorCodeValidationAmountExceedsOriginal ErrorCode = "VALIDATION_AMOUNT_EXCEEDS_ORIGINAL"
	ErrorCodeValidationZeroAmount            ErrorCode = "VALIDATION_ZERO_AMOUNT_NOT_ALLOWED"

	// Gateway errors (GATEWAY_*)
	ErrorCodeGatewayTimeout          ErrorCode = "GATEWAY_TIMEOUT"
	ErrorCodeGatewayCommunication    ErrorCode = "GATEWAY_COMMUNICATION"
	ErrorCodeGatewayDeclined         ErrorCode = "GATEWAY_DECLINED"
	ErrorCodeGatewayMissingReference ErrorCode = "GATEWAY_MISSING_REFERENCE"

	// Record errors (TXN_*, PM_*)
	ErrorCodeTxnNotFound ErrorCode = "TXN_NOT_FOUND"
	ErrorCodePMNotFound  ErrorCode = "PM_NOT_FOUND"

	// Reconciliation errors (NOTIFICATION_*): logged, never propagated to
	// the webhook sender
	ErrorCodeNotificationMalformed  ErrorCode = "NOTIFICATION_MALFORMED"
	ErrorCodeNotificationUnresolved ErrorCode = "NOTIFICATION_UNRESOLVED"

	// Operation not supported by the active gateway adapter
	ErrorCodeOperationNotSupported ErrorCode = "OPERATION_NOT_SUPPORTED"

	// Internal errors (INTERNAL_*)
	ErrorCodeStorageError  ErrorCode = "INTERNAL_STORAGE_ERROR"
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
)

// DomainError represents a structured domain error with error code and context
type DomainError struct {
	Err     error
	Details map[string]interface{}
	Code    ErrorCode
	Message string
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *DomainError) Unwrap() error {
	return e.Err
}

// WithDetail adds a detail field to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(code ErrorCode, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// WrapError wraps an existing error with a domain error code
func WrapError(code ErrorCode, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Err:     err,
	}
}

// IsDomainError checks if an error is a DomainError with the given code
func IsDomainError(err error, code ErrorCode) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error, returns empty string if not a DomainError
func GetErrorCode(err error) ErrorCode {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code
	}
	return ""
}

// IsGatewayCommunicationError checks if an error represents a network-level
// gateway failure. These are the only gateway errors retryable by caller policy.
func IsGatewayCommunicationError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeGatewayTimeout || code == ErrorCodeGatewayCommunication
}

// IsGatewayRejection checks if the gateway declined the operation
func IsGatewayRejection(err error) bool {
	return GetErrorCode(err) == ErrorCodeGatewayDeclined
}

// IsStorageError checks if an error originated in local persistence. Storage
// errors must never be conflated with a gateway outcome: the gateway-side
// effect may have already happened.
func IsStorageError(err error) bool {
	return GetErrorCode(err) == ErrorCodeStorageError
}

// IsNotFoundError checks if an error represents a "not found" condition
func IsNotFoundError(err error) bool {
	code := GetErrorCode(err)
	return code == ErrorCodeTxnNotFound || code == ErrorCodePMNotFound
}

// Structured error instances
var (
	ErrTxnNotFound = NewDomainError(ErrorCodeTxnNotFound, "transaction not found")
	ErrPMNotFound  = NewDomainError(ErrorCodePMNotFound, "payment method not found")

	ErrGatewayTimedOut         = NewDomainError(ErrorCodeGatewayTimeout, "gateway request timed out")
	ErrGatewayUnreachable      = NewDomainError(ErrorCodeGatewayCommunication, "gateway communication failure")
	ErrGatewayMissingReference = NewDomainError(ErrorCodeGatewayMissingReference, "prior gateway reference is required")

	ErrOperationNotSupported = NewDomainError(ErrorCodeOperationNotSupported, "operation not supported by gateway adapter")

	ErrNotificationMalformed  = NewDomainError(ErrorCodeNotificationMalformed, "notification payload could not be parsed")
	ErrNotificationUnresolved = NewDomainError(ErrorCodeNotificationUnresolved, "notification does not match any transaction record")

	ErrStorage = NewDomainError(ErrorCodeStorageError, "storage error")
)

// NewGatewayDecline builds the error for a gateway-side decline, carrying the
// gateway's own code and description.
func NewGatewayDecline(gatewayCode, description string) *DomainError {
	e := NewDomainError(ErrorCodeGatewayDeclined, description)
	e.Details["gateway_code"] = gatewayCode
	return e
}

// GatewayDeclineCode extracts the gateway's decline code, if present.
func GatewayDeclineCode(err error) string {
	var domainErr *DomainError
	if !errors.As(err, &domainErr) {
		return ""
	}
	if code, ok := domainErr.Details["gateway_code"].(string); ok {
		return code
	}
	return ""
}
