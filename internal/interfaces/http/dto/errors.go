package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
	// ErrCodeTokenExpired is used when the auth token has expired
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	// ErrCodeTokenInvalid is used when the auth token is invalid
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeBusinessRule is used for generic business rule violations
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// Linking error codes, passed through from the domain unchanged so API
// clients can branch on them
const (
	// ErrCodeQuotaExceeded is used when the plan's linked-account quota is full
	ErrCodeQuotaExceeded = "QUOTA_EXCEEDED"
	// ErrCodeNoActiveSubscription is used when the tenant has no usable subscription
	ErrCodeNoActiveSubscription = "NO_ACTIVE_SUBSCRIPTION"
	// ErrCodeIntegrationAbuse is used when another tenant already holds the account
	ErrCodeIntegrationAbuse = "INTEGRATION_ABUSE"
	// ErrCodeAlreadyLinked is used when the platform is already connected
	ErrCodeAlreadyLinked = "ALREADY_LINKED"
	// ErrCodeSessionExpired is used when the pending link session is gone
	ErrCodeSessionExpired = "SESSION_EXPIRED"
	// ErrCodeCSRFMismatch is used when the anti-forgery state does not match
	ErrCodeCSRFMismatch = "CSRF_MISMATCH"
	// ErrCodeProviderDenied is used when the provider or user aborted the dialog
	ErrCodeProviderDenied = "PROVIDER_DENIED"
	// ErrCodeTokenExchangeFailed is used when the code-for-token exchange failed upstream
	ErrCodeTokenExchangeFailed = "TOKEN_EXCHANGE_FAILED"
	// ErrCodeNothingSelected is used when the selection contains no accounts
	ErrCodeNothingSelected = "NOTHING_SELECTED"
	// ErrCodeNotConnected is used when no connected integration exists
	ErrCodeNotConnected = "NOT_CONNECTED"
	// ErrCodeInvalidPlatform is used for unknown platform codes
	ErrCodeInvalidPlatform = "INVALID_PLATFORM"
	// ErrCodeUnsupported is used when the provider does not support the operation
	ErrCodeUnsupported = "UNSUPPORTED"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	// Resource errors
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	// Linking errors
	ErrCodeQuotaExceeded:        http.StatusForbidden,
	ErrCodeNoActiveSubscription: http.StatusPaymentRequired,
	ErrCodeIntegrationAbuse:     http.StatusForbidden,
	ErrCodeAlreadyLinked:        http.StatusForbidden,
	ErrCodeSessionExpired:       http.StatusBadRequest,
	ErrCodeCSRFMismatch:         http.StatusForbidden,
	ErrCodeProviderDenied:       http.StatusBadRequest,
	ErrCodeTokenExchangeFailed:  http.StatusBadGateway,
	ErrCodeNothingSelected:      http.StatusBadRequest,
	ErrCodeNotConnected:         http.StatusNotFound,
	ErrCodeInvalidPlatform:      http.StatusBadRequest,
	ErrCodeUnsupported:          http.StatusBadRequest,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,
	ErrCodeInvalidJSON:  http.StatusBadRequest,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// upgradeRequiredCodes are the failures a plan upgrade would lift; their
// responses carry the upgrade_required flag for client upsell prompts.
var upgradeRequiredCodes = map[string]bool{
	ErrCodeQuotaExceeded:        true,
	ErrCodeNoActiveSubscription: true,
	ErrCodeIntegrationAbuse:     true,
}

// IsUpgradeRequired reports whether responses with this error code should
// set the upgrade_required flag.
func IsUpgradeRequired(code string) bool {
	return upgradeRequiredCodes[code]
}

// LegacyErrorCodeMapping maps old error codes to new standardized codes
// This is for backward compatibility with existing domain errors
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeInvalidInput,
	"INVALID_STATE":        ErrCodeInvalidState,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"FORBIDDEN":            ErrCodeForbidden,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"VALIDATION_ERROR":     ErrCodeValidation,
	"BAD_REQUEST":          ErrCodeBadRequest,
	"INTERNAL_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a legacy error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
