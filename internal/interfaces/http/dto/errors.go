package dto

import "net/http"

// Error code constants
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
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
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
)

// Scan pipeline error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for the
	// current stock state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeDuplicateScan is used when the same barcode is read twice
	// inside the suppression window
	ErrCodeDuplicateScan = "ERR_DUPLICATE_SCAN"
	// ErrCodeScannerBusy is used when a scan arrives while another is in
	// flight
	ErrCodeScannerBusy = "ERR_SCANNER_BUSY"
	// ErrCodeDetailsRequired is used when a first-seen barcode needs item
	// details
	ErrCodeDetailsRequired = "ERR_DETAILS_REQUIRED"
	// ErrCodeNoPendingScan is used when details arrive without a parked scan
	ErrCodeNoPendingScan = "ERR_NO_PENDING_SCAN"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	ErrCodeInvalidState:    http.StatusUnprocessableEntity,
	ErrCodeDuplicateScan:   http.StatusConflict,
	ErrCodeScannerBusy:     http.StatusTooManyRequests,
	ErrCodeDetailsRequired: http.StatusUnprocessableEntity,
	ErrCodeNoPendingScan:   http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":         ErrCodeNotFound,
	"ALREADY_EXISTS":    ErrCodeAlreadyExists,
	"VALIDATION_FAILED": ErrCodeValidation,
	"UNAUTHORIZED":      ErrCodeUnauthorized,
	"INVALID_STATE":     ErrCodeInvalidState,
	"STORE_ERROR":       ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes pass through unchanged.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
