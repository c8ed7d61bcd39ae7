package dto

import "net/http"

// Error codes
const (
	ErrCodeInternal    = "ERR_INTERNAL"
	ErrCodeValidation  = "ERR_VALIDATION"
	ErrCodeNotFound    = "ERR_NOT_FOUND"
	ErrCodeUpstream    = "ERR_UPSTREAM"
	ErrCodeNotReady    = "ERR_NOT_READY"
	ErrCodeConflict    = "ERR_CONFLICT"
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	ErrCodeTooLarge    = "ERR_REQUEST_TOO_LARGE"
	ErrCodeTimeout     = "ERR_TIMEOUT"

	ErrCodeInsufficientData = "ERR_INSUFFICIENT_DATA"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeUpstream:    http.StatusBadGateway,
	ErrCodeNotReady:    http.StatusServiceUnavailable,
	ErrCodeConflict:    http.StatusConflict,
	ErrCodeRateLimited: http.StatusTooManyRequests,
	ErrCodeTooLarge:    http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:     http.StatusGatewayTimeout,

	ErrCodeInsufficientData: http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for code, or 500 for unknown codes
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
