package dto

import "net/http"

// Stable error codes returned in the response envelope. Clients switch on
// these, never on messages.
const (
	ErrCodeBadRequest       = "ERR_BAD_REQUEST"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeNotFound         = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists    = "ERR_ALREADY_EXISTS"
	ErrCodeConflict         = "ERR_CONFLICT"
	ErrCodeUnprocessable    = "ERR_UNPROCESSABLE"
	ErrCodeInternal         = "ERR_INTERNAL"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeValidationFailed: http.StatusBadRequest,
	ErrCodeNotFound:         http.StatusNotFound,
	ErrCodeAlreadyExists:    http.StatusConflict,
	ErrCodeConflict:         http.StatusConflict,
	ErrCodeUnprocessable:    http.StatusUnprocessableEntity,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for an error code, defaulting to 500
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping translates domain-layer error codes into the
// envelope codes above. Unlisted codes fall through unchanged.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":             ErrCodeNotFound,
	"ALREADY_EXISTS":        ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":  ErrCodeConflict,
	"ALREADY_APPLIED":       ErrCodeConflict,
	"INVALID_INPUT":         ErrCodeBadRequest,
	"INVALID_NAME":          ErrCodeBadRequest,
	"INVALID_UNIT":          ErrCodeBadRequest,
	"INVALID_UNITS":         ErrCodeBadRequest,
	"INVALID_COST":          ErrCodeBadRequest,
	"INVALID_PRICE":         ErrCodeBadRequest,
	"INVALID_QUANTITY":      ErrCodeBadRequest,
	"INVALID_MIN_QUANTITY":  ErrCodeBadRequest,
	"INVALID_PRODUCT":       ErrCodeBadRequest,
	"INVALID_RECIPE":        ErrCodeBadRequest,
	"INVALID_SECTION":       ErrCodeBadRequest,
	"SECTION_NOT_FOUND":     ErrCodeBadRequest,
	"INVALID_COLLECTION":    ErrCodeBadRequest,
	"INVALID_COLLECTION_ID": ErrCodeBadRequest,
	"INVALID_MOVEMENT_TYPE": ErrCodeBadRequest,
	"INVALID_STATE":         ErrCodeUnprocessable,
	"CIRCULAR_REFERENCE":    ErrCodeUnprocessable,
	"DEPTH_EXCEEDED":        ErrCodeUnprocessable,
}

// NormalizeErrorCode converts a domain error code to its envelope code
func NormalizeErrorCode(code string) string {
	if normalized, ok := DomainErrorCodeMapping[code]; ok {
		return normalized
	}
	if _, ok := ErrorCodeHTTPStatus[code]; ok {
		return code
	}
	return ErrCodeInternal
}
