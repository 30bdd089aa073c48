package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_005"
	ErrCodeConflict           ErrorCode = "COMMON_006"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_008"
	ErrCodeTimeout            ErrorCode = "COMMON_009"
	ErrCodeValidation         ErrorCode = "COMMON_010"
	ErrCodeSerialization      ErrorCode = "COMMON_011"
	ErrCodeDatabaseError      ErrorCode = "COMMON_012"
	ErrCodeCacheError         ErrorCode = "COMMON_013"
	ErrCodeRateLimited        ErrorCode = "COMMON_014"
	ErrCodeBodyTooLarge       ErrorCode = "COMMON_015"
	ErrCodeNotImplemented     ErrorCode = "COMMON_016"
)

// Aliases used across layers.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeOK           = ErrorCode("OK")
	CodeUnknown      = ErrorCode("UNKNOWN")
)

// Formula Module Error Codes
const (
	// ErrCodeMalformedFormula: the parser could not match the grammar at a
	// given cursor position.
	ErrCodeMalformedFormula ErrorCode = "FRM_001"
	// ErrCodeFormulaArithmetic: a subtraction would drive a count negative or
	// references an element absent from the receiver; also raised for a
	// negative scale factor.
	ErrCodeFormulaArithmetic ErrorCode = "FRM_002"
)

// Network Module Error Codes
const (
	ErrCodeDanglingReference    ErrorCode = "NET_001"
	ErrCodeMissingFormula       ErrorCode = "NET_002"
	ErrCodeContainmentCycle     ErrorCode = "NET_003"
	ErrCodeComponentKind        ErrorCode = "NET_004"
	ErrCodeClosurePassLimit     ErrorCode = "NET_005"
	ErrCodeInvalidStoichiometry ErrorCode = "NET_006"
)

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeRateLimited:        http.StatusTooManyRequests,
	ErrCodeBodyTooLarge:       http.StatusRequestEntityTooLarge,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeMalformedFormula:  http.StatusBadRequest,
	ErrCodeFormulaArithmetic: http.StatusBadRequest,

	ErrCodeDanglingReference:    http.StatusNotFound,
	ErrCodeMissingFormula:       http.StatusUnprocessableEntity,
	ErrCodeContainmentCycle:     http.StatusUnprocessableEntity,
	ErrCodeComponentKind:        http.StatusBadRequest,
	ErrCodeClosurePassLimit:     http.StatusUnprocessableEntity,
	ErrCodeInvalidStoichiometry: http.StatusBadRequest,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeRateLimited:        "rate limit exceeded, please retry later",
	ErrCodeBodyTooLarge:       "request body too large",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeMalformedFormula:  "malformed sum formula",
	ErrCodeFormulaArithmetic: "invalid formula arithmetic",

	ErrCodeDanglingReference:    "dangling component reference",
	ErrCodeMissingFormula:       "substance has no formula",
	ErrCodeContainmentCycle:     "compartment containment cycle",
	ErrCodeComponentKind:        "component has unexpected kind",
	ErrCodeClosurePassLimit:     "closure pass limit exceeded",
	ErrCodeInvalidStoichiometry: "stoichiometry must be positive",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
