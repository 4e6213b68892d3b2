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

// Common error codes shared by every module.
const (
	ErrCodeInternal           ErrorCode = "COMMON_001"
	ErrCodeBadRequest         ErrorCode = "COMMON_002"
	ErrCodeNotFound           ErrorCode = "COMMON_003"
	ErrCodeConflict           ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests    ErrorCode = "COMMON_005"
	ErrCodeServiceUnavailable ErrorCode = "COMMON_006"
	ErrCodeTimeout            ErrorCode = "COMMON_007"
	ErrCodeValidation         ErrorCode = "COMMON_008"
	ErrCodeSerialization      ErrorCode = "COMMON_009"
	ErrCodeDatabaseError      ErrorCode = "COMMON_010"
	ErrCodeCacheError         ErrorCode = "COMMON_011"
	ErrCodeStorageError       ErrorCode = "COMMON_012"
	ErrCodeMessagingError     ErrorCode = "COMMON_013"
	ErrCodeNotImplemented     ErrorCode = "COMMON_014"
)

// Compound module error codes.
const (
	ErrCodeCompoundInvalid       ErrorCode = "CMP_001"
	ErrCodeCompoundNotFound      ErrorCode = "CMP_002"
	ErrCodeCompoundNonPositiveIC ErrorCode = "CMP_003"
)

// Dataset module error codes.
const (
	ErrCodeDatasetNotFound      ErrorCode = "DS_001"
	ErrCodeDatasetSchemaInvalid ErrorCode = "DS_002"
	ErrCodeDatasetEmpty         ErrorCode = "DS_003"
	ErrCodeDatasetFilterInvalid ErrorCode = "DS_004"
	ErrCodeDatasetAlreadyExists ErrorCode = "DS_005"
	ErrCodeDatasetExportFailed  ErrorCode = "DS_006"
	ErrCodeDatasetIngestFailed  ErrorCode = "DS_007"
)

// Data source (ChEMBL fetch) error codes.
const (
	ErrCodeSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeSourceRateLimited ErrorCode = "SRC_002"
	ErrCodeSourceParseError  ErrorCode = "SRC_003"
	ErrCodeSourceTargetEmpty ErrorCode = "SRC_004"
)

// Short aliases used throughout the codebase.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeBadRequest
	CodeNotFound     = ErrCodeNotFound
	CodeConflict     = ErrCodeConflict
	CodeRateLimit    = ErrCodeTooManyRequests
	CodeUnknown      = ErrorCode("")
	CodeOK           = ErrorCode("OK")
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:           http.StatusInternalServerError,
	ErrCodeBadRequest:         http.StatusBadRequest,
	ErrCodeNotFound:           http.StatusNotFound,
	ErrCodeConflict:           http.StatusConflict,
	ErrCodeTooManyRequests:    http.StatusTooManyRequests,
	ErrCodeServiceUnavailable: http.StatusServiceUnavailable,
	ErrCodeTimeout:            http.StatusGatewayTimeout,
	ErrCodeValidation:         http.StatusUnprocessableEntity,
	ErrCodeSerialization:      http.StatusInternalServerError,
	ErrCodeDatabaseError:      http.StatusInternalServerError,
	ErrCodeCacheError:         http.StatusInternalServerError,
	ErrCodeStorageError:       http.StatusInternalServerError,
	ErrCodeMessagingError:     http.StatusInternalServerError,
	ErrCodeNotImplemented:     http.StatusNotImplemented,

	ErrCodeCompoundInvalid:       http.StatusBadRequest,
	ErrCodeCompoundNotFound:      http.StatusNotFound,
	ErrCodeCompoundNonPositiveIC: http.StatusBadRequest,

	ErrCodeDatasetNotFound:      http.StatusNotFound,
	ErrCodeDatasetSchemaInvalid: http.StatusBadRequest,
	ErrCodeDatasetEmpty:         http.StatusUnprocessableEntity,
	ErrCodeDatasetFilterInvalid: http.StatusBadRequest,
	ErrCodeDatasetAlreadyExists: http.StatusConflict,
	ErrCodeDatasetExportFailed:  http.StatusInternalServerError,
	ErrCodeDatasetIngestFailed:  http.StatusInternalServerError,

	ErrCodeSourceUnavailable: http.StatusServiceUnavailable,
	ErrCodeSourceRateLimited: http.StatusTooManyRequests,
	ErrCodeSourceParseError:  http.StatusBadGateway,
	ErrCodeSourceTargetEmpty: http.StatusNotFound,
}

// ErrorCodeMessage maps error codes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:           "internal server error",
	ErrCodeBadRequest:         "bad request",
	ErrCodeNotFound:           "resource not found",
	ErrCodeConflict:           "resource conflict",
	ErrCodeTooManyRequests:    "too many requests",
	ErrCodeServiceUnavailable: "service unavailable",
	ErrCodeTimeout:            "request timeout",
	ErrCodeValidation:         "validation failed",
	ErrCodeSerialization:      "serialization failed",
	ErrCodeDatabaseError:      "database error",
	ErrCodeCacheError:         "cache error",
	ErrCodeStorageError:       "object storage error",
	ErrCodeMessagingError:     "message broker error",
	ErrCodeNotImplemented:     "not implemented",

	ErrCodeCompoundInvalid:       "invalid compound record",
	ErrCodeCompoundNotFound:      "compound not found",
	ErrCodeCompoundNonPositiveIC: "IC50 must be positive",

	ErrCodeDatasetNotFound:      "dataset not found",
	ErrCodeDatasetSchemaInvalid: "dataset schema invalid",
	ErrCodeDatasetEmpty:         "dataset contains no usable rows",
	ErrCodeDatasetFilterInvalid: "invalid filter predicate",
	ErrCodeDatasetAlreadyExists: "dataset already exists",
	ErrCodeDatasetExportFailed:  "dataset export failed",
	ErrCodeDatasetIngestFailed:  "dataset ingestion failed",

	ErrCodeSourceUnavailable: "compound data source unavailable",
	ErrCodeSourceRateLimited: "compound data source rate limited",
	ErrCodeSourceParseError:  "failed to parse data source response",
	ErrCodeSourceTargetEmpty: "no activity data found for target",
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
