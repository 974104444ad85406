// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Dataset files
const (
	ErrCodeFileNotFound          ErrorCode = "FILE_NOT_FOUND"
	ErrCodeUnsupportedFileFormat ErrorCode = "UNSUPPORTED_FILE_FORMAT"
	ErrCodeMissingColumns        ErrorCode = "MISSING_COLUMNS"
	ErrCodeInvalidRecord         ErrorCode = "INVALID_RECORD"
	ErrCodeFileWriteFailed       ErrorCode = "FILE_WRITE_FAILED"
)

// Catalog
const (
	ErrCodeCatalogLoadFailed  ErrorCode = "CATALOG_LOAD_FAILED"
	ErrCodeCatalogEmpty       ErrorCode = "CATALOG_EMPTY"
	ErrCodeCatalogCacheFailed ErrorCode = "CATALOG_CACHE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryTimeout             ErrorCode = "QUERY_TIMEOUT"
	ErrCodeSearchQueryFailed        ErrorCode = "SEARCH_QUERY_FAILED"
)

// Suggestion jobs
const (
	ErrCodeInvalidSuggestionInput ErrorCode = "INVALID_SUGGESTION_INPUT"
	ErrCodeRankingFailed          ErrorCode = "RANKING_FAILED"
)

// Generic
const (
	ErrCodeExternalService  ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeResourceNotFound ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBusinessRule     ErrorCode = "BUSINESS_RULE_VIOLATION"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the error the StandardError was built from, if any.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error metadata and returns e.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// AsStandardError returns the first StandardError in err's chain.
func AsStandardError(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether err carries a StandardError with the given code.
func HasCode(err error, code ErrorCode) bool {
	stdErr, ok := AsStandardError(err)
	return ok && stdErr.Code == code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewFileNotFoundError(path string, err error) *StandardError {
	return newError(ErrCodeFileNotFound, "Dataset file not found", fmt.Sprintf("path: %s", path), false, err).
		WithMetadata("path", path)
}

func NewUnsupportedFileFormatError(path string) *StandardError {
	return newError(ErrCodeUnsupportedFileFormat, "Unsupported file format",
		fmt.Sprintf("path: %s, supported: .csv, .txt, .tsv, .xlsx, .yaml", path), false, nil).
		WithMetadata("path", path)
}

// NewMissingColumnsError lists the required columns absent from a header.
func NewMissingColumnsError(path string, missing []string) *StandardError {
	return newError(ErrCodeMissingColumns, "Required columns are missing",
		fmt.Sprintf("path: %s, missing: %s", path, strings.Join(missing, ", ")), false, nil).
		WithMetadata("missingColumns", missing)
}

// NewInvalidRecordError reports a data row (1-based, header excluded) that
// failed to parse or validate.
func NewInvalidRecordError(path string, row int, err error) *StandardError {
	return newError(ErrCodeInvalidRecord, "Invalid record",
		fmt.Sprintf("path: %s, row: %d, error: %s", path, row, err.Error()), false, err).
		WithMetadata("row", row)
}

func NewFileWriteFailedError(path string, err error) *StandardError {
	return newError(ErrCodeFileWriteFailed, "Failed to write dataset file",
		fmt.Sprintf("path: %s, error: %s", path, err.Error()), false, err)
}

// NewCatalogLoadFailedError creates a retryable catalog source error.
func NewCatalogLoadFailedError(source string, err error) *StandardError {
	return newError(ErrCodeCatalogLoadFailed, "Savings catalog could not be loaded",
		fmt.Sprintf("source: %s, error: %s", source, err.Error()), true, err).
		WithMetadata("source", source)
}

func NewCatalogEmptyError(source string) *StandardError {
	return newError(ErrCodeCatalogEmpty, "Savings catalog is empty",
		fmt.Sprintf("source: %s", source), false, nil)
}

// NewCatalogCacheFailedError is logged, never surfaced to a job: the cache is
// bypassed when it fails.
func NewCatalogCacheFailedError(key string, err error) *StandardError {
	return newError(ErrCodeCatalogCacheFailed, "Savings catalog cache error",
		fmt.Sprintf("key: %s, error: %s", key, err.Error()), true, err)
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return newError(ErrCodeDatabaseConnectionFailed, "Database connection error", err.Error(), true, err)
}

// NewQueryTimeoutError creates a retryable query timeout error.
func NewQueryTimeoutError(table string) *StandardError {
	return newError(ErrCodeQueryTimeout, "Database query timeout", fmt.Sprintf("table: %s", table), true, nil)
}

// NewSearchQueryFailedError creates a retryable search query error.
func NewSearchQueryFailedError(index string, err error) *StandardError {
	return newError(ErrCodeSearchQueryFailed, "Elasticsearch query error",
		fmt.Sprintf("index: %s, error: %s", index, err.Error()), true, err)
}

func NewInvalidSuggestionInputError(details string) *StandardError {
	return newError(ErrCodeInvalidSuggestionInput, "Invalid savings suggestion input", details, false, nil)
}

func NewRankingFailedError(details string) *StandardError {
	return newError(ErrCodeRankingFailed, "Savings outcomes could not be ranked", details, false, nil)
}

// Generic constructors

func NewBusinessRuleError(message, details string) *StandardError {
	return newError(ErrCodeBusinessRule, message, details, false, nil)
}

func NewExternalServiceError(service string, err error) *StandardError {
	return newError(ErrCodeExternalService, fmt.Sprintf("External service '%s' error", service), err.Error(), true, err)
}

func NewTimeoutError(service string, err error) *StandardError {
	return newError(ErrCodeTimeout, fmt.Sprintf("Service '%s' timeout", service), err.Error(), true, err)
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return newError(ErrCodeResourceNotFound, fmt.Sprintf("Resource not found in %s", service), details, false, nil)
}

// ==========================
// 4. Error Conversion to BPMN
// ==========================

// BPMNErrorMapping maps internal error codes to the error codes caught by
// boundary events in the savings process.
var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeFileNotFound:             "FILE_NOT_FOUND",
	ErrCodeUnsupportedFileFormat:    "UNSUPPORTED_FILE_FORMAT",
	ErrCodeMissingColumns:           "MISSING_COLUMNS",
	ErrCodeInvalidRecord:            "INVALID_RECORD",
	ErrCodeCatalogLoadFailed:        "CATALOG_LOAD_FAILED",
	ErrCodeCatalogEmpty:             "CATALOG_EMPTY",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeQueryTimeout:             "QUERY_TIMEOUT",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeInvalidSuggestionInput:   "INVALID_SUGGESTION_INPUT",
	ErrCodeRankingFailed:            "RANKING_FAILED",
	ErrCodeTimeout:                  "TIMEOUT_ERROR",
	ErrCodeExternalService:          "EXTERNAL_SERVICE_ERROR",
}

// GetRetryCount returns the recommended retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeCatalogLoadFailed,
		ErrCodeCatalogCacheFailed,
		ErrCodeDatabaseConnectionFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeExternalService:
		return 3

	case ErrCodeQueryTimeout,
		ErrCodeTimeout:
		return 2

	default:
		return 0 // business errors
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"originalErrorCode": string(stdErr.Code),
		"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           bpmnCode,
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

// ==========================
// 5. Utility Functions
// ==========================

// IsRetryableErrorCode checks if an error code is retryable.
func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "FILE") || strings.Contains(codeStr, "COLUMNS") || strings.Contains(codeStr, "RECORD"):
		return "DATASET"
	case strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "QUERY_TIMEOUT"):
		return "DATABASE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "SUGGESTION") || strings.Contains(codeStr, "RANKING"):
		return "SAVINGS"
	default:
		return "OTHER"
	}
}
