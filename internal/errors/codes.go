// Package errors provides structured error handling for litsearch.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Index I/O errors (namespace directories, locks)
//   - 4XX: Validation errors (queries, entities)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates index directory and lock errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates malformed queries or entities.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates a programmer error, the call must fail.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates the operation failed but the process continues.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"

	// Index I/O errors (200-299)
	ErrCodeIndexIO       = "ERR_201_INDEX_IO"
	ErrCodeLockTimeout   = "ERR_202_LOCK_TIMEOUT"
	ErrCodeReaderOpen    = "ERR_203_READER_OPEN"
	ErrCodeCorruptIndex  = "ERR_205_CORRUPT_INDEX"
	ErrCodeCatalogAccess = "ERR_206_CATALOG_ACCESS"

	// Validation errors (400-499)
	ErrCodeInvalidQuery = "ERR_403_INVALID_QUERY"
	ErrCodeQueryEmpty   = "ERR_404_QUERY_EMPTY"
	ErrCodeMissingID    = "ERR_407_MISSING_ID"
	ErrCodeUnknownKind  = "ERR_408_UNKNOWN_KIND"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_503_SEARCH_FAILED"
	ErrCodeIndexFailed  = "ERR_505_INDEX_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeMissingID, ErrCodeUnknownKind:
		// Mapper invariants: the caller handed us an entity we can never index.
		return SeverityFatal
	}

	if isRetryableCode(code) {
		return SeverityWarning
	}
	if categoryFromCode(code) == CategoryIO {
		// Index I/O never fails the relational write that triggered it.
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeLockTimeout:
		return true
	default:
		return false
	}
}
