// Package errors provides structured error handling for ScoutMCP.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: Workspace and file errors
//   - 3XX: Store (persistence backend) errors
//   - 4XX: Validation errors
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryWorkspace indicates workspace and file I/O errors.
	CategoryWorkspace Category = "WORKSPACE"
	// CategoryStore indicates persistence backend errors.
	CategoryStore Category = "STORE"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid    = "ERR_101_CONFIG_INVALID"
	ErrCodeWorkspaceNotSet  = "ERR_102_WORKSPACE_NOT_SET"
	ErrCodeWorkspaceNotADir = "ERR_103_WORKSPACE_NOT_A_DIR"

	// Workspace and file errors (200-299)
	ErrCodeWorkspaceUnavailable = "ERR_201_WORKSPACE_UNAVAILABLE"
	ErrCodeNotAFile             = "ERR_202_NOT_A_FILE"
	ErrCodeExtensionNotAllowed  = "ERR_203_EXTENSION_NOT_ALLOWED"
	ErrCodePathIgnored          = "ERR_204_PATH_IGNORED"
	ErrCodeFileTooLarge         = "ERR_205_FILE_TOO_LARGE"
	ErrCodeStatFailed           = "ERR_206_STAT_FAILED"
	ErrCodeReadFailed           = "ERR_207_READ_FAILED"

	// Store errors (300-399)
	ErrCodeStoreUnavailable   = "ERR_301_STORE_UNAVAILABLE"
	ErrCodeStoreFailed        = "ERR_302_STORE_FAILED"
	ErrCodeCollectionNotFound = "ERR_303_COLLECTION_NOT_FOUND"
	ErrCodeStoreLocked        = "ERR_304_STORE_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput     = "ERR_401_INVALID_INPUT"
	ErrCodePathNotUnderRoot = "ERR_402_PATH_NOT_UNDER_ROOT"
	ErrCodeQueryEmpty       = "ERR_403_QUERY_EMPTY"

	// Internal errors (500-599)
	ErrCodeInternal       = "ERR_501_INTERNAL"
	ErrCodeChunkingFailed = "ERR_502_CHUNKING_FAILED"
	ErrCodeSyncFailed     = "ERR_503_SYNC_FAILED"
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
		return CategoryWorkspace
	case '3':
		return CategoryStore
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// isRetryableCode checks if an error code represents a retryable error.
// A vanished workspace or unreachable store may recover; a bad config will not.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeWorkspaceUnavailable, ErrCodeStoreUnavailable, ErrCodeStoreLocked:
		return true
	default:
		return false
	}
}
