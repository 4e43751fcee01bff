package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Startup errors (fatal)
const (
	// ErrCodeSetupFailed indicates the application setup hook returned failure.
	ErrCodeSetupFailed ErrorCode = "SETUP_FAILED"
	// ErrCodePluginInitFailed indicates a registered plugin failed to initialize.
	ErrCodePluginInitFailed ErrorCode = "PLUGIN_INIT_FAILED"
	// ErrCodePreconditionViolation indicates a sequencing bug, e.g. a missing main window.
	ErrCodePreconditionViolation ErrorCode = "PRECONDITION_VIOLATION"
)

// Composition errors
const (
	// ErrCodeConfigInvalid indicates the application configuration failed validation.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ErrCodeAlreadyRun indicates a builder was run more than once.
	ErrCodeAlreadyRun ErrorCode = "ALREADY_RUN"
)

// Plugin runtime errors
const (
	// ErrCodeUpdateCheckFailed indicates the update endpoint could not be queried.
	ErrCodeUpdateCheckFailed ErrorCode = "UPDATE_CHECK_FAILED"
	// ErrCodeSignatureInvalid indicates a downloaded artifact failed signature verification.
	ErrCodeSignatureInvalid ErrorCode = "SIGNATURE_INVALID"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeUpdateCheckFailed: true,
}

var fatalCodes = map[ErrorCode]bool{
	ErrCodeSetupFailed:           true,
	ErrCodePluginInitFailed:      true,
	ErrCodePreconditionViolation: true,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}

// IsFatalCode returns true if the error code aborts application startup.
func IsFatalCode(code ErrorCode) bool {
	return fatalCodes[code]
}
