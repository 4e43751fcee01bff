package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Startup error constructors ---

// SetupFailed wraps a failure returned by the application setup hook.
func SetupFailed(cause error) *AppError {
	// Keep a precondition violation raised inside the hook as-is.
	if appErr, ok := AsAppError(cause); ok && appErr.Code == ErrCodePreconditionViolation {
		return appErr
	}
	return &AppError{
		Code: ErrCodeSetupFailed, Message: "Application setup failed.",
		Cause: cause,
	}
}

// PluginInitFailed wraps a failure returned by a plugin's initialization.
func PluginInitFailed(plugin string, cause error) *AppError {
	return &AppError{
		Code: ErrCodePluginInitFailed, Message: fmt.Sprintf("Plugin %s failed to initialize.", plugin),
		Details: map[string]any{"plugin": plugin}, Cause: cause,
	}
}

// PreconditionViolation reports a startup sequencing bug.
func PreconditionViolation(what string) *AppError {
	return &AppError{
		Code: ErrCodePreconditionViolation, Message: fmt.Sprintf("Precondition violated: %s", what),
		Details: map[string]any{"precondition": what},
	}
}

// AlreadyRun reports a second Run on a consumed builder.
func AlreadyRun(name string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyRun, Message: fmt.Sprintf("Application %s has already been run.", name),
	}
}

// --- Other constructors ---

// ConfigInvalid creates a new AppError for invalid configuration.
func ConfigInvalid(message string) *AppError {
	return &AppError{
		Code: ErrCodeConfigInvalid, Message: message,
	}
}

// UpdateCheckFailed creates a retryable AppError for a failed update endpoint query.
func UpdateCheckFailed(endpoint string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeUpdateCheckFailed, Message: "Unable to check for updates. Please try again later.",
		Retryable: true, Details: map[string]any{"endpoint": endpoint}, Cause: cause,
	}
}

// SignatureInvalid creates a new AppError for an artifact that failed verification.
func SignatureInvalid(reason string) *AppError {
	return &AppError{
		Code: ErrCodeSignatureInvalid, Message: fmt.Sprintf("Update signature is invalid: %s", reason),
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}

// --- Inspection helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is an AppError carrying code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// IsFatal reports whether err aborts application startup.
func IsFatal(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && IsFatalCode(appErr.Code)
}

// IsRetryable reports whether err is a retryable AppError.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}
