package logger

import "github.com/lumison/lumison/errors"

// Field keys shared by every package.
const (
	FieldComponent = "component"
	FieldSessionID = "session_id"
	FieldPlugin    = "plugin"
	FieldWindow    = "window"
	FieldPlatform  = "platform"
	FieldProfile   = "profile"
	FieldPhase     = "phase"
	FieldHost      = "host"
	FieldOperation = "operation"
	FieldError     = "error"
	FieldCode      = "code"
	FieldDuration  = "duration_ms"
	FieldVersion   = "version"
)

// Fields builds a field map from alternating keys and values. Non-string
// keys and a trailing key without a value are dropped.
//
//	logger.Info("done", logger.Fields("plugin", "updater", "count", 2))
func Fields(kvs ...interface{}) map[string]interface{} {
	m := make(map[string]interface{}, len(kvs)/2)
	for i := 0; i+1 < len(kvs); i += 2 {
		if key, ok := kvs[i].(string); ok {
			m[key] = kvs[i+1]
		}
	}
	return m
}

// ErrorFields describes a failed operation. An AppError anywhere in the
// chain also contributes its code.
func ErrorFields(op string, err error) map[string]interface{} {
	return MergeWithError(map[string]interface{}{FieldOperation: op}, err)
}

// MergeWithError adds err (and its AppError code, if any) to fields.
func MergeWithError(fields map[string]interface{}, err error) map[string]interface{} {
	if fields == nil {
		fields = make(map[string]interface{}, 2)
	}
	fields[FieldError] = err.Error()
	if appErr, ok := errors.AsAppError(err); ok {
		fields[FieldCode] = string(appErr.Code)
	}
	return fields
}
