package validation

import (
	"fmt"
	"slices"
	"strings"

	"github.com/lumison/lumison/errors"
)

// FieldError is one rejected config key.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors for rules that struct tags cannot
// express, such as cross-field constraints. Its methods chain.
type Validator struct {
	errs []FieldError
}

func New() *Validator { return &Validator{} }

func (v *Validator) AddError(field, message string) {
	v.errs = append(v.errs, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.errs) > 0 }

func (v *Validator) Errors() []FieldError { return v.errs }

// Validate turns the collected errors into a single CONFIG_INVALID error
// whose "fields" detail lists them. It returns nil when nothing failed.
func (v *Validator) Validate() *errors.AppError {
	if len(v.errs) == 0 {
		return nil
	}
	parts := make([]string, 0, len(v.errs))
	for _, e := range v.errs {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return errors.ConfigInvalid(strings.Join(parts, "; ")).
		WithDetail("fields", slices.Clone(v.errs))
}

// Merge folds err into v. Field errors carried by a CONFIG_INVALID error are
// copied as-is; any other non-nil error is recorded under field.
func (v *Validator) Merge(field string, err error) *Validator {
	if err == nil {
		return v
	}
	if appErr, ok := errors.AsAppError(err); ok {
		if fields, ok := appErr.Details["fields"].([]FieldError); ok {
			v.errs = append(v.errs, fields...)
			return v
		}
	}
	v.AddError(field, err.Error())
	return v
}

// OneOf rejects a non-empty value outside allowed.
func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	if value != "" && !slices.Contains(allowed, value) {
		v.AddError(field, fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")))
	}
	return v
}

// Custom records message under field unless ok holds.
func (v *Validator) Custom(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}
