package validation

import (
	"reflect"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/lumison/lumison/errors"
)

var validatorInstance = sync.OnceValue(func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Name fields by their config key so errors read like the YAML.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return toSnakeCase(fld.Name)
		}
		return name
	})
	return v
})

// tagMessages phrases the tags used by config structs. The parameter, if
// any, is appended.
var tagMessages = map[string]string{
	"required":      "is required",
	"min":           "must be at least ",
	"max":           "must be at most ",
	"gte":           "must be greater than or equal to ",
	"lte":           "must be less than or equal to ",
	"url":           "must be a valid URL",
	"http_url":      "must be a valid URL",
	"hostname_port": "must be a host:port address",
	"base64":        "must be base64 encoded",
	"oneof":         "must be one of: ",
}

// Validate checks s against its `validate` struct tags and reports failures
// as a CONFIG_INVALID error keyed by config path, e.g. "window.width".
func Validate(s any) error {
	err := validatorInstance().Struct(s)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ConfigInvalid("validation failed").WithCause(err)
	}

	v := New()
	for _, e := range verrs {
		v.AddError(fieldPath(e.Namespace()), message(e))
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// fieldPath drops the root struct name from a validator namespace,
// e.g. "AppConfig.window.width" -> "window.width".
func fieldPath(namespace string) string {
	_, path, found := strings.Cut(namespace, ".")
	if !found {
		return namespace
	}
	return path
}

func message(e validator.FieldError) string {
	msg, ok := tagMessages[e.Tag()]
	if !ok {
		return "is invalid"
	}
	if strings.HasSuffix(msg, " ") {
		return msg + e.Param()
	}
	return msg
}

// toSnakeCase turns MinWidth into min_width.
func toSnakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}
