package validation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lumison/lumison/errors"
)

func TestValidatorOneOf(t *testing.T) {
	v := New()
	v.OneOf("format", "json", []string{"json", "console"})
	if v.HasErrors() {
		t.Error("expected no errors for allowed value")
	}

	v2 := New()
	v2.OneOf("format", "xml", []string{"json", "console"})
	if !v2.HasErrors() {
		t.Error("expected error for disallowed value")
	}

	v3 := New()
	v3.OneOf("format", "", []string{"json"})
	if v3.HasErrors() {
		t.Error("empty value should be skipped")
	}
}

func TestValidatorCustom(t *testing.T) {
	v := New()
	v.Custom(800 <= 1280, "window.min_width", "must not exceed window.width")
	if v.HasErrors() {
		t.Error("expected no errors when condition holds")
	}

	v.Custom(false, "window.min_height", "must not exceed window.height")
	if len(v.Errors()) != 1 {
		t.Fatalf("expected 1 error, got %d", len(v.Errors()))
	}
	if v.Errors()[0].Field != "window.min_height" {
		t.Errorf("expected field window.min_height, got %q", v.Errors()[0].Field)
	}
}

func TestValidatorValidate(t *testing.T) {
	v := New()
	if v.Validate() != nil {
		t.Error("expected nil AppError with no errors")
	}

	v.AddError("updater.pubkey", "is required")
	appErr := v.Validate()
	if appErr == nil {
		t.Fatal("expected AppError")
	}
	if appErr.Code != errors.ErrCodeConfigInvalid {
		t.Errorf("expected CONFIG_INVALID, got %s", appErr.Code)
	}
	if !strings.Contains(appErr.Message, "updater.pubkey: is required") {
		t.Errorf("unexpected message %q", appErr.Message)
	}
}

func TestValidatorMerge(t *testing.T) {
	type Window struct {
		Width int `mapstructure:"width" validate:"min=1"`
	}

	v := New()
	v.Merge("window", Validate(Window{Width: 0}))
	v.Merge("logging", fmt.Errorf("logging.level must be one of [info]"))
	v.Merge("ignored", nil)

	errs := v.Errors()
	if len(errs) != 2 {
		t.Fatalf("expected 2 merged errors, got %d (%v)", len(errs), errs)
	}
	if errs[0].Field != "width" {
		t.Errorf("expected struct field error first, got %q", errs[0].Field)
	}
	if errs[1].Field != "logging" {
		t.Errorf("expected plain error under 'logging', got %q", errs[1].Field)
	}
}

func TestStructValidateValid(t *testing.T) {
	type Updater struct {
		Endpoints []string `mapstructure:"endpoints" validate:"dive,url"`
		Timeout   int      `mapstructure:"timeout" validate:"gte=0"`
	}

	err := Validate(Updater{Endpoints: []string{"https://example.com/latest.json"}})
	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
}

func TestStructValidateInvalid(t *testing.T) {
	type Window struct {
		Title string `mapstructure:"title" validate:"required"`
		Width int    `mapstructure:"width" validate:"min=1"`
	}

	err := Validate(Window{Title: "", Width: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	errStr := err.Error()
	if !strings.Contains(errStr, "title: is required") {
		t.Errorf("expected error to mention 'title', got %q", errStr)
	}
	if !strings.Contains(errStr, "width: must be at least 1") {
		t.Errorf("expected error to mention 'width', got %q", errStr)
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected 2 field errors in details, got %v", appErr.Details["fields"])
	}
}

func TestStructValidateNestedPath(t *testing.T) {
	type Devtools struct {
		Addr string `mapstructure:"addr" validate:"required"`
	}
	type Config struct {
		Devtools Devtools `mapstructure:"devtools"`
	}

	err := Validate(Config{})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "devtools.addr") {
		t.Errorf("expected nested path in error, got %q", err.Error())
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Width":    "width",
		"MinWidth": "min_width",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
