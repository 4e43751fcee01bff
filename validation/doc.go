// Package validation validates lumison configuration.
//
// Struct tag validation (go-playground/validator) covers per-field rules;
// the programmatic Validator collects cross-field checks.
//
//	type WindowConfig struct {
//	    Width int `mapstructure:"width" validate:"min=1"`
//	}
//	err := validation.Validate(cfg)
//
//	v := validation.New()
//	v.Custom(cfg.MinWidth <= cfg.Width, "window.min_width", "must not exceed window.width")
//	err := v.Validate()
package validation
