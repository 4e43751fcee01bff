package config

import (
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/validation"
)

const (
	DefaultName        = "lumison"
	DefaultIdentifier  = "com.lumison.app"
	DefaultWindowTitle = "Lumison - Visual Art Engine"
	DefaultDevURL      = "http://localhost:1420"
	DefaultDist        = "dist"

	// DefaultCSP is the content security policy applied to the webview.
	DefaultCSP = "default-src 'self'; " +
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
		"font-src 'self' https://fonts.gstatic.com data:; " +
		"script-src 'self' 'unsafe-inline' 'unsafe-eval'; " +
		"img-src 'self' data: blob: https:; " +
		"media-src 'self' data: blob: https:; " +
		"connect-src 'self' https: wss:"
)

// AppConfig contains the configuration fields every lumison entry point needs.
// Entry points extend it by embedding.
//
// Example:
//
//	type Config struct {
//	    config.AppConfig `yaml:",inline" mapstructure:",squash"`
//	    Updater updater.Config `yaml:"updater" mapstructure:"updater"`
//	}
type AppConfig struct {
	Name       string         `yaml:"name" mapstructure:"name" validate:"required"`
	Identifier string         `yaml:"identifier" mapstructure:"identifier" validate:"required"`
	Version    string         `yaml:"version" mapstructure:"version"`
	Logging    logger.Config  `yaml:"logging" mapstructure:"logging"`
	Window     WindowConfig   `yaml:"window" mapstructure:"window"`
	Frontend   FrontendConfig `yaml:"frontend" mapstructure:"frontend"`
	Security   SecurityConfig `yaml:"security" mapstructure:"security"`
}

// WindowConfig describes the main webview window.
type WindowConfig struct {
	Label     string `yaml:"label" mapstructure:"label" validate:"required"`
	Title     string `yaml:"title" mapstructure:"title" validate:"required"`
	Width     int    `yaml:"width" mapstructure:"width" validate:"min=1"`
	Height    int    `yaml:"height" mapstructure:"height" validate:"min=1"`
	MinWidth  int    `yaml:"min_width" mapstructure:"min_width" validate:"gte=0"`
	MinHeight int    `yaml:"min_height" mapstructure:"min_height" validate:"gte=0"`
	Fixed     bool   `yaml:"fixed" mapstructure:"fixed"`
}

// FrontendConfig locates the web UI.
type FrontendConfig struct {
	// DevURL is served from during development instead of the bundled assets.
	DevURL string `yaml:"dev_url" mapstructure:"dev_url" validate:"omitempty,url"`
	// Dist is the directory of the built frontend.
	Dist string `yaml:"dist" mapstructure:"dist" validate:"required"`
}

// SecurityConfig holds webview security settings.
type SecurityConfig struct {
	CSP string `yaml:"csp" mapstructure:"csp"`
}

// ApplyDefaults applies default values to the base configuration.
// Override this in embedding structs and call c.AppConfig.ApplyDefaults() first.
func (c *AppConfig) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Identifier == "" {
		c.Identifier = DefaultIdentifier
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()

	if c.Window.Label == "" {
		c.Window.Label = "main"
	}
	if c.Window.Title == "" {
		c.Window.Title = DefaultWindowTitle
	}
	if c.Window.Width == 0 {
		c.Window.Width = 1280
	}
	if c.Window.Height == 0 {
		c.Window.Height = 800
	}
	if c.Window.MinWidth == 0 {
		c.Window.MinWidth = 800
	}
	if c.Window.MinHeight == 0 {
		c.Window.MinHeight = 600
	}
	if c.Frontend.Dist == "" {
		c.Frontend.Dist = DefaultDist
	}
	if c.Security.CSP == "" {
		c.Security.CSP = DefaultCSP
	}
}

// Validate validates the base configuration fields.
// Override this in embedding structs and call c.AppConfig.Validate() first.
func (c *AppConfig) Validate() error {
	v := validation.New()
	v.Merge("config", validation.Validate(c))
	v.Merge("logging", c.Logging.Validate())
	v.Custom(c.Window.MinWidth <= c.Window.Width, "window.min_width", "must not exceed window.width")
	v.Custom(c.Window.MinHeight <= c.Window.Height, "window.min_height", "must not exceed window.height")
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
