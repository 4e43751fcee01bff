package logger

import "github.com/lumison/lumison/validation"

// Config contains logging configuration.
type Config struct {
	Level       string `yaml:"level" mapstructure:"level"`
	Format      string `yaml:"format" mapstructure:"format"`
	Output      string `yaml:"output" mapstructure:"output"`
	NoColor     bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp   bool   `yaml:"timestamp" mapstructure:"timestamp"`
	Caller      bool   `yaml:"caller" mapstructure:"caller"`
	ServiceName string `yaml:"service_name" mapstructure:"service_name"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = "console"
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
	c.Timestamp = true
}

// Validate checks level, format and output against the supported values.
func (c *Config) Validate() error {
	v := validation.New().
		OneOf("logging.level", c.Level, []string{"trace", "debug", "info", "warn", "error", "fatal"}).
		OneOf("logging.format", c.Format, []string{"json", FormatConsole, FormatPretty}).
		OneOf("logging.output", c.Output, []string{"stdout", "stderr"})
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
