package launcher

import (
	"github.com/lumison/lumison/config"
	"github.com/lumison/lumison/observability"
	"github.com/lumison/lumison/validation"
	"github.com/lumison/lumison/version"
)

// Config is the configuration every entry point reads.
type Config struct {
	config.AppConfig `yaml:",inline" mapstructure:",squash"`
	Telemetry        observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	c.AppConfig.ApplyDefaults()
	if c.Version == "" {
		c.Version = version.Version
	}
	c.Telemetry.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("config", c.AppConfig.Validate())
	v.Merge("telemetry", c.Telemetry.Validate())
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}
