package devtools

import "github.com/lumison/lumison/validation"

const (
	// DefaultAddr keeps the inspector on loopback next to the frontend dev server.
	DefaultAddr = "127.0.0.1:1430"
	// DefaultEventBuffer is the number of runtime events kept for /events.
	DefaultEventBuffer = 256
)

// Config configures the inspector server.
type Config struct {
	// Disabled keeps the inspector server off. Window devtools are still
	// opened in debug builds.
	Disabled     bool   `yaml:"disabled" mapstructure:"disabled"`
	Addr         string `yaml:"addr" mapstructure:"addr" validate:"hostname_port"`
	EventBuffer  int    `yaml:"event_buffer" mapstructure:"event_buffer" validate:"gte=1"`
	ReadTimeout  int    `yaml:"read_timeout" mapstructure:"read_timeout" validate:"gte=0"`   // seconds
	WriteTimeout int    `yaml:"write_timeout" mapstructure:"write_timeout" validate:"gte=0"` // seconds
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Addr == "" {
		c.Addr = DefaultAddr
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 15
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 15
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
