package updater

import (
	"os"
	"path/filepath"
	"time"

	"github.com/lumison/lumison/resilience"
	"github.com/lumison/lumison/validation"
)

// Config configures the updater plugin.
type Config struct {
	// Endpoints are manifest URLs, tried in order.
	Endpoints []string `yaml:"endpoints" mapstructure:"endpoints" validate:"dive,url"`
	// Pubkey is the minisign public key artifacts are signed with.
	Pubkey string `yaml:"pubkey" mapstructure:"pubkey"`
	// Timeout bounds one manifest request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	// CheckOnStartup runs a check once the application is running.
	CheckOnStartup bool `yaml:"check_on_startup" mapstructure:"check_on_startup"`
	// Interval re-runs the check periodically. Zero disables it.
	Interval time.Duration `yaml:"interval" mapstructure:"interval" validate:"gte=0"`
	// Retry is applied per endpoint.
	Retry resilience.Policy `yaml:"retry" mapstructure:"retry"`
	// StagingDir receives verified artifacts. Defaults to a directory
	// under the OS temp dir.
	StagingDir string `yaml:"staging_dir" mapstructure:"staging_dir"`
	// Relaunch requests a restart through the process plugin once an
	// update is installed.
	Relaunch bool `yaml:"relaunch" mapstructure:"relaunch"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Retry.Attempts == 0 {
		c.Retry.Attempts = 3
	}
	if c.Retry.Backoff == 0 {
		c.Retry.Backoff = 500 * time.Millisecond
	}
	if c.StagingDir == "" {
		c.StagingDir = filepath.Join(os.TempDir(), "lumison-updates")
	}
}

// Validate checks the configuration. A public key is required as soon as
// an endpoint is configured.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("updater", validation.Validate(c))
	v.Custom(len(c.Endpoints) == 0 || c.Pubkey != "", "updater.pubkey", "is required when endpoints are configured")
	if c.Pubkey != "" {
		if _, err := ParsePublicKey(c.Pubkey); err != nil {
			v.AddError("updater.pubkey", err.Error())
		}
	}
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Enabled reports whether any endpoint is configured.
func (c *Config) Enabled() bool {
	return len(c.Endpoints) > 0
}
