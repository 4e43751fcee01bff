package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/validation"
)

// Config configures telemetry export.
type Config struct {
	// Endpoint is the OTLP HTTP endpoint host:port. Empty disables export.
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint" validate:"omitempty,hostname_port"`
	// Insecure allows plain HTTP to the collector.
	Insecure bool `yaml:"insecure" mapstructure:"insecure"`
	// SampleRate is the trace sampling rate (0.0 to 1.0).
	SampleRate float64 `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	// Interval is the metric export interval.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
	// Environment is attached to every exported resource.
	Environment string `yaml:"environment" mapstructure:"environment"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.Interval == 0 {
		c.Interval = 15 * time.Second
	}
	if c.Environment == "" {
		c.Environment = "desktop"
	}
}

// Validate checks the telemetry settings.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Enabled reports whether an exporter endpoint is configured.
func (c *Config) Enabled() bool {
	return c.Endpoint != ""
}

// ShutdownFunc flushes and stops the providers created by Setup.
type ShutdownFunc func(ctx context.Context) error

// Setup installs tracer and meter providers exporting to cfg.Endpoint.
// If telemetry is disabled it returns a no-op shutdown.
func Setup(ctx context.Context, cfg Config, serviceName, serviceVersion string) (ShutdownFunc, error) {
	if !cfg.Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	res, err := newResource(serviceName, serviceVersion, cfg.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}
	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return nil, err
	}
	mp, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return nil, err
	}

	logger.Info("Telemetry export enabled", logger.Fields(
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
		"interval", cfg.Interval.String(),
	))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
