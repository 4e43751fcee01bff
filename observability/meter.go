package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}
	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded during startup and by plugins.
type Metrics struct {
	startupDuration metric.Float64Histogram
	pluginInitTotal metric.Int64Counter
	updateChecks    metric.Int64Counter
	errorTotal      metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	startupDuration, err := meter.Float64Histogram("startup.duration",
		metric.WithDescription("Time from Run to entering the event loop"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating startup.duration histogram: %w", err)
	}

	pluginInitTotal, err := meter.Int64Counter("plugin.init.total",
		metric.WithDescription("Plugin initializations by plugin and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating plugin.init.total counter: %w", err)
	}

	updateChecks, err := meter.Int64Counter("updater.check.total",
		metric.WithDescription("Update checks by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating updater.check.total counter: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		startupDuration: startupDuration,
		pluginInitTotal: pluginInitTotal,
		updateChecks:    updateChecks,
		errorTotal:      errorTotal,
	}, nil
}

// RecordStartup records how long startup took and whether it succeeded.
func (m *Metrics) RecordStartup(ctx context.Context, platform, profile, status string, duration time.Duration) {
	m.startupDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrPlatform, platform),
		attribute.String(AttrProfile, profile),
		attribute.String(AttrStatus, status),
	))
}

// RecordPluginInit counts one plugin initialization.
func (m *Metrics) RecordPluginInit(ctx context.Context, plugin, status string) {
	m.pluginInitTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrPlugin, plugin),
		attribute.String(AttrStatus, status),
	))
}

// RecordUpdateCheck counts one update check. status is "available",
// "up_to_date", "skipped" or "error".
func (m *Metrics) RecordUpdateCheck(ctx context.Context, status string) {
	m.updateChecks.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrStatus, status)))
}

// RecordError records an error by code and component.
func (m *Metrics) RecordError(ctx context.Context, code, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
