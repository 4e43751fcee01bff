package app

import (
	"io"

	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/observability"
	"github.com/lumison/lumison/platform"
)

// Option configures the Builder during creation.
type Option func(*builderOptions)

type builderOptions struct {
	name       string
	version    string
	host       host.Host
	logger     *logger.Logger
	metrics    *observability.Metrics
	summary    io.Writer
	summarySet bool
	platform   *platform.Platform
	mainWindow string
	profile    *platform.Profile
}

func resolveOptions(opts []Option) *builderOptions {
	o := &builderOptions{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithHost sets the host that owns the event loop. Defaults to a
// host.Loop with a single main window.
func WithHost(h host.Host) Option {
	return func(o *builderOptions) { o.host = h }
}

// WithLogger sets a custom logger. Defaults to the global logger tagged
// with the "app" component.
func WithLogger(l *logger.Logger) Option {
	return func(o *builderOptions) { o.logger = l }
}

// WithName sets the application name used in logs, spans and the summary.
func WithName(name string) Option {
	return func(o *builderOptions) { o.name = name }
}

// WithVersion sets the version shown in the startup summary.
func WithVersion(v string) Option {
	return func(o *builderOptions) { o.version = v }
}

// WithTelemetry records startup metrics on m.
func WithTelemetry(m *observability.Metrics) Option {
	return func(o *builderOptions) { o.metrics = m }
}

// WithSummaryWriter sets where the startup summary is printed.
// A nil writer disables the summary. Defaults to stdout.
func WithSummaryWriter(w io.Writer) Option {
	return func(o *builderOptions) {
		o.summary = w
		o.summarySet = true
	}
}

// WithMainWindow sets the label of the window the host creates at startup,
// the one Context.MainWindow returns. Defaults to host.MainWindow.
func WithMainWindow(label string) Option {
	return func(o *builderOptions) { o.mainWindow = label }
}

// WithPlatform overrides the platform reported to the setup hook.
func WithPlatform(p platform.Platform) Option {
	return func(o *builderOptions) { o.platform = &p }
}

// WithProfile overrides the build profile reported to the setup hook.
func WithProfile(p platform.Profile) Option {
	return func(o *builderOptions) { o.profile = &p }
}
