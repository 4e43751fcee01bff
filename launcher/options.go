package launcher

import (
	"io"

	"github.com/lumison/lumison/app"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/observability"
	"github.com/lumison/lumison/platform"
)

// Options holds what an entry point passes to the builder besides its
// configuration.
type Options struct {
	Host     host.Host
	Logger   *logger.Logger
	Metrics  *observability.Metrics
	Platform platform.Platform
	Profile  platform.Profile
	// Steps run in order after the entry point's own setup.
	Steps []app.SetupFunc

	summary    io.Writer
	summarySet bool
}

// Option configures a launch.
type Option func(*Options)

// WithHost sets the host that owns the event loop.
func WithHost(h host.Host) Option {
	return func(o *Options) { o.Host = h }
}

// WithLogger sets the application logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithMetrics records startup and plugin metrics.
func WithMetrics(m *observability.Metrics) Option {
	return func(o *Options) { o.Metrics = m }
}

// WithPlatform overrides the platform detected from GOOS.
func WithPlatform(p platform.Platform) Option {
	return func(o *Options) { o.Platform = p }
}

// WithProfile overrides the profile fixed by the release build tag.
func WithProfile(p platform.Profile) Option {
	return func(o *Options) { o.Profile = p }
}

// WithSetupStep adds an application setup step. Steps run after the
// entry point's own setup, inside the same setup hook.
func WithSetupStep(fn app.SetupFunc) Option {
	return func(o *Options) { o.Steps = append(o.Steps, fn) }
}

// WithSummaryWriter sets where the startup summary goes; nil disables it.
func WithSummaryWriter(w io.Writer) Option {
	return func(o *Options) {
		o.summary = w
		o.summarySet = true
	}
}

// Resolve applies opts over the detected platform and build profile.
func Resolve(opts ...Option) Options {
	o := Options{
		Platform: platform.Current(),
		Profile:  platform.BuildProfile(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Logger == nil {
		o.Logger = logger.WithComponent("app")
	}
	return o
}

// Capabilities is the capability set for the resolved platform and profile.
func (o Options) Capabilities() platform.CapabilitySet {
	return platform.Capabilities(o.Platform, o.Profile)
}

// NewBuilder creates the builder for cfg. It is the single builder of
// an entry point invocation.
func (o Options) NewBuilder(cfg *Config) *app.Builder {
	opts := []app.Option{
		app.WithName(cfg.Name),
		app.WithVersion(cfg.Version),
		app.WithLogger(o.Logger),
		app.WithPlatform(o.Platform),
		app.WithProfile(o.Profile),
		app.WithMainWindow(cfg.Window.Label),
	}
	if o.Host != nil {
		opts = append(opts, app.WithHost(o.Host))
	} else {
		opts = append(opts, app.WithHost(host.NewLoop(
			host.WithWindow(cfg.Window.Label, cfg.Window.Title),
			host.WithLoopLogger(o.Logger.WithComponent("host")),
		)))
	}
	if o.Metrics != nil {
		opts = append(opts, app.WithTelemetry(o.Metrics))
	}
	if o.summarySet {
		opts = append(opts, app.WithSummaryWriter(o.summary))
	}
	return app.New(opts...)
}

// Setup returns the builder's single setup hook: entry runs first, then
// every step. The first error stops the chain.
func (o Options) Setup(entry app.SetupFunc) app.SetupFunc {
	steps := append([]app.SetupFunc{entry}, o.Steps...)
	return func(c *app.Context) error {
		for _, step := range steps {
			if err := step(c); err != nil {
				return err
			}
		}
		return nil
	}
}
