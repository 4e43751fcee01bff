package app

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/observability"
	"github.com/lumison/lumison/platform"
	"github.com/lumison/lumison/plugin"
)

// ErrAlreadyRun is the cause of the ALREADY_RUN error returned by a second Run.
var ErrAlreadyRun = stderrors.New("app: builder already run")

// shutdownTimeout bounds closing plugins after the event loop exits.
const shutdownTimeout = 15 * time.Second

// Builder composes the application and hands it to the host event loop.
// It is configured once and consumed by Run.
type Builder struct {
	name     string
	version  string
	host     host.Host
	log      *logger.Logger
	metrics  *observability.Metrics
	summary  io.Writer
	platform platform.Platform
	profile  platform.Profile
	// mainWindow is the label Context.MainWindow looks up.
	mainWindow string

	plugins  []plugin.Plugin
	setup    SetupFunc
	registry *plugin.Registry

	state atomic.Int32
	ran   atomic.Bool
	rt    atomic.Value // host.Runtime
	tasks sync.WaitGroup
}

// New creates a builder in the Configuring state. It performs no I/O.
func New(opts ...Option) *Builder {
	o := resolveOptions(opts)

	b := &Builder{
		name:     o.name,
		version:  o.version,
		host:     o.host,
		log:      o.logger,
		metrics:  o.metrics,
		summary:  o.summary,
		platform: platform.Current(),
		profile:  platform.BuildProfile(),
		registry: plugin.NewRegistry(),
	}
	if b.name == "" {
		b.name = "lumison"
	}
	if b.log == nil {
		b.log = logger.WithComponent("app")
	}
	if !o.summarySet {
		b.summary = os.Stdout
	}
	if o.platform != nil {
		b.platform = *o.platform
	}
	if o.profile != nil {
		b.profile = *o.profile
	}
	b.mainWindow = o.mainWindow
	if b.mainWindow == "" {
		b.mainWindow = host.MainWindow
	}
	if b.host == nil {
		b.host = host.NewLoop(host.WithWindow(b.mainWindow, b.name))
	}

	b.state.Store(int32(Configuring))
	return b
}

// Setup registers the setup hook. Registering a second hook, or a nil
// one, is a programming error and panics.
func (b *Builder) Setup(fn SetupFunc) *Builder {
	b.mustConfigure("Setup")
	if fn == nil {
		panic("app: Setup called with a nil hook")
	}
	if b.setup != nil {
		panic("app: Setup called more than once")
	}
	b.setup = fn
	return b
}

// Plugin appends a plugin. Plugins are initialized in the order they are
// added. Duplicate names are reported by Run as a plugin init failure.
func (b *Builder) Plugin(p plugin.Plugin) *Builder {
	b.mustConfigure("Plugin")
	if p == nil {
		panic("app: Plugin called with a nil plugin")
	}
	b.plugins = append(b.plugins, p)
	return b
}

func (b *Builder) mustConfigure(method string) {
	if b.ran.Load() {
		panic("app: " + method + " called after Run")
	}
}

// Plugins returns the names of the added plugins in registration order.
func (b *Builder) Plugins() []string {
	names := make([]string, 0, len(b.plugins))
	for _, p := range b.plugins {
		names = append(names, p.Name())
	}
	return names
}

// State returns the current lifecycle state.
func (b *Builder) State() State {
	return State(b.state.Load())
}

// ExitCode returns the exit code requested through the runtime, or 0.
func (b *Builder) ExitCode() int {
	if rt, ok := b.rt.Load().(host.Runtime); ok {
		return rt.ExitCode()
	}
	return 0
}

// Run consumes the builder: it builds the runtime, initializes plugins,
// runs the setup hook and blocks in the event loop. Startup failures are
// returned as fatal AppErrors without entering the loop. A second call
// returns an ALREADY_RUN error wrapping ErrAlreadyRun and has no effect.
func (b *Builder) Run(ctx context.Context) error {
	if !b.ran.CompareAndSwap(false, true) {
		return errors.AlreadyRun(b.name).WithCause(ErrAlreadyRun)
	}

	start := time.Now()
	ctx, startup := observability.StartPhase(ctx, observability.SpanStartup,
		attribute.String(observability.AttrServiceName, b.name),
		attribute.String(observability.AttrPlatform, b.platform.String()),
		attribute.String(observability.AttrProfile, b.profile.String()),
		attribute.String(observability.AttrHost, b.host.Name()),
	)

	b.log.Info("Starting application", logger.Fields(
		"name", b.name,
		logger.FieldVersion, b.version,
		logger.FieldPlatform, b.platform.String(),
		logger.FieldProfile, b.profile.String(),
		logger.FieldHost, b.host.Name(),
	))

	var bootErr error
	booted := false
	err := b.host.Run(ctx, func(runCtx context.Context, rt host.Runtime) error {
		b.rt.Store(rt)
		runCtx = logger.ContextWithSession(runCtx, rt.SessionID())

		tasks, err := b.boot(runCtx, rt)
		if err != nil {
			bootErr = err
			return err
		}
		booted = true

		b.state.Store(int32(Running))
		b.recordStartup(runCtx, "ok", time.Since(start))
		startup.End(nil)
		b.displaySummary(time.Since(start))

		b.registry.StartAll(runCtx)
		for _, task := range tasks {
			b.tasks.Add(1)
			go func() {
				defer b.tasks.Done()
				task(runCtx)
			}()
		}
		return nil
	})

	if !booted {
		if bootErr == nil {
			bootErr = errors.Internal(fmt.Errorf("host %s: %w", b.host.Name(), err))
		}
		return b.abort(ctx, startup, bootErr, time.Since(start))
	}

	b.state.Store(int32(Terminated))
	b.log.Info("Event loop exited, shutting down", logger.Fields("exit_code", b.ExitCode()))

	shutdownErr := b.shutdown()
	if err != nil {
		return errors.Internal(fmt.Errorf("host %s: %w", b.host.Name(), err))
	}
	return shutdownErr
}

// boot runs inside the host once the runtime exists: plugins first, then
// the setup hook. It returns the tasks the hook scheduled with Context.Go.
func (b *Builder) boot(ctx context.Context, rt host.Runtime) ([]func(context.Context), error) {
	pctx, phase := observability.StartPhase(ctx, observability.SpanPluginsInit,
		attribute.Int(observability.AttrPluginCount, len(b.plugins)))
	err := b.initPlugins(pctx, rt)
	phase.End(err)
	if err != nil {
		return nil, err
	}

	if b.setup == nil {
		return nil, nil
	}

	sctx, phase := observability.StartPhase(ctx, observability.SpanSetup)
	tasks, err := b.runSetup(sctx, rt)
	phase.End(err)
	return tasks, err
}

func (b *Builder) initPlugins(ctx context.Context, rt host.Runtime) error {
	for _, p := range b.plugins {
		if err := b.registry.Register(p); err != nil {
			b.recordPluginInit(ctx, p.Name(), "error")
			return errors.PluginInitFailed(p.Name(), err)
		}
	}

	if err := b.registry.InitAll(ctx, rt); err != nil {
		if appErr, ok := errors.AsAppError(err); ok {
			if name, ok := appErr.Details["plugin"].(string); ok {
				b.recordPluginInit(ctx, name, "error")
			}
		}
		return err
	}
	for _, name := range b.registry.Names() {
		b.recordPluginInit(ctx, name, "ok")
	}
	return nil
}

// runSetup calls the hook exactly once and invalidates its Context
// afterwards. A panic in the hook becomes a SETUP_FAILED error.
func (b *Builder) runSetup(ctx context.Context, rt host.Runtime) (tasks []func(context.Context), err error) {
	c := newContext(ctx, rt, b.registry, b.log.WithContext(ctx), b.platform, b.profile)
	c.mainWindow = b.mainWindow
	defer func() {
		if rec := recover(); rec != nil {
			err = errors.SetupFailed(fmt.Errorf("setup hook panicked: %v", rec))
		}
		scheduled := c.invalidate()
		if err == nil {
			tasks = scheduled
		}
	}()

	b.log.Debug("Running setup hook")
	if hookErr := b.setup(c); hookErr != nil {
		return nil, errors.SetupFailed(hookErr)
	}
	return nil, nil
}

// abort moves the builder to Aborted and releases plugins that were
// initialized before the failure.
func (b *Builder) abort(ctx context.Context, startup *observability.Phase, err error, elapsed time.Duration) error {
	b.state.Store(int32(Aborted))
	b.recordStartup(ctx, "error", elapsed)
	startup.End(err)

	b.log.Error("Startup aborted", logger.MergeWithError(logger.Fields(
		logger.FieldPhase, "startup",
		logger.FieldDuration, elapsed.Milliseconds(),
	), err))

	closeCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if closeErr := b.registry.CloseAll(closeCtx); closeErr != nil {
		b.log.Warn("Plugin cleanup after aborted startup failed", logger.ErrorFields("close", closeErr))
	}
	return err
}

func (b *Builder) shutdown() error {
	b.registry.Wait()
	b.tasks.Wait()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := b.registry.CloseAll(ctx); err != nil {
		b.log.Error("Shutdown completed with errors", logger.ErrorFields("shutdown", err))
		return err
	}
	b.log.Info("Application shutdown complete")
	return nil
}

func (b *Builder) recordStartup(ctx context.Context, status string, d time.Duration) {
	if b.metrics != nil {
		b.metrics.RecordStartup(ctx, b.platform.String(), b.profile.String(), status, d)
	}
}

func (b *Builder) recordPluginInit(ctx context.Context, name, status string) {
	if b.metrics != nil {
		b.metrics.RecordPluginInit(ctx, name, status)
	}
}
