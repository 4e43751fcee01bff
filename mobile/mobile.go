// Package mobile exposes the entry points bound by gomobile. The native
// launcher calls Start on a dedicated thread; Start blocks until Stop is
// called or the event loop exits.
//
//	gomobile bind -target android -o lumison.aar ./mobile
//	gomobile bind -target ios -o Lumison.xcframework ./mobile
package mobile

import (
	"context"
	"sync"

	"github.com/lumison/lumison/config"
	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/launcher"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/platform"
)

var (
	mu      sync.Mutex
	active  bool
	running *host.Loop
	// stopRequested records a Stop that arrived while Start was still
	// loading the configuration.
	stopRequested bool

	// loaderOptions are appended to the configuration loader options.
	loaderOptions []config.LoaderOption
)

// Start loads the configuration at configPath (empty searches the default
// locations), composes the mobile application and runs it.
func Start(configPath string) error {
	mu.Lock()
	if active {
		mu.Unlock()
		return errors.PreconditionViolation("mobile runtime already started")
	}
	active = true
	stopRequested = false
	mu.Unlock()

	defer func() {
		mu.Lock()
		active = false
		running = nil
		stopRequested = false
		mu.Unlock()
	}()

	var cfg launcher.Config
	var opts []config.LoaderOption
	if configPath != "" {
		opts = append(opts, config.WithConfigFile(configPath))
	}
	opts = append(opts, loaderOptions...)
	if err := config.LoadConfig(config.DefaultName, &cfg, opts...); err != nil {
		return err
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Init(cfg.Logging)

	loop := host.NewLoop(
		host.WithSignals(false),
		host.WithWindow(cfg.Window.Label, cfg.Window.Title),
		host.WithLoopLogger(logger.WithComponent("host")),
	)

	mu.Lock()
	running = loop
	stop := stopRequested
	mu.Unlock()
	if stop {
		loop.Stop()
	}

	return launcher.Mobile(context.Background(), &cfg,
		launcher.WithHost(loop),
		launcher.WithPlatform(platform.Mobile),
		launcher.WithLogger(logger.WithComponent("app")),
	)
}

// Stop asks a running Start to return. It is safe to call at any time.
// A Stop that arrives while Start is still starting up makes the event
// loop exit as soon as it is entered; without a Start it has no effect.
func Stop() {
	mu.Lock()
	loop := running
	if loop == nil && active {
		stopRequested = true
	}
	mu.Unlock()
	if loop != nil {
		loop.Stop()
	}
}
