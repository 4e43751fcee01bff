package process

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/platform"
	"github.com/lumison/lumison/plugin"
)

// Name is the registered plugin name.
const Name = platform.PluginProcess

// Events the plugin listens for.
const (
	EventExit    = "process://exit"
	EventRestart = "process://restart"
)

// Option configures the plugin.
type Option func(*Plugin)

// WithSpawner replaces the function used to relaunch the executable.
func WithSpawner(fn SpawnFunc) Option {
	return func(p *Plugin) { p.spawn = fn }
}

// WithExecutable replaces the lookup of the running executable's path.
func WithExecutable(fn func() (string, error)) Option {
	return func(p *Plugin) { p.executable = fn }
}

// WithArgs sets the arguments passed to the relaunched process.
// Defaults to the current process arguments.
func WithArgs(args []string) Option {
	return func(p *Plugin) { p.args = args }
}

// WithLogger sets the plugin logger.
func WithLogger(log *logger.Logger) Option {
	return func(p *Plugin) { p.log = log }
}

// Plugin exposes process exit and restart.
type Plugin struct {
	spawn      SpawnFunc
	executable func() (string, error)
	args       []string
	log        *logger.Logger

	mu       sync.RWMutex
	rt       host.Runtime
	unlisten []func()
}

// New creates the process plugin.
func New(opts ...Option) *Plugin {
	p := &Plugin{
		spawn:      Spawn,
		executable: os.Executable,
	}
	if len(os.Args) > 1 {
		p.args = append([]string(nil), os.Args[1:]...)
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.log == nil {
		p.log = logger.WithComponent(Name)
	}
	return p
}

// Name implements plugin.Plugin.
func (p *Plugin) Name() string { return Name }

// Init attaches the plugin to rt and subscribes to the process events.
func (p *Plugin) Init(ctx context.Context, rt host.Runtime) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.rt = rt
	p.unlisten = append(p.unlisten,
		rt.Listen(EventExit, func(e host.Event) { p.Exit(exitCode(e.Data)) }),
		rt.Listen(EventRestart, func(host.Event) {
			if err := p.Restart(); err != nil {
				p.log.Error("Restart failed", logger.ErrorFields("restart", err))
			}
		}),
	)
	return nil
}

// Exit requests the event loop to exit with code.
func (p *Plugin) Exit(code int) error {
	rt, err := p.runtime()
	if err != nil {
		return err
	}
	p.log.Info("Exit requested", logger.Fields("code", code))
	rt.Exit(code)
	return nil
}

// Restart launches a new instance of the running executable, then requests
// exit with code 0. If the launch fails the application keeps running.
func (p *Plugin) Restart() error {
	rt, err := p.runtime()
	if err != nil {
		return err
	}

	exe, err := p.executable()
	if err != nil {
		return errors.Internal(fmt.Errorf("resolve executable: %w", err))
	}
	pid, err := p.spawn(Command{Binary: exe, Args: p.args})
	if err != nil {
		return errors.Internal(err)
	}

	p.log.Info("Relaunched application, exiting", logger.Fields("pid", pid, "executable", exe))
	rt.Exit(0)
	return nil
}

// Close removes the event subscriptions.
func (p *Plugin) Close(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, stop := range p.unlisten {
		stop()
	}
	p.unlisten = nil
	p.rt = nil
	return nil
}

// Describe implements plugin.Describer.
func (p *Plugin) Describe() plugin.Description {
	return plugin.Description{Name: Name, Details: "exit, restart"}
}

func (p *Plugin) runtime() (host.Runtime, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.rt == nil {
		return nil, errors.PreconditionViolation("process plugin used before Init")
	}
	return p.rt, nil
}

// exitCode reads {"code": n} event payloads. Anything else means 0.
func exitCode(data any) int {
	switch v := data.(type) {
	case int:
		return v
	case float64:
		return int(v)
	case map[string]interface{}:
		return exitCode(v["code"])
	default:
		return 0
	}
}
