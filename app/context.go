package app

import (
	"context"
	"sync"

	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/platform"
	"github.com/lumison/lumison/plugin"
)

// SetupFunc is the application setup hook. It runs once, after plugins
// are initialized and before the event loop is entered.
type SetupFunc func(c *Context) error

// Context is the handle to the live runtime passed to the setup hook.
// It is only valid for the duration of the hook: afterwards every runtime
// accessor returns a PRECONDITION_VIOLATION error.
type Context struct {
	ctx      context.Context
	rt       host.Runtime
	registry *plugin.Registry
	log      *logger.Logger
	platform platform.Platform
	profile  platform.Profile
	// mainWindow is the label of the window created at startup.
	mainWindow string

	mu    sync.RWMutex
	valid bool
	tasks []func(context.Context)
}

func newContext(ctx context.Context, rt host.Runtime, registry *plugin.Registry, log *logger.Logger, p platform.Platform, prof platform.Profile) *Context {
	return &Context{
		ctx:      ctx,
		rt:       rt,
		registry: registry,
		log:      log,
		platform: p,
		profile:  prof,
		valid:    true,
	}
}

// Platform is the platform the application was composed for.
func (c *Context) Platform() platform.Platform { return c.platform }

// Profile is the build profile the application was composed for.
func (c *Context) Profile() platform.Profile { return c.profile }

// Logger returns the application logger, tagged with the session id.
func (c *Context) Logger() *logger.Logger { return c.log }

// Context returns the startup context.
func (c *Context) Context() context.Context { return c.ctx }

// Runtime returns the host runtime.
func (c *Context) Runtime() (host.Runtime, error) {
	if err := c.check("runtime"); err != nil {
		return nil, err
	}
	return c.rt, nil
}

// SessionID identifies the current process run.
func (c *Context) SessionID() (string, error) {
	if err := c.check("session id"); err != nil {
		return "", err
	}
	return c.rt.SessionID(), nil
}

// MainWindow returns the window created at startup, as labelled by
// WithMainWindow. A missing main window is a precondition violation.
func (c *Context) MainWindow() (host.Window, error) {
	label := c.mainWindow
	if label == "" {
		label = host.MainWindow
	}
	return c.Window(label)
}

// Window returns the window with the given label.
func (c *Context) Window(label string) (host.Window, error) {
	if err := c.check("window " + label); err != nil {
		return nil, err
	}
	w, ok := c.rt.Window(label)
	if !ok {
		return nil, errors.PreconditionViolation("window "+label+" does not exist").
			WithDetail(logger.FieldWindow, label)
	}
	return w, nil
}

// Plugin returns an initialized plugin by name.
func (c *Context) Plugin(name string) (plugin.Plugin, error) {
	if err := c.check("plugin " + name); err != nil {
		return nil, err
	}
	p := c.registry.Get(name)
	if p == nil {
		return nil, errors.PreconditionViolation("plugin "+name+" is not registered").
			WithDetail(logger.FieldPlugin, name)
	}
	return p, nil
}

// Go schedules fn to run in its own goroutine once the setup hook has
// returned successfully. Its context is canceled when the event loop exits.
func (c *Context) Go(fn func(ctx context.Context)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid {
		return errors.PreconditionViolation("setup context used after the setup hook returned")
	}
	c.tasks = append(c.tasks, fn)
	return nil
}

func (c *Context) check(what string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return errors.PreconditionViolation(what + " requested after the setup hook returned")
	}
	return nil
}

// invalidate ends the context's lifetime and returns the scheduled tasks.
func (c *Context) invalidate() []func(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.valid = false
	tasks := c.tasks
	c.tasks = nil
	return tasks
}
