package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lumison/lumison/errors"
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/logger"
)

// closeTimeout bounds each plugin's Close.
const closeTimeout = 10 * time.Second

type pluginEntry struct {
	plugin      Plugin
	initialized bool
}

// Registry manages plugin lifecycle with deterministic ordering.
// Plugins are initialized in registration order and closed in reverse order.
type Registry struct {
	entries []*pluginEntry
	lookup  map[string]*pluginEntry
	mu      sync.RWMutex
	wg      sync.WaitGroup
	log     *logger.Logger
}

// NewRegistry creates an empty plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make([]*pluginEntry, 0),
		lookup:  make(map[string]*pluginEntry),
		log:     logger.WithComponent("plugins"),
	}
}

// Register adds a plugin. Names must be unique.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := p.Name()
	if _, exists := r.lookup[name]; exists {
		return fmt.Errorf("plugin %s already registered", name)
	}

	entry := &pluginEntry{plugin: p}
	r.entries = append(r.entries, entry)
	r.lookup[name] = entry

	r.log.Debug("Plugin registered", logger.Fields(logger.FieldPlugin, name))
	return nil
}

// InitAll initializes plugins in registration order and stops at the first
// failure. The failure is returned as a PLUGIN_INIT_FAILED AppError.
func (r *Registry) InitAll(ctx context.Context, rt host.Runtime) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.log.Info("Initializing plugins", map[string]interface{}{"count": len(r.entries)})

	for _, entry := range r.entries {
		name := entry.plugin.Name()
		start := time.Now()

		if err := initPlugin(ctx, entry.plugin, rt); err != nil {
			r.log.Error("Plugin init failed", logger.MergeWithError(logger.Fields(logger.FieldPlugin, name), err))
			return errors.PluginInitFailed(name, err)
		}

		entry.initialized = true
		r.log.Debug("Plugin initialized", logger.Fields(
			logger.FieldPlugin, name,
			logger.FieldDuration, time.Since(start).Milliseconds(),
		))
	}
	return nil
}

func initPlugin(ctx context.Context, p Plugin, rt host.Runtime) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return p.Init(ctx, rt)
}

// StartAll launches every initialized Starter in its own goroutine.
// Wait blocks until they have all returned.
func (r *Registry) StartAll(ctx context.Context) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, entry := range r.entries {
		s, ok := entry.plugin.(Starter)
		if !ok || !entry.initialized {
			continue
		}
		name := entry.plugin.Name()
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			defer func() {
				if rec := recover(); rec != nil {
					r.log.Error("Plugin background task panicked", logger.Fields(
						logger.FieldPlugin, name,
						logger.FieldError, fmt.Sprint(rec),
					))
				}
			}()
			s.Start(ctx)
		}()
		r.log.Debug("Plugin started", logger.Fields(logger.FieldPlugin, name))
	}
}

// Wait blocks until every goroutine launched by StartAll has returned.
func (r *Registry) Wait() {
	r.wg.Wait()
}

// CloseAll closes initialized Closers in reverse registration order.
// All plugins are closed even if some fail; the errors are joined.
func (r *Registry) CloseAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for i := len(r.entries) - 1; i >= 0; i-- {
		entry := r.entries[i]
		if !entry.initialized {
			continue
		}
		entry.initialized = false

		c, ok := entry.plugin.(Closer)
		if !ok {
			continue
		}

		name := entry.plugin.Name()
		closeCtx, cancel := context.WithTimeout(ctx, closeTimeout)
		if err := c.Close(closeCtx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
			r.log.Error("Plugin close failed", logger.MergeWithError(logger.Fields(logger.FieldPlugin, name), err))
		} else {
			r.log.Debug("Plugin closed", logger.Fields(logger.FieldPlugin, name))
		}
		cancel()
	}

	if len(errs) > 0 {
		return fmt.Errorf("plugin shutdown errors: %v", errs)
	}
	return nil
}

// Get returns a registered plugin by name, or nil if not found.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if entry, exists := r.lookup[name]; exists {
		return entry.plugin
	}
	return nil
}

// Names returns plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		names = append(names, entry.plugin.Name())
	}
	return names
}

// Describe returns a description for every plugin in registration order.
func (r *Registry) Describe() []Description {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Description, 0, len(r.entries))
	for _, entry := range r.entries {
		d := Description{Name: entry.plugin.Name()}
		if desc, ok := entry.plugin.(Describer); ok {
			d = desc.Describe()
			if d.Name == "" {
				d.Name = entry.plugin.Name()
			}
		}
		out = append(out, d)
	}
	return out
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
