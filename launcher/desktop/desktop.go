// Package desktop composes the desktop application: the updater and
// process plugins, and developer tooling in debug builds.
package desktop

import (
	"context"
	"fmt"

	"github.com/lumison/lumison/app"
	"github.com/lumison/lumison/devtools"
	"github.com/lumison/lumison/launcher"
	"github.com/lumison/lumison/logger"
	"github.com/lumison/lumison/platform"
	"github.com/lumison/lumison/plugin"
	"github.com/lumison/lumison/plugins/process"
	"github.com/lumison/lumison/plugins/updater"
	"github.com/lumison/lumison/validation"
)

// Config is the desktop configuration.
type Config struct {
	launcher.Config `yaml:",inline" mapstructure:",squash"`
	Updater         updater.Config  `yaml:"updater" mapstructure:"updater"`
	Devtools        devtools.Config `yaml:"devtools" mapstructure:"devtools"`
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	c.Config.ApplyDefaults()
	c.Updater.ApplyDefaults()
	c.Devtools.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	v := validation.New()
	v.Merge("config", c.Config.Validate())
	v.Merge("updater", c.Updater.Validate())
	v.Merge("devtools", c.Devtools.Validate())
	if err := v.Validate(); err != nil {
		return err
	}
	return nil
}

// Launch composes the desktop application and runs it until the event
// loop exits.
func Launch(ctx context.Context, cfg *Config, opts ...launcher.Option) error {
	b, err := Build(cfg, opts...)
	if err != nil {
		return err
	}
	return b.Run(ctx)
}

// Build returns the desktop builder without running it.
func Build(cfg *Config, opts ...launcher.Option) (*app.Builder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := launcher.Resolve(opts...)
	caps := o.Capabilities()

	plugins := newPlugins(cfg, o, caps)
	b := o.NewBuilder(&cfg.Config).Setup(o.Setup(setupHook(cfg, caps, plugins)))
	for _, p := range plugins {
		b.Plugin(p)
	}
	return b, nil
}

// newPlugins instantiates the capability set's plugins in its order.
func newPlugins(cfg *Config, o launcher.Options, caps platform.CapabilitySet) []plugin.Plugin {
	plugins := make([]plugin.Plugin, 0, len(caps.Plugins))
	for _, name := range caps.Plugins {
		switch name {
		case platform.PluginUpdater:
			plugins = append(plugins, updater.New(cfg.Updater,
				updater.WithCurrentVersion(cfg.Version),
				updater.WithMetrics(o.Metrics),
				updater.WithLogger(o.Logger.WithComponent(updater.Name)),
			))
		case platform.PluginProcess:
			plugins = append(plugins, process.New(
				process.WithLogger(o.Logger.WithComponent(process.Name)),
			))
		default:
			panic("desktop: no constructor for plugin " + name)
		}
	}
	return plugins
}

func setupHook(cfg *Config, caps platform.CapabilitySet, plugins []plugin.Plugin) app.SetupFunc {
	return func(c *app.Context) error {
		if !caps.Devtools {
			return nil
		}
		win, err := c.MainWindow()
		if err != nil {
			return err
		}
		if err := win.OpenDevtools(); err != nil {
			return fmt.Errorf("open devtools on %s: %w", win.Label(), err)
		}
		c.Logger().Debug("Devtools opened", logger.Fields(logger.FieldWindow, win.Label()))

		if cfg.Devtools.Disabled {
			return nil
		}
		rt, err := c.Runtime()
		if err != nil {
			return err
		}
		srv, err := devtools.New(cfg.Devtools, devtools.Options{
			Name:     cfg.Name,
			Version:  cfg.Version,
			Platform: c.Platform(),
			Profile:  c.Profile(),
			Runtime:  rt,
			Plugins:  plugins,
			Logger:   c.Logger().WithComponent("devtools"),
		})
		if err != nil {
			return err
		}
		return c.Go(srv.Start)
	}
}
