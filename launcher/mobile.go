package launcher

import (
	"context"

	"github.com/lumison/lumison/app"
	"github.com/lumison/lumison/logger"
)

// Mobile composes the mobile application and runs it until the event
// loop exits. Mobile registers no updater and never opens devtools.
func Mobile(ctx context.Context, cfg *Config, opts ...Option) error {
	b, err := BuildMobile(cfg, opts...)
	if err != nil {
		return err
	}
	return b.Run(ctx)
}

// BuildMobile returns the mobile builder without running it.
func BuildMobile(cfg *Config, opts ...Option) (*app.Builder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := Resolve(opts...)

	return o.NewBuilder(cfg).Setup(o.Setup(mobileSetup)), nil
}

// Context is the setup context handed to entry point hooks.
type Context = app.Context

func mobileSetup(c *Context) error {
	id, err := c.SessionID()
	if err != nil {
		return err
	}
	c.Logger().Info("Mobile runtime ready", logger.Fields(
		logger.FieldSessionID, id,
		logger.FieldPlatform, c.Platform().String(),
	))
	return nil
}
