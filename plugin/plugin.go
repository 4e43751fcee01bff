package plugin

import (
	"context"

	"github.com/lumison/lumison/host"
)

// Plugin is a capability unit identified by name.
type Plugin interface {
	// Name returns the unique name of the plugin.
	Name() string

	// Init attaches the plugin to the runtime. It runs before the setup
	// hook; an error aborts startup.
	Init(ctx context.Context, rt host.Runtime) error
}

// Starter is implemented by plugins with background work. Start is called
// in its own goroutine after the setup hook returns; ctx is canceled when
// the event loop exits.
type Starter interface {
	Start(ctx context.Context)
}

// Closer is implemented by plugins that hold resources. Plugins are closed
// in reverse registration order after the event loop exits.
type Closer interface {
	Close(ctx context.Context) error
}

// Description holds summary information for the startup display.
type Description struct {
	// Name is the display name. If empty, the plugin's Name() is used.
	Name string
	// Details is a one-liner shown in the startup summary,
	// e.g. "2 endpoints, check on startup".
	Details string
}

// Describer is optionally implemented by plugins to self-report in the
// startup summary.
type Describer interface {
	Describe() Description
}
