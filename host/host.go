package host

import (
	"context"
	"time"
)

// MainWindow is the label of the window created at startup.
const MainWindow = "main"

// Well-known event names emitted by hosts.
const (
	EventDevtoolsOpened = "devtools://opened"
	EventExitRequested  = "host://exit-requested"
)

// Event is a named message dispatched through the runtime.
type Event struct {
	Name string    `json:"name"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Handler receives events. Handlers run on the event loop and must not block.
type Handler func(Event)

// Window is a host window.
type Window interface {
	Label() string
	Title() string
	// OpenDevtools opens the web inspector for this window.
	OpenDevtools() error
	IsDevtoolsOpen() bool
}

// Runtime is the live application runtime created by a Host.
type Runtime interface {
	// SessionID identifies this process run.
	SessionID() string
	// Window returns the window with the given label.
	Window(label string) (Window, bool)
	Windows() []Window
	// Emit dispatches an event to listeners and the frontend.
	Emit(name string, data any)
	// Listen registers h for events named name; "*" matches every event.
	// The returned function removes the registration.
	Listen(name string, h Handler) (cancel func())
	// Exit asks the event loop to stop with the given exit code.
	Exit(code int)
	// ExitCode is the code passed to Exit, 0 if Exit was never called.
	ExitCode() int
}

// BootFunc is called by a Host once the runtime exists and before the
// event loop dispatches anything.
type BootFunc func(ctx context.Context, rt Runtime) error

// Host owns the event loop.
type Host interface {
	Name() string
	// Run builds the runtime and calls boot. A boot error is returned
	// without entering the loop; otherwise Run blocks until the loop exits.
	Run(ctx context.Context, boot BootFunc) error
}
