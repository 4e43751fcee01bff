package app

import "fmt"

// State is the lifecycle state of a Builder.
type State int32

const (
	// Uninitialized is the zero value; New moves a builder to Configuring.
	Uninitialized State = iota
	// Configuring accepts Setup and Plugin calls.
	Configuring
	// Running means startup succeeded and the event loop was entered.
	Running
	// Terminated means the event loop exited after a successful startup.
	Terminated
	// Aborted means startup failed. It is terminal.
	Aborted
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Configuring:
		return "configuring"
	case Running:
		return "running"
	case Terminated:
		return "terminated"
	case Aborted:
		return "aborted"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}
