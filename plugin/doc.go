// Package plugin defines the capability modules the application builder
// wires in, and the Registry that drives their lifecycle.
//
// Plugins are initialized in registration order once the host runtime
// exists and before the setup hook runs. Optional interfaces add
// background work (Starter), shutdown (Closer) and startup summary
// information (Describer).
package plugin
