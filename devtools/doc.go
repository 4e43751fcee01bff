// Package devtools serves a local HTTP inspector for a running application.
//
// The inspector exposes the runtime session, windows, plugins, their health
// and a rolling log of runtime events:
//
//	GET  /health
//	GET  /runtime
//	GET  /windows
//	POST /windows/:label/devtools
//	GET  /plugins
//	GET  /events?limit=N
//	GET  /events/stream      (Server-Sent Events)
//
// It is started from the setup hook on debug builds, next to the webview
// devtools, and stops when the event loop exits.
package devtools
