// Package host defines the runtime the application runs inside: the
// windowing/event system that owns the process once startup completes.
//
// A Host builds a Runtime, hands it to a boot function and, if boot
// succeeds, blocks in its event loop until the process is asked to
// terminate. If boot fails the loop is never entered.
//
// Loop is an in-process Host used on mobile, in headless desktop builds
// and in tests. The webview host lives in host/wailshost.
package host
