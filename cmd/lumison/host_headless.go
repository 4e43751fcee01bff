//go:build !desktop

package main

import (
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/launcher/desktop"
	"github.com/lumison/lumison/logger"
)

// newHost falls back to the in-process event loop when built without the
// webview. Build with -tags desktop for the native window.
func newHost(cfg *desktop.Config, _ bool, log *logger.Logger) host.Host {
	log.Warn("Built without webview support, running headless")
	return host.NewLoop(
		host.WithWindow(cfg.Window.Label, cfg.Window.Title),
		host.WithLoopLogger(log),
	)
}
