//go:build desktop

package main

import (
	"github.com/lumison/lumison/host"
	"github.com/lumison/lumison/host/wailshost"
	"github.com/lumison/lumison/launcher/desktop"
	"github.com/lumison/lumison/logger"
)

// newHost returns the webview host. Debug builds load the frontend from
// its dev server when one is configured.
func newHost(cfg *desktop.Config, debug bool, log *logger.Logger) host.Host {
	return wailshost.New(wailshost.Options{
		Window:       cfg.Window,
		Frontend:     cfg.Frontend,
		CSP:          cfg.Security.CSP,
		UseDevServer: debug,
		Inspector:    debug,
		Logger:       log,
	})
}
