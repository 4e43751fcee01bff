// Package updater is the desktop update-check plugin.
//
// It reads a release manifest from the configured endpoints:
//
//	{
//	  "version": "0.5.0",
//	  "notes": "...",
//	  "pub_date": "2026-09-30T12:00:00Z",
//	  "platforms": {
//	    "linux-x86_64": {"url": "https://...", "signature": "..."}
//	  }
//	}
//
// An update is offered when the manifest version is newer than the running
// one and the manifest carries an artifact for the running target.
// Artifacts are verified against a minisign public key before they are
// staged. Runtime events:
//
//	updater://available  {current_version, version, body}
//	updater://progress   DownloadEvent
//	updater://installed  {version, path}
//	updater://error      {op, error}
//
// The frontend drives it by emitting updater://check or updater://install;
// both run in the background until the plugin is closed.
package updater
