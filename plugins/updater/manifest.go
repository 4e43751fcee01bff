package updater

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/mod/semver"

	"github.com/lumison/lumison/version"
)

// Manifest is the release document served by an update endpoint.
//
//	{
//	  "version": "0.5.0",
//	  "notes": "Smoother fluid background",
//	  "pub_date": "2026-09-30T12:00:00Z",
//	  "platforms": {
//	    "linux-x86_64": {"url": "https://...", "signature": "..."}
//	  }
//	}
type Manifest struct {
	Version   string                     `json:"version"`
	Notes     string                     `json:"notes"`
	PubDate   string                     `json:"pub_date"`
	Platforms map[string]PlatformRelease `json:"platforms"`
}

// PlatformRelease is the artifact for one target.
type PlatformRelease struct {
	URL       string `json:"url"`
	Signature string `json:"signature"`
}

// parseManifest decodes and checks a manifest body.
func parseManifest(body []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if _, ok := version.Canonical(m.Version); !ok {
		return nil, fmt.Errorf("manifest version %q is not semver", m.Version)
	}
	if len(m.Platforms) == 0 {
		return nil, fmt.Errorf("manifest lists no platforms")
	}
	return &m, nil
}

// Release returns the artifact for target.
func (m *Manifest) Release(target string) (PlatformRelease, bool) {
	r, ok := m.Platforms[target]
	if !ok || r.URL == "" || r.Signature == "" {
		return PlatformRelease{}, false
	}
	return r, true
}

// Date parses PubDate. A missing or malformed date is the zero time.
func (m *Manifest) Date() time.Time {
	t, err := time.Parse(time.RFC3339, m.PubDate)
	if err != nil {
		return time.Time{}
	}
	return t
}

// newerThan reports whether the manifest version is greater than current.
// A current version that is not semver (a dev build) is always older.
func (m *Manifest) newerThan(current string) bool {
	remote, _ := version.Canonical(m.Version)
	cur, ok := version.Canonical(current)
	if !ok {
		return true
	}
	return semver.Compare(remote, cur) > 0
}
