package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"golang.org/x/mod/semver"

	"github.com/lumison/lumison/platform"
)

var (
	// These variables are set at build time using -ldflags
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info represents version information.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	BuildTime string    `json:"build_time,omitempty"`
	BuildDate time.Time `json:"build_date"`
	GoVersion string    `json:"go_version"`
	Target    string    `json:"target"`
	Profile   string    `json:"profile"`
	IsRelease bool      `json:"is_release"`
	IsDirty   bool      `json:"is_dirty"`
}

// GetVersionInfo returns version information merged from ldflags and the
// module build info.
func GetVersionInfo() *Info {
	info := &Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildTime: BuildTime,
		GoVersion: runtime.Version(),
		Target:    Target(),
		Profile:   platform.BuildProfile().String(),
	}
	_, info.IsRelease = Semver()

	if BuildTime != "" {
		if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
			info.BuildDate = t
		}
	}

	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			switch setting.Key {
			case "vcs.revision":
				if info.GitCommit == "" {
					info.GitCommit = setting.Value
				}
			case "vcs.modified":
				info.IsDirty = setting.Value == "true"
			case "vcs.time":
				if info.BuildDate.IsZero() {
					if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
						info.BuildDate = t
						info.BuildTime = setting.Value
					}
				}
			}
		}
	}
	if len(info.GitCommit) > 7 {
		info.GitCommit = info.GitCommit[:7]
	}
	if info.IsDirty {
		info.IsRelease = false
	}

	return info
}

// Semver returns Version in canonical "vMAJOR.MINOR.PATCH" form. ok is
// false for development builds whose version is not valid semver.
func Semver() (v string, ok bool) {
	return Canonical(Version)
}

// Canonical normalizes a version string such as "1.2.0" or "v1.2" to
// canonical semver.
func Canonical(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if !strings.HasPrefix(s, "v") {
		s = "v" + s
	}
	if !semver.IsValid(s) {
		return "", false
	}
	return semver.Canonical(s), true
}

// Target is the "<os>-<arch>" key of the running binary, using the names
// release manifests use ("darwin", "linux", "windows"; "x86_64", "aarch64").
func Target() string {
	return TargetFor(runtime.GOOS, runtime.GOARCH)
}

// TargetFor builds the manifest target key for a GOOS/GOARCH pair.
func TargetFor(goos, goarch string) string {
	arch := goarch
	switch goarch {
	case "amd64":
		arch = "x86_64"
	case "arm64":
		arch = "aarch64"
	case "386":
		arch = "i686"
	case "arm":
		arch = "armv7"
	}
	return goos + "-" + arch
}

// GetShortVersion returns the version with the short commit appended.
func GetShortVersion() string {
	info := GetVersionInfo()
	if info.GitCommit != "" {
		if info.IsDirty {
			return fmt.Sprintf("%s-%s-dirty", info.Version, info.GitCommit)
		}
		return fmt.Sprintf("%s-%s", info.Version, info.GitCommit)
	}
	return info.Version
}

// GetFullVersion returns a detailed one-line version string for --version.
func GetFullVersion() string {
	info := GetVersionInfo()
	out := GetShortVersion() + " " + info.Target + " " + info.Profile
	if !info.BuildDate.IsZero() {
		out += fmt.Sprintf(" (built %s)", info.BuildDate.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return out
}
