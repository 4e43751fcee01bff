package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform is the target family the binary runs on.
type Platform int

const (
	Desktop Platform = iota
	Mobile
)

// String returns the lowercase platform name.
func (p Platform) String() string {
	switch p {
	case Desktop:
		return "desktop"
	case Mobile:
		return "mobile"
	default:
		return fmt.Sprintf("platform(%d)", int(p))
	}
}

// Current returns the platform of the running binary.
func Current() Platform {
	return ForGOOS(runtime.GOOS)
}

// ForGOOS maps a GOOS value to a platform. Android and iOS are mobile,
// everything else is desktop.
func ForGOOS(goos string) Platform {
	switch goos {
	case "android", "ios":
		return Mobile
	default:
		return Desktop
	}
}

// ParsePlatform parses "desktop" or "mobile".
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "desktop":
		return Desktop, nil
	case "mobile":
		return Mobile, nil
	default:
		return Desktop, fmt.Errorf("unknown platform %q", s)
	}
}

// Profile is the build profile the binary was compiled with.
type Profile int

const (
	Debug Profile = iota
	Release
)

// String returns the lowercase profile name.
func (p Profile) String() string {
	switch p {
	case Debug:
		return "debug"
	case Release:
		return "release"
	default:
		return fmt.Sprintf("profile(%d)", int(p))
	}
}

// BuildProfile returns the profile fixed at compile time by the
// "release" build tag.
func BuildProfile() Profile {
	return buildProfile
}

// ParseProfile parses "debug" or "release".
func ParseProfile(s string) (Profile, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug, nil
	case "release":
		return Release, nil
	default:
		return Debug, fmt.Errorf("unknown profile %q", s)
	}
}
