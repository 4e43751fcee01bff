// Package platform resolves the two values that decide how the application
// is composed: the target Platform (desktop or mobile) and the build
// Profile (debug or release).
//
// Both are resolved once at startup. Everything downstream branches on them
// through Capabilities rather than through build tags, so each combination
// can be exercised in tests without recompiling:
//
//	caps := platform.Capabilities(platform.Current(), platform.BuildProfile())
//	if caps.Devtools {
//	    // open the inspector
//	}
package platform
