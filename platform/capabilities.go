package platform

// Plugin names used in capability sets.
const (
	PluginUpdater = "updater"
	PluginProcess = "process"
)

// CapabilitySet is what a (Platform, Profile) pair enables.
type CapabilitySet struct {
	// Devtools reports whether the inspector is opened on the main window.
	Devtools bool
	// Plugins lists the plugins an entry point registers, in order.
	Plugins []string
}

// Has reports whether the named plugin is part of the set.
func (c CapabilitySet) Has(plugin string) bool {
	for _, p := range c.Plugins {
		if p == plugin {
			return true
		}
	}
	return false
}

type capabilityKey struct {
	platform Platform
	profile  Profile
}

var capabilityTable = map[capabilityKey]CapabilitySet{
	{Desktop, Debug}:   {Devtools: true, Plugins: []string{PluginUpdater, PluginProcess}},
	{Desktop, Release}: {Devtools: false, Plugins: []string{PluginUpdater, PluginProcess}},
	{Mobile, Debug}:    {Devtools: false},
	{Mobile, Release}:  {Devtools: false},
}

// Capabilities returns the capability set for a platform and profile.
// Unknown combinations get an empty set.
func Capabilities(p Platform, prof Profile) CapabilitySet {
	caps, ok := capabilityTable[capabilityKey{p, prof}]
	if !ok {
		return CapabilitySet{}
	}
	plugins := make([]string, len(caps.Plugins))
	copy(plugins, caps.Plugins)
	return CapabilitySet{Devtools: caps.Devtools, Plugins: plugins}
}
