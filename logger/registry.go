package logger

import "sync"

// components holds the per-component loggers handed out by Get.
var components sync.Map // name -> *Logger

// Register makes l the logger returned by Get(name).
func Register(name string, l *Logger) {
	components.Store(name, l)
}

// Get returns the logger registered under name. Unknown names get the
// current global logger tagged with the component; the result is not cached,
// so a later Init is still picked up.
func Get(name string) *Logger {
	if l, ok := components.Load(name); ok {
		return l.(*Logger)
	}
	return GetGlobalLogger().WithComponent(name)
}

// RegisterDefaults tags the global logger once per component name. Call it
// after Init so the components share the configured output and level.
func RegisterDefaults(names ...string) {
	global := GetGlobalLogger()
	for _, name := range names {
		Register(name, global.WithComponent(name))
	}
}
