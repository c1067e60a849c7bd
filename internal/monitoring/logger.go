// Package monitoring provides the shared diagnostic logging facade.
//
// All packages log through Logf/Debugf rather than calling the standard
// log package directly, so tests and embedding binaries can redirect or
// mute diagnostics without touching global log state.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// Debugf logs verbose diagnostics. It is a no-op unless EnableDebug is called.
var Debugf func(format string, v ...interface{}) = func(string, ...interface{}) {}

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// EnableDebug routes Debugf through the current Logf with a "debug:" prefix.
func EnableDebug() {
	Debugf = func(format string, v ...interface{}) {
		Logf("debug: "+format, v...)
	}
}

// DisableDebug restores Debugf to a no-op.
func DisableDebug() {
	Debugf = func(string, ...interface{}) {}
}
