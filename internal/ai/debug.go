package ai

import "sync/atomic"

// debugLoggingEnabled gates per-tick debug logging for the AI
// subsystem. A package-level flag avoids a log-level check inside every
// state-machine update. Set once at startup from the configured log
// level.
var debugLoggingEnabled atomic.Bool

// EnableDebugLogging turns AI debug logging on or off. Call during
// initialization, before any machine starts ticking.
func EnableDebugLogging(enabled bool) {
	debugLoggingEnabled.Store(enabled)
}

// IsDebugEnabled reports whether AI debug logging is on. Guard
// expensive debug log calls with it:
//
//	if ai.IsDebugEnabled() {
//	    slog.Debug("spawn rejected", "reason", reason)
//	}
func IsDebugEnabled() bool {
	return debugLoggingEnabled.Load()
}
