package log

import "sync"

var (
	mu  sync.RWMutex
	std *Logger
)

// SetDefaultLogger installs the logger used by the package level helpers
func SetDefaultLogger(logger *Logger) {
	mu.Lock()
	std = logger
	mu.Unlock()
}

// DefaultLogger returns the currently installed default logger, or nil when
// none has been set
func DefaultLogger() *Logger {
	mu.RLock()
	defer mu.RUnlock()
	return std
}

// Debug logs through the default logger at debug level.  A no-op until
// SetDefaultLogger has been called.
func Debug(msg string, args ...any) {
	if l := DefaultLogger(); l != nil {
		l.Debug(msg, args...)
	}
}

// Info logs through the default logger at info level
func Info(msg string, args ...any) {
	if l := DefaultLogger(); l != nil {
		l.Info(msg, args...)
	}
}

// Warn logs through the default logger at warn level
func Warn(msg string, args ...any) {
	if l := DefaultLogger(); l != nil {
		l.Warn(msg, args...)
	}
}

// Error logs through the default logger at error level
func Error(msg string, args ...any) {
	if l := DefaultLogger(); l != nil {
		l.Error(msg, args...)
	}
}

// Trace logs at debug level with a TRACE prefix, and only when the logger
// was configured with the pseudo trace level.  slog has no trace level of
// its own.
func Trace(msg string, args ...any) {
	if l := DefaultLogger(); l != nil && l.traceEnabled {
		l.Debug("TRACE: "+msg, args...)
	}
}
