// Package logger defines the logging interface used across the engine. Core
// packages depend only on this interface; infra/logger provides the zerolog
// implementation.
package logger

// Logger is a minimal leveled logging interface.
type Logger interface {
	Debugf(format string, args ...any)
	Debugw(msg string, fields map[string]any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}
