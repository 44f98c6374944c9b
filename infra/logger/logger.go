package logger

import corelogger "github.com/kilianp07/dubaieta/core/logger"

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger discards everything. Tests use it to keep output quiet.
type NopLogger = corelogger.NopLogger

// New returns a Logger tagged with the given component. APP_ENV=dev switches
// to human readable console output.
func New(component string) Logger {
	return NewZerologLogger(component)
}
