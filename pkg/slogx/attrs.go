// Package slogx carries small helpers for structured logging attributes.
package slogx

import (
	"fmt"
	"log/slog"
)

// Error returns a slog.Attr for an error under the conventional "error" key.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Stringer returns a slog.Attr holding the string form of a fmt.Stringer.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// KeyLoggerName is the attribute key identifying a logger by name.
const KeyLoggerName = "logger"

// LoggerName returns the attribute identifying a named logger.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}
