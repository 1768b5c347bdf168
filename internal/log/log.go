// Package log provides the structured logger used throughout picn. Every
// long-lived component (stores, the engine, faces, the session manager)
// identifies itself with a String() method; call sites pass that component
// as the first argument so every line is tagged with its origin, the way
// core.Log.Info(c, "msg", "k", v) tags log lines in the forwarder this
// package is modeled on.
package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

var base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelInfo,
}))

// SetLevel reconfigures the minimum level emitted by the package logger.
func SetLevel(level Level) {
	base = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(level),
	}))
}

func with(component fmt.Stringer, args []any) []any {
	return append([]any{"module", component.String()}, args...)
}

// Trace logs at trace level, tagged with the originating component.
func Trace(component fmt.Stringer, msg string, args ...any) {
	base.Log(context.Background(), slog.Level(LevelTrace), msg, with(component, args)...)
}

// Debug logs at debug level, tagged with the originating component.
func Debug(component fmt.Stringer, msg string, args ...any) {
	base.Debug(msg, with(component, args)...)
}

// Info logs at info level, tagged with the originating component.
func Info(component fmt.Stringer, msg string, args ...any) {
	base.Info(msg, with(component, args)...)
}

// Warn logs at warn level, tagged with the originating component.
func Warn(component fmt.Stringer, msg string, args ...any) {
	base.Warn(msg, with(component, args)...)
}

// Error logs at error level, tagged with the originating component.
func Error(component fmt.Stringer, msg string, args ...any) {
	base.Error(msg, with(component, args)...)
}

// Fatal logs at error level and terminates the process. Reserved for
// conditions the node cannot continue past, such as a listening face that
// fails to bind at startup.
func Fatal(component fmt.Stringer, msg string, args ...any) {
	base.Error(msg, with(component, args)...)
	os.Exit(1)
}
