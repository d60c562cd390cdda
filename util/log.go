// Package util holds logging helpers shared by the planner packages.
package util

import (
	"context"
	"log/slog"
)

// LevelTrace is the level of planner decision traces.
const LevelTrace slog.Level = slog.LevelInfo + 1

// Trace logs a message at LevelTrace.
func Trace(msg string, args ...any) {
	slog.Log(context.Background(), LevelTrace, msg, args...)
}

// TraceIf logs at LevelTrace only when enabled is set.
func TraceIf(enabled bool, msg string, args ...any) {
	if !enabled {
		return
	}

	Trace(msg, args...)
}
