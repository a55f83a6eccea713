// Package logging wires a single process-wide zap logger. Unlike the
// teacher's logger package, this one always writes to stderr: the process
// speaks MCP over stdio, so stdout is the protocol wire and must never
// receive a stray log line.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names, mirroring the constant-field convention the
// teacher uses so every log line shares vocabulary instead of ad-hoc keys.
const (
	FieldSession      = "session"
	FieldHost         = "host"
	FieldPort         = "port"
	FieldThreadID     = "thread_id"
	FieldFrameIndex   = "frame_index"
	FieldObjectID     = "object_id"
	FieldClassName    = "class_name"
	FieldBreakpointID = "breakpoint_id"
	FieldWatcherID    = "watcher_id"
	FieldExpression   = "expression"
	FieldOperation    = "operation"
	FieldDurationMS   = "duration_ms"
	FieldError        = "error"
)

// Logger is the global sugared logger. Safe to use before Initialize: it
// starts as a no-op sink so early package-level code never panics.
var Logger = zap.NewNop().Sugar()

// Initialize replaces Logger with a real stderr-backed logger. verbose
// lowers the level to Debug; otherwise Info is the floor.
func Initialize(verbose bool) error {
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderCfg),
		zapcore.Lock(zapcore.AddSync(os.Stderr)),
		level,
	)

	Logger = zap.New(core).Sugar()
	return nil
}

// Cleanup flushes any buffered log entries. Sync errors against stderr are
// common and ignorable on some platforms; callers may ignore the result.
func Cleanup() error {
	if Logger != nil {
		return Logger.Sync()
	}
	return nil
}
