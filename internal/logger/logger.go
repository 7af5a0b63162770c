// Package logger holds the process-wide structured logger.
//
// Libraries take a *zap.Logger through their options and fall back to
// Named(...) from this package, which is a no-op until Initialize is called
// by the CLI.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names.
const (
	FieldComponent  = "component"
	FieldModule     = "module"
	FieldMethod     = "method"
	FieldSignal     = "signal"
	FieldFile       = "file"
	FieldStatus     = "status"
	FieldMode       = "mode"
	FieldCount      = "count"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
)

// Logger is the global sugared logger. Nop by default.
var Logger = zap.NewNop().Sugar()

var base = zap.NewNop()

// Initialize installs the global logger.
// verbosity 0 logs warnings and above, 1 info, 2 or more debug.
func Initialize(verbosity int, jsonOutput bool) error {
	var cfg zap.Config
	if jsonOutput {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.DisableStacktrace = true
	}
	cfg.Level = zap.NewAtomicLevelAt(levelFor(verbosity))

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	base = l
	Logger = l.Sugar()
	return nil
}

// Named returns a component logger.
func Named(component string) *zap.Logger {
	return base.Named(component).With(zap.String(FieldComponent, component))
}

// Sync flushes buffered log entries.
func Sync() {
	_ = base.Sync()
}

func levelFor(verbosity int) zapcore.Level {
	switch {
	case verbosity <= 0:
		return zapcore.WarnLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
