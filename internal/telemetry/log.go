package telemetry

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ConfigureZapLogger builds a *zap.Logger for the given level string
// ("debug", "info", "warn", "error"; anything else defaults to info).
// Development mode is on by default.
func ConfigureZapLogger(logLevel string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevelFromString(logLevel))

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("telemetry: build zap logger: %w", err)
	}
	return logger, nil
}

func zapLevelFromString(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
