// Package logger provides structured logging using zap.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates a logger from LOG_LEVEL / LOG_FORMAT / APP_ENV environment
// variables, defaulting to info-level JSON in production.
func New() (*zap.SugaredLogger, error) {
	return NewWithOptions(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT"), os.Getenv("APP_ENV") == "production")
}

// NewWithOptions creates a logger with an explicit level, format and mode.
func NewWithOptions(level, format string, production bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if production {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else if format == "json" {
		cfg.Encoding = "json"
	}

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// Nop returns a no-op logger for tests.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
