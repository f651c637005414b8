// Package cpblog builds the single structured logger shared by the
// ingestion pipeline, the HTTP boundary and the CLI.
package cpblog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger. debug selects a human-readable,
// colorized development encoder (for the interactive shell); the
// production encoder (one JSON object per log line) is used
// otherwise; both use ISO8601 timestamps, matching the server's expectation
// of machine-parseable log lines.
func New(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

// Nop returns a logger that discards everything, used by tests and
// call sites that have not been handed a real logger.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
