package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger returns the logger for long-running commands. In debug mode it is a
// console logger at debug level; otherwise JSON at info level with ISO8601 times.
// Both write to stderr so command output on stdout stays clean.
func NewLogger(debug bool) (*zap.Logger, error) {
	return newLogger(debug, zapcore.InfoLevel)
}

// NewCommandLogger returns the logger for one-shot CLI commands: like NewLogger,
// but only warnings and errors are shown unless debug is set.
func NewCommandLogger(debug bool) (*zap.Logger, error) {
	return newLogger(debug, zapcore.WarnLevel)
}

func newLogger(debug bool, level zapcore.Level) (*zap.Logger, error) {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(level)
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		cfg.Sampling = nil
	}
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}
