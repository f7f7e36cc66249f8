package utils

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		build     func(bool) (*zap.Logger, error)
		debug     bool
		wantDebug bool
		wantInfo  bool
	}{
		{"serve debug", NewLogger, true, true, true},
		{"serve production", NewLogger, false, false, true},
		{"command debug", NewCommandLogger, true, true, true},
		{"command quiet", NewCommandLogger, false, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := tt.build(tt.debug)
			if err != nil {
				t.Fatalf("build error: %v", err)
			}
			defer func() { _ = logger.Sync() }()
			core := logger.Core()
			if got := core.Enabled(zapcore.DebugLevel); got != tt.wantDebug {
				t.Errorf("debug enabled = %v, want %v", got, tt.wantDebug)
			}
			if got := core.Enabled(zapcore.InfoLevel); got != tt.wantInfo {
				t.Errorf("info enabled = %v, want %v", got, tt.wantInfo)
			}
			if !core.Enabled(zapcore.WarnLevel) {
				t.Error("warn should always be enabled")
			}
		})
	}
}
