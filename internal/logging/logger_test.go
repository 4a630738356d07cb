package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		debug bool
		level zapcore.Level
		want  bool
	}{
		{debug: false, level: zapcore.DebugLevel, want: false},
		{debug: false, level: zapcore.WarnLevel, want: true},
		{debug: true, level: zapcore.DebugLevel, want: true},
	}

	for _, tt := range tests {
		logger := New(tt.debug)
		if got := logger.Core().Enabled(tt.level); got != tt.want {
			t.Errorf("New(%v).Enabled(%s) = %v, want %v", tt.debug, tt.level, got, tt.want)
		}
	}
}
