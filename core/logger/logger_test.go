package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		cfg    Config
		levels map[zapcore.Level]bool
	}{
		{"DebugConsole", Config{Level: "debug", Format: "console"}, map[zapcore.Level]bool{zapcore.DebugLevel: true}},
		{"InfoJSON", Config{Level: "info", Format: "json"}, map[zapcore.Level]bool{zapcore.DebugLevel: false, zapcore.InfoLevel: true}},
		{"WarnJSON", Config{Level: "warn", Format: "json"}, map[zapcore.Level]bool{zapcore.InfoLevel: false, zapcore.WarnLevel: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(&tt.cfg)
			require.NoError(t, err)
			for lvl, enabled := range tt.levels {
				assert.Equal(t, enabled, l.Core().Enabled(lvl), "level %s", lvl)
			}
		})
	}
}
