package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level   string
		enabled zapcore.Level
		hidden  zapcore.Level
	}{
		{level: "debug", enabled: zapcore.DebugLevel},
		{level: "info", enabled: zapcore.InfoLevel, hidden: zapcore.DebugLevel},
		{level: "warn", enabled: zapcore.WarnLevel, hidden: zapcore.InfoLevel},
		{level: "bogus", enabled: zapcore.InfoLevel, hidden: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log, err := New(tt.level)
			require.NoError(t, err)

			assert.True(t, log.Core().Enabled(tt.enabled))
			if tt.enabled != zapcore.DebugLevel {
				assert.False(t, log.Core().Enabled(tt.hidden))
			}
		})
	}
}
