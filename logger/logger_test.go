package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"trade-journal/config"
)

func TestNewLogger(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     config.Logger
		wantErr bool
		enabled zapcore.Level
	}{
		{name: "json info", cfg: config.Logger{Level: "info", Format: "json"}, enabled: zapcore.InfoLevel},
		{name: "console debug", cfg: config.Logger{Level: "debug", Format: "console"}, enabled: zapcore.DebugLevel},
		{name: "bad level", cfg: config.Logger{Level: "loud", Format: "json"}, wantErr: true},
		{name: "bad format", cfg: config.Logger{Level: "info", Format: "xml"}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			log, err := NewLogger(tc.cfg)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tc.enabled))
			assert.False(t, log.Core().Enabled(tc.enabled-1))
		})
	}
}
