package logger

import (
	"testing"

	"github.com/kube-rca/auth-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		cfg    config.LogConfig
		expect zapcore.Level
	}{
		{name: "json-info", cfg: config.LogConfig{Level: "info", Format: "json"}, expect: zapcore.InfoLevel},
		{name: "console-debug", cfg: config.LogConfig{Level: "debug", Format: "console"}, expect: zapcore.DebugLevel},
		{name: "warn-padded", cfg: config.LogConfig{Level: " warn ", Format: ""}, expect: zapcore.WarnLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, log.Core().Enabled(tt.expect))
			assert.False(t, log.Core().Enabled(tt.expect-1))
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(config.LogConfig{Level: "loud"})
	assert.ErrorContains(t, err, "LOG_LEVEL")
}
