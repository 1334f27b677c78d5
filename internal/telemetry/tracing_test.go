package telemetry

import (
	"context"
	"testing"

	"github.com/kube-rca/auth-gateway/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestSetupNoopWhenDisabled(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.TelemetryConfig
	}{
		{name: "disabled", cfg: config.TelemetryConfig{Enabled: false, Endpoint: "http://localhost:4318"}},
		{name: "no-endpoint", cfg: config.TelemetryConfig{Enabled: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tp, shutdown, err := Setup(context.Background(), tt.cfg)
			require.NoError(t, err)
			assert.IsType(t, noop.TracerProvider{}, tp)
			assert.NoError(t, shutdown(context.Background()))
		})
	}
}

func TestSetupCreatesProvider(t *testing.T) {
	// Non-routable address so nothing is exported.
	tp, shutdown, err := Setup(context.Background(), config.TelemetryConfig{
		Enabled:     true,
		Endpoint:    "http://192.0.2.1:4318",
		ServiceName: "auth-gateway-test",
	})
	require.NoError(t, err)
	assert.IsType(t, &sdktrace.TracerProvider{}, tp)
	assert.NoError(t, shutdown(context.Background()))
}
