// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telekom/tern/internal/tracing"
	"github.com/telekom/tern/internal/traceroute"
	"github.com/telekom/tern/test"
)

func TestConfig_Validate(t *testing.T) {
	test.MarkAsShort(t)

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name: "text output with default options",
			cfg:  Config{Output: OutputText, Traceroute: traceroute.DefaultOptions()},
		},
		{
			name: "json output",
			cfg:  Config{Output: OutputJSON, Traceroute: traceroute.DefaultOptions()},
		},
		{
			name: "yaml output",
			cfg:  Config{Output: OutputYAML, Traceroute: traceroute.DefaultOptions()},
		},
		{
			name:    "unknown output format",
			cfg:     Config{Output: "xml", Traceroute: traceroute.DefaultOptions()},
			wantErr: ErrInvalidOutputFormat,
		},
		{
			name:    "empty output format",
			cfg:     Config{Traceroute: traceroute.DefaultOptions()},
			wantErr: ErrInvalidOutputFormat,
		},
		{
			name: "telemetry with otlp exporter",
			cfg: Config{
				Output:     OutputText,
				Traceroute: traceroute.DefaultOptions(),
				Telemetry:  tracing.Config{Enabled: true, Exporter: tracing.GRPC, Url: "localhost:4317"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate(t.Context())
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConfig_Validate_TracerouteOptions(t *testing.T) {
	test.MarkAsShort(t)

	opts := traceroute.DefaultOptions()
	opts.Queries = 0

	cfg := Config{Output: OutputText, Traceroute: opts}
	err := cfg.Validate(t.Context())

	require.Error(t, err)
	var invalid traceroute.ErrInvalidOptions
	assert.ErrorAs(t, err, &invalid, "traceroute violations must surface through the config validation")
}

func TestConfig_Validate_Telemetry(t *testing.T) {
	test.MarkAsShort(t)

	cfg := Config{
		Output:     OutputText,
		Traceroute: traceroute.DefaultOptions(),
		Telemetry:  tracing.Config{Enabled: true, Exporter: tracing.HTTP},
	}
	err := cfg.Validate(t.Context())

	require.Error(t, err)
	assert.ErrorContains(t, err, "url is required")
}

func TestConfig_HasTelemetry(t *testing.T) {
	test.MarkAsShort(t)

	cfg := Config{}
	assert.False(t, cfg.HasTelemetry())
	cfg.Telemetry = tracing.Config{Enabled: true}
	assert.True(t, cfg.HasTelemetry())
}

func TestConfig_Streaming(t *testing.T) {
	test.MarkAsShort(t)

	assert.True(t, (&Config{Output: OutputText}).Streaming())
	assert.False(t, (&Config{Output: OutputJSON}).Streaming())
	assert.False(t, (&Config{Output: OutputYAML}).Streaming())
}
