// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/telekom/tern/test"
)

func TestManager_Init(t *testing.T) {
	test.MarkAsShort(t)

	tests := []struct {
		name    string
		config  Config
		wantSDK bool
		wantErr bool
	}{
		{
			name:   "disabled leaves the global provider alone",
			config: Config{},
		},
		{
			name:    "enabled without exporter defaults to stdout",
			config:  Config{Enabled: true},
			wantSDK: true,
		},
		{
			name:    "stdout exporter",
			config:  Config{Enabled: true, Exporter: STDOUT},
			wantSDK: true,
		},
		{
			name:    "otlp exporter via http",
			config:  Config{Enabled: true, Exporter: HTTP, Url: "localhost:4318"},
			wantSDK: true,
		},
		{
			name:    "otlp exporter via grpc with token",
			config:  Config{Enabled: true, Exporter: GRPC, Url: "localhost:4317", Token: "my-super-secret-token"},
			wantSDK: true,
		},
		{
			name:    "noop exporter",
			config:  Config{Enabled: true, Exporter: NOOP},
			wantSDK: true,
		},
		{
			name:    "unsupported exporter",
			config:  Config{Enabled: true, Exporter: "unsupported"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prev := otel.GetTracerProvider()
			defer otel.SetTracerProvider(prev)

			m := New(tt.config, "0.0.1-test")
			err := m.Init(t.Context())
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
			assert.Equal(t, tt.wantSDK, ok)

			require.NoError(t, m.Shutdown(t.Context()))
		})
	}
}

func TestManager_Shutdown_BeforeInit(t *testing.T) {
	test.MarkAsShort(t)

	m := New(Config{Enabled: true}, "0.0.1-test")
	assert.NoError(t, m.Shutdown(t.Context()), "shutdown without init must be a no-op")
}
