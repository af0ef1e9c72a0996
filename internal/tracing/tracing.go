// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/telekom/tern/internal/logger"
)

var _ Provider = (*manager)(nil)

// Provider manages the lifecycle of the OpenTelemetry tracing setup.
//
//go:generate go tool moq -out tracing_moq.go . Provider
type Provider interface {
	// Init initializes the OpenTelemetry tracing.
	Init(ctx context.Context) error
	// Shutdown flushes buffered spans and stops the export.
	Shutdown(ctx context.Context) error
}

type manager struct {
	config  Config
	version string
	tp      *sdktrace.TracerProvider
}

// New creates a tracing [Provider]. With tracing disabled both methods
// are no-ops and the global tracer provider stays untouched, so all
// spans in the trace path collapse to noops.
func New(config Config, version string) Provider {
	return &manager{config: config, version: version}
}

// Init installs a global tracer provider with the configured exporter.
func (m *manager) Init(ctx context.Context) error {
	if !m.config.Enabled {
		return nil
	}
	log := logger.FromContext(ctx)

	res, err := resource.New(ctx,
		resource.WithHost(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String("tern"),
			semconv.ServiceVersionKey.String(m.version),
		),
	)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create resource", "error", err)
		return fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := m.config.Exporter.Create(ctx, &m.config)
	if err != nil {
		log.ErrorContext(ctx, "Failed to create exporter", "error", err)
		return fmt.Errorf("failed to create exporter: %w", err)
	}

	// A short batch timeout; a trace run lives for seconds, not minutes.
	const (
		batchTimeout = time.Second
		maxQueueSize = 1000
		maxBatchSize = 100
	)
	bsp := sdktrace.NewBatchSpanProcessor(exporter,
		sdktrace.WithBatchTimeout(batchTimeout),
		sdktrace.WithMaxQueueSize(maxQueueSize),
		sdktrace.WithMaxExportBatchSize(maxBatchSize),
	)
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithSpanProcessor(bsp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	m.tp = tp
	log.DebugContext(ctx, "Tracing initialized", "exporter", m.config.Exporter)
	return nil
}

// Shutdown flushes and stops the tracer provider set up by Init.
func (m *manager) Shutdown(ctx context.Context) error {
	if m.tp == nil {
		return nil
	}
	log := logger.FromContext(ctx)
	if err := m.tp.Shutdown(ctx); err != nil {
		log.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
		return fmt.Errorf("failed to shutdown tracer provider: %w", err)
	}
	log.DebugContext(ctx, "Tracing shutdown")
	return nil
}
