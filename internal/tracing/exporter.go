// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracing

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"google.golang.org/grpc/credentials"
)

// Exporter is the backend the spans are shipped to.
type Exporter string

const (
	// STDOUT prints the spans to stderr
	STDOUT Exporter = "stdout"
	// GRPC exports the spans to an otlp collector via grpc
	GRPC Exporter = "grpc"
	// HTTP exports the spans to an otlp collector via http
	HTTP Exporter = "http"
	// NOOP discards the spans
	NOOP Exporter = "noop"
)

// exporters maps each known exporter to its factory. The empty
// exporter builds the stdout one, so enabling tracing needs no further
// configuration.
var exporters = map[Exporter]func(ctx context.Context, config *Config) (sdktrace.SpanExporter, error){
	STDOUT: newStdoutExporter,
	GRPC:   newGRPCExporter,
	HTTP:   newHTTPExporter,
	NOOP:   newNoopExporter,
	"":     newStdoutExporter,
}

// Validate checks if the exporter is one of the known backends
func (e Exporter) Validate() error {
	if _, ok := exporters[e]; !ok {
		return fmt.Errorf("unknown exporter %q", string(e))
	}
	return nil
}

// IsExporting returns true if the exporter ships the spans to a
// collector and therefore needs a url
func (e Exporter) IsExporting() bool {
	return e == GRPC || e == HTTP
}

// Create builds the span exporter the configuration selects
func (e Exporter) Create(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	create, ok := exporters[e]
	if !ok {
		return nil, fmt.Errorf("unknown exporter %q", string(e))
	}
	return create(ctx, config)
}

func newStdoutExporter(context.Context, *Config) (sdktrace.SpanExporter, error) {
	// Spans share stderr with the logs; stdout stays reserved for the
	// report.
	return stdouttrace.New(
		stdouttrace.WithWriter(os.Stderr),
		stdouttrace.WithPrettyPrint(),
	)
}

func newNoopExporter(context.Context, *Config) (sdktrace.SpanExporter, error) {
	return tracetest.NewNoopExporter(), nil
}

func newGRPCExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint(config.Url),
	}
	if headers := config.headers(); headers != nil {
		opts = append(opts, otlptracegrpc.WithHeaders(headers))
	}
	if config.TLS.Enabled {
		creds, err := credentials.NewClientTLSFromFile(config.TLS.CertPath, "")
		if err != nil {
			return nil, fmt.Errorf("failed to load tls certificate: %w", err)
		}
		opts = append(opts, otlptracegrpc.WithTLSCredentials(creds))
	} else {
		opts = append(opts, otlptracegrpc.WithInsecure())
	}
	return otlptracegrpc.New(ctx, opts...)
}

func newHTTPExporter(ctx context.Context, config *Config) (sdktrace.SpanExporter, error) {
	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(config.Url),
	}
	if headers := config.headers(); headers != nil {
		opts = append(opts, otlptracehttp.WithHeaders(headers))
	}
	if config.TLS.Enabled {
		conf, err := config.TLS.tlsConfig()
		if err != nil {
			return nil, err
		}
		opts = append(opts, otlptracehttp.WithTLSClientConfig(conf))
	} else {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return otlptracehttp.New(ctx, opts...)
}

// tlsConfig loads the custom certificate pool for the http exporter.
func (t *TLSConfig) tlsConfig() (*tls.Config, error) {
	pem, err := os.ReadFile(t.CertPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tls certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return nil, fmt.Errorf("failed to parse tls certificate %q", t.CertPath)
	}
	return &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
