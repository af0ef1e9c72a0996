// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/telekom/tern/internal/tracing"
	"github.com/telekom/tern/internal/traceroute"
)

// The supported output formats.
const (
	// OutputText streams the classic traceroute lines while the trace
	// runs.
	OutputText = "text"
	// OutputJSON renders the report as one JSON document after the
	// trace finished.
	OutputJSON = "json"
	// OutputYAML renders the report as one YAML document after the
	// trace finished.
	OutputYAML = "yaml"
)

type Config struct {
	// Output is the format the report is rendered in
	Output string `yaml:"output" mapstructure:"output"`
	// Traceroute is the configuration for the trace itself
	Traceroute traceroute.Options `yaml:"traceroute" mapstructure:"traceroute"`
	// Telemetry is the configuration for the telemetry
	Telemetry tracing.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

// HasTelemetry returns true if the config has telemetry enabled
func (c *Config) HasTelemetry() bool {
	return c.Telemetry.Enabled
}

// Streaming returns true if the output format prints while the trace
// runs instead of rendering a document at the end.
func (c *Config) Streaming() bool {
	return c.Output == OutputText
}
