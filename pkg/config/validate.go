// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/telekom/tern/internal/logger"
)

// Validate validates the startup config
func (c *Config) Validate(ctx context.Context) (err error) {
	log := logger.FromContext(ctx)

	switch c.Output {
	case OutputText, OutputJSON, OutputYAML:
	default:
		log.Error("The output format must be text, json, or yaml", "output", c.Output)
		err = errors.Join(err, ErrInvalidOutputFormat)
	}

	if vErr := c.Traceroute.Validate(); vErr != nil {
		log.Error("The traceroute configuration is invalid")
		err = errors.Join(err, vErr)
	}

	if vErr := c.Telemetry.Validate(ctx); vErr != nil {
		err = errors.Join(err, vErr)
	}

	if err != nil {
		return fmt.Errorf("validation of configuration failed: %w", err)
	}
	return nil
}
