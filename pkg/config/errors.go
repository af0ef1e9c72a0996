// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package config

import "errors"

var (
	// ErrInvalidOutputFormat is returned when the output format is unknown
	ErrInvalidOutputFormat = errors.New("invalid output format")
)
