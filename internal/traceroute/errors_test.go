// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolutionError(t *testing.T) {
	inner := errors.New("no such host")
	err := &ResolutionError{Host: "unknown.example.com", Err: inner}

	assert.Equal(t, `cannot resolve "unknown.example.com": no such host`, err.Error())
	assert.ErrorIs(t, err, inner)

	var target *ResolutionError
	assert.ErrorAs(t, fmt.Errorf("wrapped: %w", err), &target)
	assert.Equal(t, "unknown.example.com", target.Host)
}

func TestResolutionError_NoIPv4(t *testing.T) {
	err := &ResolutionError{Host: "v6only.example.com"}
	assert.Equal(t, `cannot resolve "v6only.example.com": no IPv4 address`, err.Error())
	assert.NoError(t, err.Unwrap())
}

func TestPermissionError(t *testing.T) {
	inner := errors.New("operation not permitted")
	err := &PermissionError{Op: "failed to open raw ICMP socket", Err: inner}

	assert.Equal(t, "failed to open raw ICMP socket: operation not permitted (run as root or grant CAP_NET_RAW)", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestTransmitError(t *testing.T) {
	inner := errors.New("network is unreachable")
	err := &TransmitError{TTL: 4, Port: 33437, Err: inner}

	assert.Equal(t, "failed to send probe with ttl 4 to port 33437: network is unreachable", err.Error())
	assert.ErrorIs(t, err, inner)
}

func TestErrInvalidOptions(t *testing.T) {
	err := ErrInvalidOptions{Param: "maxHops", Reason: "must be between 1 and 255"}
	assert.Equal(t, `invalid option "maxHops": must be between 1 and 255`, err.Error())
}
