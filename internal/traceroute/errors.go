// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"fmt"
)

// ResolutionError is returned when the destination cannot be resolved
// to an IPv4 address. No probe is sent in this case.
type ResolutionError struct {
	// Host is the destination as given by the caller.
	Host string
	// Err is the underlying resolver error, if any.
	Err error
}

func (e *ResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot resolve %q: %v", e.Host, e.Err)
	}
	return fmt.Sprintf("cannot resolve %q: no IPv4 address", e.Host)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// PermissionError is returned when the raw ICMP socket cannot be
// created. Reading the ICMP responses of a traceroute requires root
// privileges or the CAP_NET_RAW capability. No probe is sent in this
// case.
type PermissionError struct {
	// Op is the operation that was denied.
	Op string
	// Err is the underlying socket error.
	Err error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("%s: %v (run as root or grant CAP_NET_RAW)", e.Op, e.Err)
}

func (e *PermissionError) Unwrap() error { return e.Err }

// TransmitError reports a probe that could not be sent. It is not
// fatal: the attempt is recorded as lost and the trace continues.
type TransmitError struct {
	// TTL is the hop the probe was meant for.
	TTL int
	// Port is the destination port the probe would have carried.
	Port int
	// Err is the underlying dial or write error.
	Err error
}

func (e *TransmitError) Error() string {
	return fmt.Sprintf("failed to send probe with ttl %d to port %d: %v", e.TTL, e.Port, e.Err)
}

func (e *TransmitError) Unwrap() error { return e.Err }

// ErrInvalidOptions is returned when the traceroute options fail
// validation. Validate joins one of these per offending parameter.
type ErrInvalidOptions struct {
	// Param is the name of the offending parameter.
	Param string
	// Reason explains why the value is not acceptable.
	Reason string
}

func (e ErrInvalidOptions) Error() string {
	return fmt.Sprintf("invalid option %q: %s", e.Param, e.Reason)
}
