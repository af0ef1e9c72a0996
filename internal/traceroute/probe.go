// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"net"
	"syscall"
	"time"

	"golang.org/x/sys/unix"
)

// probePayload is the single byte carried by every probe. A payload is
// needed to trigger the ICMP error response.
var probePayload = []byte{0}

// sendFunc transmits a single probe and returns the send timestamp.
// The timestamp carries a monotonic clock reading, so latencies from
// [time.Since] are immune to wall clock adjustments.
type sendFunc func(ctx context.Context, dest Destination, ttl, port int, timeout time.Duration) (time.Time, error)

// sendProbe sends one UDP datagram to the destination with the given
// TTL and destination port. The socket is dialed fresh for every probe
// so the TTL can be set without racing other probes, and closed right
// after the write; the ICMP response arrives on the shared raw
// listener, not here.
func sendProbe(ctx context.Context, dest Destination, ttl, port int, timeout time.Duration) (time.Time, error) {
	dialer := net.Dialer{
		Timeout: timeout,
		ControlContext: func(_ context.Context, _, _ string, c syscall.RawConn) error {
			var opErr error
			if err := c.Control(func(fd uintptr) {
				opErr = unix.SetsockoptInt(int(fd), unix.IPPROTO_IP, unix.IP_TTL, ttl) // #nosec G115
			}); err != nil {
				return err
			}
			return opErr
		},
	}

	addr := &net.UDPAddr{IP: dest.Addr, Port: port}
	conn, err := dialer.DialContext(ctx, "udp4", addr.String())
	if err != nil {
		return time.Time{}, &TransmitError{TTL: ttl, Port: port, Err: err}
	}
	defer func() { _ = conn.Close() }()

	sentAt := time.Now()
	if _, err := conn.Write(probePayload); err != nil {
		return time.Time{}, &TransmitError{TTL: ttl, Port: port, Err: err}
	}
	return sentAt, nil
}
