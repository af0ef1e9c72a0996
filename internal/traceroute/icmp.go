// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"net"
)

// icmpListener reads ICMP messages from the network and delivers the
// ones matching the probe currently in flight.
//
//go:generate go tool moq -out icmp_moq.go . icmpListener
type icmpListener interface {
	// Listen runs the receive loop. It blocks until the listener is
	// closed or the context is canceled.
	Listen(ctx context.Context)
	// Expect announces the destination port of the next probe.
	// Messages carrying any other port are discarded, and a match
	// still buffered for an earlier port is dropped: ports are never
	// reused within a run, so buffered matches cannot be current.
	Expect(port int)
	// Matches returns the channel on which matching packets are
	// delivered. The channel buffers at most one packet.
	Matches() <-chan icmpPacket
	// Close stops the receive loop.
	Close() error
}

// icmpPacket represents a received ICMP packet that matched a probe.
type icmpPacket struct {
	// remoteAddr is the address of the device (typically a router)
	// that sent the ICMP message in response to our probe.
	remoteAddr net.Addr
	// port is the destination port parsed from the UDP header quoted
	// in the ICMP message.
	port int
	// reached indicates that the message came from the destination: a
	// Destination Unreachable with code [icmpUnreachablePort], sent
	// because nothing listens on the probed port.
	reached bool
}

// ICMP codes for Destination Unreachable messages.
// For more information, see:
// https://www.iana.org/assignments/icmp-parameters/icmp-parameters.xhtml#icmp-parameters-codes-3
const (
	// icmpUnreachablePort is the ICMP code for Destination Unreachable - "Port Unreachable" messages.
	icmpUnreachablePort = 3
)
