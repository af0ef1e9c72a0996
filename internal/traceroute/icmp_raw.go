// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/sys/unix"

	"github.com/telekom/tern/internal/logger"
)

const (
	// mtuSize is the size of the receive buffer, large enough for any
	// ICMP error including the quoted original datagram.
	mtuSize = 1500
	// pollInterval bounds how long a single read blocks, so the
	// receive loop notices cancellation even on a silent network.
	pollInterval = 500 * time.Millisecond
	// udpHeaderLen is the length of a UDP header. ICMP errors quote at
	// least this much of the offending datagram after its IP header.
	udpHeaderLen = 8
)

// rawListener reads ICMP messages from a raw socket shared by all
// probes of a run. It requires NET_RAW capabilities to be created.
type rawListener struct {
	// conn is the ICMP packet connection used to listen for ICMP messages.
	conn *icmp.PacketConn
	// want is the destination port of the probe currently in flight.
	want atomic.Int64
	// matches receives the packets whose quoted port equals want.
	matches chan icmpPacket
}

// newRawListener opens the shared raw ICMP socket. Without NET_RAW
// capabilities this fails with a [PermissionError]; the caller is
// expected to give up before sending any probe.
func newRawListener() (icmpListener, error) {
	conn, err := icmp.ListenPacket("ip4:icmp", "0.0.0.0")
	if err != nil {
		if errors.Is(err, unix.EPERM) || errors.Is(err, unix.EACCES) {
			return nil, &PermissionError{Op: "failed to open raw ICMP socket", Err: err}
		}
		return nil, fmt.Errorf("failed to create ICMP listener: %w", err)
	}
	return &rawListener{conn: conn, matches: make(chan icmpPacket, 1)}, nil
}

// Listen receives ICMP messages until the listener is closed or the
// context is canceled. Messages that do not belong to the probe
// announced via [rawListener.Expect] are discarded.
func (l *rawListener) Listen(ctx context.Context) {
	log := logger.FromContext(ctx)

	buf := make([]byte, mtuSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := l.conn.SetReadDeadline(time.Now().Add(pollInterval)); err != nil {
			log.ErrorContext(ctx, "Failed to set read deadline on ICMP socket", "error", err)
			return
		}

		n, src, err := l.conn.ReadFrom(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			if errors.Is(err, net.ErrClosed) {
				return
			}
			log.ErrorContext(ctx, "Failed to read from ICMP socket", "error", err)
			continue
		}

		l.handle(ctx, src, buf[:n])
	}
}

// handle parses one received datagram and delivers it if it matches
// the expected port. Mismatches and foreign packets are dropped; a
// full match channel means the controller already got an answer for
// this probe, so further matches are dropped as well.
func (l *rawListener) handle(ctx context.Context, src net.Addr, b []byte) {
	log := logger.FromContext(ctx)

	pkt, err := parsePacket(src, b)
	if err != nil {
		log.DebugContext(ctx, "Ignoring ICMP message", "error", err)
		return
	}

	if want := int(l.want.Load()); pkt.port != want {
		log.DebugContext(ctx, "Received ICMP message for another port, ignoring",
			"expectedPort", want,
			"receivedPort", pkt.port)
		return
	}

	log.DebugContext(ctx, "Received matching ICMP packet",
		"routerAddr", pkt.remoteAddr,
		"port", pkt.port,
		"reached", pkt.reached,
	)

	select {
	case l.matches <- *pkt:
	default:
	}
}

// Expect announces the next probe's destination port and drops a match
// still buffered for a previous probe. Ports strictly increase over a
// run, so nothing drained here can belong to the new port.
func (l *rawListener) Expect(port int) {
	l.want.Store(int64(port))
	select {
	case <-l.matches:
	default:
	}
}

// Matches returns the channel carrying matched packets.
func (l *rawListener) Matches() <-chan icmpPacket {
	return l.matches
}

// parsePacket extracts the probe correlation data from a raw ICMP
// datagram. It returns an error for any message that cannot belong to
// a probe: unexpected ICMP type, quoted datagram not UDP, or quote too
// short to carry the ports.
func parsePacket(src net.Addr, b []byte) (*icmpPacket, error) {
	msg, err := icmp.ParseMessage(ipv4.ICMPTypeTimeExceeded.Protocol(), b)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ICMP message: %w", err)
	}

	// The ICMP error quotes the original datagram: its IP header
	// followed by at least the first eight bytes of the UDP header.
	var data []byte
	switch msg.Type {
	case ipv4.ICMPTypeTimeExceeded:
		data = msg.Body.(*icmp.TimeExceeded).Data
	case ipv4.ICMPTypeDestinationUnreachable:
		data = msg.Body.(*icmp.DstUnreach).Data
	default:
		return nil, fmt.Errorf("unexpected ICMP message type: %v", msg.Type)
	}

	hdr, err := icmp.ParseIPv4Header(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse quoted IP header: %w", err)
	}
	if hdr.Protocol != unix.IPPROTO_UDP {
		return nil, fmt.Errorf("quoted datagram is not UDP: protocol %d", hdr.Protocol)
	}
	if len(data) < hdr.Len+udpHeaderLen {
		return nil, fmt.Errorf("quoted datagram too short: %d bytes", len(data))
	}

	// Bytes 2..4 of the quoted UDP header are the destination port,
	// the value that identifies the probe.
	segment := data[hdr.Len:]
	port := int(binary.BigEndian.Uint16(segment[2:4]))
	unreachable := msg.Type == ipv4.ICMPTypeDestinationUnreachable

	return &icmpPacket{
		remoteAddr: src,
		port:       port,
		reached:    unreachable && msg.Code == icmpUnreachablePort,
	}, nil
}

// Close closes the raw socket, which also unblocks the receive loop.
func (l *rawListener) Close() error {
	return l.conn.Close()
}
