// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"fmt"
	"time"
)

// The classic traceroute output. Everything here is pure: the same
// inputs always produce the same fragment, and nothing touches the
// network, the clock, or the report.

// formatHeader renders the line announcing the trace.
func formatHeader(dest Destination, maxTTL int) string {
	return fmt.Sprintf("traceroute to %s (%s), %d hops max\n", dest.Host, dest.Addr, maxTTL)
}

// formatAttempt renders the output fragment for a single probe result.
// prevAddr is the address of the last responder within the same hop,
// or "" if none answered yet. The first attempt of a hop opens the
// line with the hop number. A responder equal to prevAddr contributes
// only its latency; a different one prints its address, on an indented
// continuation line when the hop already named a responder. Lost
// probes print as "*". The newline ending a hop's line is not emitted
// here; only the caller knows when a hop is complete.
func formatAttempt(prevAddr string, h Hop) string {
	var frag string
	if h.Attempt == 1 {
		frag = fmt.Sprintf("%2d ", h.TTL)
	}

	if h.Lost() {
		return frag + " *"
	}

	if h.Addr != prevAddr {
		if h.Attempt > 1 && prevAddr != "" {
			frag += "\n   "
		}
		if h.Name != "" {
			frag += fmt.Sprintf(" %s (%s)", h.Name, h.Addr)
		} else {
			frag += " " + h.Addr
		}
	}

	return frag + "  " + formatLatency(h.Latency)
}

// formatLatency renders a round trip time the way traceroute prints
// it: milliseconds with three decimals.
func formatLatency(d time.Duration) string {
	return fmt.Sprintf("%.3f ms", float64(d)/float64(time.Millisecond))
}
