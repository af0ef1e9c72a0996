// Package traceroute implements a classic UDP traceroute.
//
// It sends UDP datagrams with increasing TTL values toward a destination
// and listens on a raw ICMP socket for the error messages routers send
// back: time-exceeded from intermediate hops and port-unreachable from
// the destination itself. Every probe carries a unique destination port
// that reappears in the quoted datagram of the ICMP error, which is how
// responses are matched to probes.
//
// Probing is strictly sequential. A single probe is in flight at any
// time, each hop is probed a configurable number of times, and a probe
// without a matching response within the timeout is reported as lost
// ("*").
//
// Key features:
//   - Per-probe IP_TTL control via x/sys/unix on a fresh UDP socket (no
//     external traceroute binary required)
//   - A continuously running raw-socket ICMP listener correlating
//     responses by the embedded UDP destination port
//   - Classic line-oriented output with latency grouping, streamed as
//     results arrive
//   - Optional reverse DNS lookups, bounded and cached per run
//   - Built-in OpenTelemetry spans and events for tracing each hop and
//     errors
//   - Fully mockable internals (icmpListener, Resolver, Client) for unit
//     testing
//
// Typical usage:
//
//	client, err := traceroute.New(traceroute.DefaultOptions(), os.Stdout)
//	report, err := client.Run(ctx, "dns.google")
//	// the classic text output has streamed to os.Stdout; report holds
//	// every probe result for machine-readable rendering
//
// Creating the raw ICMP socket requires root privileges or the
// CAP_NET_RAW capability; Run fails with a [PermissionError] before any
// probe is sent when neither is available.
package traceroute
