// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"io"
	"net"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/telekom/tern/internal/helper"
	"github.com/telekom/tern/internal/logger"
)

var (
	_ Client   = (*udpClient)(nil)
	_ Resolver = (*net.Resolver)(nil)
)

// Client is able to run a traceroute to a destination.
//
//go:generate go tool moq -out client_moq.go . Client
type Client interface {
	// Run executes the traceroute. The classic text output streams to
	// the client's writer while the trace runs; the returned report
	// holds every probe result. The error is non-nil only when the
	// trace could not start or was canceled; an unreached destination
	// is reported through [Report.Reached], not as an error.
	Run(ctx context.Context, host string) (*Report, error)
}

// udpClient implements the traceroute with UDP probes and a shared
// raw-socket ICMP listener.
type udpClient struct {
	opts Options
	out  io.Writer
	// resolver performs the forward and reverse lookups.
	resolver *resolver
	// newListener abstracts the creation of the raw ICMP listener.
	newListener func() (icmpListener, error)
	// send abstracts the transmission of a single probe.
	send sendFunc
}

// New creates a traceroute [Client] with the given options. The
// classic text output streams to out while a trace runs; pass
// [io.Discard] to suppress it.
func New(opts Options, out io.Writer) (Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &udpClient{
		opts:        opts,
		out:         out,
		resolver:    newResolver(&net.Resolver{}),
		newListener: newRawListener,
		send:        sendProbe,
	}, nil
}

// Run resolves the destination, starts the ICMP listener, and drives
// the sequential prober across the TTL range.
func (c *udpClient) Run(ctx context.Context, host string) (*Report, error) {
	tracer := trace.SpanFromContext(ctx).TracerProvider().Tracer("traceroute.udpClient")
	ctx, span := tracer.Start(ctx, "Run", trace.WithAttributes(
		attribute.String("traceroute.destination.host", host),
		attribute.Int("traceroute.options.max_hops", c.opts.MaxTTL),
		attribute.Int("traceroute.options.queries", c.opts.Queries),
		attribute.Stringer("traceroute.options.timeout", c.opts.Timeout),
	))
	defer span.End()
	log := logger.FromContext(ctx)

	dest, err := c.resolveDestination(ctx, host)
	if err != nil {
		return nil, wrapError(ctx, err, "failed to resolve destination")
	}
	log.DebugContext(ctx, "Destination resolved", "host", dest.Host, "addr", dest.Addr.String())

	// The listener opens before any output so a missing NET_RAW
	// capability surfaces as the only thing the user sees.
	listener, err := c.newListener()
	if err != nil {
		return nil, wrapError(ctx, err, "failed to open ICMP listener")
	}
	defer func() { _ = listener.Close() }()
	go listener.Listen(ctx)

	_, _ = io.WriteString(c.out, formatHeader(dest, c.opts.MaxTTL))

	h := &hopper{
		listener: listener,
		send:     c.send,
		opts:     c.opts,
		out:      c.out,
		tracer:   tracer,
	}
	if c.opts.ResolveNames {
		h.reverse = c.resolver.reverseLookup
	}

	report, err := h.run(ctx, dest)
	if err != nil {
		return report, wrapError(ctx, err, "traceroute aborted")
	}

	logHops(ctx, report.Hops)
	return report, nil
}

// resolveDestination resolves host with the configured retry policy.
// With the default retry count of zero a resolution failure is final.
func (c *udpClient) resolveDestination(ctx context.Context, host string) (Destination, error) {
	var dest Destination
	retry := helper.Retry(func(ctx context.Context) error {
		var err error
		dest, err = c.resolver.resolve(ctx, host)
		return err
	}, c.opts.Retry)

	if err := retry(ctx); err != nil {
		return Destination{}, err
	}
	return dest, nil
}
