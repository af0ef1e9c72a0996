package traceroute

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/telekom/tern/internal/logger"
)

// hopper drives the sequential probe state machine: one probe in
// flight at a time, [Options.Queries] attempts per TTL, advancing one
// hop per TTL until the destination answers or [Options.MaxTTL] is
// exhausted.
type hopper struct {
	listener icmpListener
	send     sendFunc
	// reverse resolves responder names; nil when lookups are disabled.
	reverse func(ctx context.Context, ip string) string
	opts    Options
	out     io.Writer
	tracer  trace.Tracer

	state probeState
}

// probeState is the single mutable record of a trace. Only the hopper
// goroutine touches it.
type probeState struct {
	// ttl is the hop currently probed.
	ttl int
	// attempt numbers the probes of the current hop, starting at 1.
	attempt int
	// port is the destination port of the probe in flight. It
	// increments with every probe and is never reused.
	port int
	// prevAddr is the address of the last responder within the
	// current hop, used to fold repeat responders on the hop line.
	prevAddr string
	// sentAt is when the probe in flight was transmitted.
	sentAt time.Time
}

// run walks the TTL range until the destination is reached or the hop
// ceiling is exhausted. Results stream to the output writer as they
// arrive; the returned report holds every probe in send order. The
// error is non-nil only when the context is canceled.
func (h *hopper) run(ctx context.Context, dest Destination) (*Report, error) {
	rep := &Report{Target: dest.Host, Addr: dest.Addr.String()}
	h.state = probeState{ttl: h.opts.FirstTTL, port: h.opts.Port}

	for h.state.ttl <= h.opts.MaxTTL {
		reached, err := h.probeHop(ctx, dest, rep)
		if err != nil {
			return rep, err
		}
		if reached {
			rep.Reached = true
			return rep, nil
		}
		h.state.ttl++
	}

	logger.FromContext(ctx).DebugContext(ctx, "Gave up without reaching the destination",
		"maxHops", h.opts.MaxTTL)
	return rep, nil
}

// probeHop sends all attempts for the current TTL and streams their
// output fragments. It reports whether the destination answered on
// this hop. The flag is sticky: a port-unreachable on any attempt ends
// the trace only after the hop's remaining attempts ran, so the hop
// line is always complete.
func (h *hopper) probeHop(ctx context.Context, dest Destination, rep *Report) (reached bool, err error) {
	ctx, span := h.tracer.Start(ctx, fmt.Sprintf("hop %d", h.state.ttl), trace.WithAttributes(
		attribute.Stringer("traceroute.destination", dest),
		attribute.Int("traceroute.hop.ttl", h.state.ttl),
	))
	defer span.End()

	h.state.prevAddr = ""
	for h.state.attempt = 1; h.state.attempt <= h.opts.Queries; h.state.attempt++ {
		hop, perr := h.probe(ctx, dest)
		if perr != nil {
			return false, perr
		}

		rep.Hops = append(rep.Hops, hop)
		_, _ = io.WriteString(h.out, formatAttempt(h.state.prevAddr, hop))

		if !hop.Lost() {
			h.state.prevAddr = hop.Addr
		}
		if hop.Reached {
			reached = true
		}
		h.state.port++
	}
	_, _ = io.WriteString(h.out, "\n")

	return reached, nil
}

// probe executes one attempt: announce the port to the listener, send
// the probe, then wait for the matching reply or the timeout,
// whichever comes first. Replies for other ports never show up here;
// the listener discards them without touching the timer.
func (h *hopper) probe(ctx context.Context, dest Destination) (Hop, error) {
	log := logger.FromContext(ctx)
	span := trace.SpanFromContext(ctx)
	st := &h.state

	log.DebugContext(ctx, "Sending probe",
		"ttl", st.ttl,
		"attempt", st.attempt,
		"port", st.port,
	)

	h.listener.Expect(st.port)
	sentAt, err := h.send(ctx, dest, st.ttl, st.port, h.opts.Timeout)
	if err != nil {
		// A failed send still consumes the attempt and its port. There
		// is nothing to wait for, so the probe is reported lost right
		// away.
		log.WarnContext(ctx, "Failed to send probe", "error", err)
		span.RecordError(err)
		return Hop{Addr: lostAddr, TTL: st.ttl, Attempt: st.attempt}, nil
	}
	st.sentAt = sentAt

	timer := time.NewTimer(h.opts.Timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Hop{}, ctx.Err()

	case pkt := <-h.listener.Matches():
		hop := Hop{
			Latency: time.Since(st.sentAt),
			Addr:    addrString(pkt.remoteAddr),
			TTL:     st.ttl,
			Attempt: st.attempt,
			Reached: pkt.reached,
		}
		if h.reverse != nil {
			hop.Name = h.reverse(ctx, hop.Addr)
		}
		span.AddEvent("Probe answered", trace.WithAttributes(
			attribute.Bool("traceroute.hop.reached", hop.Reached),
			attribute.Stringer("traceroute.hop", hop),
		))
		return hop, nil

	case <-timer.C:
		log.DebugContext(ctx, "Probe timed out",
			"ttl", st.ttl,
			"attempt", st.attempt,
			"port", st.port,
		)
		span.AddEvent("Probe timed out", trace.WithAttributes(
			attribute.Int("traceroute.hop.port", st.port),
		))
		return Hop{
			Latency: time.Since(st.sentAt),
			Addr:    lostAddr,
			TTL:     st.ttl,
			Attempt: st.attempt,
		}, nil
	}
}
