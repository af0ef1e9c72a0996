// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"context"
	"net"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/telekom/tern/internal/logger"
)

const (
	// reverseLookupTimeout bounds a single reverse DNS lookup. Names
	// are cosmetic and must not stall the trace.
	reverseLookupTimeout = time.Second
	// reverseCacheTTL is how long reverse lookup results, including
	// misses, stay cached. A run rarely outlives this.
	reverseCacheTTL = time.Minute
)

// Resolver performs the DNS lookups of a traceroute run.
// It is implemented by [net.Resolver].
//
//go:generate go tool moq -out resolver_moq.go . Resolver
type Resolver interface {
	// LookupIPAddr looks up host and returns its IP addresses.
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	// LookupAddr performs a reverse lookup for the given address,
	// returning the names mapping to it.
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// resolver resolves the destination and, when enabled, the names of
// responding hops. Reverse results are cached because the same router
// tends to answer several probes of a run. The cache expires lazily on
// access; a short-lived process has no use for a janitor goroutine.
type resolver struct {
	r     Resolver
	cache *ttlcache.Cache[string, string]
}

func newResolver(r Resolver) *resolver {
	return &resolver{
		r: r,
		cache: ttlcache.New[string, string](
			ttlcache.WithTTL[string, string](reverseCacheTTL),
		),
	}
}

// resolve turns host into the [Destination] to probe. IP literals pass
// through without a DNS query. Host names resolve to their first IPv4
// address; a trace targets exactly one address even if the name maps
// to several. A host without an IPv4 address is a [ResolutionError]
// because probes are IPv4 only.
func (r *resolver) resolve(ctx context.Context, host string) (Destination, error) {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return Destination{Host: host, Addr: v4}, nil
		}
		return Destination{}, &ResolutionError{Host: host}
	}

	addrs, err := r.r.LookupIPAddr(ctx, host)
	if err != nil {
		return Destination{}, &ResolutionError{Host: host, Err: err}
	}
	for _, addr := range addrs {
		if v4 := addr.IP.To4(); v4 != nil {
			return Destination{Host: host, Addr: v4}, nil
		}
	}
	return Destination{}, &ResolutionError{Host: host}
}

// reverseLookup returns a symbolic name for ip, or "" if there is none
// or the lookup does not finish within [reverseLookupTimeout]. It
// never returns an error; a missing name only changes how the hop
// prints.
func (r *resolver) reverseLookup(ctx context.Context, ip string) string {
	if item := r.cache.Get(ip); item != nil {
		return item.Value()
	}

	ctx, cancel := context.WithTimeout(ctx, reverseLookupTimeout)
	defer cancel()

	name := ""
	names, err := r.r.LookupAddr(ctx, ip)
	switch {
	case err != nil:
		logger.FromContext(ctx).DebugContext(ctx, "Reverse lookup failed", "addr", ip, "error", err)
	case len(names) > 0:
		name = strings.TrimSuffix(names[0], ".")
	}

	r.cache.Set(ip, name, ttlcache.DefaultTTL)
	return name
}
