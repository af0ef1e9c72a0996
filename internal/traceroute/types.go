// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package traceroute

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/telekom/tern/internal/helper"
)

// Default values for [Options].
const (
	// DefaultFirstTTL is the TTL of the first probed hop.
	DefaultFirstTTL = 1
	// DefaultMaxTTL is the highest TTL probed before giving up.
	DefaultMaxTTL = 30
	// DefaultQueries is the number of probes sent per hop.
	DefaultQueries = 3
	// DefaultTimeout is how long a probe waits for a matching response.
	DefaultTimeout = 3 * time.Second
	// DefaultPort is the destination port of the first probe, the
	// traditional traceroute base port. The port increments with every
	// probe, which is what makes responses attributable.
	DefaultPort = 33434
)

// maxPort is the highest usable UDP destination port.
const maxPort = 65535

// Options contains the configuration for a traceroute run.
type Options struct {
	// Retry is the retry configuration for resolving the destination.
	// Probes are never retried; a lost probe is part of the result.
	Retry helper.RetryConfig `json:"retry" yaml:"retry" mapstructure:"retry"`
	// FirstTTL is the TTL of the first hop to probe.
	FirstTTL int `json:"firstHop" yaml:"firstHop" mapstructure:"firstHop"`
	// MaxTTL is the highest TTL to probe before giving up.
	MaxTTL int `json:"maxHops" yaml:"maxHops" mapstructure:"maxHops"`
	// Queries is the number of probes sent per hop.
	Queries int `json:"queries" yaml:"queries" mapstructure:"queries"`
	// Timeout is how long each probe waits for a matching ICMP response.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
	// Port is the destination port of the first probe.
	Port int `json:"port" yaml:"port" mapstructure:"port"`
	// ResolveNames enables reverse DNS lookups for responding hops.
	ResolveNames bool `json:"resolveNames" yaml:"resolveNames" mapstructure:"resolveNames"`
}

// DefaultOptions returns the canonical traceroute configuration.
func DefaultOptions() Options {
	return Options{
		Retry:    helper.RetryConfig{Delay: time.Second},
		FirstTTL: DefaultFirstTTL,
		MaxTTL:   DefaultMaxTTL,
		Queries:  DefaultQueries,
		Timeout:  DefaultTimeout,
		Port:     DefaultPort,
	}
}

// Validate checks the options for consistency. All violations are
// reported at once as joined [ErrInvalidOptions] values.
func (o *Options) Validate() error {
	var errs []error
	if o.MaxTTL < 1 || o.MaxTTL > 255 {
		errs = append(errs, ErrInvalidOptions{Param: "maxHops", Reason: "must be between 1 and 255"})
	}
	if o.FirstTTL < 1 || o.FirstTTL > o.MaxTTL {
		errs = append(errs, ErrInvalidOptions{Param: "firstHop", Reason: fmt.Sprintf("must be between 1 and maxHops (%d)", o.MaxTTL)})
	}
	if o.Queries < 1 || o.Queries > 10 {
		errs = append(errs, ErrInvalidOptions{Param: "queries", Reason: "must be between 1 and 10"})
	}
	if o.Timeout <= 0 {
		errs = append(errs, ErrInvalidOptions{Param: "timeout", Reason: "must be greater than zero"})
	}
	if o.Port < 1 || o.Port > maxPort {
		errs = append(errs, ErrInvalidOptions{Param: "port", Reason: fmt.Sprintf("must be between 1 and %d", maxPort)})
	} else if last := o.Port + o.MaxTTL*o.Queries - 1; o.MaxTTL >= 1 && o.Queries >= 1 && last > maxPort {
		errs = append(errs, ErrInvalidOptions{Param: "port", Reason: fmt.Sprintf("probe ports %d to %d would exceed %d, lower the base port or the hop count", o.Port, last, maxPort)})
	}
	return errors.Join(errs...)
}

// Destination is the resolved trace target.
type Destination struct {
	// Host is the destination as given by the caller.
	Host string
	// Addr is the IPv4 address probes are sent to.
	Addr net.IP
}

func (d Destination) String() string {
	if d.Host == d.Addr.String() {
		return d.Host
	}
	return fmt.Sprintf("%s (%s)", d.Host, d.Addr)
}

// lostAddr is the address recorded for probes without a matching
// response.
const lostAddr = "*"

// Hop is the result of a single probe.
type Hop struct {
	// Latency is the round trip time of the probe. For lost probes it
	// holds the time spent waiting.
	Latency time.Duration `json:"-" yaml:"-"`
	// Addr is the address of the device that answered the probe, or
	// "*" if no matching response arrived in time.
	Addr string `json:"addr" yaml:"addr"`
	// Name is the reverse DNS name of Addr, if lookups are enabled and
	// a name exists.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	// TTL is the hop the probe was sent with.
	TTL int `json:"ttl" yaml:"ttl"`
	// Attempt numbers the probes of one hop, starting at 1.
	Attempt int `json:"attempt" yaml:"attempt"`
	// Reached indicates that the destination itself answered, with a
	// port-unreachable message.
	Reached bool `json:"reached" yaml:"reached"`
}

// Lost reports whether the probe got no matching response in time.
func (h Hop) Lost() bool {
	return h.Addr == lostAddr
}

func (h Hop) MarshalJSON() ([]byte, error) {
	type alias Hop
	return json.Marshal(&struct {
		Latency string `json:"latency"`
		alias
	}{
		Latency: h.Latency.String(),
		alias:   alias(h),
	})
}

func (h Hop) MarshalYAML() (any, error) {
	type alias Hop
	return struct {
		Latency string `yaml:"latency"`
		alias   `yaml:",inline"`
	}{
		Latency: h.Latency.String(),
		alias:   alias(h),
	}, nil
}

func (h Hop) String() string {
	reached := ""
	if h.Reached {
		reached = "  (reached)"
	}

	const maxNameLength = 45
	name := h.Name
	if name == "" || len(name) > maxNameLength {
		name = h.Addr
	}

	return fmt.Sprintf("%-2d  %-45.45s  %s%s",
		h.TTL, name, h.Latency.String(), reached)
}

// Report is the complete result of a traceroute run.
type Report struct {
	// Target is the destination as given by the caller.
	Target string `json:"target" yaml:"target"`
	// Addr is the resolved IPv4 address that was probed.
	Addr string `json:"addr" yaml:"addr"`
	// Hops holds the result of every probe in send order.
	Hops []Hop `json:"hops" yaml:"hops"`
	// Reached indicates whether the destination answered.
	Reached bool `json:"reached" yaml:"reached"`
}
