package traceroute

import (
	"bytes"
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// reply scripts how the fake network answers one probe of a hop.
type reply struct {
	addr    string
	reached bool
	delay   time.Duration
}

// fakeNet plays the network side of a trace. It implements
// icmpListener and provides a sendFunc whose scripted replies are
// delivered through the match channel, subject to the same port filter
// the real listener applies. TTLs without a script stay silent.
type fakeNet struct {
	mu    sync.Mutex
	want  int
	ports []int
	sends map[int]int

	script  map[int][]reply
	matches chan icmpPacket
	closed  bool
}

func newFakeNet(script map[int][]reply) *fakeNet {
	return &fakeNet{
		script:  script,
		sends:   map[int]int{},
		matches: make(chan icmpPacket, 1),
	}
}

func (f *fakeNet) Listen(_ context.Context) {}

func (f *fakeNet) Expect(port int) {
	f.mu.Lock()
	f.want = port
	f.ports = append(f.ports, port)
	f.mu.Unlock()
	select {
	case <-f.matches:
	default:
	}
}

func (f *fakeNet) Matches() <-chan icmpPacket { return f.matches }

func (f *fakeNet) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// send is the sendFunc of the fake network.
func (f *fakeNet) send(_ context.Context, _ Destination, ttl, port int, _ time.Duration) (time.Time, error) {
	f.mu.Lock()
	i := f.sends[ttl]
	f.sends[ttl]++
	f.mu.Unlock()

	replies := f.script[ttl]
	if len(replies) == 0 {
		return time.Now(), nil
	}
	if i >= len(replies) {
		i = len(replies) - 1
	}
	r := replies[i]
	if r.addr == "" {
		return time.Now(), nil
	}

	deliver := func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if port != f.want {
			return
		}
		pkt := icmpPacket{
			remoteAddr: &net.IPAddr{IP: net.ParseIP(r.addr)},
			port:       port,
			reached:    r.reached,
		}
		select {
		case f.matches <- pkt:
		default:
		}
	}
	if r.delay > 0 {
		time.AfterFunc(r.delay, deliver)
	} else {
		deliver()
	}
	return time.Now(), nil
}

func newTestHopper(f *fakeNet, opts Options, out *bytes.Buffer) *hopper {
	return &hopper{
		listener: f,
		send:     f.send,
		opts:     opts,
		out:      out,
		tracer:   noop.NewTracerProvider().Tracer("test"),
	}
}

func TestHopper_Run_ReachesDestination(t *testing.T) {
	f := newFakeNet(map[int][]reply{
		1: {{addr: "10.0.0.1"}},
		2: {{addr: "10.0.0.2"}},
		3: {{addr: "8.8.8.8", reached: true}},
	})
	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond

	var buf bytes.Buffer
	h := newTestHopper(f, opts, &buf)

	rep, err := h.run(t.Context(), Destination{Host: "dns.google", Addr: net.ParseIP("8.8.8.8").To4()})
	require.NoError(t, err)

	assert.True(t, rep.Reached)
	assert.Equal(t, "dns.google", rep.Target)
	assert.Equal(t, "8.8.8.8", rep.Addr)
	require.Len(t, rep.Hops, 9, "three attempts for each of the three hops")

	for i, hop := range rep.Hops {
		assert.Equal(t, i/opts.Queries+1, hop.TTL)
		assert.Equal(t, i%opts.Queries+1, hop.Attempt)
		assert.False(t, hop.Lost())
	}
	for _, hop := range rep.Hops[6:] {
		assert.True(t, hop.Reached)
		assert.Equal(t, "8.8.8.8", hop.Addr)
	}

	wantPorts := make([]int, 0, 9)
	for p := DefaultPort; p < DefaultPort+9; p++ {
		wantPorts = append(wantPorts, p)
	}
	assert.Equal(t, wantPorts, f.ports, "every probe must announce the next port before sending")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Regexp(t, `^ 1  10\.0\.0\.1(  \d+\.\d{3} ms){3}$`, lines[0])
	assert.Regexp(t, `^ 2  10\.0\.0\.2(  \d+\.\d{3} ms){3}$`, lines[1])
	assert.Regexp(t, `^ 3  8\.8\.8\.8(  \d+\.\d{3} ms){3}$`, lines[2])
}

func TestHopper_Run_GivesUp(t *testing.T) {
	f := newFakeNet(nil)
	opts := DefaultOptions()
	opts.MaxTTL = 3
	opts.Timeout = 10 * time.Millisecond

	var buf bytes.Buffer
	h := newTestHopper(f, opts, &buf)

	rep, err := h.run(t.Context(), Destination{Host: "192.0.2.88", Addr: net.ParseIP("192.0.2.88").To4()})
	require.NoError(t, err)

	assert.False(t, rep.Reached, "a silent trace must not claim to have arrived")
	require.Len(t, rep.Hops, 9)
	for _, hop := range rep.Hops {
		assert.True(t, hop.Lost())
		assert.GreaterOrEqual(t, hop.Latency, opts.Timeout)
	}
	assert.Equal(t, " 1  * * *\n 2  * * *\n 3  * * *\n", buf.String())
}

func TestHopper_Run_ReachedHopRunsAllAttempts(t *testing.T) {
	f := newFakeNet(map[int][]reply{
		1: {{addr: "192.0.2.1", reached: true}},
	})
	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond

	var buf bytes.Buffer
	h := newTestHopper(f, opts, &buf)

	rep, err := h.run(t.Context(), Destination{Host: "192.0.2.1", Addr: net.ParseIP("192.0.2.1").To4()})
	require.NoError(t, err)

	assert.True(t, rep.Reached)
	require.Len(t, rep.Hops, 3, "the destination hop still gets all its attempts")
	assert.Equal(t, []int{33434, 33435, 33436}, f.ports)
	assert.Regexp(t, `^ 1  192\.0\.2\.1(  \d+\.\d{3} ms){3}\n$`, buf.String())
}

func TestHopper_Run_FirstHopSkipsNearRouters(t *testing.T) {
	f := newFakeNet(map[int][]reply{
		3: {{addr: "8.8.8.8", reached: true}},
	})
	opts := DefaultOptions()
	opts.FirstTTL = 3
	opts.Timeout = 50 * time.Millisecond

	var buf bytes.Buffer
	h := newTestHopper(f, opts, &buf)

	rep, err := h.run(t.Context(), Destination{Host: "8.8.8.8", Addr: net.ParseIP("8.8.8.8").To4()})
	require.NoError(t, err)

	assert.True(t, rep.Reached)
	require.Len(t, rep.Hops, 3)
	assert.Equal(t, 3, rep.Hops[0].TTL)
	assert.Equal(t, []int{33434, 33435, 33436}, f.ports, "the port sequence starts at the base port regardless of the first hop")
	assert.True(t, strings.HasPrefix(buf.String(), " 3  8.8.8.8"))
}

func TestHopper_Run_TransmitFailureDoesNotWait(t *testing.T) {
	f := newFakeNet(nil)
	opts := DefaultOptions()
	opts.MaxTTL = 2
	opts.Queries = 2
	// A timeout no test run can sit out. Probes that were never sent
	// must be reported lost without arming the timer at all.
	opts.Timeout = time.Hour

	var buf bytes.Buffer
	h := newTestHopper(f, opts, &buf)
	h.send = func(_ context.Context, _ Destination, ttl, port int, _ time.Duration) (time.Time, error) {
		return time.Time{}, &TransmitError{TTL: ttl, Port: port, Err: errors.New("sendto: operation not permitted")}
	}

	var (
		rep *Report
		err error
	)
	done := make(chan struct{})
	go func() {
		defer close(done)
		rep, err = h.run(t.Context(), Destination{Host: "192.0.2.1", Addr: net.ParseIP("192.0.2.1").To4()})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("run did not finish, it seems to wait for probes that were never sent")
	}

	require.NoError(t, err)
	assert.False(t, rep.Reached)
	require.Len(t, rep.Hops, 4)
	for _, hop := range rep.Hops {
		assert.True(t, hop.Lost())
		assert.Zero(t, hop.Latency)
	}
	assert.Equal(t, []int{33434, 33435, 33436, 33437}, f.ports, "failed sends still consume their port")
	assert.Equal(t, " 1  * *\n 2  * *\n", buf.String())
}

func TestHopper_Run_LateReplyIsDiscarded(t *testing.T) {
	f := newFakeNet(map[int][]reply{
		1: {{addr: "10.0.0.1", delay: 250 * time.Millisecond}},
		2: {{addr: "8.8.8.8", reached: true}},
	})
	opts := DefaultOptions()
	opts.Timeout = 25 * time.Millisecond

	var buf bytes.Buffer
	h := newTestHopper(f, opts, &buf)

	rep, err := h.run(t.Context(), Destination{Host: "8.8.8.8", Addr: net.ParseIP("8.8.8.8").To4()})
	require.NoError(t, err)

	assert.True(t, rep.Reached)
	require.Len(t, rep.Hops, 6)
	for _, hop := range rep.Hops[:3] {
		assert.True(t, hop.Lost(), "replies slower than the timeout count as lost")
	}
	for _, hop := range rep.Hops[3:] {
		assert.Equal(t, "8.8.8.8", hop.Addr, "a late reply must never be credited to a later probe")
	}
}

func TestHopper_Run_ResponderChangeOpensContinuationLine(t *testing.T) {
	f := newFakeNet(map[int][]reply{
		1: {{addr: "10.10.0.6"}, {addr: "10.10.0.7"}, {addr: "10.10.0.6"}},
		2: {{addr: "8.8.8.8", reached: true}},
	})
	opts := DefaultOptions()
	opts.Timeout = 50 * time.Millisecond

	var buf bytes.Buffer
	h := newTestHopper(f, opts, &buf)

	rep, err := h.run(t.Context(), Destination{Host: "8.8.8.8", Addr: net.ParseIP("8.8.8.8").To4()})
	require.NoError(t, err)
	require.Len(t, rep.Hops, 6)

	assert.Regexp(t, `^ 1  10\.10\.0\.6  \d+\.\d{3} ms\n    10\.10\.0\.7  \d+\.\d{3} ms\n    10\.10\.0\.6  \d+\.\d{3} ms\n 2  `, buf.String())
}

func TestHopper_Run_ReverseLookup(t *testing.T) {
	f := newFakeNet(map[int][]reply{
		1: {{addr: "10.0.0.1", reached: true}},
	})
	opts := DefaultOptions()
	opts.Queries = 1
	opts.Timeout = 50 * time.Millisecond

	var buf bytes.Buffer
	h := newTestHopper(f, opts, &buf)
	h.reverse = func(_ context.Context, ip string) string {
		require.Equal(t, "10.0.0.1", ip)
		return "router.example.net"
	}

	rep, err := h.run(t.Context(), Destination{Host: "10.0.0.1", Addr: net.ParseIP("10.0.0.1").To4()})
	require.NoError(t, err)

	require.Len(t, rep.Hops, 1)
	assert.Equal(t, "router.example.net", rep.Hops[0].Name)
	assert.Contains(t, buf.String(), "router.example.net (10.0.0.1)")
}

func TestHopper_Run_ContextCanceled(t *testing.T) {
	f := newFakeNet(nil)
	opts := DefaultOptions()
	opts.Timeout = time.Minute

	var buf bytes.Buffer
	h := newTestHopper(f, opts, &buf)

	ctx, cancel := context.WithCancel(t.Context())
	time.AfterFunc(20*time.Millisecond, cancel)

	rep, err := h.run(ctx, Destination{Host: "8.8.8.8", Addr: net.ParseIP("8.8.8.8").To4()})

	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, rep, "the partial report survives cancellation")
	assert.False(t, rep.Reached)
}
