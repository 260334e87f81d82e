package meshbridge_test

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/bft-labs/meshbridge/pkg/meshbridge"
)

// testLogger captures log output in tests.
type testLogger struct {
	mu       sync.Mutex
	messages []string
}

func newTestLogger() *testLogger {
	return &testLogger{}
}

func (l *testLogger) Debug(msg string, fields ...meshbridge.LogField) { l.log("DEBUG", msg) }
func (l *testLogger) Info(msg string, fields ...meshbridge.LogField)  { l.log("INFO", msg) }
func (l *testLogger) Warn(msg string, fields ...meshbridge.LogField)  { l.log("WARN", msg) }
func (l *testLogger) Error(msg string, fields ...meshbridge.LogField) { l.log("ERROR", msg) }

func (l *testLogger) With(fields ...meshbridge.LogField) meshbridge.Logger { return l }

func (l *testLogger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.messages = append(l.messages, fmt.Sprintf("[%s] %s", level, msg))
}

func (l *testLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	cp := make([]string, len(l.messages))
	copy(cp, l.messages)
	return cp
}

func (l *testLogger) Contains(msg string) bool {
	for _, m := range l.Messages() {
		if m == msg {
			return true
		}
	}
	return false
}

// device is the far end of an in-memory link: what the mesher or modem
// would see on its serial port.
type device struct {
	conn  net.Conn
	lines chan []byte
}

// newDevice returns a Link for the bridge and the device connected to it.
func newDevice(t *testing.T, name string) (meshbridge.Link, *device) {
	t.Helper()
	bridgeEnd, deviceEnd := net.Pipe()
	d := &device{conn: deviceEnd, lines: make(chan []byte, 64)}

	go func() {
		defer close(d.lines)
		r := bufio.NewReader(deviceEnd)
		for {
			line, err := r.ReadBytes('\n')
			if len(line) > 0 {
				d.lines <- line
			}
			if err != nil {
				return
			}
		}
	}()

	t.Cleanup(func() { _ = deviceEnd.Close() })
	return meshbridge.NewLink(name, bridgeEnd), d
}

func (d *device) send(t *testing.T, line string) {
	t.Helper()
	_ = d.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	if _, err := d.conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("device write: %v", err)
	}
}

func (d *device) expect(t *testing.T, want []byte) {
	t.Helper()
	select {
	case got, ok := <-d.lines:
		if !ok {
			t.Fatalf("device closed, want %v", want)
		}
		if string(got) != string(want) {
			t.Fatalf("device got %v, want %v", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %v", want)
	}
}

// expectClosed waits until the bridge has closed its end of the link.
func (d *device) expectClosed(t *testing.T) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-d.lines:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("link was not closed")
		}
	}
}

// trackingPlugin records initialization and shutdown order.
type trackingPlugin struct {
	name      string
	mu        *sync.Mutex
	order     *[]string
	initError error
	shutError error
	config    meshbridge.PluginConfig
}

func newTrackingPlugin(name string, mu *sync.Mutex, order *[]string) *trackingPlugin {
	return &trackingPlugin{name: name, mu: mu, order: order}
}

func (p *trackingPlugin) Name() string { return p.name }

func (p *trackingPlugin) Initialize(ctx context.Context, cfg meshbridge.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.initError != nil {
		return p.initError
	}
	*p.order = append(*p.order, "init:"+p.name)
	p.config = cfg
	return nil
}

func (p *trackingPlugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	*p.order = append(*p.order, "shutdown:"+p.name)
	return p.shutError
}

// eventTracker records state changes and bridge events.
type eventTracker struct {
	meshbridge.BaseEventHandler
	mu      sync.Mutex
	states  []meshbridge.StateChangeEvent
	queued  []meshbridge.FrameQueuedEvent
	sent    []meshbridge.FrameSentEvent
	replies []meshbridge.ReplyForwardedEvent
	errors  []meshbridge.ParseErrorEvent
}

func (e *eventTracker) OnStateChange(event meshbridge.StateChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.states = append(e.states, event)
}

func (e *eventTracker) OnFrameQueued(event meshbridge.FrameQueuedEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queued = append(e.queued, event)
}

func (e *eventTracker) OnFrameSent(event meshbridge.FrameSentEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sent = append(e.sent, event)
}

func (e *eventTracker) OnReplyForwarded(event meshbridge.ReplyForwardedEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.replies = append(e.replies, event)
}

func (e *eventTracker) OnParseError(event meshbridge.ParseErrorEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.errors = append(e.errors, event)
}

func (e *eventTracker) States() []meshbridge.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]meshbridge.State, len(e.states))
	for i, ev := range e.states {
		out[i] = ev.Current
	}
	return out
}

// testConfig returns a fast config for in-memory links.
func testConfig() meshbridge.Config {
	cfg := meshbridge.DefaultConfig()
	cfg.ThrottleInterval = 0
	cfg.PollInterval = time.Millisecond
	return cfg
}

func waitForState(t *testing.T, b *meshbridge.Bridge, want meshbridge.State) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for b.Status() != want {
		if time.Now().After(deadline) {
			t.Fatalf("state = %v, want %v", b.Status(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitDone(t *testing.T, b *meshbridge.Bridge) {
	t.Helper()
	select {
	case <-b.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("Done() not closed")
	}
}
