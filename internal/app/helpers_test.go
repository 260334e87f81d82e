package app

import (
	"sync"

	"github.com/bft-labs/meshbridge/internal/domain"
	"github.com/bft-labs/meshbridge/internal/ports"
)

// mockLogger implements ports.Logger for testing.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

func (m mockLogger) With(fields ...ports.Field) ports.Logger { return m }

// fakeLink is an in-memory ports.Link. Lines fed with feed are read back in
// order; writes are recorded.
type fakeLink struct {
	name string

	mu       sync.Mutex
	lines    [][]byte
	written  [][]byte
	readErr  error
	writeErr error
	closed   bool
}

func newFakeLink(name string) *fakeLink {
	return &fakeLink{name: name}
}

func (l *fakeLink) feed(lines ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range lines {
		l.lines = append(l.lines, []byte(s))
	}
}

func (l *fakeLink) failReads(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readErr = err
}

func (l *fakeLink) failWrites(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeErr = err
}

func (l *fakeLink) Name() string { return l.name }

func (l *fakeLink) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.lines) > 0 || l.readErr != nil
}

func (l *fakeLink) ReadLine() ([]byte, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.lines) > 0 {
		line := l.lines[0]
		l.lines = l.lines[1:]
		return line, nil
	}
	if l.readErr != nil {
		return nil, &domain.TransportError{Link: l.name, Op: "read", Err: l.readErr}
	}
	return nil, &domain.TransportError{Link: l.name, Op: "read", Err: errNothingPending}
}

func (l *fakeLink) Write(p []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.writeErr != nil {
		return &domain.TransportError{Link: l.name, Op: "write", Err: l.writeErr}
	}
	l.written = append(l.written, append([]byte(nil), p...))
	return nil
}

func (l *fakeLink) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}

func (l *fakeLink) writes() [][]byte {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([][]byte, len(l.written))
	copy(out, l.written)
	return out
}

type sentinel string

func (s sentinel) Error() string { return string(s) }

const errNothingPending = sentinel("nothing pending")

// recordingEmitter captures bridge events.
type recordingEmitter struct {
	mu          sync.Mutex
	queued      []int
	sent        []domain.Frame
	replies     []int
	parseErrors []error
}

func (r *recordingEmitter) OnFrameQueued(dest domain.Address, frames int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.queued = append(r.queued, frames)
}

func (r *recordingEmitter) OnFrameSent(frame domain.Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, frame)
}

func (r *recordingEmitter) OnReplyForwarded(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replies = append(r.replies, n)
}

func (r *recordingEmitter) OnParseError(link, line string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parseErrors = append(r.parseErrors, err)
}

func (r *recordingEmitter) counts() (queued, sent, replies, parseErrors int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queued), len(r.sent), len(r.replies), len(r.parseErrors)
}
