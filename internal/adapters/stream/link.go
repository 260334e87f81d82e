// Package stream adapts any io.ReadWriteCloser into a ports.Link.
//
// A background goroutine reads the stream, splits it on '\n' and buffers the
// lines, so Pending can answer without blocking. Reads returning zero bytes
// and no error (a serial read timeout) are retried.
package stream

import (
	"errors"
	"io"
	"sync"

	"github.com/bft-labs/meshbridge/internal/domain"
	"github.com/bft-labs/meshbridge/internal/ports"
)

// Default buffering limits.
const (
	DefaultMaxLineBytes = 4096
	DefaultLineBuffer   = 256
	readChunk           = 256
)

// ErrClosed is reported by operations on a closed link.
var ErrClosed = errors.New("link closed")

// Option configures a Link.
type Option func(*Link)

// WithMaxLineBytes caps the length of a buffered line. Longer input is split.
func WithMaxLineBytes(n int) Option {
	return func(l *Link) {
		if n > 0 {
			l.maxLine = n
		}
	}
}

// Link implements ports.Link over an io.ReadWriteCloser.
type Link struct {
	name     string
	rwc      io.ReadWriteCloser
	maxLine  int
	bufLines int

	lines chan []byte

	mu      sync.Mutex
	readErr error

	writeMu   sync.Mutex
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// New starts reading rwc in the background.
func New(name string, rwc io.ReadWriteCloser, opts ...Option) *Link {
	l := &Link{
		name:     name,
		rwc:      rwc,
		maxLine:  DefaultMaxLineBytes,
		bufLines: DefaultLineBuffer,
		closed:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lines = make(chan []byte, l.bufLines)

	go l.readLoop()
	return l
}

// Name returns the link name.
func (l *Link) Name() string {
	return l.name
}

// Pending reports whether a line or a read error is waiting.
func (l *Link) Pending() bool {
	if len(l.lines) > 0 {
		return true
	}
	return l.err() != nil
}

// ReadLine returns the next buffered line, blocking until one arrives, the
// stream fails or the link is closed.
func (l *Link) ReadLine() ([]byte, error) {
	select {
	case line := <-l.lines:
		return line, nil
	default:
	}

	select {
	case line := <-l.lines:
		return line, nil
	case <-l.done:
		// The reader pushes every line before exiting, drain them first.
		select {
		case line := <-l.lines:
			return line, nil
		default:
		}
		if err := l.err(); err != nil {
			return nil, l.wrap("read", err)
		}
		return nil, l.wrap("read", ErrClosed)
	case <-l.closed:
		return nil, l.wrap("read", ErrClosed)
	}
}

// Write sends p in full.
func (l *Link) Write(p []byte) error {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	select {
	case <-l.closed:
		return l.wrap("write", ErrClosed)
	default:
	}

	n, err := l.rwc.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return l.wrap("write", err)
	}
	return nil
}

// Close closes the stream and stops the reader. It is safe to call twice.
func (l *Link) Close() error {
	l.closeOnce.Do(func() {
		close(l.closed)
		if err := l.rwc.Close(); err != nil {
			l.closeErr = l.wrap("close", err)
		}
	})
	return l.closeErr
}

// Done is closed once the background reader has exited.
func (l *Link) Done() <-chan struct{} {
	return l.done
}

func (l *Link) readLoop() {
	defer close(l.done)

	buf := make([]byte, readChunk)
	var line []byte
	for {
		n, err := l.rwc.Read(buf)
		for _, b := range buf[:n] {
			if b == domain.Terminator {
				if !l.push(line) {
					return
				}
				line = nil
				continue
			}
			if len(line) == l.maxLine {
				if !l.push(line) {
					return
				}
				line = nil
			}
			line = append(line, b)
		}

		if err != nil {
			if l.isClosed() {
				return
			}
			if len(line) > 0 && !l.push(line) {
				return
			}
			l.setErr(err)
			return
		}
	}
}

// push hands a line to readers. It returns false once the link is closed.
func (l *Link) push(line []byte) bool {
	if line == nil {
		line = []byte{}
	}
	select {
	case l.lines <- line:
		return true
	case <-l.closed:
		return false
	}
}

func (l *Link) isClosed() bool {
	select {
	case <-l.closed:
		return true
	default:
		return false
	}
}

func (l *Link) setErr(err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.readErr = err
}

func (l *Link) err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.readErr
}

func (l *Link) wrap(op string, err error) error {
	return &domain.TransportError{Link: l.name, Op: op, Err: err}
}

var _ ports.Link = (*Link)(nil)
