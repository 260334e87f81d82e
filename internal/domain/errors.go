package domain

import (
	"errors"
	"fmt"
)

// Parse errors. Lines failing with any of these are dropped and logged,
// the bridge keeps running.
var (
	// ErrNotCommand is returned when a line lacks the expected prefix.
	// Such lines are plain log output from the device, not failures.
	ErrNotCommand = errors.New("meshbridge: not a command line")

	// ErrMalformedCommand is returned when a DATA line has no separator
	// between payload and destination.
	ErrMalformedCommand = errors.New("meshbridge: malformed command")

	// ErrInvalidAddress is returned when the destination is not a 16-bit hex value.
	ErrInvalidAddress = errors.New("meshbridge: invalid address")

	// ErrInvalidByteValue is returned when a payload token is not a decimal in [0,255].
	ErrInvalidByteValue = errors.New("meshbridge: invalid byte value")
)

// Runtime errors.
var (
	// ErrTransport is returned when a link read, write or open fails.
	ErrTransport = errors.New("meshbridge: transport error")

	// ErrAlreadyRunning is returned when Start() is called on a running instance.
	ErrAlreadyRunning = errors.New("meshbridge: already running")

	// ErrNotRunning is returned when Stop() is called on a stopped instance.
	ErrNotRunning = errors.New("meshbridge: not running")

	// ErrShutdownTimeout is returned when graceful shutdown times out.
	ErrShutdownTimeout = errors.New("meshbridge: shutdown timeout")

	// ErrInvalidConfig is returned when configuration validation fails.
	ErrInvalidConfig = errors.New("meshbridge: invalid configuration")
)

// ByteValueError reports the payload token that failed to parse.
type ByteValueError struct {
	Token    string
	Position int
	Err      error
}

func (e *ByteValueError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid byte value %q at position %d: %v", e.Token, e.Position, e.Err)
	}
	return fmt.Sprintf("invalid byte value %q at position %d", e.Token, e.Position)
}

// Is makes errors.Is(err, ErrInvalidByteValue) hold.
func (e *ByteValueError) Is(target error) bool {
	return target == ErrInvalidByteValue
}

func (e *ByteValueError) Unwrap() error {
	return e.Err
}

// TransportError wraps a failure on one of the two links.
type TransportError struct {
	Link string
	Op   string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Link, e.Op, e.Err)
}

// Is makes errors.Is(err, ErrTransport) hold.
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
