package meshbridge

import "github.com/bft-labs/meshbridge/internal/domain"

// Errors returned by the bridge. Use errors.Is to test for them.
var (
	ErrAlreadyRunning   = domain.ErrAlreadyRunning
	ErrNotRunning       = domain.ErrNotRunning
	ErrShutdownTimeout  = domain.ErrShutdownTimeout
	ErrInvalidConfig    = domain.ErrInvalidConfig
	ErrTransport        = domain.ErrTransport
	ErrMalformedCommand = domain.ErrMalformedCommand
	ErrInvalidAddress   = domain.ErrInvalidAddress
	ErrInvalidByteValue = domain.ErrInvalidByteValue
)

// TransportError reports which link failed and during which operation.
type TransportError = domain.TransportError
