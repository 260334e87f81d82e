package meshbridge

import (
	"github.com/bft-labs/meshbridge/internal/app"
	"github.com/bft-labs/meshbridge/internal/domain"
)

// EventHandler receives bridge notifications. Methods are called
// synchronously from the bridge goroutines and should return quickly.
// Embed BaseEventHandler to implement only the events you need.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnFrameQueued(event FrameQueuedEvent)
	OnFrameSent(event FrameSentEvent)
	OnReplyForwarded(event ReplyForwardedEvent)
	OnParseError(event ParseErrorEvent)
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// FrameQueuedEvent is emitted when a DATA command has been split into frames.
type FrameQueuedEvent struct {
	Dest   uint16
	Frames int
}

// FrameSentEvent is emitted after a frame is written to the modem. Frame
// excludes the line terminator.
type FrameSentEvent struct {
	Frame []byte
	Dest  uint16
}

// ReplyForwardedEvent is emitted after a RETURN payload reached the mesher.
type ReplyForwardedEvent struct {
	Bytes int
}

// ParseErrorEvent is emitted when a DATA or RETURN line is dropped.
type ParseErrorEvent struct {
	Link  string
	Line  string
	Error error
}

// BaseEventHandler implements EventHandler with no-ops.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)       {}
func (BaseEventHandler) OnFrameQueued(FrameQueuedEvent)       {}
func (BaseEventHandler) OnFrameSent(FrameSentEvent)           {}
func (BaseEventHandler) OnReplyForwarded(ReplyForwardedEvent) {}
func (BaseEventHandler) OnParseError(ParseErrorEvent)         {}

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: convertState(previous),
		Current:  convertState(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnFrameQueued(dest domain.Address, frames int) {
	if e.handler == nil {
		return
	}
	e.handler.OnFrameQueued(FrameQueuedEvent{Dest: uint16(dest), Frames: frames})
}

func (e *eventEmitterWrapper) OnFrameSent(frame domain.Frame) {
	if e.handler == nil {
		return
	}
	dest, _ := frame.Address()
	e.handler.OnFrameSent(FrameSentEvent{
		Frame: append([]byte(nil), frame...),
		Dest:  uint16(dest),
	})
}

func (e *eventEmitterWrapper) OnReplyForwarded(n int) {
	if e.handler == nil {
		return
	}
	e.handler.OnReplyForwarded(ReplyForwardedEvent{Bytes: n})
}

func (e *eventEmitterWrapper) OnParseError(link, line string, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnParseError(ParseErrorEvent{Link: link, Line: line, Error: err})
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}

// Ensure eventEmitterWrapper serves both the bridge loop and the lifecycle.
var (
	_ app.FrameEventEmitter = (*eventEmitterWrapper)(nil)
	_ app.EventEmitter      = (*eventEmitterWrapper)(nil)
)
