package meshbridge

import (
	"io"

	"github.com/bft-labs/meshbridge/internal/adapters/stream"
	"github.com/bft-labs/meshbridge/internal/app"
	"github.com/bft-labs/meshbridge/internal/ports"
	"github.com/bft-labs/meshbridge/pkg/log"
)

// Logger is the interface for structured logging.
type Logger = log.Logger

// LogField represents a structured log field.
type LogField = log.Field

// Link is a line-oriented, bidirectional byte channel. The bridge reads lines
// with ReadLine only after Pending reports true.
type Link = ports.Link

// Stats is a snapshot of bridge counters.
type Stats = app.Stats

// NewLink wraps any byte stream, such as a TCP connection or a pipe, as a Link.
func NewLink(name string, rwc io.ReadWriteCloser) Link {
	return stream.New(name, rwc)
}

// Option configures optional behavior of a Bridge.
type Option func(*options)

type options struct {
	logger       Logger
	eventHandler EventHandler
	plugins      []Plugin
	mesher       Link
	lmic         Link
}

func defaultOptions() options {
	return options{
		logger: log.NewNoopLogger(),
	}
}

// WithLogger sets a custom logger for structured logging.
// If not provided, a no-op logger is used (no output).
func WithLogger(logger Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEventHandler sets a handler for bridge events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the bridge starts.
// For built-in plugins, use options like configwatcher.WithConfigWatcher.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithLinks uses the given links instead of opening the serial ports named in
// Config. The bridge still closes them when it stops.
func WithLinks(mesher, lmic Link) Option {
	return func(o *options) {
		o.mesher = mesher
		o.lmic = lmic
	}
}
