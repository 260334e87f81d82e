package meshbridge

import (
	"context"
	"time"
)

// Plugin extends a Bridge with optional behavior. Plugins are initialized by
// Start in registration order and shut down by Stop in reverse order.
type Plugin interface {
	// Name identifies the plugin in logs.
	Name() string

	// Initialize is called once per Start. An error aborts the start.
	// ctx is cancelled when the bridge stops.
	Initialize(ctx context.Context, cfg PluginConfig) error

	// Shutdown releases plugin resources.
	Shutdown(ctx context.Context) error
}

// ThrottleSetter changes the transmission pacing of a running bridge.
type ThrottleSetter interface {
	SetThrottleInterval(d time.Duration)
	ThrottleInterval() time.Duration
}

// PluginConfig is what a plugin receives on Initialize.
type PluginConfig struct {
	// ConfigPath is the configuration file the bridge was started from.
	// Empty when the bridge was configured in code.
	ConfigPath string

	// Logger is the bridge logger. Never nil.
	Logger Logger

	// Throttle adjusts the pause between frames at runtime.
	Throttle ThrottleSetter

	// Stats returns the current bridge counters.
	Stats func() Stats
}

// BasePlugin provides a name and no-op Initialize and Shutdown.
type BasePlugin struct {
	name string
}

// NewBasePlugin returns a BasePlugin with the given name.
func NewBasePlugin(name string) BasePlugin {
	return BasePlugin{name: name}
}

func (b BasePlugin) Name() string                                         { return b.name }
func (BasePlugin) Initialize(ctx context.Context, cfg PluginConfig) error { return nil }
func (BasePlugin) Shutdown(ctx context.Context) error                     { return nil }
