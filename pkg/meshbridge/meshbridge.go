package meshbridge

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/meshbridge/internal/adapters/serial"
	"github.com/bft-labs/meshbridge/internal/app"
	"github.com/bft-labs/meshbridge/internal/domain"
	"github.com/bft-labs/meshbridge/internal/ports"
)

// Link names used in logs and transport errors.
const (
	MesherLinkName = "mesher"
	LMICLinkName   = "lmic"
)

// Bridge relays DATA commands from a mesh gateway to a LoRaWAN modem and
// RETURN replies back. Use New to create one, then Start.
type Bridge struct {
	config    Config
	opts      options
	lifecycle *app.Lifecycle
	emitter   *eventEmitterWrapper
	logger    ports.Logger
	plugins   []Plugin

	// startMu serializes Start and Stop.
	startMu      sync.Mutex
	injectedUsed bool
	pluginsOnce  *sync.Once

	mu       sync.RWMutex
	bridge   *app.Bridge
	throttle time.Duration
	done     chan struct{}
}

// New creates a Bridge in StateStopped. It returns an error wrapping
// ErrInvalidConfig if cfg is invalid.
func New(cfg Config, opts ...Option) (*Bridge, error) {
	cfg.SetDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	if (o.mesher == nil) != (o.lmic == nil) {
		return nil, invalid("WithLinks needs both links")
	}
	if o.mesher == nil {
		if err := cfg.validateLinks(); err != nil {
			return nil, err
		}
	}

	emitter := &eventEmitterWrapper{handler: o.eventHandler}
	done := make(chan struct{})
	close(done)

	return &Bridge{
		config:    cfg,
		opts:      o,
		lifecycle: app.NewLifecycle(o.logger, emitter),
		emitter:   emitter,
		logger:    o.logger,
		plugins:   o.plugins,
		throttle:  cfg.ThrottleInterval,
		done:      done,
	}, nil
}

// Start opens both links, initializes plugins and runs the bridge in the
// background. It returns ErrAlreadyRunning if the bridge is active.
//
// Failing to open either link is fatal: a link that did open is released,
// the bridge moves to StateCrashed and the error is returned.
func (b *Bridge) Start(ctx context.Context) error {
	b.startMu.Lock()
	defer b.startMu.Unlock()

	if !b.lifecycle.CanStart() {
		return domain.ErrAlreadyRunning
	}
	if err := b.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	mesher, lmic, err := b.openLinks()
	if err != nil {
		b.logger.Error("failed to open links", ports.Err(err))
		_ = b.lifecycle.Crash(err)
		return err
	}

	bridgeCfg := b.config.bridgeConfig()
	bridgeCfg.ThrottleInterval = b.ThrottleInterval()
	bridge, err := app.NewBridge(bridgeCfg, mesher, lmic, b.logger, b.emitter)
	if err != nil {
		b.releaseLinks(mesher, lmic)
		_ = b.lifecycle.Crash(err)
		return err
	}

	done := make(chan struct{})
	b.mu.Lock()
	b.bridge = bridge
	b.done = done
	b.mu.Unlock()

	runCtx, cancel := context.WithCancel(ctx)
	b.lifecycle.Begin(cancel)

	pluginCfg := PluginConfig{
		ConfigPath: b.config.ConfigPath,
		Logger:     b.logger,
		Throttle:   b,
		Stats:      b.Stats,
	}
	for i, p := range b.plugins {
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			b.logger.Error("plugin initialization failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
			cancel()
			b.shutdownPlugins(b.plugins[:i])
			b.releaseLinks(mesher, lmic)
			_ = b.lifecycle.Crash(fmt.Errorf("plugin %s: %w", p.Name(), err))
			close(done)
			return err
		}
		b.logger.Info("plugin initialized", ports.String("plugin", p.Name()))
	}

	once := &sync.Once{}
	b.pluginsOnce = once

	b.lifecycle.Go(func() {
		defer close(done)

		if err := b.lifecycle.TransitionTo(app.StateRunning, "links open"); err != nil {
			b.releaseLinks(mesher, lmic)
			return
		}

		err := bridge.Run(runCtx)
		b.releaseLinks(mesher, lmic)

		if err == nil || errors.Is(err, context.Canceled) {
			// The parent context ended the run rather than Stop.
			if b.lifecycle.TransitionTo(app.StateStopping, "context cancelled") == nil {
				once.Do(func() { b.shutdownPlugins(b.plugins) })
				_ = b.lifecycle.TransitionTo(app.StateStopped, "context cancelled")
			}
			return
		}

		b.logger.Error("bridge stopped", ports.Err(err))
		cancel()
		once.Do(func() { b.shutdownPlugins(b.plugins) })
		_ = b.lifecycle.Crash(err)
	})

	return nil
}

// Stop cancels the bridge loop, waits for it to exit and shuts down plugins.
// Frames still queued are discarded. Returns ErrNotRunning if the bridge is
// not active and ErrShutdownTimeout if the loop did not exit in time.
func (b *Bridge) Stop() error {
	b.startMu.Lock()
	if !b.lifecycle.CanStop() {
		b.startMu.Unlock()
		return domain.ErrNotRunning
	}
	if err := b.lifecycle.TransitionTo(app.StateStopping, "Stop() called"); err != nil {
		b.startMu.Unlock()
		return err
	}
	once := b.pluginsOnce
	b.startMu.Unlock()

	b.lifecycle.Cancel()
	err := b.lifecycle.WaitWithTimeout(app.ShutdownTimeout)

	once.Do(func() { b.shutdownPlugins(b.plugins) })

	if err != nil {
		_ = b.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = b.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (b *Bridge) Status() State {
	return convertState(b.lifecycle.State())
}

// Done returns a channel closed when the current run ends, either through
// Stop or a link failure. Before the first Start it is already closed.
func (b *Bridge) Done() <-chan struct{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.done
}

// Err returns the failure that crashed the bridge: a link error that ended
// the last run, or the open or plugin error that failed Start. It is nil after
// a clean stop and cleared when a new run begins.
func (b *Bridge) Err() error {
	return b.lifecycle.Cause()
}

// Stats returns the counters of the current or last run.
func (b *Bridge) Stats() Stats {
	b.mu.RLock()
	bridge := b.bridge
	b.mu.RUnlock()

	if bridge == nil {
		return Stats{}
	}
	return bridge.Stats()
}

// SetThrottleInterval changes the pause between frames. It takes effect on
// the next transmission and is kept across restarts.
func (b *Bridge) SetThrottleInterval(d time.Duration) {
	if d < 0 {
		d = 0
	}

	b.mu.Lock()
	b.throttle = d
	bridge := b.bridge
	b.mu.Unlock()

	if bridge != nil {
		bridge.SetThrottleInterval(d)
	}
}

// ThrottleInterval returns the current pause between frames.
func (b *Bridge) ThrottleInterval() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.throttle
}

// openLinks returns the injected links or opens both serial ports. Injected
// links serve a single run since the bridge closes them when it stops.
func (b *Bridge) openLinks() (mesher, lmic ports.Link, err error) {
	if b.opts.mesher != nil {
		if b.injectedUsed {
			return nil, nil, fmt.Errorf("%w: injected links were closed by the previous run", domain.ErrInvalidConfig)
		}
		b.injectedUsed = true
		return b.opts.mesher, b.opts.lmic, nil
	}

	m, err := serial.Open(MesherLinkName, b.config.portConfig(b.config.MesherPort))
	if err != nil {
		return nil, nil, err
	}
	l, err := serial.Open(LMICLinkName, b.config.portConfig(b.config.LMICPort))
	if err != nil {
		b.releaseLinks(m)
		return nil, nil, err
	}

	b.logger.Info("serial ports open",
		ports.String("mesher", b.config.MesherPort),
		ports.String("lmic", b.config.LMICPort),
		ports.Int("baud", b.config.BaudRate),
	)
	return m, l, nil
}

// releaseLinks closes every link. Close errors are logged and dropped.
func (b *Bridge) releaseLinks(links ...ports.Link) {
	for _, l := range links {
		if err := l.Close(); err != nil {
			b.logger.Warn("link close failed",
				ports.String("link", l.Name()),
				ports.Err(err))
		}
	}
}

// shutdownPlugins shuts plugins down in reverse order.
func (b *Bridge) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			b.logger.Error("plugin shutdown failed",
				ports.String("plugin", p.Name()),
				ports.Err(err))
		} else {
			b.logger.Info("plugin shutdown complete", ports.String("plugin", p.Name()))
		}
	}
}

var _ ThrottleSetter = (*Bridge)(nil)
