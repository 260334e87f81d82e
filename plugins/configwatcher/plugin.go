// Package configwatcher reloads the bridge configuration file at runtime.
// When the file changes, the new throttle_interval is applied to the running
// bridge. Other settings need a restart.
package configwatcher

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/meshbridge/internal/cliconfig"
	"github.com/bft-labs/meshbridge/pkg/log"
	"github.com/bft-labs/meshbridge/pkg/meshbridge"
)

// Plugin watches the configuration file with fsnotify.
type Plugin struct {
	mu sync.Mutex

	debounceDelay time.Duration
	pinThrottle   bool

	path     string
	logger   meshbridge.Logger
	throttle meshbridge.ThrottleSetter
	last     cliconfig.FileConfig
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	debounce *time.Timer
}

// Config holds configuration options for the config watcher plugin.
type Config struct {
	// DebounceDelay is the delay to wait after a file change before reloading.
	// Default: 100 milliseconds
	DebounceDelay time.Duration

	// PinThrottle keeps the startup throttle interval when a flag or
	// environment variable set it. File edits to throttle_interval are then
	// reported and ignored.
	PinThrottle bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		DebounceDelay: 100 * time.Millisecond,
	}
}

// New creates a new config watcher plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 100 * time.Millisecond
	}
	return &Plugin{debounceDelay: cfg.DebounceDelay, pinThrottle: cfg.PinThrottle}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "configwatcher"
}

// Initialize records the current file contents and starts watching.
func (p *Plugin) Initialize(ctx context.Context, cfg meshbridge.PluginConfig) error {
	p.mu.Lock()
	p.path = cfg.ConfigPath
	p.logger = cfg.Logger
	p.throttle = cfg.Throttle
	p.mu.Unlock()

	if p.path == "" || p.throttle == nil {
		p.logger.Warn("config watcher disabled: no config file")
		return nil
	}

	if fc, err := cliconfig.LoadFileConfig(p.path); err == nil {
		p.last = fc
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(p.path)); err != nil {
		_ = watcher.Close()
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.logger.Info("config watcher started", log.String("path", p.path))

	p.wg.Add(1)
	go p.watchLoop(watchCtx, watcher)

	return nil
}

// Shutdown stops the watcher.
func (p *Plugin) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()

	p.mu.Lock()
	if p.debounce != nil {
		p.debounce.Stop()
	}
	p.mu.Unlock()
	return nil
}

func (p *Plugin) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer p.wg.Done()
	defer watcher.Close()

	target := filepath.Clean(p.path)

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			p.debounceReload(ctx)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			p.logger.Error("config watcher error", log.Err(err))
		}
	}
}

func (p *Plugin) debounceReload(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.debounce != nil {
		p.debounce.Stop()
	}

	p.debounce = time.AfterFunc(p.debounceDelay, func() {
		if ctx.Err() != nil {
			return
		}
		p.reload()
	})
}

// reload applies throttle_interval from the file. Other changed keys are
// reported and left alone.
func (p *Plugin) reload() {
	fc, err := cliconfig.LoadFileConfig(p.path)
	if err != nil {
		p.logger.Warn("config reload failed", log.String("path", p.path), log.Err(err))
		return
	}

	p.mu.Lock()
	prev := p.last
	p.last = fc
	p.mu.Unlock()

	if restartOnly(prev, fc) {
		p.logger.Warn("config changed, restart to apply settings other than throttle_interval",
			log.String("path", p.path))
	}

	if fc.ThrottleInterval == "" {
		return
	}
	if p.pinThrottle {
		if fc.ThrottleInterval != prev.ThrottleInterval {
			p.logger.Warn("throttle_interval ignored, set by flag or environment",
				log.String("value", fc.ThrottleInterval))
		}
		return
	}
	d, err := time.ParseDuration(fc.ThrottleInterval)
	if err != nil || d < 0 {
		p.logger.Warn("ignoring invalid throttle_interval",
			log.String("value", fc.ThrottleInterval))
		return
	}
	if d == p.throttle.ThrottleInterval() {
		return
	}

	p.throttle.SetThrottleInterval(d)
	p.logger.Info("throttle interval reloaded", log.Duration("throttle", d))
}

// restartOnly reports whether keys other than throttle_interval changed.
func restartOnly(prev, next cliconfig.FileConfig) bool {
	prev.ThrottleInterval = ""
	next.ThrottleInterval = ""
	return prev != next
}

// Ensure Plugin implements meshbridge.Plugin.
var _ meshbridge.Plugin = (*Plugin)(nil)
