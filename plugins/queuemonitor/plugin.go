// Package queuemonitor warns when frames pile up faster than the modem can
// send them. The frame queue is unbounded, so a mesher that keeps producing
// DATA lines above the throttle rate grows it without limit.
package queuemonitor

import (
	"context"
	"sync"
	"time"

	"github.com/bft-labs/meshbridge/pkg/log"
	"github.com/bft-labs/meshbridge/pkg/meshbridge"
)

// Plugin samples the queue depth periodically. It only logs and never
// drops frames.
type Plugin struct {
	mu sync.Mutex

	// Configuration
	highWater int
	interval  time.Duration

	// Runtime state
	logger meshbridge.Logger
	stats  func() meshbridge.Stats
	above  bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Config holds configuration options for the queue monitor plugin.
type Config struct {
	// HighWater is the queue depth above which a warning is logged.
	// Default: 50 frames, about a minute of traffic at the default throttle.
	HighWater int

	// Interval is how often the queue depth is sampled.
	// Default: 5 seconds
	Interval time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		HighWater: 50,
		Interval:  5 * time.Second,
	}
}

// New creates a new queue monitor plugin with the given configuration.
func New(cfg Config) *Plugin {
	if cfg.HighWater <= 0 {
		cfg.HighWater = 50
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Second
	}

	return &Plugin{
		highWater: cfg.HighWater,
		interval:  cfg.Interval,
	}
}

// Name returns the plugin identifier.
func (p *Plugin) Name() string {
	return "queuemonitor"
}

// Initialize starts sampling.
func (p *Plugin) Initialize(ctx context.Context, cfg meshbridge.PluginConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger = cfg.Logger
	p.stats = cfg.Stats
	p.above = false

	if p.stats == nil {
		p.logger.Warn("queue monitor disabled: no stats source")
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	p.wg.Add(1)
	go p.run(runCtx)

	p.logger.Info("queue monitor plugin initialized",
		log.Int("high_water", p.highWater),
		log.Duration("interval", p.interval))
	return nil
}

// Shutdown stops sampling.
func (p *Plugin) Shutdown(ctx context.Context) error {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
	return nil
}

func (p *Plugin) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.check()
		}
	}
}

// check logs once when the depth crosses the high-water mark and once when
// it falls back under it.
func (p *Plugin) check() {
	st := p.stats()

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case !p.above && st.QueueDepth > p.highWater:
		p.above = true
		p.logger.Warn("frame queue above high water",
			log.Int("depth", st.QueueDepth),
			log.Int("high_water", p.highWater),
			log.Int("peak", st.QueuePeak))
	case p.above && st.QueueDepth <= p.highWater:
		p.above = false
		p.logger.Info("frame queue recovered",
			log.Int("depth", st.QueueDepth),
			log.Int("peak", st.QueuePeak))
	}
}

// Above reports whether the last sample was over the high-water mark.
func (p *Plugin) Above() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.above
}

// Ensure Plugin implements meshbridge.Plugin.
var _ meshbridge.Plugin = (*Plugin)(nil)
