package configwatcher

import "github.com/bft-labs/meshbridge/pkg/meshbridge"

// WithConfigWatcher returns a meshbridge Option that reloads the throttle
// interval when the file in Config.ConfigPath changes.
//
// Usage:
//
//	b, err := meshbridge.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.Config{
//	        DebounceDelay: 200 * time.Millisecond,
//	    }),
//	)
func WithConfigWatcher(cfg Config) meshbridge.Option {
	plugin := New(cfg)
	return meshbridge.WithPlugin(plugin)
}

// WithDefaultConfigWatcher returns a meshbridge Option that enables config
// watching with default settings (debounce 100ms).
func WithDefaultConfigWatcher() meshbridge.Option {
	return WithConfigWatcher(DefaultConfig())
}
