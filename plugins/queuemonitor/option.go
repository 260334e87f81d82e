package queuemonitor

import "github.com/bft-labs/meshbridge/pkg/meshbridge"

// WithQueueMonitor returns a meshbridge Option that enables queue depth
// warnings.
func WithQueueMonitor(cfg Config) meshbridge.Option {
	return meshbridge.WithPlugin(New(cfg))
}
