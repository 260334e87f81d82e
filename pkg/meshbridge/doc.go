// Package meshbridge relays traffic between a LoRa mesh gateway and a
// LoRaWAN (LMIC) modem over two serial links.
//
// The mesher emits lines of the form
//
//	DATA:<b1> <b2> ... <bn> <hexdest>
//
// where each b is a decimal byte and hexdest is a 16-bit destination address
// in hex. The payload is split into frames of at most ChunkSize bytes, each
// ending with the destination's high and low byte, and the frames are written
// to the modem one per ThrottleInterval, newline terminated. The modem answers
// with RETURN:<b1> ... <bn> lines whose bytes go back to the mesher verbatim.
//
// # Basic Usage
//
//	cfg := meshbridge.DefaultConfig()
//	cfg.MesherPort = "/dev/ttyUSB0"
//	cfg.LMICPort = "/dev/ttyUSB1"
//
//	b, err := meshbridge.New(cfg, meshbridge.WithLogger(logger))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := b.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	select {
//	case <-b.Done():
//	    log.Printf("link failed: %v", b.Err())
//	case <-shutdown:
//	    _ = b.Stop()
//	}
//
// # Links
//
// By default Start opens both serial ports. [WithLinks] injects any pair of
// [Link] values instead, for example two [NewLink] wrappers around TCP
// connections or in-memory pipes. Either way the bridge closes both links
// when the run ends.
//
// # Scheduling
//
// The sequential scheduler polls the mesher, sends at most one frame and
// polls the modem in a single loop, so the throttle pause delays reading both
// links. The concurrent scheduler runs the three duties in separate
// goroutines and only transmission waits for the throttle.
//
// # Lifecycle States
//
// A Bridge is in one of [StateStopped], [StateStarting], [StateRunning],
// [StateStopping] or [StateCrashed]. A link failure moves it to StateCrashed,
// closes [Bridge.Done] and is reported by [Bridge.Err]; Start may be called
// again afterwards.
//
// # Plugins
//
//	import "github.com/bft-labs/meshbridge/plugins/configwatcher"
//	import "github.com/bft-labs/meshbridge/plugins/queuemonitor"
//
//	b, err := meshbridge.New(cfg,
//	    configwatcher.WithConfigWatcher(configwatcher.DefaultConfig()),
//	    queuemonitor.WithQueueMonitor(queuemonitor.DefaultConfig()),
//	)
package meshbridge
