// Package log provides the logging abstraction used across meshbridge.
//
// The bridge logs every line seen on either link, every frame queued and
// sent, and every parse failure. Components depend on the [Logger] interface;
// the CLI wires the zerolog adapter, tests use [NoopLogger].
//
// # Usage
//
//	logger := log.NewConsoleLogger(os.Stderr, zerolog.InfoLevel)
//	logger.Info("sent frame", log.String("link", "lmic"), log.Bytes("frame", f))
//
// Loggers derived with With carry their fields on every message, which is how
// the bridge tags output per link:
//
//	mesher := logger.With(log.String("link", "mesher"))
package log
