// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// Ports are the boundaries between the bridge core and the outside world.
// They state what the core needs from the serial links and the logger without
// saying how those needs are met.
//
// # Port Interfaces
//
//   - [Link]: a line-oriented byte stream (the mesher or the LMIC modem)
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Adapters (internal/adapters) implement them over serial ports or any
// io.ReadWriteCloser, which lets tests drive the bridge with in-memory links.
package ports
