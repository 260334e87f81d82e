// Package domain contains the core value types and errors for meshbridge.
//
// This package is the innermost layer. It has no dependencies on serial
// ports, logging or configuration and holds only the wire-level data model.
//
// # Types
//
//   - [Address]: 16-bit destination node, carried on the wire as high/low bytes
//   - [Payload]: byte values taken from a DATA command
//   - [Frame]: up to ChunkSize bytes, payload chunk followed by the address trailer
//
// # Errors
//
// Parse and transport failures are reported with sentinel errors that can be
// checked with errors.Is. [ByteValueError] and [TransportError] carry the
// offending token or link and unwrap to their sentinel.
package domain
