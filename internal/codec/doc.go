// Package codec translates between the two line protocols spoken by the
// bridge and the binary frames sent to the LMIC modem.
//
// Mesher lines carry a command:
//
//	DATA:<space separated decimal bytes> <destination address in hex>
//
// The payload is split into frames of at most ChunkSize bytes, each ending in
// the destination address as two bytes (high, low). LMIC lines carry a reply:
//
//	RETURN:<space separated decimal bytes>
//
// which is forwarded to the mesher as raw bytes.
package codec
