package codec

import (
	"fmt"

	"github.com/bft-labs/meshbridge/internal/domain"
)

// DefaultChunkSize is the maximum frame length accepted by the LMIC sketch,
// trailer included.
const DefaultChunkSize = 51

// MinChunkSize leaves room for one payload byte next to the trailer.
const MinChunkSize = domain.TrailerSize + 1

// Encoder splits payloads into address-tagged frames.
type Encoder struct {
	chunkSize int
}

// NewEncoder creates an encoder producing frames of at most chunkSize bytes.
func NewEncoder(chunkSize int) (*Encoder, error) {
	if chunkSize < MinChunkSize {
		return nil, fmt.Errorf("%w: chunk size %d, need at least %d", domain.ErrInvalidConfig, chunkSize, MinChunkSize)
	}
	return &Encoder{chunkSize: chunkSize}, nil
}

// ChunkSize returns the maximum frame length.
func (e *Encoder) ChunkSize() int {
	return e.chunkSize
}

// Capacity returns the payload bytes carried per frame.
func (e *Encoder) Capacity() int {
	return e.chunkSize - domain.TrailerSize
}

// Encode splits p into consecutive frames and appends the address trailer to
// each, including the final short one. An empty payload produces a single
// frame holding only the trailer.
func (e *Encoder) Encode(p domain.Payload, addr domain.Address) []domain.Frame {
	capacity := e.Capacity()
	if len(p) == 0 {
		return []domain.Frame{domain.NewFrame(nil, addr)}
	}

	frames := make([]domain.Frame, 0, (len(p)+capacity-1)/capacity)
	for start := 0; start < len(p); start += capacity {
		end := start + capacity
		if end > len(p) {
			end = len(p)
		}
		frames = append(frames, domain.NewFrame(p[start:end], addr))
	}
	return frames
}

// Decode reassembles the payload and address from the frames of one command.
func (e *Encoder) Decode(frames []domain.Frame) (domain.Payload, domain.Address, error) {
	if len(frames) == 0 {
		return nil, 0, fmt.Errorf("decode: no frames")
	}

	var (
		payload domain.Payload
		addr    domain.Address
	)
	for i, f := range frames {
		if len(f) > e.chunkSize {
			return nil, 0, fmt.Errorf("decode: frame %d is %d bytes, chunk size is %d", i, len(f), e.chunkSize)
		}
		a, ok := f.Address()
		if !ok {
			return nil, 0, fmt.Errorf("decode: frame %d shorter than trailer", i)
		}
		if i == 0 {
			addr = a
		} else if a != addr {
			return nil, 0, fmt.Errorf("decode: frame %d addressed to %s, want %s", i, a, addr)
		}
		payload = append(payload, f.Payload()...)
	}
	if payload == nil {
		payload = domain.Payload{}
	}
	return payload, addr, nil
}
