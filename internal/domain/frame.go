package domain

// TrailerSize is the number of address bytes appended to every frame.
const TrailerSize = 2

// Terminator ends every line written to either link.
const Terminator = '\n'

// Payload is the ordered list of byte values carried by a DATA command.
type Payload []byte

// Frame is one LMIC transmission unit: a payload chunk followed by the
// destination address high and low bytes.
type Frame []byte

// NewFrame copies chunk and appends the trailer for addr.
func NewFrame(chunk []byte, addr Address) Frame {
	f := make(Frame, 0, len(chunk)+TrailerSize)
	f = append(f, chunk...)
	return append(f, addr.High(), addr.Low())
}

// Payload returns the chunk bytes without the trailer.
// Frames shorter than the trailer have no payload.
func (f Frame) Payload() []byte {
	if len(f) < TrailerSize {
		return nil
	}
	return f[:len(f)-TrailerSize]
}

// Address decodes the trailer. ok is false when the frame is too short.
func (f Frame) Address() (addr Address, ok bool) {
	if len(f) < TrailerSize {
		return 0, false
	}
	return AddressFromBytes(f[len(f)-2], f[len(f)-1]), true
}

// Wire returns the bytes written to the link, frame plus terminator.
func (f Frame) Wire() []byte {
	return WithTerminator(f)
}

// WithTerminator returns a copy of p with the line terminator appended.
func WithTerminator(p []byte) []byte {
	out := make([]byte, len(p)+1)
	copy(out, p)
	out[len(p)] = Terminator
	return out
}
