package codec

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/bft-labs/meshbridge/internal/domain"
)

func mustEncoder(t *testing.T, chunkSize int) *Encoder {
	t.Helper()
	e, err := NewEncoder(chunkSize)
	if err != nil {
		t.Fatalf("NewEncoder(%d): %v", chunkSize, err)
	}
	return e
}

func TestNewEncoder(t *testing.T) {
	tests := []struct {
		chunkSize int
		wantErr   bool
	}{
		{DefaultChunkSize, false},
		{MinChunkSize, false},
		{2, true},
		{0, true},
		{-5, true},
	}

	for _, tt := range tests {
		e, err := NewEncoder(tt.chunkSize)
		if (err != nil) != tt.wantErr {
			t.Errorf("NewEncoder(%d) error = %v, wantErr %v", tt.chunkSize, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, domain.ErrInvalidConfig) {
			t.Errorf("NewEncoder(%d) error = %v, want ErrInvalidConfig", tt.chunkSize, err)
		}
		if err == nil && e.Capacity() != tt.chunkSize-2 {
			t.Errorf("Capacity() = %d, want %d", e.Capacity(), tt.chunkSize-2)
		}
	}
}

func TestEncoder_Encode_EndToEndExample(t *testing.T) {
	cmd, err := ParseCommand("DATA:1 2 3 4 5 6 7 8 9 10 1")
	if err != nil {
		t.Fatalf("ParseCommand: %v", err)
	}

	frames := mustEncoder(t, 5).Encode(cmd.Payload, cmd.Dest)

	want := []domain.Frame{
		{1, 2, 3, 0, 1},
		{4, 5, 6, 0, 1},
		{7, 8, 9, 0, 1},
		{10, 0, 1},
	}
	if len(frames) != len(want) {
		t.Fatalf("got %d frames, want %d: %v", len(frames), len(want), frames)
	}
	for i := range want {
		if !bytes.Equal(frames[i], want[i]) {
			t.Errorf("frame %d = %v, want %v", i, frames[i], want[i])
		}
	}
}

func TestEncoder_Encode_ExactCapacity(t *testing.T) {
	e := mustEncoder(t, DefaultChunkSize)
	p := make(domain.Payload, e.Capacity())
	for i := range p {
		p[i] = byte(i)
	}

	frames := e.Encode(p, 0x1234)
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if len(frames[0]) != DefaultChunkSize {
		t.Errorf("frame length = %d, want %d", len(frames[0]), DefaultChunkSize)
	}
}

func TestEncoder_Encode_OneOverCapacity(t *testing.T) {
	e := mustEncoder(t, DefaultChunkSize)
	frames := e.Encode(make(domain.Payload, e.Capacity()+1), 7)

	if len(frames) != 2 {
		t.Fatalf("got %d frames, want 2", len(frames))
	}
	if len(frames[1]) != 1+domain.TrailerSize {
		t.Errorf("last frame length = %d, want 3", len(frames[1]))
	}
}

func TestEncoder_Encode_EmptyPayload(t *testing.T) {
	frames := mustEncoder(t, DefaultChunkSize).Encode(domain.Payload{}, 0xabcd)

	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if !bytes.Equal(frames[0], []byte{0xab, 0xcd}) {
		t.Errorf("frame = %v, want trailer only", frames[0])
	}
}

func TestEncoder_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, chunkSize := range []int{MinChunkSize, 5, 7, DefaultChunkSize, 255} {
		e := mustEncoder(t, chunkSize)
		for n := 0; n < 200; n++ {
			p := make(domain.Payload, rng.Intn(4*chunkSize))
			rng.Read(p)
			addr := domain.Address(rng.Intn(0x10000))

			frames := e.Encode(p, addr)

			var joined []byte
			for i, f := range frames {
				if len(f) > chunkSize {
					t.Fatalf("chunk %d: frame %d has %d bytes", chunkSize, i, len(f))
				}
				if i < len(frames)-1 && len(f) != chunkSize {
					t.Fatalf("chunk %d: non-final frame %d is short (%d bytes)", chunkSize, i, len(f))
				}
				joined = append(joined, f.Payload()...)
			}
			if !bytes.Equal(joined, p) {
				t.Fatalf("chunk %d: concatenated payload differs from input", chunkSize)
			}

			gotP, gotA, err := e.Decode(frames)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !bytes.Equal(gotP, p) || gotA != addr {
				t.Fatalf("round trip mismatch: got (%v, %s), want (%v, %s)", gotP, gotA, p, addr)
			}
		}
	}
}

func TestEncoder_Decode_Errors(t *testing.T) {
	e := mustEncoder(t, 5)

	tests := []struct {
		name   string
		frames []domain.Frame
	}{
		{"no frames", nil},
		{"short frame", []domain.Frame{{1}}},
		{"oversized frame", []domain.Frame{{1, 2, 3, 4, 0, 1}}},
		{"mixed addresses", []domain.Frame{{1, 2, 3, 0, 1}, {4, 0, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := e.Decode(tt.frames); err == nil {
				t.Errorf("Decode(%v) succeeded, want error", tt.frames)
			}
		})
	}
}
