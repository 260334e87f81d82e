package codec

import (
	"errors"
	"testing"

	"github.com/bft-labs/meshbridge/internal/domain"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name        string
		line        string
		wantPayload []byte
		wantDest    domain.Address
		wantErr     error
	}{
		{
			name:        "payload and hex destination",
			line:        "DATA:1 2 3 ff",
			wantPayload: []byte{1, 2, 3},
			wantDest:    0xff,
		},
		{
			name:        "last token is always the destination",
			line:        "DATA:1 2 3",
			wantPayload: []byte{1, 2},
			wantDest:    0x3,
		},
		{
			name:        "surrounding whitespace and CRLF",
			line:        "  DATA:10 20 a1b2\r\n",
			wantPayload: []byte{10, 20},
			wantDest:    0xa1b2,
		},
		{
			name:        "whitespace runs between tokens",
			line:        "DATA:0\t255   7 \t 1",
			wantPayload: []byte{0, 255, 7},
			wantDest:    0x1,
		},
		{
			name:        "0x prefixed destination",
			line:        "DATA:5 0xBEEF",
			wantPayload: []byte{5},
			wantDest:    0xbeef,
		},
		{
			name:        "empty payload",
			line:        "DATA: 1f",
			wantPayload: []byte{},
			wantDest:    0x1f,
		},
		{
			name:        "mesher counter line",
			line:        "DATA:42 3a4c",
			wantPayload: []byte{42},
			wantDest:    0x3a4c,
		},
		{name: "not a command", line: "Packet arrived from 3A4C with size 8", wantErr: domain.ErrNotCommand},
		{name: "lower case prefix", line: "data:1 2", wantErr: domain.ErrNotCommand},
		{name: "single token", line: "DATA:ff", wantErr: domain.ErrMalformedCommand},
		{name: "empty body", line: "DATA:", wantErr: domain.ErrMalformedCommand},
		{name: "non hex destination", line: "DATA:1 2 zz", wantErr: domain.ErrInvalidAddress},
		{name: "destination over 16 bits", line: "DATA:1 2 10000", wantErr: domain.ErrInvalidAddress},
		{name: "negative destination", line: "DATA:1 -1", wantErr: domain.ErrInvalidAddress},
		{name: "bare 0x destination", line: "DATA:1 0x", wantErr: domain.ErrInvalidAddress},
		{name: "non numeric byte", line: "DATA:1 x 3 ff", wantErr: domain.ErrInvalidByteValue},
		{name: "byte over 255", line: "DATA:1 256 ff", wantErr: domain.ErrInvalidByteValue},
		{name: "negative byte", line: "DATA:-1 ff", wantErr: domain.ErrInvalidByteValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.line)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseCommand(%q) error = %v, want %v", tt.line, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseCommand(%q) unexpected error: %v", tt.line, err)
			}
			if string(cmd.Payload) != string(tt.wantPayload) {
				t.Errorf("payload = %v, want %v", []byte(cmd.Payload), tt.wantPayload)
			}
			if cmd.Payload == nil {
				t.Errorf("payload is nil, want non-nil slice")
			}
			if cmd.Dest != tt.wantDest {
				t.Errorf("dest = %#x, want %#x", uint16(cmd.Dest), uint16(tt.wantDest))
			}
		})
	}
}

func TestParseCommand_ByteValueErrorDetail(t *testing.T) {
	_, err := ParseCommand("DATA:1 2 300 4 ff")

	var bv *domain.ByteValueError
	if !errors.As(err, &bv) {
		t.Fatalf("error = %v, want *ByteValueError", err)
	}
	if bv.Token != "300" {
		t.Errorf("Token = %q, want %q", bv.Token, "300")
	}
	if bv.Position != 2 {
		t.Errorf("Position = %d, want 2", bv.Position)
	}
}

func TestParseCommand_AddressCheckedBeforePayload(t *testing.T) {
	_, err := ParseCommand("DATA:x y zz")
	if !errors.Is(err, domain.ErrInvalidAddress) {
		t.Errorf("error = %v, want ErrInvalidAddress", err)
	}
}
