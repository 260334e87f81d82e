package codec

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/bft-labs/meshbridge/internal/domain"
)

// Line prefixes recognised on each link.
const (
	CommandPrefix = "DATA:"
	ReplyPrefix   = "RETURN:"
)

// Command is a parsed DATA line.
type Command struct {
	Payload domain.Payload
	Dest    domain.Address
}

// ParseCommand decodes a mesher line of the form "DATA:<bytes> <hex dest>".
//
// Lines without the DATA: prefix return domain.ErrNotCommand. The content is
// split on its last whitespace run; everything before it is the payload and the
// final token is the destination.
func ParseCommand(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, CommandPrefix) {
		return Command{}, domain.ErrNotCommand
	}

	data, dest, ok := splitLast(line[len(CommandPrefix):])
	if !ok {
		return Command{}, fmt.Errorf("%w: no separator before destination in %q", domain.ErrMalformedCommand, line)
	}

	addr, err := parseAddress(dest)
	if err != nil {
		return Command{}, err
	}

	payload, err := parseByteList(data)
	if err != nil {
		return Command{}, err
	}

	return Command{Payload: payload, Dest: addr}, nil
}

// splitLast splits s around its last run of whitespace.
func splitLast(s string) (head, tail string, ok bool) {
	s = strings.TrimRightFunc(s, unicode.IsSpace)
	i := strings.LastIndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return "", "", false
	}
	_, size := utf8.DecodeRuneInString(s[i:])
	return strings.TrimRightFunc(s[:i], unicode.IsSpace), s[i+size:], true
}

// parseAddress accepts bare hex with an optional 0x prefix. Values that do not
// fit in 16 bits are rejected rather than wrapped.
func parseAddress(tok string) (domain.Address, error) {
	digits := tok
	if len(digits) > 2 && (digits[:2] == "0x" || digits[:2] == "0X") {
		digits = digits[2:]
	}
	v, err := strconv.ParseUint(digits, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: %q: %v", domain.ErrInvalidAddress, tok, err)
	}
	return domain.Address(v), nil
}

// parseByteList parses whitespace separated decimal bytes.
func parseByteList(s string) ([]byte, error) {
	fields := strings.Fields(s)
	out := make([]byte, 0, len(fields))
	for i, tok := range fields {
		v, err := strconv.ParseUint(tok, 10, 8)
		if err != nil {
			return nil, &domain.ByteValueError{Token: tok, Position: i, Err: numErr(err)}
		}
		out = append(out, byte(v))
	}
	return out, nil
}

// numErr strips the strconv wrapper, the token is already reported.
func numErr(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}
