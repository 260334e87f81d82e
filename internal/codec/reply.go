package codec

import (
	"strings"

	"github.com/bft-labs/meshbridge/internal/domain"
)

// ParseReply decodes an LMIC line of the form "RETURN:<bytes>" into the raw
// bytes to forward to the mesher. An empty body is a valid, empty reply.
func ParseReply(line string) ([]byte, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, ReplyPrefix) {
		return nil, domain.ErrNotCommand
	}
	return parseByteList(line[len(ReplyPrefix):])
}
