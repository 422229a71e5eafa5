// Package gridconnect implements the ASCII GridConnect frame encoding
// (":XhhhhhhhhNbb...bb;") used to carry CAN frames over a serial link,
// plus a canbus.Bus adapter over a serial port.
package gridconnect

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-lcc/lcc-node/canbus"
)

// ErrMalformed is returned by Decode when s is not a well-formed
// GridConnect frame.
var ErrMalformed = errors.New("gridconnect: malformed frame")

// Encode renders frame as a GridConnect ASCII line, e.g.
// ":X19490123N0102030405060708;".
func Encode(frame canbus.Frame) string {
	var b strings.Builder
	b.Grow(24)
	b.WriteString(":X")
	fmt.Fprintf(&b, "%08X", frame.Identifier)
	b.WriteByte('N')
	b.WriteString(strings.ToUpper(hex.EncodeToString(frame.Data[:frame.Length])))
	b.WriteByte(';')
	return b.String()
}

// Decode parses a GridConnect ASCII line back into a Frame. Leading or
// trailing whitespace and a missing trailing ';' (SerialBus's reader
// splits the stream on ';' and drops it) are tolerated.
func Decode(s string) (canbus.Frame, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, ";")
	if !strings.HasPrefix(s, ":X") || len(s) < len(":X")+8+1 {
		return canbus.Frame{}, ErrMalformed
	}
	s = s[2:]

	idEnd := 8
	id64, err := strconv.ParseUint(s[:idEnd], 16, 32)
	if err != nil {
		return canbus.Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	id := uint32(id64)
	s = s[idEnd:]

	if len(s) == 0 || s[0] != 'N' {
		return canbus.Frame{}, ErrMalformed
	}
	s = s[1:]

	data, err := hex.DecodeString(s)
	if err != nil {
		return canbus.Frame{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(data) > 8 {
		return canbus.Frame{}, ErrMalformed
	}

	var frame canbus.Frame
	frame.Identifier = id
	frame.Length = copy(frame.Data[:], data)
	return frame, nil
}
