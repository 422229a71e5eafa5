package gridconnect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lcc/lcc-node/canbus"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	frame := canbus.Frame{Identifier: 0x19490123, Data: [8]byte{1, 2, 3, 4, 5, 6, 7, 8}, Length: 8}
	line := Encode(frame)
	assert.Equal(t, ":X19490123N0102030405060708;", line)

	decoded, err := Decode(line)
	require.NoError(t, err)
	assert.Equal(t, frame, decoded)
}

func TestEncodeZeroLengthPayload(t *testing.T) {
	frame := canbus.Frame{Identifier: 0x10701234}
	assert.Equal(t, ":X10701234N;", Encode(frame))
}

func TestDecodeRejectsMalformedInput(t *testing.T) {
	for _, s := range []string{"", "garbage", ":X123N00;", ":X1949012Z N00;"} {
		_, err := Decode(s)
		assert.ErrorIs(t, err, ErrMalformed, "input %q", s)
	}
}

func TestDecodeToleratesMissingTrailingSemicolonAndWhitespace(t *testing.T) {
	frame, err := Decode("  :X19490123N0102\n")
	require.NoError(t, err)
	assert.Equal(t, uint32(0x19490123), frame.Identifier)
	assert.Equal(t, 2, frame.Length)
}
