package openlcb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodeIDBytesRoundTrip(t *testing.T) {
	id := NodeID(0x010203040506)
	b := id.Bytes()
	assert.Equal(t, [6]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}, b)
	assert.Equal(t, id, NodeIDFromBytes(b[:]))
	assert.Equal(t, "01.02.03.04.05.06", id.String())
}

func TestNodeIDValid(t *testing.T) {
	assert.True(t, NodeID(1).Valid())
	assert.True(t, NodeIDMax.Valid())
	assert.False(t, NodeID(0).Valid())
	assert.False(t, NodeID(0xFFFFFFFFFFFF).Valid())
}

func TestEventIDBytesRoundTrip(t *testing.T) {
	e := EventID(0x0102030405060708)
	b := e.Bytes()
	require.Equal(t, e, EventIDFromBytes(b[:]))
}

func TestAliasValid(t *testing.T) {
	assert.False(t, Alias(0).Valid())
	assert.True(t, Alias(1).Valid())
	assert.True(t, AliasMax.Valid())
	assert.False(t, Alias(0x1000).Valid())
}

func TestMTIClassification(t *testing.T) {
	assert.True(t, MTIVerifyNodeIDGlobal.IsGlobal())
	assert.False(t, MTIVerifyNodeIDAddressed.IsGlobal())
	assert.True(t, MTIVerifyNodeIDAddressed.IsAddressed())
	assert.True(t, MTIDatagram.IsAddressed())
}

func TestMTIStringUnknown(t *testing.T) {
	assert.Equal(t, "MTI<0x1234>", MTI(0x1234).String())
	assert.Equal(t, "MTI<Datagram>", MTIDatagram.String())
}
