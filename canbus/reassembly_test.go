package canbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lcc/lcc-node/openlcb"
)

func newTestReassembler() (*Reassembler, *openlcb.BufferStore, *openlcb.AliasMap) {
	buffers := openlcb.NewBufferStore(4, 4, 4, 4)
	aliases := openlcb.NewAliasMap(4)
	return NewReassembler(buffers, aliases), buffers, aliases
}

func TestAcceptSingleFrameMessage(t *testing.T) {
	r, buffers, _ := newTestReassembler()
	frame := Frame{
		Identifier: DataIdentifier(DataOnly, openlcb.MTIInitializationComplete, 0x123),
		Data:       [8]byte{1, 2, 3, 4, 5, 6},
		Length:     6,
	}
	h, done, err := r.Accept(frame)
	require.NoError(t, err)
	require.True(t, done)

	msg := buffers.Basic.Get(h)
	require.NotNil(t, msg)
	assert.Equal(t, openlcb.MTIInitializationComplete, msg.MTI)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, msg.Payload)
}

func TestAcceptMultiFrameSNIPReply(t *testing.T) {
	r, buffers, _ := newTestReassembler()
	src := openlcb.Alias(0x321)
	dest := byte(0x04) // destination alias 0x0456, big-endian hi/lo bytes below

	_, done, err := r.Accept(Frame{
		Identifier: DataIdentifier(DataFirst, openlcb.MTISimpleNodeInfoReply, src),
		Data:       [8]byte{dest, 0x56, 'a', 'b', 'c', 'd', 'e', 'f'}, Length: 8,
	})
	require.NoError(t, err)
	require.False(t, done)

	_, done, err = r.Accept(Frame{
		Identifier: DataIdentifier(DataMiddle, openlcb.MTISimpleNodeInfoReply, src),
		Data:       [8]byte{dest, 0x56, 'g', 'h'}, Length: 4,
	})
	require.NoError(t, err)
	require.False(t, done)

	h, done, err := r.Accept(Frame{
		Identifier: DataIdentifier(DataLast, openlcb.MTISimpleNodeInfoReply, src),
		Data:       [8]byte{dest, 0x56, 'i'}, Length: 3,
	})
	require.NoError(t, err)
	require.True(t, done)

	msg := buffers.SNIP.Get(h)
	require.NotNil(t, msg)
	assert.Equal(t, "abcdefghi", string(msg.Payload))
	assert.Equal(t, openlcb.Alias(0x0456), msg.DestAlias)
}

func TestAcceptDatagramCarriesDestAliasFromHeader(t *testing.T) {
	r, buffers, _ := newTestReassembler()
	h, done, err := r.Accept(Frame{
		Identifier: DatagramIdentifier(DataDatagramOnly, 0x222, 0x111),
		Data:       [8]byte{0x20, 0x40, 0, 0},
		Length:     4,
	})
	require.NoError(t, err)
	require.True(t, done)

	msg := buffers.Datagram.Get(h)
	require.NotNil(t, msg)
	assert.Equal(t, openlcb.Alias(0x222), msg.DestAlias)
	assert.Equal(t, openlcb.Alias(0x111), msg.SourceAlias)
}

func TestAcceptAMRClearsAliasMapEntry(t *testing.T) {
	r, _, aliases := newTestReassembler()
	_, err := aliases.Register(0x456, 0x0A0B0C0D0E0F)
	require.NoError(t, err)

	_, _, err = r.Accept(Frame{Identifier: AliasMapIdentifier(SubtypeAMR, 0x456)})
	require.NoError(t, err)
	assert.Nil(t, aliases.FindByAlias(0x456))
}

func TestAcceptMiddleWithoutFirstReturnsNotAllocated(t *testing.T) {
	r, _, _ := newTestReassembler()
	_, done, err := r.Accept(Frame{
		Identifier: DataIdentifier(DataMiddle, openlcb.MTISimpleNodeInfoReply, 0x999),
	})
	assert.False(t, done)
	assert.ErrorIs(t, err, openlcb.ErrNotAllocated)
}
