package canbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lcc/lcc-node/openlcb"
)

func TestSendShortMessageIsSingleOnlyFrame(t *testing.T) {
	bus := &fakeBus{}
	msg := &openlcb.Message{MTI: openlcb.MTIInitializationComplete, Payload: []byte{1, 2, 3, 4, 5, 6}}
	require.NoError(t, Send(bus, msg, 0x123))

	require.Len(t, bus.sent, 1)
	c := Classify(bus.sent[0].Identifier)
	require.NotNil(t, c.Data)
	assert.Equal(t, DataOnly, c.Data.Kind)
}

func TestSendLongMessageFragmentsFirstMiddleLast(t *testing.T) {
	bus := &fakeBus{}
	payload := make([]byte, 20)
	for i := range payload {
		payload[i] = byte(i)
	}
	msg := &openlcb.Message{MTI: openlcb.MTISimpleNodeInfoReply, DestAlias: 0x456, Payload: payload}
	require.NoError(t, Send(bus, msg, 0x123))

	// Addressed messages reserve the first two body bytes of every frame
	// for the destination alias, so 20 bytes at 6/frame needs 4 frames.
	require.Len(t, bus.sent, 4)
	kinds := make([]DataFrameType, len(bus.sent))
	var reassembled []byte
	for i, f := range bus.sent {
		c := Classify(f.Identifier)
		require.NotNil(t, c.Data)
		kinds[i] = c.Data.Kind
		dest := openlcb.Alias(uint16(f.Data[0])<<8 | uint16(f.Data[1]))
		assert.Equal(t, openlcb.Alias(0x456), dest)
		reassembled = append(reassembled, f.Data[2:f.Length]...)
	}
	assert.Equal(t, []DataFrameType{DataFirst, DataMiddle, DataMiddle, DataLast}, kinds)
	assert.Equal(t, payload, reassembled)
}

func TestSendDatagramUsesDestAliasFromHeaderNotPayload(t *testing.T) {
	bus := &fakeBus{}
	msg := &openlcb.Message{MTI: openlcb.MTIDatagram, DestAlias: 0x222, Payload: []byte{1, 2, 3}}
	require.NoError(t, Send(bus, msg, 0x111))

	require.Len(t, bus.sent, 1)
	c := Classify(bus.sent[0].Identifier)
	require.NotNil(t, c.DatagramFrm)
	assert.Equal(t, DataDatagramOnly, c.DatagramFrm.Kind)
	assert.Equal(t, openlcb.Alias(0x222), c.DatagramFrm.DestAlias)
}

func TestFragmentThenReassembleRoundTrip(t *testing.T) {
	bus := &fakeBus{}
	payload := make([]byte, 30)
	for i := range payload {
		payload[i] = byte(200 + i)
	}
	original := &openlcb.Message{MTI: openlcb.MTISimpleNodeInfoReply, DestAlias: 0x456, Payload: payload}
	require.NoError(t, Send(bus, original, 0x321))

	r, buffers, _ := newTestReassembler()
	var final openlcb.Handle
	for _, f := range bus.sent {
		h, done, err := r.Accept(f)
		require.NoError(t, err)
		if done {
			final = h
		}
	}
	msg := buffers.SNIP.Get(final)
	require.NotNil(t, msg)
	assert.Equal(t, payload, msg.Payload)
	assert.Equal(t, openlcb.Alias(0x456), msg.DestAlias)
	assert.Equal(t, openlcb.Alias(0x321), msg.SourceAlias)
}
