package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lcc/lcc-node/datagram"
	"github.com/go-lcc/lcc-node/openlcb"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *openlcb.BufferStore, *openlcb.Node, *[]*openlcb.Message) {
	buffers := openlcb.NewBufferStore(4, 4, 4, 4)
	nodes := openlcb.NewNodePool(4)
	node := openlcb.NewNode(0x010203040506, &openlcb.Parameters{})
	node.Alias = 0x123
	node.State.Permitted = true
	require.NoError(t, nodes.Add(node))

	dgram := datagram.NewDispatcher(map[byte]datagram.AddressSpace{
		datagram.SpaceConfig: datagram.NewMemSpace(32),
	})

	var sent []*openlcb.Message
	transmit := func(msg *openlcb.Message, src openlcb.Alias) error {
		sent = append(sent, msg)
		return nil
	}

	d := NewDispatcher(buffers, nodes, dgram, 8, transmit)
	return d, buffers, node, &sent
}

func queueMessage(t *testing.T, d *Dispatcher, buffers *openlcb.BufferStore, mti openlcb.MTI, destAlias openlcb.Alias, payload []byte) {
	class := openlcb.ClassForMTI(mti)
	h, msg, err := buffers.PoolFor(class).Allocate()
	require.NoError(t, err)
	msg.MTI = mti
	msg.DestAlias = destAlias
	msg.Payload = append(msg.Payload[:0], payload...)
	require.True(t, d.Incoming.Push(Queued{Handle: h, Class: class}))
}

func stepN(t *testing.T, d *Dispatcher, n int) {
	for i := 0; i < n; i++ {
		_, err := d.Step()
		require.NoError(t, err)
	}
}

func TestStepDispatchesVerifyNodeIDGlobalToEveryPermittedNode(t *testing.T) {
	d, buffers, node, sent := newTestDispatcher(t)
	queueMessage(t, d, buffers, openlcb.MTIVerifyNodeIDGlobal, 0, nil)

	stepN(t, d, 6)

	require.GreaterOrEqual(t, len(*sent), 1)
	assert.Equal(t, openlcb.MTIVerifiedNodeID, (*sent)[0].MTI)
	_ = node
}

func TestStepSkipsMessageAddressedToAnotherAlias(t *testing.T) {
	d, buffers, _, sent := newTestDispatcher(t)
	queueMessage(t, d, buffers, openlcb.MTIVerifyNodeIDAddressed, 0x999, nil)

	stepN(t, d, 6)
	assert.Empty(t, *sent)
}

func TestStepSynthesizesOptionalInteractionRejectedForUnknownMTI(t *testing.T) {
	d, buffers, _, sent := newTestDispatcher(t)
	queueMessage(t, d, buffers, openlcb.MTIIdentifyConsumer, 0x123, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	stepN(t, d, 6)
	require.NotEmpty(t, *sent)
	assert.Equal(t, openlcb.MTIOptionalInteractionRejected, (*sent)[0].MTI)
}

func TestStepEnumeratesProducersAndConsumersAcrossMultipleSteps(t *testing.T) {
	d, buffers, node, sent := newTestDispatcher(t)
	node.Producers.Add(0x0102030405060001, openlcb.EventValid)
	node.Producers.Add(0x0102030405060002, openlcb.EventValid)
	node.Consumers.Add(0x0102030405060003, openlcb.EventValid)

	queueMessage(t, d, buffers, openlcb.MTIIdentifyEventsAddressed, 0x123, nil)

	stepN(t, d, 10)

	var mtis []openlcb.MTI
	for _, m := range *sent {
		mtis = append(mtis, m.MTI)
	}
	assert.Contains(t, mtis, openlcb.MTIProducerIdentifiedValid)
	assert.Contains(t, mtis, openlcb.MTIConsumerIdentifiedValid)
	producerCount := 0
	for _, m := range mtis {
		if m == openlcb.MTIProducerIdentifiedValid {
			producerCount++
		}
	}
	assert.Equal(t, 2, producerCount)
}

func TestStepRunsDatagramTwoPassAckDiscipline(t *testing.T) {
	d, buffers, _, sent := newTestDispatcher(t)
	cmd := []byte{0x20, 0x43, 0, 0, 0, 0, 4} // memconfig read, space=config(nibble3), addr=0, count=4
	queueMessage(t, d, buffers, openlcb.MTIDatagram, 0x123, cmd)

	stepN(t, d, 10)

	require.Len(t, *sent, 2)
	assert.Equal(t, openlcb.MTIDatagramOK, (*sent)[0].MTI)
	assert.Equal(t, openlcb.MTIDatagram, (*sent)[1].MTI)
}

func TestStepRejectedDatagramSendsNoSecondPassReply(t *testing.T) {
	d, buffers, _, sent := newTestDispatcher(t)
	cmd := []byte{0x20, 0x43, 0, 0, 0, 0, 0} // memconfig read, count=0: rejected
	queueMessage(t, d, buffers, openlcb.MTIDatagram, 0x123, cmd)

	stepN(t, d, 10)

	require.Len(t, *sent, 1)
	assert.Equal(t, openlcb.MTIDatagramRejected, (*sent)[0].MTI)
}

func TestStepIsIdleWithEmptyFIFO(t *testing.T) {
	d, _, _, _ := newTestDispatcher(t)
	result, err := d.Step()
	require.NoError(t, err)
	assert.Equal(t, openlcb.Idle, result)
}
