package canbus

import (
	"github.com/go-lcc/lcc-node/openlcb"
)

// canFrameCapacity is the payload capacity of a single Only/First/
// Middle/Last CAN data frame carrying an unaddressed (global) message.
const canFrameCapacity = 8

// addressedFrameCapacity is the body capacity of an Only/First/Middle/
// Last frame carrying an addressed message: the first two payload bytes
// instead carry the destination alias, per spec §4.5 ("first two bytes
// of each frame carry the destination alias").
const addressedFrameCapacity = 6

// Send fragments msg into one or more CAN frames and writes them to bus,
// in order, using the Only/First/Middle/Last rules of spec §4.5. The
// caller supplies sourceAlias separately from msg.SourceAlias since the
// latter may not yet be populated by a higher layer composing a new
// outgoing message.
func Send(bus Bus, msg *openlcb.Message, sourceAlias openlcb.Alias) error {
	if msg.MTI == openlcb.MTIDatagram {
		return sendDatagram(bus, msg, sourceAlias)
	}

	if msg.MTI.IsAddressed() {
		return sendAddressed(bus, msg, sourceAlias)
	}

	if len(msg.Payload) <= canFrameCapacity {
		return bus.Send(dataFrame(DataOnly, msg.MTI, sourceAlias, msg.Payload))
	}

	remaining := msg.Payload
	first := remaining[:canFrameCapacity]
	remaining = remaining[canFrameCapacity:]
	if err := bus.Send(dataFrame(DataFirst, msg.MTI, sourceAlias, first)); err != nil {
		return err
	}

	for len(remaining) > canFrameCapacity {
		chunk := remaining[:canFrameCapacity]
		remaining = remaining[canFrameCapacity:]
		if err := bus.Send(dataFrame(DataMiddle, msg.MTI, sourceAlias, chunk)); err != nil {
			return err
		}
	}
	return bus.Send(dataFrame(DataLast, msg.MTI, sourceAlias, remaining))
}

// sendAddressed fragments an addressed (non-datagram) message, prefixing
// every frame's body with the 2-byte destination alias per spec §4.5.
func sendAddressed(bus Bus, msg *openlcb.Message, sourceAlias openlcb.Alias) error {
	if len(msg.Payload) <= addressedFrameCapacity {
		return bus.Send(addressedDataFrame(DataOnly, msg.MTI, sourceAlias, msg.DestAlias, msg.Payload))
	}

	remaining := msg.Payload
	first := remaining[:addressedFrameCapacity]
	remaining = remaining[addressedFrameCapacity:]
	if err := bus.Send(addressedDataFrame(DataFirst, msg.MTI, sourceAlias, msg.DestAlias, first)); err != nil {
		return err
	}

	for len(remaining) > addressedFrameCapacity {
		chunk := remaining[:addressedFrameCapacity]
		remaining = remaining[addressedFrameCapacity:]
		if err := bus.Send(addressedDataFrame(DataMiddle, msg.MTI, sourceAlias, msg.DestAlias, chunk)); err != nil {
			return err
		}
	}
	return bus.Send(addressedDataFrame(DataLast, msg.MTI, sourceAlias, msg.DestAlias, remaining))
}

func addressedDataFrame(kind DataFrameType, mti openlcb.MTI, sourceAlias, destAlias openlcb.Alias, body []byte) Frame {
	f := Frame{Identifier: DataIdentifier(kind, mti, sourceAlias)}
	f.Data[0] = byte(destAlias >> 8)
	f.Data[1] = byte(destAlias)
	n := copy(f.Data[2:], body)
	f.Length = n + 2
	return f
}

func sendDatagram(bus Bus, msg *openlcb.Message, sourceAlias openlcb.Alias) error {
	destAlias := msg.DestAlias

	if len(msg.Payload) <= canFrameCapacity {
		return bus.Send(datagramFrame(DataDatagramOnly, destAlias, sourceAlias, msg.Payload))
	}

	remaining := msg.Payload
	first := remaining[:canFrameCapacity]
	remaining = remaining[canFrameCapacity:]
	if err := bus.Send(datagramFrame(DataDatagramFirst, destAlias, sourceAlias, first)); err != nil {
		return err
	}

	for len(remaining) > canFrameCapacity {
		chunk := remaining[:canFrameCapacity]
		remaining = remaining[canFrameCapacity:]
		if err := bus.Send(datagramFrame(DataDatagramMiddle, destAlias, sourceAlias, chunk)); err != nil {
			return err
		}
	}
	return bus.Send(datagramFrame(DataDatagramLast, destAlias, sourceAlias, remaining))
}

func dataFrame(kind DataFrameType, mti openlcb.MTI, sourceAlias openlcb.Alias, payload []byte) Frame {
	f := Frame{Identifier: DataIdentifier(kind, mti, sourceAlias), Length: len(payload)}
	copy(f.Data[:], payload)
	return f
}

func datagramFrame(kind DataFrameType, destAlias, sourceAlias openlcb.Alias, payload []byte) Frame {
	f := Frame{Identifier: DatagramIdentifier(kind, destAlias, sourceAlias), Length: len(payload)}
	copy(f.Data[:], payload)
	return f
}
