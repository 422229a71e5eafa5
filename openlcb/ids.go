// Package openlcb holds the OpenLCB (NMRA LCC S-9.7) node core: node and
// alias identity, the buffer store, the alias map, the node pool, and the
// sentinel errors shared by the rest of the module.
package openlcb

import "fmt"

// NodeID is a 48-bit globally unique node identifier, assigned at
// manufacture and immutable for the life of the node. See spec §3.
type NodeID uint64

// NodeIDMax is the highest legal Node ID; 0xFFFFFFFFFFFF is reserved.
const NodeIDMax NodeID = 0xFFFFFFFFFFFE

// Valid reports whether id is in the legal Node ID range.
func (id NodeID) Valid() bool {
	return id >= 1 && id <= NodeIDMax
}

// String renders the Node ID as the usual dotted-hex form, e.g. "01.02.03.04.05.06".
func (id NodeID) String() string {
	return fmt.Sprintf("%02X.%02X.%02X.%02X.%02X.%02X",
		byte(id>>40), byte(id>>32), byte(id>>24), byte(id>>16), byte(id>>8), byte(id))
}

// Bytes returns the Node ID as 6 big-endian bytes, the wire form used by
// AMD frames, Initialization Complete, and Verified Node ID payloads.
func (id NodeID) Bytes() [6]byte {
	return [6]byte{
		byte(id >> 40), byte(id >> 32), byte(id >> 24),
		byte(id >> 16), byte(id >> 8), byte(id),
	}
}

// NodeIDFromBytes decodes 6 big-endian bytes into a NodeID. Panics if b is
// shorter than 6 bytes — a programmer error, not a protocol error.
func NodeIDFromBytes(b []byte) NodeID {
	_ = b[5]
	return NodeID(b[0])<<40 | NodeID(b[1])<<32 | NodeID(b[2])<<24 |
		NodeID(b[3])<<16 | NodeID(b[4])<<8 | NodeID(b[5])
}

// Alias is a transient 12-bit CAN-segment alias for a Node ID. Alias 0 is
// reserved and never assigned to a permitted node.
type Alias uint16

// AliasMax is the highest legal alias value.
const AliasMax Alias = 0xFFF

// Valid reports whether a is in the legal, non-reserved alias range.
func (a Alias) Valid() bool {
	return a >= 1 && a <= AliasMax
}

func (a Alias) String() string {
	return fmt.Sprintf("%03X", uint16(a)&0xFFF)
}

// EventID is a 64-bit publish/subscribe identifier. By convention its top
// 48 bits are a Node ID, but the core treats it as an opaque 64-bit value.
type EventID uint64

func (e EventID) String() string {
	return fmt.Sprintf("%016X", uint64(e))
}

// Bytes returns the Event ID as 8 big-endian bytes.
func (e EventID) Bytes() [8]byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(e >> uint(56-8*i))
	}
	return b
}

// EventIDFromBytes decodes 8 big-endian bytes into an EventID.
func EventIDFromBytes(b []byte) EventID {
	_ = b[7]
	var e EventID
	for i := 0; i < 8; i++ {
		e = e<<8 | EventID(b[i])
	}
	return e
}

// MTI is the 16-bit Message Type Indicator classifying every OpenLCB
// message. See spec §6.
type MTI uint16

// The MTI values the core dispatches on directly. Unknown MTIs remain
// representable as a plain MTI value for the Optional Interaction
// Rejected path (Design Notes: "Other(u16)").
const (
	MTIInitializationComplete       MTI = 0x0100
	MTIInitializationCompleteSimple MTI = 0x0101
	MTIVerifiedNodeID               MTI = 0x0170
	MTIVerifiedNodeIDSimple         MTI = 0x0171
	MTIVerifyNodeIDAddressed        MTI = 0x0488
	MTIVerifyNodeIDGlobal           MTI = 0x0490
	MTIOptionalInteractionRejected  MTI = 0x0068
	MTITerminateDueToError          MTI = 0x00A8
	MTIProtocolSupportReply         MTI = 0x0668
	MTIProtocolSupportInquiry       MTI = 0x0828
	MTISimpleNodeInfoReply          MTI = 0x0A08
	MTISimpleNodeInfoRequest        MTI = 0x0DE8
	MTIConsumerRangeIdentified      MTI = 0x04A4
	MTIConsumerIdentifiedValid      MTI = 0x04C4
	MTIConsumerIdentifiedInvalid    MTI = 0x04C5
	MTIConsumerIdentifiedUnknown    MTI = 0x04C7
	MTIProducerRangeIdentified      MTI = 0x0524
	MTIProducerIdentifiedValid      MTI = 0x0544
	MTIProducerIdentifiedInvalid    MTI = 0x0545
	MTIProducerIdentifiedUnknown    MTI = 0x0547
	MTIIdentifyProducer             MTI = 0x0914
	MTIIdentifyConsumer             MTI = 0x08F4
	MTIIdentifyEventsGlobal         MTI = 0x0970
	MTIIdentifyEventsAddressed      MTI = 0x0968
	MTIPCEventReport                MTI = 0x05B4
	MTIPCEventReportWithPayload     MTI = 0x05F4
	MTIDatagram                     MTI = 0x1C48
	MTIDatagramOK                   MTI = 0x0A28
	MTIDatagramRejected             MTI = 0x0A48
)

// mtiNames names the MTIs declared above, for String().
var mtiNames = map[MTI]string{
	MTIInitializationComplete:       "InitializationComplete",
	MTIInitializationCompleteSimple: "InitializationCompleteSimple",
	MTIVerifiedNodeID:               "VerifiedNodeID",
	MTIVerifiedNodeIDSimple:         "VerifiedNodeIDSimple",
	MTIVerifyNodeIDAddressed:        "VerifyNodeIDAddressed",
	MTIVerifyNodeIDGlobal:           "VerifyNodeIDGlobal",
	MTIOptionalInteractionRejected:  "OptionalInteractionRejected",
	MTITerminateDueToError:          "TerminateDueToError",
	MTIProtocolSupportReply:         "ProtocolSupportReply",
	MTIProtocolSupportInquiry:       "ProtocolSupportInquiry",
	MTISimpleNodeInfoReply:          "SimpleNodeInfoReply",
	MTISimpleNodeInfoRequest:        "SimpleNodeInfoRequest",
	MTIConsumerRangeIdentified:      "ConsumerRangeIdentified",
	MTIConsumerIdentifiedValid:      "ConsumerIdentifiedValid",
	MTIConsumerIdentifiedInvalid:    "ConsumerIdentifiedInvalid",
	MTIConsumerIdentifiedUnknown:    "ConsumerIdentifiedUnknown",
	MTIProducerRangeIdentified:      "ProducerRangeIdentified",
	MTIProducerIdentifiedValid:      "ProducerIdentifiedValid",
	MTIProducerIdentifiedInvalid:    "ProducerIdentifiedInvalid",
	MTIProducerIdentifiedUnknown:    "ProducerIdentifiedUnknown",
	MTIIdentifyProducer:             "IdentifyProducer",
	MTIIdentifyConsumer:             "IdentifyConsumer",
	MTIIdentifyEventsGlobal:         "IdentifyEventsGlobal",
	MTIIdentifyEventsAddressed:      "IdentifyEventsAddressed",
	MTIPCEventReport:                "PCEventReport",
	MTIPCEventReportWithPayload:     "PCEventReportWithPayload",
	MTIDatagram:                     "Datagram",
	MTIDatagramOK:                   "DatagramOK",
	MTIDatagramRejected:             "DatagramRejected",
}

func (m MTI) String() string {
	if name, ok := mtiNames[m]; ok {
		return "MTI<" + name + ">"
	}
	return fmt.Sprintf("MTI<0x%04X>", uint16(m))
}

// IsGlobal reports whether m is one of the unaddressed/global classes that
// must be delivered to every node regardless of destination alias (spec
// §4.7 step 5).
func (m MTI) IsGlobal() bool {
	switch m {
	case MTIVerifyNodeIDGlobal, MTIIdentifyEventsGlobal,
		MTIPCEventReport, MTIPCEventReportWithPayload,
		MTIConsumerRangeIdentified, MTIConsumerIdentifiedValid,
		MTIConsumerIdentifiedInvalid, MTIConsumerIdentifiedUnknown,
		MTIProducerRangeIdentified, MTIProducerIdentifiedValid,
		MTIProducerIdentifiedInvalid, MTIProducerIdentifiedUnknown,
		MTIInitializationComplete, MTIInitializationCompleteSimple:
		return true
	}
	return false
}

// IsAddressed reports whether m carries an explicit destination alias/Node
// ID, per the CAN-header addressed-class convention of spec §6.
func (m MTI) IsAddressed() bool {
	switch m {
	case MTIVerifyNodeIDAddressed, MTIProtocolSupportInquiry, MTIProtocolSupportReply,
		MTISimpleNodeInfoRequest, MTISimpleNodeInfoReply,
		MTIIdentifyProducer, MTIIdentifyConsumer, MTIIdentifyEventsAddressed,
		MTIOptionalInteractionRejected, MTITerminateDueToError,
		MTIDatagram, MTIDatagramOK, MTIDatagramRejected,
		MTIVerifiedNodeID, MTIVerifiedNodeIDSimple:
		return true
	}
	return false
}
