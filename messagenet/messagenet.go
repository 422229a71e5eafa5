// Package messagenet implements the OpenLCB message-network protocol:
// the required handlers every compliant node carries (Verify-Node-ID,
// Protocol-Support-Inquiry, Optional-Interaction-Rejected synthesis,
// Simple-Node-Info) and the event-exchange handlers (Identify-Events,
// Identify-Producer/Consumer, PC-Event-Report). See spec §4.10.
package messagenet

import (
	"encoding/binary"

	"github.com/go-lcc/lcc-node/openlcb"
)

// ErrorCode is the 16-bit error code carried by Optional-Interaction-
// Rejected and Datagram-Rejected replies. Bit 0x8000 marks a temporary
// condition, bit 0x1000 a permanent one (spec §4.8, §7).
type ErrorCode uint16

const (
	ErrCodeOptionalInteractionRejected ErrorCode = 0x1043
)

// Handler processes one (node, message) pair, filling reply with the
// outgoing message when a reply is owed. It returns ok=false when no
// reply should be sent (message was purely informational).
type Handler func(node *openlcb.Node, msg *openlcb.Message, reply *openlcb.Message) (ok bool, err error)

// Table maps required and optional MTIs to their handlers. A nil entry
// for an otherwise-dispatchable MTI means "optional, unimplemented" and
// the dispatcher synthesizes Optional-Interaction-Rejected (spec §4.7
// step 6).
var Table = map[openlcb.MTI]Handler{
	openlcb.MTIVerifyNodeIDGlobal:          handleVerifyNodeIDGlobal,
	openlcb.MTIVerifyNodeIDAddressed:       handleVerifyNodeIDAddressed,
	openlcb.MTIVerifiedNodeID:              handleInformationalOnly,
	openlcb.MTIVerifiedNodeIDSimple:        handleInformationalOnly,
	openlcb.MTIInitializationComplete:      handleInformationalOnly,
	openlcb.MTIProtocolSupportInquiry:      handleProtocolSupportInquiry,
	openlcb.MTITerminateDueToError:         handleInformationalOnly,
	openlcb.MTIOptionalInteractionRejected: handleInformationalOnly,
	openlcb.MTISimpleNodeInfoRequest:       handleSimpleNodeInfoRequest,
}

// handleSimpleNodeInfoRequest answers with the node's SNIP payload (spec
// §4.10). No config_mem_read callout is wired through the message-network
// layer, so it falls back to the factory defaults carried in
// node.Parameters.SNIP rather than reading ACDI-user space live.
func handleSimpleNodeInfoRequest(node *openlcb.Node, _ *openlcb.Message, reply *openlcb.Message) (bool, error) {
	payload, err := SimpleNodeInfoReply(node, nil)
	if err != nil {
		return false, err
	}
	reply.MTI = openlcb.MTISimpleNodeInfoReply
	reply.Payload = append(reply.Payload[:0], payload...)
	return true, nil
}

// handleInformationalOnly acknowledges receipt without a reply; used for
// MTIs whose required handling is "observe, don't answer".
func handleInformationalOnly(*openlcb.Node, *openlcb.Message, *openlcb.Message) (bool, error) {
	return false, nil
}

// handleVerifyNodeIDGlobal always answers: every node on the segment
// replies to a global verify.
func handleVerifyNodeIDGlobal(node *openlcb.Node, _ *openlcb.Message, reply *openlcb.Message) (bool, error) {
	return verifiedNodeIDReply(node, reply), nil
}

// handleVerifyNodeIDAddressed answers only when the dispatcher has
// already confirmed (via its addressability filter, spec §4.7 step 5)
// that this message is addressed to this node — by the time a handler
// runs, that filtering has happened, so this always answers too.
func handleVerifyNodeIDAddressed(node *openlcb.Node, _ *openlcb.Message, reply *openlcb.Message) (bool, error) {
	return verifiedNodeIDReply(node, reply), nil
}

func verifiedNodeIDReply(node *openlcb.Node, reply *openlcb.Message) bool {
	nid := node.ID.Bytes()
	reply.MTI = openlcb.MTIVerifiedNodeID
	reply.Payload = append(reply.Payload[:0], nid[:]...)
	return true
}

// handleProtocolSupportInquiry packs the node's protocol_support bitmask
// as 6 big-endian bytes (spec §4.10).
func handleProtocolSupportInquiry(node *openlcb.Node, _ *openlcb.Message, reply *openlcb.Message) (bool, error) {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], node.Parameters.ProtocolSupport<<16)
	reply.MTI = openlcb.MTIProtocolSupportReply
	reply.Payload = append(reply.Payload[:0], buf[:6]...)
	return true, nil
}

// OptionalInteractionRejected synthesizes the reply the dispatcher sends
// when an MTI has no registered handler (spec §4.7 step 6).
func OptionalInteractionRejected(rejectedMTI openlcb.MTI, reply *openlcb.Message) {
	reply.MTI = openlcb.MTIOptionalInteractionRejected
	reply.Payload = append(reply.Payload[:0],
		byte(ErrCodeOptionalInteractionRejected>>8), byte(ErrCodeOptionalInteractionRejected),
		byte(rejectedMTI>>8), byte(rejectedMTI))
}
