package messagenet

import (
	"github.com/go-lcc/lcc-node/openlcb"
)

// identifiedMTI picks the Producer/Consumer-Identified-{Valid,Invalid,
// Unknown} MTI matching an EventState, for a given pair of "identified"
// MTIs ordered (valid, invalid, unknown).
func identifiedMTI(state openlcb.EventState, valid, invalid, unknown openlcb.MTI) openlcb.MTI {
	switch state {
	case openlcb.EventValid:
		return valid
	case openlcb.EventInvalid:
		return invalid
	default:
		return unknown
	}
}

// EnumerateProducers drives one step of Producer-Identified enumeration
// against node's producer list, filling reply with the next binding's
// report and returning enumerate=true while more bindings remain (spec
// §4.7: "handlers may set enumerate to be called again against the same
// (node, message) pair").
func EnumerateProducers(node *openlcb.Node, reply *openlcb.Message) (ok, enumerate bool) {
	return enumerateEvents(&node.Producers, reply,
		openlcb.MTIProducerIdentifiedValid, openlcb.MTIProducerIdentifiedInvalid, openlcb.MTIProducerIdentifiedUnknown)
}

// EnumerateConsumers is EnumerateProducers' mirror for the consumer list.
func EnumerateConsumers(node *openlcb.Node, reply *openlcb.Message) (ok, enumerate bool) {
	return enumerateEvents(&node.Consumers, reply,
		openlcb.MTIConsumerIdentifiedValid, openlcb.MTIConsumerIdentifiedInvalid, openlcb.MTIConsumerIdentifiedUnknown)
}

func enumerateEvents(list *openlcb.EventList, reply *openlcb.Message, valid, invalid, unknown openlcb.MTI) (ok, enumerate bool) {
	binding, more := list.Next()
	if !more {
		return false, false
	}
	reply.MTI = identifiedMTI(binding.State, valid, invalid, unknown)
	eid := binding.Event.Bytes()
	reply.Payload = append(reply.Payload[:0], eid[:]...)
	return true, list.Remaining() > 0
}

// handleIdentifyEventsGlobal and handleIdentifyEventsAddressed reset both
// cursors and emit the first binding, if any; they do not continue the
// walk. dispatch.Dispatcher does not call these Table entries: it routes
// Identify-Events messages to BeginEventEnumeration and
// ContinueEventEnumeration itself.
func handleIdentifyEventsGlobal(node *openlcb.Node, _ *openlcb.Message, reply *openlcb.Message) (bool, error) {
	return beginEventEnumeration(node, reply)
}

func handleIdentifyEventsAddressed(node *openlcb.Node, _ *openlcb.Message, reply *openlcb.Message) (bool, error) {
	return beginEventEnumeration(node, reply)
}

func beginEventEnumeration(node *openlcb.Node, reply *openlcb.Message) (bool, error) {
	ok, _ := BeginEventEnumeration(node, reply)
	return ok, nil
}

// ContinueEventEnumeration emits the next producer or consumer binding
// after a prior BeginEventEnumeration/ContinueEventEnumeration call,
// reporting whether another call would still have something to emit.
func ContinueEventEnumeration(node *openlcb.Node, reply *openlcb.Message) (ok, more bool) {
	if ok, producersMore := EnumerateProducers(node, reply); ok {
		return true, producersMore || node.Consumers.Remaining() > 0
	}
	return EnumerateConsumers(node, reply)
}

// BeginEventEnumeration resets both enumeration cursors and emits the
// first producer or consumer binding, if any. more reports whether a
// subsequent EnumerateProducers/EnumerateConsumers call would still have
// something to emit — the dispatcher's re-enumerate continuation uses
// this to decide whether to pin the (node, message) pair for another
// pass (spec §4.7: "used by Producer-Identified and Consumer-Identified
// enumeration after Protocol-Support-Inquiry").
func BeginEventEnumeration(node *openlcb.Node, reply *openlcb.Message) (ok, more bool) {
	node.Producers.ResetCursor()
	node.Consumers.ResetCursor()
	if ok, producersMore := EnumerateProducers(node, reply); ok {
		return true, producersMore || node.Consumers.Remaining() > 0
	}
	ok, more = EnumerateConsumers(node, reply)
	return ok, more
}

// handlePCEventReport and handlePCEventReportWithPayload are consumed
// informationally by the core; an application layer above decides
// whether a reported event matches one of this node's consumers. The
// core's job ends at delivering the message to the dispatcher.
func handlePCEventReport(*openlcb.Node, *openlcb.Message, *openlcb.Message) (bool, error) {
	return false, nil
}

func init() {
	Table[openlcb.MTIIdentifyEventsGlobal] = handleIdentifyEventsGlobal
	Table[openlcb.MTIIdentifyEventsAddressed] = handleIdentifyEventsAddressed
	Table[openlcb.MTIPCEventReport] = handlePCEventReport
	Table[openlcb.MTIPCEventReportWithPayload] = handlePCEventReport
}
