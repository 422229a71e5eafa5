// Package nodeinit implements the OpenLCB-side login state machine that
// picks up after the CAN alias is permitted: Initialization-Complete,
// then auto-created Producer-Identified and Consumer-Identified event
// announcements (spec §4.3's "LOAD_INIT_COMPLETE (OpenLCB login)" handoff,
// expanded per the component table's "post-alias initialization" row).
package nodeinit

import (
	"github.com/go-lcc/lcc-node/messagenet"
	"github.com/go-lcc/lcc-node/openlcb"
)

// Step advances node's post-alias login by one state, emitting at most one
// outgoing message per call via send. It mirrors canbus.Step's shape: a
// single state-machine step function returning whether it made progress,
// called once per dispatcher iteration.
func Step(node *openlcb.Node, send func(*openlcb.Message) error) (openlcb.StepResult, error) {
	switch node.State.RunState {
	case openlcb.RunStateLoadInitComplete:
		id := node.ID.Bytes()
		if err := send(&openlcb.Message{
			MTI:         openlcb.MTIInitializationComplete,
			SourceAlias: node.Alias,
			SourceID:    node.ID,
			Payload:     id[:],
		}); err != nil {
			return openlcb.RetryLater, err
		}
		node.State.Initialized = true
		autoCreateEvents(node)
		node.State.RunState = openlcb.RunStateLoadProducerEvents
		return openlcb.Progressed, nil

	case openlcb.RunStateLoadProducerEvents:
		var reply openlcb.Message
		reply.SourceAlias = node.Alias
		if ok, enumerate := messagenet.EnumerateProducers(node, &reply); ok {
			if err := send(&reply); err != nil {
				return openlcb.RetryLater, err
			}
			if !enumerate {
				node.State.RunState = openlcb.RunStateLoadConsumerEvents
			}
			return openlcb.Progressed, nil
		}
		node.State.RunState = openlcb.RunStateLoadConsumerEvents
		return openlcb.Progressed, nil

	case openlcb.RunStateLoadConsumerEvents:
		var reply openlcb.Message
		reply.SourceAlias = node.Alias
		if ok, enumerate := messagenet.EnumerateConsumers(node, &reply); ok {
			if err := send(&reply); err != nil {
				return openlcb.RetryLater, err
			}
			if !enumerate {
				node.State.RunState = openlcb.RunStateLoginComplete
			}
			return openlcb.Progressed, nil
		}
		node.State.RunState = openlcb.RunStateLoginComplete
		return openlcb.Progressed, nil

	case openlcb.RunStateLoginComplete:
		node.State.RunState = openlcb.RunStateRun
		return openlcb.Progressed, nil

	default:
		return openlcb.Idle, nil
	}
}

// autoCreateEvents populates node's producer/consumer lists from
// Parameters.AutoCreateProducers/AutoCreateConsumers, synthesizing one
// event per count using the node's own Node ID as the 48-bit event prefix
// and the slot index as the low 16 bits — a convention for self-assigned
// event ranges (spec §3: "Event ID ... whose top 48 bits are conventionally
// a Node ID").
func autoCreateEvents(node *openlcb.Node) {
	if node.Parameters == nil {
		return
	}
	base := uint64(node.ID) << 16
	for i := 0; i < node.Parameters.AutoCreateProducers; i++ {
		node.Producers.Add(openlcb.EventID(base|uint64(i)), openlcb.EventUnknown)
	}
	for i := 0; i < node.Parameters.AutoCreateConsumers; i++ {
		node.Consumers.Add(openlcb.EventID(base|uint64(i)), openlcb.EventUnknown)
	}
}
