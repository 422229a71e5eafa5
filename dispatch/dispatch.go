// Package dispatch implements the main OpenLCB message dispatcher: a
// single-step cooperative loop that pops one reassembled message at a
// time, walks the node pool, addressability-filters, and dispatches by
// MTI to the message-network and datagram handler tables (spec §4.7).
package dispatch

import (
	"github.com/go-lcc/lcc-node/canbus"
	"github.com/go-lcc/lcc-node/clog"
	"github.com/go-lcc/lcc-node/datagram"
	"github.com/go-lcc/lcc-node/messagenet"
	"github.com/go-lcc/lcc-node/openlcb"
)

// Queued is one entry on the dispatcher's incoming-message FIFO: a handle
// into the size-class pool it was allocated from.
type Queued struct {
	Handle openlcb.Handle
	Class  openlcb.SizeClass
}

// outgoing is a reply awaiting hand-off to CAN TX (spec §4.7 step 1).
type outgoing struct {
	msg         *openlcb.Message
	sourceAlias openlcb.Alias
}

// continuation is a re-enumerate callback: a handler that produces
// another reply from the same (node, message) pair, reporting whether a
// further call would still have something to emit (spec §4.7: "handlers
// may set enumerate to be called again against the same pair").
type continuation func() (reply *openlcb.Message, more bool, err error)

type pinned struct {
	node *openlcb.Node
	next continuation
}

// Dispatcher holds the shared resources the single-step loop operates
// over: the message-buffer pools, the node pool, the configuration-memory
// dispatcher, the incoming-message FIFO, and the CAN transmit callback.
type Dispatcher struct {
	Buffers  *openlcb.BufferStore
	Nodes    *openlcb.NodePool
	Datagram *datagram.Dispatcher
	Incoming *canbus.FIFO[Queued]

	// Transmit hands a fully formed outgoing message to the CAN
	// fragmenter/bus. It should return an error (without side effects
	// the caller must undo) when the TX path is momentarily backed up,
	// so Step can retry the same message next call (spec §4.5:
	// "is_tx_buffer_clear() gates submission").
	Transmit func(msg *openlcb.Message, sourceAlias openlcb.Alias) error

	// Log reports unknown-MTI rejections and other dispatch-level
	// events. Defaults to a disabled clog.Clog.
	Log clog.Clog

	out           *outgoing
	pin           *pinned
	current       *Queued
	cursorStarted bool
}

// NewDispatcher builds a Dispatcher over the given shared resources.
func NewDispatcher(buffers *openlcb.BufferStore, nodes *openlcb.NodePool, dgram *datagram.Dispatcher, incomingDepth int, transmit func(*openlcb.Message, openlcb.Alias) error) *Dispatcher {
	return &Dispatcher{
		Buffers:  buffers,
		Nodes:    nodes,
		Datagram: dgram,
		Incoming: canbus.NewFIFO[Queued](incomingDepth),
		Transmit: transmit,
		Log:      clog.NewLogger("dispatch: "),
	}
}

// Step runs one iteration of the priority-ordered loop of spec §4.7.
func (d *Dispatcher) Step() (openlcb.StepResult, error) {
	if d.out != nil {
		if err := d.Transmit(d.out.msg, d.out.sourceAlias); err != nil {
			return openlcb.RetryLater, nil
		}
		d.out = nil
		return openlcb.Progressed, nil
	}

	if d.pin != nil {
		reply, more, err := d.pin.next()
		if err != nil {
			d.pin = nil
			return openlcb.Idle, err
		}
		if reply != nil {
			d.queueOutgoing(reply, d.pin.node.Alias)
		}
		if !more {
			d.pin = nil
		}
		return openlcb.Progressed, nil
	}

	if d.current == nil {
		q, ok := d.Incoming.Pop()
		if !ok {
			return openlcb.Idle, nil
		}
		d.current = &q
		d.cursorStarted = false
	}

	var node *openlcb.Node
	if !d.cursorStarted {
		node = d.Nodes.GetFirst(openlcb.CursorDispatcher)
		d.cursorStarted = true
	} else {
		node = d.Nodes.GetNext(openlcb.CursorDispatcher)
	}
	if node == nil {
		_ = d.Buffers.PoolFor(d.current.Class).Free(d.current.Handle)
		d.current = nil
		return openlcb.Progressed, nil
	}

	msg := d.Buffers.PoolFor(d.current.Class).Get(d.current.Handle)
	if msg == nil {
		d.current = nil
		return openlcb.Progressed, nil
	}

	if !node.State.Permitted {
		return openlcb.Progressed, nil
	}
	if !msg.MTI.IsGlobal() && msg.MTI.IsAddressed() && msg.DestAlias != node.Alias {
		return openlcb.Progressed, nil
	}

	return d.dispatch(node, msg)
}

func (d *Dispatcher) queueOutgoing(msg *openlcb.Message, sourceAlias openlcb.Alias) {
	msg.SourceAlias = sourceAlias
	d.out = &outgoing{msg: msg, sourceAlias: sourceAlias}
}

func (d *Dispatcher) dispatch(node *openlcb.Node, msg *openlcb.Message) (openlcb.StepResult, error) {
	switch {
	case msg.MTI == openlcb.MTIDatagram:
		return d.dispatchDatagram(node, msg)

	case msg.MTI == openlcb.MTIIdentifyEventsGlobal || msg.MTI == openlcb.MTIIdentifyEventsAddressed:
		return d.dispatchIdentifyEvents(node, msg)

	default:
		return d.dispatchTable(node, msg)
	}
}

func (d *Dispatcher) dispatchDatagram(node *openlcb.Node, msg *openlcb.Message) (openlcb.StepResult, error) {
	cmd := msg.Payload
	reply := &openlcb.Message{DestAlias: msg.SourceAlias}

	if !node.State.DatagramAckSent {
		datagram.ReceiveFirstPass(node, cmd, d.Datagram, reply)
		d.queueOutgoing(reply, node.Alias)
		if reply.MTI == openlcb.MTIDatagramOK {
			d.pin = &pinned{node: node, next: func() (*openlcb.Message, bool, error) {
				second := &openlcb.Message{DestAlias: msg.SourceAlias}
				err := datagram.ReceiveSecondPass(node, cmd, d.Datagram, second)
				return second, false, err
			}}
		}
		return openlcb.Progressed, nil
	}

	// Reaching here without a pin means a command arrived a second time
	// from the wire while ack_sent was already true from a prior
	// message; treat it like a fresh first pass.
	datagram.ReceiveFirstPass(node, cmd, d.Datagram, reply)
	d.queueOutgoing(reply, node.Alias)
	if reply.MTI == openlcb.MTIDatagramOK {
		d.pin = &pinned{node: node, next: func() (*openlcb.Message, bool, error) {
			second := &openlcb.Message{DestAlias: msg.SourceAlias}
			err := datagram.ReceiveSecondPass(node, cmd, d.Datagram, second)
			return second, false, err
		}}
	}
	return openlcb.Progressed, nil
}

func (d *Dispatcher) dispatchIdentifyEvents(node *openlcb.Node, msg *openlcb.Message) (openlcb.StepResult, error) {
	reply := &openlcb.Message{DestAlias: msg.SourceAlias}
	ok, more := messagenet.BeginEventEnumeration(node, reply)
	if ok {
		d.queueOutgoing(reply, node.Alias)
	}
	if more {
		d.pin = &pinned{node: node, next: func() (*openlcb.Message, bool, error) {
			next := &openlcb.Message{DestAlias: msg.SourceAlias}
			okC, moreC := messagenet.ContinueEventEnumeration(node, next)
			if !okC {
				return nil, false, nil
			}
			return next, moreC, nil
		}}
	}
	return openlcb.Progressed, nil
}

func (d *Dispatcher) dispatchTable(node *openlcb.Node, msg *openlcb.Message) (openlcb.StepResult, error) {
	reply := &openlcb.Message{DestAlias: msg.SourceAlias}

	handler, known := messagenet.Table[msg.MTI]
	if !known || handler == nil {
		d.Log.Debug("no handler for MTI %04X from alias %03X, rejecting", uint16(msg.MTI), msg.SourceAlias)
		messagenet.OptionalInteractionRejected(msg.MTI, reply)
		d.queueOutgoing(reply, node.Alias)
		return openlcb.Progressed, nil
	}

	ok, err := handler(node, msg, reply)
	if err != nil {
		return openlcb.Idle, err
	}
	if ok {
		d.queueOutgoing(reply, node.Alias)
	}
	return openlcb.Progressed, nil
}
