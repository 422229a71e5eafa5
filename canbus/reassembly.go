package canbus

import (
	"github.com/go-lcc/lcc-node/clog"
	"github.com/go-lcc/lcc-node/openlcb"
)

// reassemblyKey identifies one in-flight multi-frame OpenLCB message or
// datagram by its source alias; CAN guarantees ordered, non-interleaved
// delivery from a single source, so the alias alone is sufficient (spec
// §4.5).
type reassemblyKey openlcb.Alias

// inFlight tracks one partially-received multi-frame payload.
type inFlight struct {
	handle openlcb.Handle
	mti    openlcb.MTI
	dest   openlcb.Alias // datagram frames and addressed data frames
}

// Reassembler stitches First/Middle/Last CAN data frames and datagram
// frames back into complete OpenLCB messages, and updates an AliasMap
// from observed AMD/CID traffic. One Reassembler serves one CAN bus.
type Reassembler struct {
	buffers *openlcb.BufferStore
	aliases *openlcb.AliasMap
	pending map[reassemblyKey]*inFlight

	// Log reports orphaned continuation frames (a Middle/Last frame
	// with no matching First, typically from a dropped frame or a
	// restarted sender). Defaults to a disabled clog.Clog.
	Log clog.Clog
}

// NewReassembler builds a Reassembler over buffers, recording alias
// observations into aliases.
func NewReassembler(buffers *openlcb.BufferStore, aliases *openlcb.AliasMap) *Reassembler {
	return &Reassembler{
		buffers: buffers,
		aliases: aliases,
		pending: make(map[reassemblyKey]*inFlight),
		Log:     clog.NewLogger("reassembly: "),
	}
}

// Accept classifies and processes one received CAN frame. It returns a
// completed message handle and true when frame was the final fragment of
// a message; otherwise it returns (zero handle, false) after updating
// internal reassembly or alias-map state.
func (r *Reassembler) Accept(frame Frame) (openlcb.Handle, bool, error) {
	c := Classify(frame.Identifier)
	switch {
	case c.AliasMap != nil:
		r.observeAliasMap(c.AliasMap)
		return openlcb.Handle{}, false, nil

	case c.CID != nil:
		r.observeCollision(c.CID.Alias)
		return openlcb.Handle{}, false, nil

	case c.Data != nil:
		return r.acceptData(frame, c.Data)

	case c.DatagramFrm != nil:
		return r.acceptDatagram(frame, c.DatagramFrm)

	default:
		return openlcb.Handle{}, false, nil
	}
}

func (r *Reassembler) observeAliasMap(f *AliasMapFrame) {
	switch f.Subtype {
	case SubtypeAMR:
		r.aliases.Unregister(f.Alias)
	case SubtypeAMD:
		// Node ID arrives in the payload for a real AMD frame; callers
		// that need the bound Node ID should inspect the frame payload
		// directly (Accept only tracks alias liveness here). A bare
		// Register with a zero Node ID still lets collision detection
		// (FindByAlias) work during another node's CID/Wait200ms window.
		if r.aliases.FindByAlias(f.Alias) == nil {
			_, _ = r.aliases.Register(f.Alias, 0)
		}
	}
}

func (r *Reassembler) observeCollision(alias openlcb.Alias) {
	if entry := r.aliases.FindByAlias(alias); entry != nil {
		entry.IsDuplicate = true
		r.aliases.HasDuplicateAlias = true
	}
}

func (r *Reassembler) acceptData(frame Frame, d *DataFrame) (openlcb.Handle, bool, error) {
	if d.IsStream {
		// Stream content frames are classified but not reassembled
		// (spec §1 Non-goals: stream transfer is an extension point).
		return openlcb.Handle{}, false, nil
	}

	key := reassemblyKey(d.SourceAlias)
	addressed := d.MTI.IsAddressed()
	body, destAlias := frame.Data[:frame.Length], openlcb.Alias(0)
	if addressed && len(body) >= 2 {
		destAlias = openlcb.Alias(uint16(body[0])<<8 | uint16(body[1]))
		body = body[2:]
	}

	switch d.Kind {
	case DataOnly:
		class := openlcb.ClassForMTI(d.MTI)
		h, msg, err := r.buffers.PoolFor(class).Allocate()
		if err != nil {
			return openlcb.Handle{}, false, err
		}
		msg.MTI = d.MTI
		msg.SourceAlias = d.SourceAlias
		msg.DestAlias = destAlias
		msg.Payload = append(msg.Payload[:0], body...)
		return h, true, nil

	case DataFirst:
		class := openlcb.ClassForMTI(d.MTI)
		h, msg, err := r.buffers.PoolFor(class).Allocate()
		if err != nil {
			return openlcb.Handle{}, false, err
		}
		msg.MTI = d.MTI
		msg.SourceAlias = d.SourceAlias
		msg.DestAlias = destAlias
		msg.Payload = append(msg.Payload[:0], body...)
		r.pending[key] = &inFlight{handle: h, mti: d.MTI, dest: destAlias}
		return openlcb.Handle{}, false, nil

	case DataMiddle:
		st, ok := r.pending[key]
		if !ok {
			r.Log.Warn("middle frame from alias %03X with no pending first frame", d.SourceAlias)
			return openlcb.Handle{}, false, openlcb.ErrNotAllocated
		}
		msg := r.buffers.PoolFor(openlcb.ClassForMTI(st.mti)).Get(st.handle)
		if msg == nil {
			delete(r.pending, key)
			return openlcb.Handle{}, false, openlcb.ErrNotAllocated
		}
		msg.Payload = append(msg.Payload, body...)
		return openlcb.Handle{}, false, nil

	case DataLast:
		st, ok := r.pending[key]
		if !ok {
			r.Log.Warn("last frame from alias %03X with no pending first frame", d.SourceAlias)
			return openlcb.Handle{}, false, openlcb.ErrNotAllocated
		}
		msg := r.buffers.PoolFor(openlcb.ClassForMTI(st.mti)).Get(st.handle)
		delete(r.pending, key)
		if msg == nil {
			return openlcb.Handle{}, false, openlcb.ErrNotAllocated
		}
		msg.Payload = append(msg.Payload, body...)
		return st.handle, true, nil

	default:
		return openlcb.Handle{}, false, nil
	}
}

func (r *Reassembler) acceptDatagram(frame Frame, d *DatagramFrame) (openlcb.Handle, bool, error) {
	key := reassemblyKey(d.SourceAlias)
	switch d.Kind {
	case DataDatagramOnly:
		h, msg, err := r.buffers.Datagram.Allocate()
		if err != nil {
			return openlcb.Handle{}, false, err
		}
		msg.MTI = openlcb.MTIDatagram
		msg.SourceAlias = d.SourceAlias
		msg.DestAlias = d.DestAlias
		msg.Payload = append(msg.Payload[:0], frame.Data[:frame.Length]...)
		return h, true, nil

	case DataDatagramFirst:
		h, msg, err := r.buffers.Datagram.Allocate()
		if err != nil {
			return openlcb.Handle{}, false, err
		}
		msg.MTI = openlcb.MTIDatagram
		msg.SourceAlias = d.SourceAlias
		msg.DestAlias = d.DestAlias
		msg.Payload = append(msg.Payload[:0], frame.Data[:frame.Length]...)
		r.pending[key] = &inFlight{handle: h, mti: openlcb.MTIDatagram, dest: d.DestAlias}
		return openlcb.Handle{}, false, nil

	case DataDatagramMiddle:
		st, ok := r.pending[key]
		if !ok {
			return openlcb.Handle{}, false, openlcb.ErrNotAllocated
		}
		msg := r.buffers.Datagram.Get(st.handle)
		if msg == nil {
			delete(r.pending, key)
			return openlcb.Handle{}, false, openlcb.ErrNotAllocated
		}
		msg.Payload = append(msg.Payload, frame.Data[:frame.Length]...)
		return openlcb.Handle{}, false, nil

	case DataDatagramLast:
		st, ok := r.pending[key]
		if !ok {
			return openlcb.Handle{}, false, openlcb.ErrNotAllocated
		}
		msg := r.buffers.Datagram.Get(st.handle)
		delete(r.pending, key)
		if msg == nil {
			return openlcb.Handle{}, false, openlcb.ErrNotAllocated
		}
		msg.Payload = append(msg.Payload, frame.Data[:frame.Length]...)
		return st.handle, true, nil

	default:
		return openlcb.Handle{}, false, nil
	}
}
