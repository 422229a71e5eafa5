package openlcb

import "sync"

// Core is the single value-type owning every shared resource: the buffer
// store, the alias map, and the node pool. A platform constructs exactly
// one Core and threads a reference through the CAN login SM, the
// dispatcher, and every protocol handler — replacing the source's
// file-scope statics (Design Notes: "Retain a single core value-type
// owned by the main task; pass a reference through the call tree").
//
// Lock/Unlock stand in for the platform's lock_shared_resources /
// unlock_shared_resources pair (spec §5): an interrupt-disable on bare
// metal, a mutex here. Only the alias map and the FIFOs need it — buffer
// pool access from the RX path is expected to happen inside the same
// critical section.
type Core struct {
	Buffers *BufferStore
	Frames  *FramePool
	Aliases *AliasMap
	Nodes   *NodePool

	mu sync.Mutex
}

// NewCore builds a Core with the given buffer-pool and table capacities.
// frameSlots bounds the CAN frame pool the RX path allocates from before
// handing a frame to reassembly (spec §4.1: "allocated by the RX
// path... and freed immediately on frame consumption").
func NewCore(basic, snip, datagram, stream, frameSlots, aliasSlots, nodeSlots int) *Core {
	return &Core{
		Buffers: NewBufferStore(basic, snip, datagram, stream),
		Frames:  NewFramePool(frameSlots),
		Aliases: NewAliasMap(aliasSlots),
		Nodes:   NewNodePool(nodeSlots),
	}
}

// Lock enters the shared-resource critical section.
func (c *Core) Lock() { c.mu.Lock() }

// Unlock leaves the shared-resource critical section.
func (c *Core) Unlock() { c.mu.Unlock() }
