package openlcb

import "errors"

// Resource-exhaustion errors. None of these are ever a panic: callers on
// the RX side drop the frame or message, callers on the TX side defer or
// drop the reply. See spec §7.
var (
	// ErrPoolExhausted is returned by Pool.Allocate when no buffer of the
	// requested class is free.
	ErrPoolExhausted = errors.New("openlcb: buffer pool exhausted")

	// ErrAliasPoolExhausted reports that no conflict-free alias could be
	// found. The CAN login state machine (canbus.Step) has no retry limit
	// and does not return it: on a collision it advances the seed and
	// tries again indefinitely.
	ErrAliasPoolExhausted = errors.New("openlcb: alias pool exhausted")

	// ErrAliasMapFull is returned by AliasMap.Register when the map has
	// no empty slot left.
	ErrAliasMapFull = errors.New("openlcb: alias map full")

	// ErrNodePoolFull is returned by NodePool.Add when the pool has no
	// empty slot left.
	ErrNodePoolFull = errors.New("openlcb: node pool full")

	// ErrNotAllocated reports IncRef or Free called on a buffer that is
	// not currently allocated. canbus.Reassembler also returns it for a
	// Middle/Last frame with no pending First frame.
	ErrNotAllocated = errors.New("openlcb: buffer not allocated")
)
