package openlcb

import "fmt"

// CANFrame is the CAN frame buffer of spec §3: a 29-bit identifier and 0-8
// payload bytes. Encoding/decoding the identifier's frame-type, MTI, and
// alias fields is canbus's job; this type only carries the bytes.
type CANFrame struct {
	Identifier uint32
	Payload    [8]byte
	Count      int

	allocated  bool
	refCount   int
	generation uint32
}

func (f *CANFrame) String() string {
	return fmt.Sprintf("CANFrame{id=0x%08X data=% X}", f.Identifier, f.Payload[:f.Count])
}

// FramePool is a fixed pool of CAN frame buffers, same ref-counting
// discipline as Pool but for 8-byte-payload CAN frames rather than
// variable-length OpenLCB messages.
type FramePool struct {
	slots []CANFrame
	free  []int
	peak  int
	inUse int
}

// NewFramePool builds a CAN frame pool with a fixed number of slots.
func NewFramePool(capacity int) *FramePool {
	p := &FramePool{slots: make([]CANFrame, capacity), free: make([]int, capacity)}
	for i := range p.free {
		p.free[i] = capacity - 1 - i
	}
	return p
}

// Allocate reserves a CAN frame slot.
func (p *FramePool) Allocate() (Handle, *CANFrame, error) {
	if len(p.free) == 0 {
		return Handle{}, nil, ErrPoolExhausted
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	f := &p.slots[idx]
	*f = CANFrame{allocated: true, refCount: 1, generation: f.generation + 1}
	p.inUse++
	if p.inUse > p.peak {
		p.peak = p.inUse
	}
	return Handle{index: idx, generation: f.generation}, f, nil
}

// Get resolves a handle to its CANFrame, or nil if stale.
func (p *FramePool) Get(h Handle) *CANFrame {
	if h.index < 0 || h.index >= len(p.slots) {
		return nil
	}
	f := &p.slots[h.index]
	if !f.allocated || f.generation != h.generation {
		return nil
	}
	return f
}

// Free returns a frame slot to the pool. CAN frame buffers are never
// shared, so refCount always drops straight to zero (spec §3 lifecycle:
// "allocated by the RX path... and freed immediately on frame consumption").
func (p *FramePool) Free(h Handle) error {
	f := p.Get(h)
	if f == nil {
		return ErrNotAllocated
	}
	f.refCount = 0
	f.allocated = false
	p.free = append(p.free, h.index)
	p.inUse--
	return nil
}

// Peak returns the high-water mark of simultaneously allocated frames.
func (p *FramePool) Peak() int { return p.peak }

// InUse returns the number of frames currently allocated.
func (p *FramePool) InUse() int { return p.inUse }

// Capacity returns the fixed number of slots in the pool.
func (p *FramePool) Capacity() int { return len(p.slots) }
