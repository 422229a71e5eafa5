package openlcb

import "fmt"

// SizeClass names one of the four fixed-capacity OpenLCB message buffer
// pools. See spec §4.1.
type SizeClass int

const (
	// ClassBasic holds messages with payload <= 8 bytes.
	ClassBasic SizeClass = iota
	// ClassSNIP holds Simple Node Information replies, payload <= 253 bytes.
	ClassSNIP
	// ClassDatagram holds datagrams, payload <= 72 bytes.
	ClassDatagram
	// ClassStream holds the (acknowledged but unimplemented) stream
	// protocol extension point; present so callers can allocate a slot
	// for it without the core needing to understand stream framing.
	ClassStream
)

// classCapacity is the maximum payload length accepted by each size class.
var classCapacity = map[SizeClass]int{
	ClassBasic:    8,
	ClassSNIP:     253,
	ClassDatagram: 72,
	ClassStream:   0xFFFF,
}

// ClassForMTI returns the size class an incoming First-frame of the given
// MTI must be reassembled into (spec §4.4 step 3).
func ClassForMTI(mti MTI) SizeClass {
	switch mti {
	case MTISimpleNodeInfoReply:
		return ClassSNIP
	case MTIDatagram:
		return ClassDatagram
	default:
		return ClassBasic
	}
}

// Message is an OpenLCB message buffer: header plus a contiguous payload.
// See spec §3.
type Message struct {
	SourceAlias Alias
	SourceID    NodeID
	DestAlias   Alias
	DestID      NodeID
	MTI         MTI
	Payload     []byte

	class      SizeClass
	allocated  bool
	refCount   int
	generation uint32
}

func (m *Message) String() string {
	return fmt.Sprintf("Message{%s src=%s/%s dst=%s/%s payload=% X}",
		m.MTI, m.SourceAlias, m.SourceID, m.DestAlias, m.DestID, m.Payload)
}

// Addressed reports whether the message carries a meaningful destination.
func (m *Message) Addressed() bool {
	return m.MTI.IsAddressed()
}

// Pool is a fixed-capacity pool of Message buffers for one size class, ref
// counted and indexed (not pointer-owned) per the arena+index+generation
// pattern of Design Notes. A freed slot always has allocated=false and
// refCount=0; the generation counter invalidates stale handles.
type Pool struct {
	class SizeClass
	slots []Message
	free  []int
	peak  int
	inUse int
}

// NewPool creates a pool of the given class with a fixed number of slots.
func NewPool(class SizeClass, capacity int) *Pool {
	p := &Pool{
		class: class,
		slots: make([]Message, capacity),
		free:  make([]int, capacity),
	}
	for i := range p.free {
		p.free[i] = capacity - 1 - i
	}
	return p
}

// Handle is an opaque reference to a Message held by a Pool. It carries a
// generation counter so a stale handle (kept past a Free) is detectable
// rather than silently aliasing a reused slot.
type Handle struct {
	index      int
	generation uint32
}

// Valid reports whether h refers to a slot (the zero Handle is invalid).
func (h Handle) Valid() bool { return h.generation != 0 }

// Allocate reserves a slot, clears its header, and returns a handle to it.
// Returns ErrPoolExhausted if every slot is in use.
func (p *Pool) Allocate() (Handle, *Message, error) {
	if len(p.free) == 0 {
		return Handle{}, nil, ErrPoolExhausted
	}
	idx := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]

	m := &p.slots[idx]
	*m = Message{class: p.class, allocated: true, refCount: 1, generation: m.generation + 1}
	if cap(m.Payload) < classCapacity[p.class] {
		m.Payload = make([]byte, 0, classCapacity[p.class])
	}

	p.inUse++
	if p.inUse > p.peak {
		p.peak = p.inUse
	}
	return Handle{index: idx, generation: m.generation}, m, nil
}

// Get resolves a handle to its Message, or nil if the handle is stale.
func (p *Pool) Get(h Handle) *Message {
	if h.index < 0 || h.index >= len(p.slots) {
		return nil
	}
	m := &p.slots[h.index]
	if !m.allocated || m.generation != h.generation {
		return nil
	}
	return m
}

// IncRef bumps the reference count of an allocated buffer. It is a
// programmer error to call it on a buffer that is not allocated.
func (p *Pool) IncRef(h Handle) error {
	m := p.Get(h)
	if m == nil {
		return ErrNotAllocated
	}
	m.refCount++
	return nil
}

// Free decrements the reference count and, at zero, returns the slot to
// the free list.
func (p *Pool) Free(h Handle) error {
	m := p.Get(h)
	if m == nil {
		return ErrNotAllocated
	}
	m.refCount--
	if m.refCount > 0 {
		return nil
	}
	m.allocated = false
	p.free = append(p.free, h.index)
	p.inUse--
	return nil
}

// Peak returns the high-water mark of simultaneously allocated slots,
// exposed for tuning pool sizes (spec §4.1).
func (p *Pool) Peak() int { return p.peak }

// InUse returns the number of currently allocated slots.
func (p *Pool) InUse() int { return p.inUse }

// Capacity returns the fixed number of slots in the pool.
func (p *Pool) Capacity() int { return len(p.slots) }

// BufferStore bundles the four OpenLCB message-buffer pools named in
// spec §4.1. The CAN frame pool (FramePool) is a sibling, not a member:
// Core holds both side by side.
type BufferStore struct {
	Basic    *Pool
	SNIP     *Pool
	Datagram *Pool
	Stream   *Pool
}

// NewBufferStore builds a BufferStore with the given per-class capacities.
func NewBufferStore(basic, snip, datagram, stream int) *BufferStore {
	return &BufferStore{
		Basic:    NewPool(ClassBasic, basic),
		SNIP:     NewPool(ClassSNIP, snip),
		Datagram: NewPool(ClassDatagram, datagram),
		Stream:   NewPool(ClassStream, stream),
	}
}

// PoolFor returns the pool backing the given size class.
func (s *BufferStore) PoolFor(class SizeClass) *Pool {
	switch class {
	case ClassBasic:
		return s.Basic
	case ClassSNIP:
		return s.SNIP
	case ClassDatagram:
		return s.Datagram
	case ClassStream:
		return s.Stream
	default:
		return nil
	}
}

// Find resolves a handle to its Message and the size class it was
// allocated from, probing every pool. Used by callers (the dispatcher's
// incoming FIFO) that receive a bare handle from reassembly and need its
// class to route it.
func (s *BufferStore) Find(h Handle) (*Message, SizeClass) {
	for _, class := range [...]SizeClass{ClassBasic, ClassSNIP, ClassDatagram, ClassStream} {
		if m := s.PoolFor(class).Get(h); m != nil {
			return m, class
		}
	}
	return nil, 0
}

// Allocate reserves a Message buffer sized for mti's reassembly class.
func (s *BufferStore) Allocate(mti MTI) (Handle, *Message, error) {
	return s.PoolFor(ClassForMTI(mti)).Allocate()
}
