package openlcb

// RunState is the closed enumeration of CAN/OpenLCB login steps a node
// walks through, in order, per spec §3/§4.3/§4.7. Replaces the source's
// tagged uint8 per Design Notes.
type RunState int

const (
	RunStateInit RunState = iota
	RunStateGenerateSeed
	RunStateGenerateAlias
	RunStateLoadCID7
	RunStateLoadCID6
	RunStateLoadCID5
	RunStateLoadCID4
	RunStateWait200ms
	RunStateLoadRID
	RunStateLoadAMD
	RunStateLoadInitComplete
	RunStateLoadProducerEvents
	RunStateLoadConsumerEvents
	RunStateLoginComplete
	RunStateRun
)

func (s RunState) String() string {
	names := [...]string{
		"Init", "GenerateSeed", "GenerateAlias",
		"LoadCID7", "LoadCID6", "LoadCID5", "LoadCID4",
		"Wait200ms", "LoadRID", "LoadAMD",
		"LoadInitComplete", "LoadProducerEvents", "LoadConsumerEvents",
		"LoginComplete", "Run",
	}
	if int(s) < 0 || int(s) >= len(names) {
		return "RunState(?)"
	}
	return names[s]
}

// EventState is the producer/consumer validity state of spec §3.
type EventState int

const (
	EventUnknown EventState = iota
	EventValid
	EventInvalid
)

func (s EventState) String() string {
	switch s {
	case EventValid:
		return "Valid"
	case EventInvalid:
		return "Invalid"
	default:
		return "Unknown"
	}
}

// EventBinding is one entry in a node's producer or consumer list.
type EventBinding struct {
	Event EventID
	State EventState
}

// AddressSpaceInfo is a node's static declaration of one configuration
// memory address space, held in Parameters (spec §4.9).
type AddressSpaceInfo struct {
	Present     bool
	ReadOnly    bool
	LowAddress  uint32
	HighAddress uint32 // 0 means "unbounded / not declared"
	Description string
}

// SNIPStrings holds the four manufacturer-section and two user-section
// strings of a Simple Node Information reply (spec §4.10). The user
// strings are normally read live from ACDI-user space, but Parameters
// carries factory defaults for nodes with no configuration memory yet.
type SNIPStrings struct {
	Version      byte
	Manufacturer string
	Model        string
	HardwareVer  string
	SoftwareVer  string
	UserVersion  byte
	UserName     string
	UserDesc     string
}

// Parameters is the caller-owned, immutable configuration block a Node
// points at: SNIP strings, declared address spaces, the protocol-support
// bitmask, and auto-create event counts (spec §3).
type Parameters struct {
	SNIP                SNIPStrings
	AddressSpaces       map[byte]AddressSpaceInfo
	ProtocolSupport     uint64 // low 48 bits significant; see messagenet
	AutoCreateProducers int
	AutoCreateConsumers int
}

// NodeState is the node's bitfield of spec §3, minus run_state which is
// broken out as its own typed field.
type NodeState struct {
	Permitted             bool
	Initialized           bool
	DuplicateIDDetected   bool
	FirmwareUpgradeActive bool
	ResendDatagram        bool
	DatagramAckSent       bool
	RunState              RunState
}

// Cursor tracks an enumeration position through an ordered event list.
type Cursor struct{ pos int }

// Reset rewinds the cursor to the first element.
func (c *Cursor) Reset() { c.pos = 0 }

// EventList is an ordered sequence of event bindings with an attached
// enumeration cursor (spec §3: "each is an ordered sequence... with an
// associated enumeration cursor").
type EventList struct {
	bindings []EventBinding
	cursor   Cursor
}

// Add appends a binding with the given state.
func (l *EventList) Add(event EventID, state EventState) {
	l.bindings = append(l.bindings, EventBinding{Event: event, State: state})
}

// Len returns the number of bindings.
func (l *EventList) Len() int { return len(l.bindings) }

// Remaining returns the number of bindings not yet returned by Next since
// the last ResetCursor.
func (l *EventList) Remaining() int { return len(l.bindings) - l.cursor.pos }

// At returns the binding at index i.
func (l *EventList) At(i int) EventBinding { return l.bindings[i] }

// ResetCursor rewinds the enumeration cursor to the start.
func (l *EventList) ResetCursor() { l.cursor.Reset() }

// Next returns the next binding and advances the cursor, or ok=false at
// the end of the list.
func (l *EventList) Next() (binding EventBinding, ok bool) {
	if l.cursor.pos >= len(l.bindings) {
		return EventBinding{}, false
	}
	b := l.bindings[l.cursor.pos]
	l.cursor.pos++
	return b, true
}

// Node is one logical OpenLCB node record (spec §3).
type Node struct {
	ID         NodeID
	Alias      Alias
	Parameters *Parameters
	State      NodeState

	Seed       uint64
	TimerTicks uint64

	Producers EventList
	Consumers EventList

	// LastReceivedDatagram holds a reference to a message buffer while a
	// datagram exchange is in flight: on the receiver side, between the
	// OK reply and the command execution pass; on the sender side, while
	// awaiting the peer's OK/Rejected reply (spec §4.8).
	LastReceivedDatagram Handle

	// TrainState is an optional side-car for the train-control profile;
	// nil for ordinary nodes. Its contents are out of scope for this
	// module (spec §1 Non-goals) — the field exists purely so an
	// application layer has somewhere to hang it without forking Node.
	TrainState interface{}
}

// NewNode allocates a Node record for the given Node ID and parameter
// block. The node starts in RunStateInit with alias 0 (unclaimed).
func NewNode(id NodeID, params *Parameters) *Node {
	n := &Node{ID: id, Parameters: params}
	n.State.RunState = RunStateInit
	return n
}

// Tick increments the node's 100ms tick counter. Called from the platform
// timer context (spec §5); never blocks, never allocates.
func (n *Node) Tick() {
	n.TimerTicks++
}

// ResetForRelogin clears login-derived state and forces the node back
// through alias allocation. Used by NodePool.ResetState on gateway
// reconnect (spec §4.6); duplicate-alias handling
// (canbus.HandleDuplicateAlias) keeps the alias and does not call it.
func (n *Node) ResetForRelogin() {
	n.Alias = 0
	n.State.Permitted = false
	n.State.Initialized = false
	n.State.DatagramAckSent = false
	n.State.RunState = RunStateGenerateSeed
	n.Producers.ResetCursor()
	n.Consumers.ResetCursor()
}
