package openlcb

// CursorKey identifies one of the independent enumeration cursors a
// caller can walk the node pool with (spec §4.6: "CAN login uses one,
// OpenLCB login another, main dispatcher a third").
type CursorKey int

const (
	CursorCANLogin CursorKey = iota
	CursorOpenLCBLogin
	CursorDispatcher
	cursorCount
)

// NodePool is the fixed array of node records. It supports up to
// cursorCount independent enumeration cursors, each keyed by a CursorKey.
type NodePool struct {
	nodes   []*Node
	cursors [cursorCount]int
}

// NewNodePool builds an empty pool with the given fixed capacity.
func NewNodePool(capacity int) *NodePool {
	return &NodePool{nodes: make([]*Node, 0, capacity)}
}

// Add appends a node to the pool. Returns ErrNodePoolFull once capacity is
// reached.
func (p *NodePool) Add(n *Node) error {
	if len(p.nodes) >= cap(p.nodes) {
		return ErrNodePoolFull
	}
	p.nodes = append(p.nodes, n)
	return nil
}

// Len returns the number of nodes currently in the pool.
func (p *NodePool) Len() int { return len(p.nodes) }

// GetFirst resets the cursor identified by key to the first slot and
// returns it, or nil if the pool is empty.
func (p *NodePool) GetFirst(key CursorKey) *Node {
	p.cursors[key] = 0
	if len(p.nodes) == 0 {
		return nil
	}
	return p.nodes[0]
}

// GetNext advances the cursor identified by key and returns the node
// there, or nil once the cursor has run off the end.
func (p *NodePool) GetNext(key CursorKey) *Node {
	p.cursors[key]++
	if p.cursors[key] >= len(p.nodes) {
		return nil
	}
	return p.nodes[p.cursors[key]]
}

// FindByAlias returns the node currently claiming alias, or nil.
func (p *NodePool) FindByAlias(alias Alias) *Node {
	for _, n := range p.nodes {
		if n.Alias == alias && n.State.Permitted {
			return n
		}
	}
	return nil
}

// FindByNodeID returns the node with the given Node ID, or nil.
func (p *NodePool) FindByNodeID(id NodeID) *Node {
	for _, n := range p.nodes {
		if n.ID == id {
			return n
		}
	}
	return nil
}

// All returns the underlying node slice. Callers must not retain it past
// a subsequent Add.
func (p *NodePool) All() []*Node { return p.nodes }

// ResetState walks every node in the pool and forces re-login, for use
// when a gateway transport reconnects and every alias claim on the
// segment must be redone (spec §4.6).
func (p *NodePool) ResetState() {
	for _, n := range p.nodes {
		n.ResetForRelogin()
	}
}
