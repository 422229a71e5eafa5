package openlcb

// AliasMapEntry is one (alias, Node ID) binding tracked on the segment.
// See spec §3/§4.2.
type AliasMapEntry struct {
	Alias       Alias
	NodeID      NodeID
	Permitted   bool
	IsDuplicate bool

	inUse bool
}

// AliasMap is the bounded table of alias bindings observed on the CAN
// segment — both our own nodes' tentative/permitted claims and foreign
// nodes' announced aliases, so collisions can be detected. See spec §4.2.
type AliasMap struct {
	entries []AliasMapEntry

	// HasDuplicateAlias is set by canbus.Reassembler when a received CID
	// frame carries an alias already registered in this map. Other
	// received frames do not set it, and a local node's alias is only in
	// the map once it has sent AMD, so a CID against an in-flight claim
	// does not set it either. The main CAN loop polls and clears it
	// during duplicate-alias recovery (spec §4.3).
	HasDuplicateAlias bool
}

// NewAliasMap builds an alias map with a fixed number of slots.
func NewAliasMap(capacity int) *AliasMap {
	return &AliasMap{entries: make([]AliasMapEntry, capacity)}
}

// Register claims the first empty slot for (alias, nodeID). Returns
// ErrAliasMapFull if the table has no room.
func (m *AliasMap) Register(alias Alias, nodeID NodeID) (*AliasMapEntry, error) {
	for i := range m.entries {
		if !m.entries[i].inUse {
			m.entries[i] = AliasMapEntry{Alias: alias, NodeID: nodeID, inUse: true}
			return &m.entries[i], nil
		}
	}
	return nil, ErrAliasMapFull
}

// Unregister removes the entry bound to alias, if any.
func (m *AliasMap) Unregister(alias Alias) {
	for i := range m.entries {
		if m.entries[i].inUse && m.entries[i].Alias == alias {
			m.entries[i] = AliasMapEntry{}
		}
	}
}

// FindByAlias returns the entry bound to alias, or nil.
func (m *AliasMap) FindByAlias(alias Alias) *AliasMapEntry {
	for i := range m.entries {
		if m.entries[i].inUse && m.entries[i].Alias == alias {
			return &m.entries[i]
		}
	}
	return nil
}

// FindByNodeID returns the entry bound to nodeID, or nil.
func (m *AliasMap) FindByNodeID(nodeID NodeID) *AliasMapEntry {
	for i := range m.entries {
		if m.entries[i].inUse && m.entries[i].NodeID == nodeID {
			return &m.entries[i]
		}
	}
	return nil
}

// DuplicateAliases returns every entry currently flagged as a duplicate,
// for the duplicate-alias recovery scan of spec §4.3.
func (m *AliasMap) DuplicateAliases() []*AliasMapEntry {
	var out []*AliasMapEntry
	for i := range m.entries {
		if m.entries[i].inUse && m.entries[i].IsDuplicate {
			out = append(out, &m.entries[i])
		}
	}
	return out
}
