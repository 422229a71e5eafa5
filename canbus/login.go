package canbus

import (
	"github.com/go-lcc/lcc-node/openlcb"
)

// Step drives node's CAN alias-claim state machine one step forward
// against bus, consulting aliases for duplicate detection. It mirrors
// the ten-state walk of spec §4.3 (seed → alias → CID7..CID4 → 200ms
// quiet window → RID → AMD), returning openlcb.Progressed after useful
// work, openlcb.RetryLater while waiting out the quiet window, and
// openlcb.Idle once AMD is sent and the node has reached
// RunStateLoadInitComplete (or any later state).
//
// A single call performs at most one state transition; callers
// (typically the dispatcher's per-tick pass over NodePool) loop on
// Progressed and stop on RetryLater or Idle.
func Step(node *openlcb.Node, aliases *openlcb.AliasMap, bus Bus, cfg Config) (openlcb.StepResult, error) {
	switch node.State.RunState {
	case openlcb.RunStateInit:
		node.State.RunState = openlcb.RunStateGenerateSeed
		return openlcb.Progressed, nil

	case openlcb.RunStateGenerateSeed:
		node.Seed = uint64(node.ID)
		node.State.RunState = openlcb.RunStateGenerateAlias
		return openlcb.Progressed, nil

	case openlcb.RunStateGenerateAlias:
		alias, usedSeed := openlcb.FoldAliasFromSeed(node.Seed)
		node.Seed = usedSeed
		node.Alias = alias
		node.TimerTicks = 0
		node.State.RunState = openlcb.RunStateLoadCID7
		return openlcb.Progressed, nil

	case openlcb.RunStateLoadCID7:
		return sendCID(node, bus, openlcb.RunStateLoadCID6, ControlCID7, nidSlice(node.ID, 0))

	case openlcb.RunStateLoadCID6:
		return sendCID(node, bus, openlcb.RunStateLoadCID5, ControlCID6, nidSlice(node.ID, 1))

	case openlcb.RunStateLoadCID5:
		return sendCID(node, bus, openlcb.RunStateLoadCID4, ControlCID5, nidSlice(node.ID, 2))

	case openlcb.RunStateLoadCID4:
		node.TimerTicks = 0
		return sendCID(node, bus, openlcb.RunStateWait200ms, ControlCID4, nidSlice(node.ID, 3))

	case openlcb.RunStateWait200ms:
		if entry := aliases.FindByAlias(node.Alias); entry != nil {
			// Another node answered claiming this alias: restart from a
			// freshly iterated seed (spec §4.3 collision recovery).
			node.Seed = openlcb.LFSR(node.Seed)
			node.State.RunState = openlcb.RunStateGenerateAlias
			return openlcb.Progressed, nil
		}
		if int(node.TimerTicks) < cfg.QuietTicks {
			return openlcb.RetryLater, nil
		}
		node.State.RunState = openlcb.RunStateLoadRID
		return openlcb.Progressed, nil

	case openlcb.RunStateLoadRID:
		if err := bus.Send(Frame{Identifier: AliasMapIdentifier(SubtypeRID, node.Alias)}); err != nil {
			return openlcb.Idle, err
		}
		node.State.RunState = openlcb.RunStateLoadAMD
		return openlcb.Progressed, nil

	case openlcb.RunStateLoadAMD:
		nid := node.ID.Bytes()
		if err := bus.Send(Frame{
			Identifier: AliasMapIdentifier(SubtypeAMD, node.Alias),
			Data:       [8]byte{nid[0], nid[1], nid[2], nid[3], nid[4], nid[5]},
			Length:     6,
		}); err != nil {
			return openlcb.Idle, err
		}
		if _, err := aliases.Register(node.Alias, node.ID); err != nil {
			return openlcb.Idle, err
		}
		node.State.Permitted = true
		node.State.RunState = openlcb.RunStateLoadInitComplete
		return openlcb.Progressed, nil

	default:
		return openlcb.Idle, nil
	}
}

// sendCID sends one Check-ID frame and advances to next on success.
func sendCID(node *openlcb.Node, bus Bus, next openlcb.RunState, cidType ControlFrameType, slice12 uint16) (openlcb.StepResult, error) {
	if err := bus.Send(Frame{Identifier: CIDIdentifier(cidType, slice12, node.Alias)}); err != nil {
		return openlcb.Idle, err
	}
	node.State.RunState = next
	return openlcb.Progressed, nil
}

// nidSlice extracts 12-bit group i (0 = most significant) of a 48-bit
// Node ID, per the §4.3 CID7→bits47-36, CID6→bits35-24, CID5→bits23-12,
// CID4→bits11-0 assignment.
func nidSlice(id openlcb.NodeID, i int) uint16 {
	shift := uint(36 - 12*i)
	return uint16((uint64(id) >> shift) & 0xFFF)
}

// HandleDuplicateAlias implements the peer-side half of collision
// detection (spec §4.3, §9 Open Questions: "peer-oblivious" recovery —
// a node that sees its own alias claimed by another does not itself
// send AMR; it simply restarts its own claim from GenerateAlias, which
// RunStateWait200ms already does above). HandleDuplicateAlias instead
// covers the case where a frame arrives from an alias this node has
// already fully claimed (post-login): that is a genuine duplicate on
// the bus, so this node asserts ownership by resending RID/AMD and
// marks the alias-map entry's IsDuplicate flag for diagnostics.
func HandleDuplicateAlias(node *openlcb.Node, aliases *openlcb.AliasMap, bus Bus, observedAlias openlcb.Alias) error {
	if observedAlias != node.Alias || !node.State.Permitted {
		return nil
	}
	if entry := aliases.FindByAlias(node.Alias); entry != nil {
		entry.IsDuplicate = true
	}
	if err := bus.Send(Frame{Identifier: AliasMapIdentifier(SubtypeRID, node.Alias)}); err != nil {
		return err
	}
	nid := node.ID.Bytes()
	return bus.Send(Frame{
		Identifier: AliasMapIdentifier(SubtypeAMD, node.Alias),
		Data:       [8]byte{nid[0], nid[1], nid[2], nid[3], nid[4], nid[5]},
		Length:     6,
	})
}
