package canbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lcc/lcc-node/openlcb"
)

// fakeBus records every sent frame and never fails.
type fakeBus struct {
	sent []Frame
}

func (b *fakeBus) Send(f Frame) error   { b.sent = append(b.sent, f); return nil }
func (b *fakeBus) Subscribe(FrameHandler) {}
func (b *fakeBus) Connect() error       { return nil }
func (b *fakeBus) Close() error         { return nil }

func runToQuietWindow(t *testing.T, node *openlcb.Node, aliases *openlcb.AliasMap, bus *fakeBus, cfg Config) {
	t.Helper()
	for node.State.RunState != openlcb.RunStateWait200ms {
		_, err := Step(node, aliases, bus, cfg)
		require.NoError(t, err)
	}
}

func TestLoginHappyPathProducesCIDThenRIDThenAMD(t *testing.T) {
	cfg := DefaultConfig()
	node := openlcb.NewNode(0x010203040506, &openlcb.Parameters{})
	aliases := openlcb.NewAliasMap(4)
	bus := &fakeBus{}

	runToQuietWindow(t, node, aliases, bus, cfg)
	require.Len(t, bus.sent, 4, "CID7..CID4")

	for node.TimerTicks < uint64(cfg.QuietTicks) {
		r, err := Step(node, aliases, bus, cfg)
		require.NoError(t, err)
		assert.Equal(t, openlcb.RetryLater, r)
		node.Tick()
	}
	r, err := Step(node, aliases, bus, cfg)
	require.NoError(t, err)
	assert.Equal(t, openlcb.Progressed, r)
	assert.Equal(t, openlcb.RunStateLoadRID, node.State.RunState)

	_, err = Step(node, aliases, bus, cfg) // RID
	require.NoError(t, err)
	_, err = Step(node, aliases, bus, cfg) // AMD
	require.NoError(t, err)

	require.Len(t, bus.sent, 6)
	assert.True(t, node.State.Permitted)
	assert.Equal(t, openlcb.RunStateLoadInitComplete, node.State.RunState)

	entry := aliases.FindByAlias(node.Alias)
	require.NotNil(t, entry)
	assert.Equal(t, node.ID, entry.NodeID)
}

func TestLoginRestartsOnCollisionDuringQuietWindow(t *testing.T) {
	cfg := DefaultConfig()
	node := openlcb.NewNode(0x010203040506, &openlcb.Parameters{})
	aliases := openlcb.NewAliasMap(4)
	bus := &fakeBus{}

	runToQuietWindow(t, node, aliases, bus, cfg)
	claimedAlias := node.Alias

	// A foreign node answers claiming the same alias.
	_, err := aliases.Register(claimedAlias, 0xFEEDFACE0001)
	require.NoError(t, err)

	r, err := Step(node, aliases, bus, cfg)
	require.NoError(t, err)
	assert.Equal(t, openlcb.Progressed, r)
	assert.Equal(t, openlcb.RunStateGenerateAlias, node.State.RunState)
}

func TestCIDFramesCarryFourDistinctNodeIDSlices(t *testing.T) {
	cfg := DefaultConfig()
	node := openlcb.NewNode(0x010203040506, &openlcb.Parameters{})
	aliases := openlcb.NewAliasMap(4)
	bus := &fakeBus{}

	runToQuietWindow(t, node, aliases, bus, cfg)
	want := []uint16{0x010, 0x203, 0x040, 0x506}
	for i, f := range bus.sent {
		c := Classify(f.Identifier)
		require.NotNil(t, c.CID, "frame %d should classify as CID", i)
		assert.Equal(t, want[i], c.CID.Slice12)
		assert.Equal(t, node.Alias, c.CID.Alias)
	}
}
