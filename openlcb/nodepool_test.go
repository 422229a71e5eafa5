package openlcb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNodePoolEnumerationCursorsAreIndependent(t *testing.T) {
	p := NewNodePool(3)
	n1 := NewNode(1, &Parameters{})
	n2 := NewNode(2, &Parameters{})
	require.NoError(t, p.Add(n1))
	require.NoError(t, p.Add(n2))

	assert.Same(t, n1, p.GetFirst(CursorDispatcher))
	assert.Same(t, n2, p.GetNext(CursorDispatcher))
	assert.Nil(t, p.GetNext(CursorDispatcher))

	// A second cursor starts independently from the first.
	assert.Same(t, n1, p.GetFirst(CursorCANLogin))
}

func TestNodePoolFullAndLookup(t *testing.T) {
	p := NewNodePool(1)
	n := NewNode(0x010203040506, &Parameters{})
	require.NoError(t, p.Add(n))
	assert.ErrorIs(t, p.Add(NewNode(2, &Parameters{})), ErrNodePoolFull)

	n.Alias = 0x123
	n.State.Permitted = true
	assert.Same(t, n, p.FindByAlias(0x123))
	assert.Same(t, n, p.FindByNodeID(0x010203040506))
}

func TestNodePoolResetState(t *testing.T) {
	p := NewNodePool(1)
	n := NewNode(1, &Parameters{})
	n.Alias = 0x123
	n.State.Permitted = true
	n.State.Initialized = true
	require.NoError(t, p.Add(n))

	p.ResetState()
	assert.Equal(t, Alias(0), n.Alias)
	assert.False(t, n.State.Permitted)
	assert.False(t, n.State.Initialized)
	assert.Equal(t, RunStateGenerateSeed, n.State.RunState)
}
