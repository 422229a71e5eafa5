package openlcb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolAllocateFreeLifecycle(t *testing.T) {
	p := NewPool(ClassBasic, 2)

	h1, m1, err := p.Allocate()
	require.NoError(t, err)
	m1.MTI = MTIInitializationComplete
	assert.Equal(t, 1, p.InUse())

	_, _, err = p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, 2, p.InUse())
	assert.Equal(t, 2, p.Peak())

	_, _, err = p.Allocate()
	assert.ErrorIs(t, err, ErrPoolExhausted)

	require.NoError(t, p.Free(h1))
	assert.Equal(t, 1, p.InUse())
	assert.Nil(t, p.Get(h1), "a freed handle must not resolve")
}

func TestPoolIncRefKeepsBufferAliveUntilBothFreesHappen(t *testing.T) {
	p := NewPool(ClassBasic, 1)
	h, _, err := p.Allocate()
	require.NoError(t, err)
	require.NoError(t, p.IncRef(h))

	require.NoError(t, p.Free(h))
	assert.NotNil(t, p.Get(h), "still referenced once")

	require.NoError(t, p.Free(h))
	assert.Nil(t, p.Get(h))
}

func TestPoolGenerationRejectsStaleHandle(t *testing.T) {
	p := NewPool(ClassBasic, 1)
	h1, _, err := p.Allocate()
	require.NoError(t, err)
	require.NoError(t, p.Free(h1))

	h2, _, err := p.Allocate()
	require.NoError(t, err)
	assert.Equal(t, h1.index, h2.index, "slot is reused")
	assert.NotEqual(t, h1.generation, h2.generation)
	assert.Nil(t, p.Get(h1), "stale handle must not alias the new occupant")
}

func TestFramePoolFreeIsAlwaysImmediate(t *testing.T) {
	p := NewFramePool(1)
	h, f, err := p.Allocate()
	require.NoError(t, err)
	f.Identifier = 0x123
	require.NoError(t, p.Free(h))
	assert.Nil(t, p.Get(h))
	assert.Equal(t, 0, p.InUse())
}

func TestClassForMTI(t *testing.T) {
	assert.Equal(t, ClassSNIP, ClassForMTI(MTISimpleNodeInfoReply))
	assert.Equal(t, ClassDatagram, ClassForMTI(MTIDatagram))
	assert.Equal(t, ClassBasic, ClassForMTI(MTIInitializationComplete))
}
