package canbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFIFOPushPopOrderFIFO(t *testing.T) {
	f := NewFIFO[int](3)
	assert.True(t, f.Push(1))
	assert.True(t, f.Push(2))
	assert.True(t, f.Push(3))
	assert.False(t, f.Push(4), "full FIFO rejects")

	v, ok := f.Pop()
	assert.True(t, ok)
	assert.Equal(t, 1, v)
	assert.True(t, f.Push(4), "popping frees a slot")

	for _, want := range []int{2, 3, 4} {
		v, ok := f.Pop()
		assert.True(t, ok)
		assert.Equal(t, want, v)
	}
	_, ok = f.Pop()
	assert.False(t, ok)
}

func TestFIFOFullAndLen(t *testing.T) {
	f := NewFIFO[string](2)
	assert.Equal(t, 0, f.Len())
	f.Push("a")
	assert.False(t, f.Full())
	f.Push("b")
	assert.True(t, f.Full())
	assert.Equal(t, 2, f.Len())
}
