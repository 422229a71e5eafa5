package datagram

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCodeTemporaryPermanentClassification(t *testing.T) {
	assert.True(t, ErrBufferUnavailable.IsTemporary())
	assert.False(t, ErrBufferUnavailable.IsPermanent())

	assert.True(t, ErrOutOfBounds.IsPermanent())
	assert.False(t, ErrOutOfBounds.IsTemporary())
}

func TestBackoffHintZeroWhenNotPending(t *testing.T) {
	assert.Equal(t, byte(0), backoffHint(false, 7))
}

func TestBackoffHintMasksToLowNibble(t *testing.T) {
	assert.Equal(t, byte(0x0A), backoffHint(true, 0xFA))
}
