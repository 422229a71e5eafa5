package openlcb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestLFSRMasksTo48Bits(t *testing.T) {
	next := LFSR(0x010203040506)
	assert.Zero(t, next&^((uint64(1)<<48)-1))
}

func TestFoldAliasFromSeedNeverZero(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		seed := rapid.Uint64Range(0, (uint64(1)<<48)-1).Draw(t, "seed")
		alias, _ := FoldAliasFromSeed(seed)
		assert.NotZero(t, alias)
		assert.True(t, alias.Valid())
	})
}

func TestFoldAliasReiteratesOnceOnZero(t *testing.T) {
	// Construct a seed whose four 12-bit groups XOR to zero, so the first
	// fold must be rejected and the LFSR iterated exactly once more.
	var seed uint64 = 0x0AB_0AB_0AB_0AB
	firstFold := foldOnce(seed)
	assert.Zero(t, firstFold)

	alias, usedSeed := FoldAliasFromSeed(seed)
	assert.Equal(t, LFSR(seed), usedSeed)
	assert.Equal(t, foldOnce(LFSR(seed)), uint16(alias))
}
