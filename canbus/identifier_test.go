package canbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lcc/lcc-node/openlcb"
)

func TestCIDRoundTrip(t *testing.T) {
	id := CIDIdentifier(ControlCID7, 0x010, 0x456)
	c := Classify(id)
	require.NotNil(t, c.CID)
	assert.Equal(t, ControlCID7, c.CID.Type)
	assert.Equal(t, uint16(0x010), c.CID.Slice12)
	assert.Equal(t, openlcb.Alias(0x456), c.CID.Alias)
}

func TestAliasMapRoundTrip(t *testing.T) {
	id := AliasMapIdentifier(SubtypeAMD, 0x321)
	c := Classify(id)
	require.NotNil(t, c.AliasMap)
	assert.Equal(t, SubtypeAMD, c.AliasMap.Subtype)
	assert.Equal(t, openlcb.Alias(0x321), c.AliasMap.Alias)
}

func TestDataFrameRoundTrip(t *testing.T) {
	id := DataIdentifier(DataOnly, openlcb.MTIInitializationComplete, 0x123)
	c := Classify(id)
	require.NotNil(t, c.Data)
	assert.Equal(t, DataOnly, c.Data.Kind)
	assert.Equal(t, openlcb.MTIInitializationComplete, c.Data.MTI)
	assert.False(t, c.Data.IsStream)
}

func TestDatagramFrameRoundTrip(t *testing.T) {
	id := DatagramIdentifier(DataDatagramFirst, 0x222, 0x111)
	c := Classify(id)
	require.NotNil(t, c.DatagramFrm)
	assert.Equal(t, DataDatagramFirst, c.DatagramFrm.Kind)
	assert.Equal(t, openlcb.Alias(0x222), c.DatagramFrm.DestAlias)
	assert.Equal(t, openlcb.Alias(0x111), c.DatagramFrm.SourceAlias)
}

func TestControlFramesNeverSetDataClassBit(t *testing.T) {
	id := CIDIdentifier(ControlCID4, 0x506, 0x001)
	assert.Zero(t, id&bitDataClass)
}
