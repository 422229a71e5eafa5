// Package canbus implements the CAN-transport half of an OpenLCB node:
// alias allocation, CAN frame identifier classification, and reassembly/
// fragmentation between CAN frames and OpenLCB messages. See spec §4.3,
// §4.4, §4.5, §6.
package canbus

import (
	"github.com/go-lcc/lcc-node/openlcb"
)

// Identifier bit layout (spec §6): bit28=1 (always, for a 29-bit extended
// identifier), bit27 is the OpenLCB-frame-class flag (0 = CAN control
// frame: CID/RID/AMD/AME/AMR/error-info; 1 = OpenLCB data frame), bits
// 26-24 are a 3-bit frame-type field whose meaning depends on the class
// bit, bits 23-12 are a 12-bit variable field, and bits 11-0 are the
// source alias.
const (
	bitExtended  = 1 << 28
	bitDataClass = 1 << 27

	frameTypeShift = 24
	frameTypeMask  = 0x7

	variableShift = 12
	variableMask  = 0xFFF

	aliasMask = 0xFFF
)

// ControlFrameType is the 3-bit frame-type field of a CAN control frame
// (class bit = 0). CID7..CID4 reuse their CID number as the type value;
// every alias-map control message (RID/AMD/AME/AMR/error-info) shares
// type 0 and is distinguished by AliasMapSubtype in the variable field.
type ControlFrameType int

const (
	ControlAliasMap ControlFrameType = 0
	ControlCID4     ControlFrameType = 4
	ControlCID5     ControlFrameType = 5
	ControlCID6     ControlFrameType = 6
	ControlCID7     ControlFrameType = 7
)

// AliasMapSubtype occupies the top 4 bits of the 12-bit variable field on
// a ControlAliasMap frame.
type AliasMapSubtype int

const (
	SubtypeRID       AliasMapSubtype = 0
	SubtypeAMD       AliasMapSubtype = 1
	SubtypeAME       AliasMapSubtype = 2
	SubtypeAMR       AliasMapSubtype = 3
	SubtypeErrorInfo AliasMapSubtype = 4
)

// DataFrameType is the 3-bit frame-type field of an OpenLCB data frame
// (class bit = 1). Variable-field value 0 on any non-datagram data frame
// additionally means "this is a stream frame" per spec §6 ("zero for
// stream frames") and Classify sets IsStream for it — the
// stream extension point is otherwise unimplemented (spec §1 Non-goals).
type DataFrameType int

const (
	DataDatagramLast   DataFrameType = 0
	DataOnly           DataFrameType = 1
	DataFirst          DataFrameType = 2
	DataMiddle         DataFrameType = 3
	DataLast           DataFrameType = 4
	DataDatagramOnly   DataFrameType = 5
	DataDatagramFirst  DataFrameType = 6
	DataDatagramMiddle DataFrameType = 7
)

// CIDIdentifier builds the identifier for a Check-ID frame: cidType is
// one of ControlCID7..ControlCID4, slice12 is the matching 12-bit group
// of the 48-bit Node ID (per the §4.3 table), and alias is the tentative
// alias under test.
func CIDIdentifier(cidType ControlFrameType, slice12 uint16, alias openlcb.Alias) uint32 {
	return bitExtended |
		(uint32(cidType&frameTypeMask) << frameTypeShift) |
		(uint32(slice12&variableMask) << variableShift) |
		uint32(alias&aliasMask)
}

// AliasMapIdentifier builds the identifier for an RID/AMD/AME/AMR/
// error-info frame.
func AliasMapIdentifier(subtype AliasMapSubtype, alias openlcb.Alias) uint32 {
	variable := uint16(subtype&0xF) << 8
	return bitExtended |
		(uint32(ControlAliasMap&frameTypeMask) << frameTypeShift) |
		(uint32(variable&variableMask) << variableShift) |
		uint32(alias&aliasMask)
}

// DataIdentifier builds the identifier for an OpenLCB data frame whose
// variable field carries an MTI (Only/First/Middle/Last).
func DataIdentifier(kind DataFrameType, mti openlcb.MTI, sourceAlias openlcb.Alias) uint32 {
	return bitExtended | bitDataClass |
		(uint32(kind&frameTypeMask) << frameTypeShift) |
		(uint32(uint16(mti)&variableMask) << variableShift) |
		uint32(sourceAlias&aliasMask)
}

// DatagramIdentifier builds the identifier for a datagram-content frame
// whose variable field carries the destination alias (spec §4.4: "carry
// the destination alias in the identifier rather than the payload").
func DatagramIdentifier(kind DataFrameType, destAlias, sourceAlias openlcb.Alias) uint32 {
	return bitExtended | bitDataClass |
		(uint32(kind&frameTypeMask) << frameTypeShift) |
		(uint32(uint16(destAlias)&variableMask) << variableShift) |
		uint32(sourceAlias&aliasMask)
}

// Classified is the result of classifying a received identifier: exactly
// one of the embedded pointers is non-nil. Mirrors the teacher's
// parse()-returns-interface{} pattern but as a closed sum type instead of
// an untyped interface{}, so callers get compile-time exhaustiveness.
type Classified struct {
	CID         *CIDFrame
	AliasMap    *AliasMapFrame
	Data        *DataFrame
	DatagramFrm *DatagramFrame
}

// CIDFrame is a classified Check-ID control frame.
type CIDFrame struct {
	Type    ControlFrameType // ControlCID7..ControlCID4
	Slice12 uint16
	Alias   openlcb.Alias
}

// AliasMapFrame is a classified RID/AMD/AME/AMR/error-info control frame.
type AliasMapFrame struct {
	Subtype AliasMapSubtype
	Alias   openlcb.Alias
}

// DataFrame is a classified Only/First/Middle/Last OpenLCB data frame.
type DataFrame struct {
	Kind        DataFrameType
	MTI         openlcb.MTI
	SourceAlias openlcb.Alias
	IsStream    bool
}

// DatagramFrame is a classified datagram-content frame.
type DatagramFrame struct {
	Kind        DataFrameType
	DestAlias   openlcb.Alias
	SourceAlias openlcb.Alias
}

// Classify decodes identifier's class/type fields and returns a typed
// result. See spec §4.4 ("Frame classification is a switch on the top
// bits of the 29-bit identifier").
func Classify(identifier uint32) Classified {
	sourceAlias := openlcb.Alias(identifier & aliasMask)
	variable := uint16((identifier >> variableShift) & variableMask)
	frameType := (identifier >> frameTypeShift) & frameTypeMask

	if identifier&bitDataClass == 0 {
		ct := ControlFrameType(frameType)
		switch ct {
		case ControlCID4, ControlCID5, ControlCID6, ControlCID7:
			return Classified{CID: &CIDFrame{Type: ct, Slice12: variable, Alias: sourceAlias}}
		default:
			return Classified{AliasMap: &AliasMapFrame{
				Subtype: AliasMapSubtype((variable >> 8) & 0xF),
				Alias:   sourceAlias,
			}}
		}
	}

	kind := DataFrameType(frameType)
	switch kind {
	case DataDatagramOnly, DataDatagramFirst, DataDatagramMiddle:
		return Classified{DatagramFrm: &DatagramFrame{
			Kind: kind, DestAlias: openlcb.Alias(variable), SourceAlias: sourceAlias,
		}}
	case DataDatagramLast:
		return Classified{DatagramFrm: &DatagramFrame{
			Kind: kind, DestAlias: openlcb.Alias(variable), SourceAlias: sourceAlias,
		}}
	default:
		return Classified{Data: &DataFrame{
			Kind: kind, MTI: openlcb.MTI(variable), SourceAlias: sourceAlias, IsStream: variable == 0,
		}}
	}
}
