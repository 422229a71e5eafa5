// Package config loads a node's Parameters block from an INI file: SNIP
// strings, the protocol-support bitmask, and auto-create event counts
// (spec §3's "caller-owned, immutable configuration block"). Declared
// address spaces and the CDI/SNIP byte blobs themselves are out of this
// package's scope (spec §1 Non-goals) — callers wire those in directly
// via datagram.MemSpace or their own AddressSpace implementations.
package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/go-lcc/lcc-node/openlcb"
)

// Load reads path and builds a Parameters block from its [node] and
// [snip] sections.
func Load(path string) (*openlcb.Parameters, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	node := cfg.Section("node")
	snip := cfg.Section("snip")

	params := &openlcb.Parameters{
		AddressSpaces:       make(map[byte]openlcb.AddressSpaceInfo),
		ProtocolSupport:     node.Key("protocol_support").MustUint64(0),
		AutoCreateProducers: node.Key("auto_create_producers").MustInt(0),
		AutoCreateConsumers: node.Key("auto_create_consumers").MustInt(0),
		SNIP: openlcb.SNIPStrings{
			Version:      byte(snip.Key("version").MustUint(4)),
			Manufacturer: snip.Key("manufacturer").String(),
			Model:        snip.Key("model").String(),
			HardwareVer:  snip.Key("hardware_version").String(),
			SoftwareVer:  snip.Key("software_version").String(),
			UserVersion:  byte(snip.Key("user_version").MustUint(2)),
			UserName:     snip.Key("user_name").String(),
			UserDesc:     snip.Key("user_description").String(),
		},
	}
	return params, nil
}

// NodeID reads the "id" key of the [node] section as a 48-bit Node ID,
// accepting either decimal or "0x"-prefixed hexadecimal.
func NodeID(path string) (openlcb.NodeID, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return 0, fmt.Errorf("config: load %s: %w", path, err)
	}
	raw := cfg.Section("node").Key("id").String()
	var id uint64
	if _, err := fmt.Sscanf(raw, "0x%x", &id); err != nil {
		if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
			return 0, fmt.Errorf("config: invalid node id %q", raw)
		}
	}
	return openlcb.NodeID(id), nil
}
