package messagenet

import (
	"bytes"

	"github.com/go-lcc/lcc-node/openlcb"
)

// ConfigMemReader reads count bytes starting at address from a named
// address space into buf, returning the number of bytes actually read
// (spec §4.9's config_mem_read callout).
type ConfigMemReader func(addressSpace byte, address uint32, buf []byte) (int, error)

// AddressSpaceACDIUser is the well-known address space read for the
// user-name/user-description section of a SNIP reply (glossary: ACDI
// user information lives at 0xFB; manufacturer information at 0xFC).
const AddressSpaceACDIUser byte = 0xFB

const (
	snipMfgSections  = 4
	snipUserSections = 2
	snipUserStrMax   = 64
)

// SimpleNodeInfoReply assembles a Simple-Node-Info-Reply payload: a
// version byte, four null-terminated manufacturer strings from
// parameters.snip, a version byte, and two null-terminated user strings
// read live from ACDI-user space (or, when readConfig is nil, taken from
// parameters.snip). The fixed section counts (4 and 2
// terminators) are preserved even if a string were to overflow its
// conventional length, for wire back-compatibility (spec §4.10).
func SimpleNodeInfoReply(node *openlcb.Node, readConfig ConfigMemReader) ([]byte, error) {
	snip := node.Parameters.SNIP
	var out []byte
	out = append(out, snip.Version)
	mfg := [snipMfgSections]string{snip.Manufacturer, snip.Model, snip.HardwareVer, snip.SoftwareVer}
	for _, s := range mfg {
		out = append(out, s...)
		out = append(out, 0)
	}
	out = append(out, snip.UserVersion)

	if readConfig == nil {
		// No configuration-memory backing: fall back to the factory
		// defaults carried in Parameters (still two null terminators).
		user := [snipUserSections]string{snip.UserName, snip.UserDesc}
		for _, s := range user {
			out = append(out, s...)
			out = append(out, 0)
		}
		return out, nil
	}

	var addr uint32
	for i := 0; i < snipUserSections; i++ {
		buf := make([]byte, snipUserStrMax)
		n, err := readConfig(AddressSpaceACDIUser, addr, buf)
		if err != nil {
			return nil, err
		}
		s := buf[:n]
		if nul := bytes.IndexByte(s, 0); nul >= 0 {
			s = s[:nul]
		}
		out = append(out, s...)
		out = append(out, 0)
		addr += snipUserStrMax
	}
	return out, nil
}
