package datagram

import "github.com/go-lcc/lcc-node/openlcb"

// MemSpace is a simple in-memory AddressSpace backing, suitable for CDI
// (read-only, fixed blob) and Config (read-write, fixed-size buffer)
// spaces in tests and small applications. Real persistent storage is
// expected to supply its own AddressSpace implementation, per spec §4.9
// ("the actual persistent storage is opaque").
type MemSpace struct {
	ReadOnly bool
	Data     []byte
}

// NewMemSpace allocates a read-write MemSpace of size bytes.
func NewMemSpace(size int) *MemSpace {
	return &MemSpace{Data: make([]byte, size)}
}

func (s *MemSpace) Info() openlcb.AddressSpaceInfo {
	return openlcb.AddressSpaceInfo{
		Present:     true,
		ReadOnly:    s.ReadOnly,
		HighAddress: uint32(len(s.Data)),
	}
}

func (s *MemSpace) Read(address uint32, buf []byte) (int, error) {
	if int(address) >= len(s.Data) {
		return 0, nil
	}
	n := copy(buf, s.Data[address:])
	return n, nil
}

func (s *MemSpace) Write(address uint32, data []byte) (int, error) {
	if s.ReadOnly {
		return 0, newCommandError(ErrWriteToReadOnly)
	}
	if int(address) >= len(s.Data) {
		return 0, nil
	}
	n := copy(s.Data[address:], data)
	return n, nil
}

func (s *MemSpace) WriteUnderMask(address uint32, data, mask []byte) (int, error) {
	if s.ReadOnly {
		return 0, newCommandError(ErrWriteToReadOnly)
	}
	if int(address) >= len(s.Data) {
		return 0, nil
	}
	n := 0
	for i := 0; i < len(data) && int(address)+i < len(s.Data); i++ {
		idx := int(address) + i
		s.Data[idx] = (s.Data[idx] &^ mask[i]) | (data[i] & mask[i])
		n++
	}
	return n, nil
}

var _ AddressSpace = (*MemSpace)(nil)
