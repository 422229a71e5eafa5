package datagram

import (
	"encoding/binary"

	"github.com/go-lcc/lcc-node/openlcb"
)

// Sub-command byte values (spec §6, abstract but representative). The
// low two bits of a read (0x40-0x43) or write (0x44-0x47) sub-command
// select the well-known address space directly (1=CDI 0xFF, 2=All 0xFE,
// 3=Config 0xFD), or are 0 and byte 6 of the payload carries the space
// instead.
const (
	cmdMemConfig byte = 0x20 // selects the memory-configuration protocol

	cmdReadBase       byte = 0x40 // + 0..3 low nibble selects space
	cmdWriteBase      byte = 0x44
	cmdWriteUnderMask byte = 0x48
	cmdReadReplyOK    byte = 0x50
	replyFailBit      byte = 0x08

	cmdOptions             byte = 0x80
	cmdGetAddressSpaceInfo byte = 0x84
	cmdReserveLock         byte = 0x88
	cmdGetUniqueID         byte = 0x8C
	cmdFreeze              byte = 0x90
	cmdUnfreeze            byte = 0x91
	cmdUpdateComplete      byte = 0x92
	cmdResetReboot         byte = 0x93
	cmdFactoryReset        byte = 0x94
)

// Well-known address spaces encoded directly in the sub-command byte.
const (
	SpaceConfig byte = 0xFD
	SpaceAll    byte = 0xFE
	SpaceCDI    byte = 0xFF
)

// AddressSpace is the four-verb interface every configuration-memory
// backing store implements (Design Notes: "encode each space as a value
// conforming to that interface, held in a fixed-size mapping keyed by
// space id").
type AddressSpace interface {
	// Info reports whether the space is declared, read-only, and its
	// address bounds.
	Info() openlcb.AddressSpaceInfo

	// Read copies up to len(buf) bytes starting at address, returning
	// the count actually read.
	Read(address uint32, buf []byte) (int, error)

	// Write stores data at address, returning the count actually
	// written.
	Write(address uint32, data []byte) (int, error)

	// WriteUnderMask writes data to address only where mask's
	// corresponding bit is set, leaving other bits of the backing store
	// untouched.
	WriteUnderMask(address uint32, data, mask []byte) (int, error)
}

// Hooks are the caller-supplied callbacks for operations with no data
// representation of their own (spec §4.9: "dispatch to caller-supplied
// hooks; null => permanent-not-implemented").
type Hooks struct {
	ResetReboot  func() error
	FactoryReset func() error
	UniqueID     func() []byte
}

// Dispatcher decodes and executes configuration-memory datagram
// commands against a fixed set of named address spaces.
type Dispatcher struct {
	Spaces map[byte]AddressSpace
	Hooks  Hooks
}

// NewDispatcher builds a Dispatcher over spaces.
func NewDispatcher(spaces map[byte]AddressSpace) *Dispatcher {
	return &Dispatcher{Spaces: spaces}
}

// Validate performs the first-pass checks of spec §4.9/§4.8: address
// space known, access mode compatible with read/write, address in
// bounds. It does not touch the backing store.
func (d *Dispatcher) Validate(_ *openlcb.Node, cmd []byte) error {
	if len(cmd) < 1 || cmd[0] != cmdMemConfig {
		return newCommandError(ErrUnknownCommand)
	}
	if len(cmd) < 2 {
		return newCommandError(ErrInvalidArguments)
	}
	sub := cmd[1]

	space, address, body, err := d.decode(cmd[1:])
	if err != nil {
		return err
	}
	as, ok := d.Spaces[space]
	if !ok {
		return newCommandError(ErrAddressSpaceUnknown)
	}
	info := as.Info()
	if !info.Present {
		return newCommandError(ErrAddressSpaceUnknown)
	}
	if isWrite(sub) && info.ReadOnly {
		return newCommandError(ErrWriteToReadOnly)
	}
	if info.HighAddress != 0 && address > info.HighAddress {
		return newCommandError(ErrOutOfBounds)
	}
	if isRead(sub) && (len(body) < 1 || body[0] == 0) {
		return newCommandError(ErrInvalidArguments)
	}
	return nil
}

// Execute runs cmd for real, writing the command's own reply (a
// read-reply, write-reply, options reply, ...) into reply.
func (d *Dispatcher) Execute(node *openlcb.Node, cmd []byte, reply *openlcb.Message) error {
	sub := cmd[1]
	space, address, body, err := d.decode(cmd[1:])
	if err != nil {
		return d.fail(err, reply)
	}
	as, ok := d.Spaces[space]
	if !ok {
		return d.fail(newCommandError(ErrAddressSpaceUnknown), reply)
	}

	switch {
	case isRead(sub):
		count := int(body[0])
		buf := make([]byte, count)
		n, rerr := as.Read(address, buf)
		if rerr != nil || n < count {
			return d.fail(newCommandError(ErrTransferError), reply)
		}
		reply.MTI = openlcb.MTIDatagram
		reply.Payload = append(reply.Payload[:0], cmdMemConfig, sub|0x10)
		reply.Payload = appendAddress(reply.Payload, address)
		reply.Payload = append(reply.Payload, byte(count))
		reply.Payload = append(reply.Payload, buf[:n]...)
		return nil

	case sub == cmdWriteUnderMask:
		half := len(body) / 2
		n, werr := as.WriteUnderMask(address, body[:half], body[half:])
		if werr != nil || n < half {
			return d.fail(newCommandError(ErrTransferError), reply)
		}
		reply.MTI = openlcb.MTIDatagram
		reply.Payload = append(reply.Payload[:0], cmdMemConfig, sub|0x10)
		reply.Payload = appendAddress(reply.Payload, address)
		return nil

	case isWrite(sub):
		n, werr := as.Write(address, body)
		if werr != nil || n < len(body) {
			return d.fail(newCommandError(ErrTransferError), reply)
		}
		reply.MTI = openlcb.MTIDatagram
		reply.Payload = append(reply.Payload[:0], cmdMemConfig, sub|0x10)
		reply.Payload = appendAddress(reply.Payload, address)
		return nil

	case sub == cmdGetAddressSpaceInfo:
		info := as.Info()
		reply.MTI = openlcb.MTIDatagram
		reply.Payload = append(reply.Payload[:0], cmdMemConfig, cmdGetAddressSpaceInfo|0x10, space)
		reply.Payload = appendAddress(reply.Payload, info.HighAddress)
		flags := byte(0)
		if info.ReadOnly {
			flags |= 0x01
		}
		reply.Payload = append(reply.Payload, flags)
		return nil

	case sub == cmdResetReboot:
		if d.Hooks.ResetReboot == nil {
			return d.fail(newCommandError(ErrNotImplemented), reply)
		}
		return d.Hooks.ResetReboot()

	case sub == cmdFactoryReset:
		if d.Hooks.FactoryReset == nil {
			return d.fail(newCommandError(ErrNotImplemented), reply)
		}
		return d.Hooks.FactoryReset()

	default:
		return d.fail(newCommandError(ErrUnknownSubcommand), reply)
	}
}

func (d *Dispatcher) fail(err error, reply *openlcb.Message) error {
	code := errorCodeOf(err)
	reply.MTI = openlcb.MTIDatagramRejected
	reply.Payload = append(reply.Payload[:0], byte(code>>8), byte(code))
	return nil
}

// decode splits a configuration-memory command (sub-command byte
// onward) into address space, 4-byte big-endian address, and body. The
// address-space byte is either the low nibble of sub (well-known
// spaces 0xFD/0xFE/0xFF encoded as nibble 3/2/1; for read and write
// sub-commands only the low two bits count) or payload byte 6 when that
// value is 0 (spec §6).
func (d *Dispatcher) decode(rest []byte) (space byte, address uint32, body []byte, err error) {
	if len(rest) < 5 {
		return 0, 0, nil, newCommandError(ErrInvalidArguments)
	}
	sub := rest[0]
	address = binary.BigEndian.Uint32(rest[1:5])
	body = rest[5:]

	selector := sub & 0x0F
	if sub&^0x07 == cmdReadBase {
		selector = sub & 0x03
	}
	switch selector {
	case 0:
		if len(body) < 1 {
			return 0, 0, nil, newCommandError(ErrInvalidArguments)
		}
		space = body[0]
		body = body[1:]
	case 1:
		space = SpaceCDI
	case 2:
		space = SpaceAll
	case 3:
		space = SpaceConfig
	default:
		return 0, 0, nil, newCommandError(ErrUnknownSubcommand)
	}
	return space, address, body, nil
}

func appendAddress(buf []byte, addr uint32) []byte {
	var a [4]byte
	binary.BigEndian.PutUint32(a[:], addr)
	return append(buf, a[:]...)
}

func isRead(sub byte) bool {
	base := sub &^ 0x03
	return base == cmdReadBase
}

func isWrite(sub byte) bool {
	base := sub &^ 0x03
	return base == cmdWriteBase || sub == cmdWriteUnderMask
}
