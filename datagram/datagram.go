// Package datagram implements the OpenLCB datagram transport's two-pass
// ack discipline (spec §4.8) and the configuration-memory protocol
// layered beneath it (spec §4.9).
package datagram

import "github.com/go-lcc/lcc-node/openlcb"

// ErrorCode is the 16-bit error code carried by a Datagram-Rejected
// reply. High-nibble bits separate temporary from permanent per spec
// §7: 0x8000 marks temporary, 0x1000 marks permanent.
type ErrorCode uint16

const (
	flagTemporary ErrorCode = 0x8000
	flagPermanent ErrorCode = 0x1000

	ErrUnknownCommand      ErrorCode = flagPermanent | 0x0001
	ErrUnknownSubcommand   ErrorCode = flagPermanent | 0x0002
	ErrAddressSpaceUnknown ErrorCode = flagPermanent | 0x0003
	ErrWriteToReadOnly     ErrorCode = flagPermanent | 0x0004
	ErrOutOfBounds         ErrorCode = flagPermanent | 0x0005
	ErrInvalidArguments    ErrorCode = flagPermanent | 0x0080
	ErrNotImplemented      ErrorCode = flagPermanent | 0x0007
	ErrBufferUnavailable   ErrorCode = flagTemporary | 0x0001
	ErrTransferError       ErrorCode = flagTemporary | 0x0002
)

// IsTemporary reports whether code's temporary-error bit is set.
func (c ErrorCode) IsTemporary() bool { return c&flagTemporary != 0 }

// IsPermanent reports whether code's permanent-error bit is set.
func (c ErrorCode) IsPermanent() bool { return c&flagPermanent != 0 }

// backoffHint computes the low-nibble exponential back-off hint (2^N
// seconds; 0 = no pending) attached to a Datagram-OK reply when the
// receiver needs more time before its second pass (spec §4.8).
func backoffHint(pending bool, n byte) byte {
	if !pending {
		return 0
	}
	return n & 0x0F
}

// ReceiveFirstPass runs the first-pass half of the receiver role: it
// validates cmd's framing against the dispatcher's address spaces by
// calling Dispatcher.Validate, then synthesizes either a Datagram-OK or
// Datagram-Rejected reply. Only on the OK path does it set
// datagram_ack_sent, so the dispatcher re-invokes the handler for the
// second pass (spec §4.8).
func ReceiveFirstPass(node *openlcb.Node, cmd []byte, dispatcher *Dispatcher, reply *openlcb.Message) {
	if err := dispatcher.Validate(node, cmd); err != nil {
		code := errorCodeOf(err)
		reply.MTI = openlcb.MTIDatagramRejected
		reply.Payload = append(reply.Payload[:0], byte(code>>8), byte(code))
		return
	}
	node.State.DatagramAckSent = true
	reply.MTI = openlcb.MTIDatagramOK
	reply.Payload = append(reply.Payload[:0], backoffHint(false, 0))
}

// ReceiveSecondPass executes cmd for real and emits the command's own
// reply datagram, clearing datagram_ack_sent (spec §4.8).
func ReceiveSecondPass(node *openlcb.Node, cmd []byte, dispatcher *Dispatcher, reply *openlcb.Message) error {
	node.State.DatagramAckSent = false
	return dispatcher.Execute(node, cmd, reply)
}

// SenderReceivedOK implements the sender role's OK branch: free the
// retained outgoing datagram and clear resend_datagram (spec §4.8).
func SenderReceivedOK(node *openlcb.Node, pool *openlcb.Pool) {
	_ = pool.Free(node.LastReceivedDatagram)
	node.LastReceivedDatagram = openlcb.Handle{}
	node.State.ResendDatagram = false
}

// SenderReceivedRejected implements the sender role's Rejected branch:
// temporary errors keep the buffer and flag a resend; permanent errors
// free it (spec §4.8).
func SenderReceivedRejected(node *openlcb.Node, pool *openlcb.Pool, code ErrorCode) {
	if code.IsTemporary() {
		node.State.ResendDatagram = true
		return
	}
	_ = pool.Free(node.LastReceivedDatagram)
	node.LastReceivedDatagram = openlcb.Handle{}
	node.State.ResendDatagram = false
}

// commandError pairs an ErrorCode with Go's error interface so
// dispatcher.Validate/Execute can return ordinary errors that
// ReceiveFirstPass translates back into a wire error code.
type commandError struct {
	code ErrorCode
}

func (e commandError) Error() string { return "datagram: command rejected" }

// newCommandError wraps code as an error for Validate/Execute to return.
func newCommandError(code ErrorCode) error { return commandError{code: code} }

func errorCodeOf(err error) ErrorCode {
	if ce, ok := err.(commandError); ok {
		return ce.code
	}
	return ErrTransferError
}
