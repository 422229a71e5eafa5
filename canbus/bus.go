package canbus

// Frame is a transport-agnostic CAN frame: a 29-bit extended identifier
// and up to 8 payload bytes. It is the boundary type between a Bus
// implementation (SocketCAN, GridConnect-over-serial, ...) and the
// reassembly/login state machines in this package.
type Frame struct {
	Identifier uint32
	Data       [8]byte
	Length     int
}

// FrameHandler receives frames delivered by a Bus's Subscribe callback.
type FrameHandler func(Frame)

// Bus is the minimum transport a node's CAN layer needs: send a frame, and
// register a callback for received frames. Concrete adapters
// (transport/socketcan, gridconnect) implement this over a real link.
type Bus interface {
	// Send transmits frame, blocking only as long as the underlying
	// transport's own write call does.
	Send(frame Frame) error

	// Subscribe registers handler to be invoked for every frame the bus
	// receives. Subscribe is expected to be called once, before Connect.
	Subscribe(handler FrameHandler)

	// Connect opens the underlying link (socket, serial port, ...).
	Connect() error

	// Close releases the underlying link.
	Close() error
}
