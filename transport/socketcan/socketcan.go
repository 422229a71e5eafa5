// Package socketcan adapts a Linux SocketCAN interface to canbus.Bus
// using github.com/brutella/can.
package socketcan

import (
	"github.com/brutella/can"

	"github.com/go-lcc/lcc-node/canbus"
)

// Bus is a canbus.Bus backed by a SocketCAN interface (e.g. "can0",
// "vcan0").
type Bus struct {
	iface string
	bus   *can.Bus
}

// New opens iface without connecting it yet; call Connect to start the
// receive loop.
func New(iface string) (*Bus, error) {
	b, err := can.NewBusForInterfaceWithName(iface)
	if err != nil {
		return nil, err
	}
	return &Bus{iface: iface, bus: b}, nil
}

// Send transmits frame on the SocketCAN interface.
func (b *Bus) Send(frame canbus.Frame) error {
	return b.bus.Publish(can.Frame{
		ID:     frame.Identifier,
		Length: uint8(frame.Length),
		Data:   frame.Data,
	})
}

// Subscribe registers handler to be called for every received frame.
func (b *Bus) Subscribe(handler canbus.FrameHandler) {
	b.bus.SubscribeFunc(func(frm can.Frame) {
		handler(canbus.Frame{
			Identifier: frm.ID,
			Data:       frm.Data,
			Length:     int(frm.Length),
		})
	})
}

// Connect starts the bus's receive loop (can.Bus.ConnectAndPublish, which
// blocks until Close) in its own goroutine and returns at once. An error
// that ends the receive loop is not reported to the caller.
func (b *Bus) Connect() error {
	go func() { _ = b.bus.ConnectAndPublish() }()
	return nil
}

// Close disconnects the underlying SocketCAN socket.
func (b *Bus) Close() error {
	return b.bus.Disconnect()
}

var _ canbus.Bus = (*Bus)(nil)
