package gridconnect

import (
	"bufio"
	"bytes"
	"io"

	serial "github.com/daedaluz/goserial"

	"github.com/go-lcc/lcc-node/canbus"
)

// SerialBus is a canbus.Bus that carries GridConnect-encoded frames over
// a serial port, for USB/RS-232 CAN gateways that speak the ASCII
// protocol instead of exposing a native CAN device.
type SerialBus struct {
	port    io.ReadWriteCloser
	path    string
	baud    int
	handler canbus.FrameHandler
	done    chan struct{}
}

// NewSerialBus prepares a GridConnect bus over the serial device at path
// (e.g. "/dev/ttyUSB0") at the given baud rate. Connect opens the port.
func NewSerialBus(path string, baud int) *SerialBus {
	return &SerialBus{path: path, baud: baud, done: make(chan struct{})}
}

// Connect opens the serial port and starts the read loop in a new
// goroutine.
func (b *SerialBus) Connect() error {
	port, err := serial.Open(b.path, b.baud)
	if err != nil {
		return err
	}
	b.port = port
	go b.readLoop()
	return nil
}

func (b *SerialBus) readLoop() {
	scanner := bufio.NewScanner(b.port)
	scanner.Split(scanSemicolonTerminated)
	for scanner.Scan() {
		select {
		case <-b.done:
			return
		default:
		}
		frame, err := Decode(scanner.Text())
		if err != nil {
			continue
		}
		if b.handler != nil {
			b.handler(frame)
		}
	}
}

// scanSemicolonTerminated is a bufio.SplitFunc that delimits GridConnect
// frames on ';' instead of '\n'.
func scanSemicolonTerminated(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexByte(data, ';'); i >= 0 {
		return i + 1, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// Send writes frame as a GridConnect ASCII line.
func (b *SerialBus) Send(frame canbus.Frame) error {
	_, err := io.WriteString(b.port, Encode(frame))
	return err
}

// Subscribe registers handler for received frames. Call before Connect.
func (b *SerialBus) Subscribe(handler canbus.FrameHandler) {
	b.handler = handler
}

// Close stops the read loop and closes the serial port.
func (b *SerialBus) Close() error {
	close(b.done)
	if b.port == nil {
		return nil
	}
	return b.port.Close()
}

var _ canbus.Bus = (*SerialBus)(nil)
