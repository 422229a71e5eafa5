// Command lccd runs a single OpenLCB/LCC node: it handles CAN alias
// allocation, OpenLCB login, and the main message dispatcher over
// either a SocketCAN interface or a GridConnect serial gateway.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/go-lcc/lcc-node/canbus"
	"github.com/go-lcc/lcc-node/clog"
	"github.com/go-lcc/lcc-node/config"
	"github.com/go-lcc/lcc-node/datagram"
	"github.com/go-lcc/lcc-node/dispatch"
	"github.com/go-lcc/lcc-node/gridconnect"
	"github.com/go-lcc/lcc-node/nodeinit"
	"github.com/go-lcc/lcc-node/openlcb"
	"github.com/go-lcc/lcc-node/transport/socketcan"
)

const (
	basicBuffers    = 32
	snipBuffers     = 4
	datagramBuffers = 8
	streamBuffers   = 2
	frameSlots      = 16
	aliasSlots      = 64
	nodeSlots       = 4
	incomingDepth   = 64
	configMemSize   = 4096
)

func main() {
	var (
		nodeIDFlag = pflag.String("node-id", "", "48-bit Node ID (decimal or 0x-hex); overrides the config file's node.id")
		configPath = pflag.String("config", "", "path to an INI file read by the config package")
		iface      = pflag.String("iface", "", "SocketCAN interface name (e.g. vcan0); mutually exclusive with --serial")
		serialPath = pflag.String("serial", "", "GridConnect serial device path (e.g. /dev/ttyUSB0)")
		serialBaud = pflag.Int("baud", 115200, "serial baud rate, used only with --serial")
		verbose    = pflag.BoolP("verbose", "v", false, "enable debug logging")
	)
	pflag.Parse()

	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	if err := run(*nodeIDFlag, *configPath, *iface, *serialPath, *serialBaud, log); err != nil {
		log.Errorf("lccd: %v", err)
		os.Exit(1)
	}
}

func run(nodeIDFlag, configPath, iface, serialPath string, serialBaud int, log *logrus.Logger) error {
	if (iface == "") == (serialPath == "") {
		return fmt.Errorf("exactly one of --iface or --serial must be given")
	}

	params := &openlcb.Parameters{AddressSpaces: map[byte]openlcb.AddressSpaceInfo{}}
	var nodeID openlcb.NodeID
	if configPath != "" {
		p, err := config.Load(configPath)
		if err != nil {
			return err
		}
		params = p
		if nodeIDFlag == "" {
			id, err := config.NodeID(configPath)
			if err != nil {
				return err
			}
			nodeID = id
		}
	}
	if nodeIDFlag != "" {
		var raw uint64
		if _, err := fmt.Sscanf(nodeIDFlag, "0x%x", &raw); err != nil {
			if _, err := fmt.Sscanf(nodeIDFlag, "%d", &raw); err != nil {
				return fmt.Errorf("invalid --node-id %q", nodeIDFlag)
			}
		}
		nodeID = openlcb.NodeID(raw)
	}
	if nodeID == 0 {
		return fmt.Errorf("no node ID: pass --node-id or set node.id in --config")
	}

	var bus canbus.Bus
	if iface != "" {
		b, err := socketcan.New(iface)
		if err != nil {
			return err
		}
		bus = b
	} else {
		bus = gridconnect.NewSerialBus(serialPath, serialBaud)
	}

	provider := clog.NewLogrusProvider(log)

	core := openlcb.NewCore(basicBuffers, snipBuffers, datagramBuffers, streamBuffers, frameSlots, aliasSlots, nodeSlots)

	node := openlcb.NewNode(nodeID, params)
	if err := core.Nodes.Add(node); err != nil {
		return fmt.Errorf("register node: %w", err)
	}

	reassembler := canbus.NewReassembler(core.Buffers, core.Aliases)
	reassembler.Log.SetLogProvider(provider)
	reassembler.Log.LogMode(true)

	dgram := datagram.NewDispatcher(map[byte]datagram.AddressSpace{
		datagram.SpaceConfig: datagram.NewMemSpace(configMemSize),
	})

	transmit := func(msg *openlcb.Message, sourceAlias openlcb.Alias) error {
		return canbus.Send(bus, msg, sourceAlias)
	}
	disp := dispatch.NewDispatcher(core.Buffers, core.Nodes, dgram, incomingDepth, transmit)
	disp.Log.SetLogProvider(provider)
	disp.Log.LogMode(true)

	bus.Subscribe(func(frame canbus.Frame) {
		core.Lock()
		defer core.Unlock()

		fh, cf, err := core.Frames.Allocate()
		if err != nil {
			disp.Log.Warn("CAN frame pool exhausted, dropping frame %08X", frame.Identifier)
			return
		}
		// Bound RX memory to core.Frames's fixed capacity before doing
		// any further work, even though the reassembler itself takes
		// the transport's own canbus.Frame value.
		cf.Identifier = frame.Identifier
		cf.Payload = frame.Data
		cf.Count = frame.Length
		defer func() { _ = core.Frames.Free(fh) }()

		handle, complete, err := reassembler.Accept(frame)
		if err != nil {
			return
		}
		if core.Aliases.HasDuplicateAlias {
			core.Aliases.HasDuplicateAlias = false
			_ = canbus.HandleDuplicateAlias(node, core.Aliases, bus, node.Alias)
		}
		if !complete {
			return
		}
		msg, class := core.Buffers.Find(handle)
		if msg == nil {
			return
		}
		if !disp.Incoming.Push(dispatch.Queued{Handle: handle, Class: class}) {
			disp.Log.Warn("incoming FIFO full, dropping message MTI %04X", uint16(msg.MTI))
			_ = core.Buffers.PoolFor(class).Free(handle)
		}
	})

	if err := bus.Connect(); err != nil {
		return fmt.Errorf("connect bus: %w", err)
	}
	defer bus.Close()

	cfg := canbus.DefaultConfig()
	ticker := time.NewTicker(cfg.TickInterval)
	defer ticker.Stop()

	for range ticker.C {
		core.Lock()
		node.Tick()

		if node.State.RunState < openlcb.RunStateLoadInitComplete {
			if _, err := canbus.Step(node, core.Aliases, bus, cfg); err != nil {
				log.Errorf("lccd: CAN login: %v", err)
			}
		} else if node.State.RunState != openlcb.RunStateRun {
			if _, err := nodeinit.Step(node, func(m *openlcb.Message) error {
				return canbus.Send(bus, m, node.Alias)
			}); err != nil {
				log.Errorf("lccd: OpenLCB login: %v", err)
			}
		}

		for {
			result, err := disp.Step()
			if err != nil {
				log.Errorf("lccd: dispatch: %v", err)
			}
			if result != openlcb.Progressed {
				break
			}
		}
		core.Unlock()
	}
	return nil
}
