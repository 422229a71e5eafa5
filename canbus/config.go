package canbus

import "time"

// Timing and retry bounds for the CAN alias-claim login state machine,
// styled after the teacher's per-layer Config/Valid/DefaultConfig triple.
const (
	MinQuietTicks = 1
	MaxQuietTicks = 10

	MinTxFIFODepth = 4
	MaxTxFIFODepth = 256

	MinRxFIFODepth = 4
	MaxRxFIFODepth = 256
)

// Config bounds a node's CAN resource use and login timing. Fields
// left zero are replaced by DefaultConfig's values on Valid().
type Config struct {
	// TickInterval is the caller-driven period between Node.Tick() calls;
	// it is informational here (the state machine itself counts ticks,
	// it does not own a timer) but callers size real-time waits from it.
	TickInterval time.Duration

	// QuietTicks is the number of ticks a node must wait after sending
	// CID4 before sending RID, satisfying the 200ms collision window of
	// spec §4.3 when TickInterval is 100ms.
	QuietTicks int

	// TxFIFODepth and RxFIFODepth are the per-bus CAN frame queue depths.
	// Valid range-checks them; nothing in this package allocates a queue
	// from them.
	TxFIFODepth int
	RxFIFODepth int
}

// DefaultConfig returns the config used when Config fields are left zero:
// 100ms ticks, a 2-tick (200ms) quiet window, and modest FIFO depths.
func DefaultConfig() Config {
	return Config{
		TickInterval: 100 * time.Millisecond,
		QuietTicks:   2,
		TxFIFODepth:  16,
		RxFIFODepth:  16,
	}
}

// Valid fills zero-valued fields from DefaultConfig and reports whether
// the result is in range.
func (c *Config) Valid() bool {
	d := DefaultConfig()
	if c.TickInterval <= 0 {
		c.TickInterval = d.TickInterval
	}
	if c.QuietTicks == 0 {
		c.QuietTicks = d.QuietTicks
	}
	if c.TxFIFODepth == 0 {
		c.TxFIFODepth = d.TxFIFODepth
	}
	if c.RxFIFODepth == 0 {
		c.RxFIFODepth = d.RxFIFODepth
	}

	switch {
	case c.QuietTicks < MinQuietTicks || c.QuietTicks > MaxQuietTicks:
		return false
	case c.TxFIFODepth < MinTxFIFODepth || c.TxFIFODepth > MaxTxFIFODepth:
		return false
	case c.RxFIFODepth < MinRxFIFODepth || c.RxFIFODepth > MaxRxFIFODepth:
		return false
	}
	return true
}
