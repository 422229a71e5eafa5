package openlcb

// StepResult is returned by every state-machine driver in this module
// (CAN login, OpenLCB login, the message dispatcher) instead of a bool,
// so a caller can distinguish "nothing to do" from "did work, call me
// again before waiting on the next tick" from "blocked, don't spin".
type StepResult int

const (
	// Idle means the state machine had nothing to do on this call.
	Idle StepResult = iota
	// Progressed means the state machine did useful work and may have
	// more to do before the next tick; callers should loop again.
	Progressed
	// RetryLater means the state machine is blocked on an external
	// event (a transmit that failed, a timer not yet expired) and should not be
	// called again until that event occurs or the next tick arrives.
	RetryLater
)

func (r StepResult) String() string {
	switch r {
	case Idle:
		return "Idle"
	case Progressed:
		return "Progressed"
	case RetryLater:
		return "RetryLater"
	default:
		return "StepResult(?)"
	}
}
