// Package mailbox implements the mailbox door state machine.
package mailbox

// State represents the mailbox door state.
type State string

const (
	// StateClosed means the door is shut and the counter is zero.
	StateClosed State = "CLOSED"
	// StateOpen means exactly one open event has been seen since the
	// door was last closed.
	StateOpen State = "OPEN"
	// StateAjar means the door has triggered repeatedly without closing.
	StateAjar State = "AJAR"
)

// Door event values recognized by the state machine. Anything else is
// silently ignored.
const (
	EventOpen   = "open"
	EventClosed = "closed"
)

// StateForCount derives the mailbox state from the open-event counter.
func StateForCount(count int64) State {
	switch {
	case count == 0:
		return StateClosed
	case count == 1:
		return StateOpen
	default:
		return StateAjar
	}
}
