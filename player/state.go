// Package player implements the playback engine: a state machine that owns a
// single decoder-backed resource, runs in its own goroutine and publishes
// state, progress and error events to any number of subscribers.
package player

// State is the engine's playback state. Exactly one is current at a time.
type State int

const (
	Idle State = iota
	Preparing
	Playing
	Paused
	Stopped
	Error
	Completed
)

var stateNames = map[State]string{
	Idle:      "idle",
	Preparing: "preparing",
	Playing:   "playing",
	Paused:    "paused",
	Stopped:   "stopped",
	Error:     "error",
	Completed: "completed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Active reports whether the state holds a loaded resource that can be started or sought.
func (s State) Active() bool {
	switch s {
	case Playing, Paused, Stopped, Completed:
		return true
	default:
		return false
	}
}
