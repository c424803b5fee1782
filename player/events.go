package player

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// EventKind distinguishes the three event streams an engine publishes.
type EventKind int

const (
	// EventState is emitted once per committed transition.
	EventState EventKind = iota + 1

	// EventProgress is a sampler tick. It is only ever emitted while Playing.
	EventProgress

	// EventError reports a rejected command. State is unchanged.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventProgress:
		return "progress"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// ProgressEvent is one position and buffering sample.
type ProgressEvent struct {
	TotalMs         int64
	CurrentMs       int64
	BufferedPercent int
}

// BufferedMs converts the buffered percentage into a position on the timeline.
func (p ProgressEvent) BufferedMs() int64 {
	return p.TotalMs * int64(p.BufferedPercent) / 100
}

// Event is delivered to subscribers in the order it happened.
type Event struct {
	Kind    EventKind
	Session uuid.UUID

	// Previous and State describe the transition for EventState. For the
	// other kinds both hold the current state.
	Previous State
	State    State

	Source   string
	Progress ProgressEvent

	// Err is set for EventError and for transitions into Error.
	Err error
}

func (e Event) String() string {
	switch e.Kind {
	case EventState:
		if e.Err != nil {
			return fmt.Sprintf("%s -> %s: %v", e.Previous, e.State, e.Err)
		}
		return fmt.Sprintf("%s -> %s", e.Previous, e.State)
	case EventProgress:
		return fmt.Sprintf("progress %d/%d ms (%d%% buffered)", e.Progress.CurrentMs, e.Progress.TotalMs, e.Progress.BufferedPercent)
	default:
		return fmt.Sprintf("%s while %s: %v", e.Kind, e.State, e.Err)
	}
}

// Subscription is a non-owning registration on an engine. The engine only
// keeps the subscription's mailbox; nothing keeps the consumer alive.
type Subscription struct {
	id     uuid.UUID
	box    *mailbox[Event]
	engine *Engine
}

// ID identifies the subscription on its engine.
func (s *Subscription) ID() uuid.UUID {
	return s.id
}

// Next blocks until the next event, ctx is done, or the engine has shut
// down and every queued event has been consumed.
func (s *Subscription) Next(ctx context.Context) (Event, error) {
	for {
		event, ok, closed := s.box.pop()
		if ok {
			return event, nil
		}
		if closed {
			return Event{}, ErrEngineClosed
		}

		select {
		case <-ctx.Done():
			return Event{}, ctx.Err()
		case <-s.box.wait():
		}
	}
}

// Pending returns the number of queued events.
func (s *Subscription) Pending() int {
	return s.box.size()
}

// Close deregisters the subscription. Queued events can still be read.
func (s *Subscription) Close() {
	s.engine.Unsubscribe(s.id)
}
