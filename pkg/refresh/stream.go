package refresh

import "fmt"

// State of a stream as observed by the last poll
type State int

const (
	// StateIdle: nothing outstanding, the next poll starts a fetch
	StateIdle State = iota

	// StateInFlight: a fetch is outstanding
	StateInFlight

	// StateDelivered: a result was decoded and handed over this tick; its
	// successor is already in flight
	StateDelivered
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateInFlight:
		return "in-flight"
	case StateDelivered:
		return "delivered"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Outcome describes what one poll did
type Outcome struct {
	State State

	// PreviousLen is the length of the replaced collection when State is
	// StateDelivered, so renderers can clear rows past the new end
	PreviousLen int

	// Err is set when the observed fetch failed. The old collection is
	// kept and a new fetch is already in flight.
	Err error
}

// Delivered reports whether the poll replaced the collection
func (o Outcome) Delivered() bool {
	return o.State == StateDelivered
}

// Stream holds one collection and at most one fetch refreshing it
type Stream[T any] struct {
	state      State
	items      []T
	pending    *Pending[T]
	deliveries int
	failures   int
}

// NewStream returns an idle stream seeded with items
func NewStream[T any](items []T) *Stream[T] {
	return &Stream[T]{items: items}
}

// Poll advances the stream by one tick. issue starts a fetch and is only
// called when the stream has nothing outstanding.
func (s *Stream[T]) Poll(issue func() *Pending[T]) Outcome {
	if s.pending == nil {
		s.pending = issue()
		s.state = StateInFlight
		return Outcome{State: s.state}
	}

	res, ok := s.pending.TryResult()
	if !ok {
		s.state = StateInFlight
		return Outcome{State: s.state}
	}

	// The successor goes out before the result is delivered
	s.pending = issue()

	if res.Err != nil {
		s.failures++
		s.state = StateInFlight
		return Outcome{State: s.state, Err: res.Err}
	}

	previous := len(s.items)
	s.items = res.Items
	s.deliveries++
	s.state = StateDelivered
	return Outcome{State: s.state, PreviousLen: previous}
}

// State returns the state observed by the last poll
func (s *Stream[T]) State() State {
	return s.state
}

// Items returns the current collection. Callers must not keep it past the
// current tick.
func (s *Stream[T]) Items() []T {
	return s.items
}

// InFlight reports whether a fetch is outstanding
func (s *Stream[T]) InFlight() bool {
	return s.pending != nil
}

// Deliveries counts successful fetches
func (s *Stream[T]) Deliveries() int {
	return s.deliveries
}

// Failures counts failed fetches
func (s *Stream[T]) Failures() int {
	return s.failures
}
