package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingTryResult(t *testing.T) {
	p := NewPending[int]()

	_, ok := p.TryResult()
	assert.False(t, ok)

	p.Complete([]int{1, 2}, nil)
	p.Complete([]int{3}, nil)

	res, ok := p.TryResult()
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, res.Items)
	assert.NoError(t, res.Err)

	_, ok = p.TryResult()
	assert.False(t, ok, "a result is handed out once")
}

func TestStartRunsConcurrently(t *testing.T) {
	release := make(chan struct{})
	p := Start(context.Background(), func(ctx context.Context) ([]string, error) {
		<-release
		return []string{"done"}, nil
	})

	_, ok := p.TryResult()
	assert.False(t, ok)

	close(release)

	deadline := time.Now().Add(5 * time.Second)
	for {
		res, ok := p.TryResult()
		if ok {
			assert.Equal(t, []string{"done"}, res.Items)
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("fetch never completed")
		}
		time.Sleep(time.Millisecond)
	}
}

// issuer hands out manually completed handles and remembers them
type issuer[T any] struct {
	issued []*Pending[T]
}

func (i *issuer[T]) issue() *Pending[T] {
	p := NewPending[T]()
	i.issued = append(i.issued, p)
	return p
}

func (i *issuer[T]) last() *Pending[T] {
	return i.issued[len(i.issued)-1]
}

func TestStreamStateSequence(t *testing.T) {
	s := NewStream[int](nil)
	iss := &issuer[int]{}

	assert.Equal(t, StateIdle, s.State())

	var states []State
	for tick := 1; tick <= 5; tick++ {
		if tick == 4 {
			// completes after three ticks in flight
			iss.issued[0].Complete([]int{7}, nil)
		}
		states = append(states, s.Poll(iss.issue).State)
	}

	assert.Equal(t, []State{
		StateInFlight, StateInFlight, StateInFlight, StateDelivered, StateInFlight,
	}, states)
	assert.Equal(t, []int{7}, s.Items())
	assert.Equal(t, 1, s.Deliveries())
	assert.Len(t, iss.issued, 2, "one fetch plus its successor")
}

func TestStreamIssuesSuccessorBeforeDelivery(t *testing.T) {
	s := NewStream([]string{"a", "b", "c"})
	iss := &issuer[string]{}

	s.Poll(iss.issue)
	iss.last().Complete([]string{"x"}, nil)

	var issuedDuringDelivery bool
	out := s.Poll(func() *Pending[string] {
		// the old collection is still in place when the successor goes out
		issuedDuringDelivery = len(s.Items()) == 3
		return iss.issue()
	})

	assert.True(t, issuedDuringDelivery)
	assert.True(t, out.Delivered())
	assert.Equal(t, 3, out.PreviousLen)
	assert.Equal(t, []string{"x"}, s.Items())
	assert.True(t, s.InFlight())
}

func TestStreamFailureKeepsCollection(t *testing.T) {
	s := NewStream([]int{1})
	iss := &issuer[int]{}
	boom := errors.New("boom")

	s.Poll(iss.issue)
	iss.last().Complete(nil, boom)

	out := s.Poll(iss.issue)
	assert.ErrorIs(t, out.Err, boom)
	assert.Equal(t, StateInFlight, out.State)
	assert.Equal(t, []int{1}, s.Items())
	assert.Equal(t, 1, s.Failures())
	assert.Len(t, iss.issued, 2, "failure is retried on the same tick")
}

func TestStreamNeverBlocks(t *testing.T) {
	s := NewStream[int](nil)
	iss := &issuer[int]{}

	start := time.Now()
	for i := 0; i < 1000; i++ {
		s.Poll(iss.issue)
	}
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, iss.issued, 1, "at most one fetch in flight")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "in-flight", StateInFlight.String())
	assert.Equal(t, "delivered", StateDelivered.String())
	assert.Equal(t, "state(9)", State(9).String())
}
