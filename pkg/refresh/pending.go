package refresh

import (
	"context"
)

// Result is the outcome of one fetch
type Result[T any] struct {
	Items []T
	Err   error
}

// Pending is a handle on a fetch running concurrently with the scheduler
type Pending[T any] struct {
	done chan Result[T]
}

// NewPending returns a handle that completes when Complete is called
func NewPending[T any]() *Pending[T] {
	return &Pending[T]{done: make(chan Result[T], 1)}
}

// Start runs fetch in a new goroutine and returns its handle
func Start[T any](ctx context.Context, fetch func(context.Context) ([]T, error)) *Pending[T] {
	p := NewPending[T]()
	go func() {
		items, err := fetch(ctx)
		p.Complete(items, err)
	}()
	return p
}

// Complete records the result. Only the first call has an effect.
func (p *Pending[T]) Complete(items []T, err error) {
	select {
	case p.done <- Result[T]{Items: items, Err: err}:
	default:
	}
}

// TryResult returns the result if the fetch has finished. It never
// blocks. A result is returned at most once.
func (p *Pending[T]) TryResult() (Result[T], bool) {
	select {
	case res := <-p.done:
		return res, true
	default:
		return Result[T]{}, false
	}
}
