// Package query tracks the request lifecycle of screens: a Query re-runs a
// read when its parameters change, a Mutation wraps a single write.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

type State[T any] struct {
	Data    T
	Loading bool
	Err     error
}

type Fetcher[P, T any] func(ctx context.Context, params P) (T, error)

// Query runs fetch and exposes {Data, Loading, Err}. On failure the previous
// Data is kept. Overlapping runs are not cancelled: the last one to finish
// wins. Results that arrive after Close are dropped.
type Query[P, T any] struct {
	mu       sync.Mutex
	fetch    Fetcher[P, T]
	state    State[T]
	params   P
	key      string
	ran      bool
	inflight int
	closed   bool
	runs     int
}

func NewQuery[P, T any](fetch func(ctx context.Context, params P) (T, error)) *Query[P, T] {
	return &Query[P, T]{fetch: fetch}
}

// Key serializes params into the dependency key. Maps are encoded with sorted
// keys, so equal values give equal keys.
func Key(params any) string {
	b, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%#v", params)
	}
	return string(b)
}

// Sync runs the fetch when params differ from the last run (or on the first
// call) and returns the resulting state. An unchanged key returns the current
// state without a request.
func (q *Query[P, T]) Sync(ctx context.Context, params P) State[T] {
	key := Key(params)
	q.mu.Lock()
	if q.ran && key == q.key {
		st := q.state
		q.mu.Unlock()
		return st
	}
	q.params = params
	q.key = key
	q.ran = true
	q.mu.Unlock()
	return q.run(ctx, params)
}

// Refetch re-runs with the last params regardless of the key.
func (q *Query[P, T]) Refetch(ctx context.Context) State[T] {
	q.mu.Lock()
	params := q.params
	q.ran = true
	q.key = Key(params)
	q.mu.Unlock()
	return q.run(ctx, params)
}

func (q *Query[P, T]) run(ctx context.Context, params P) State[T] {
	q.mu.Lock()
	if q.closed {
		st := q.state
		q.mu.Unlock()
		return st
	}
	q.inflight++
	q.runs++
	q.state.Loading = true
	q.state.Err = nil
	q.mu.Unlock()

	data, err := q.fetch(ctx, params)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	if q.closed {
		return State[T]{Data: data, Err: err}
	}
	q.state.Loading = q.inflight > 0
	if err != nil {
		q.state.Err = err
	} else {
		q.state.Data = data
	}
	return q.state
}

func (q *Query[P, T]) State() State[T] {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.state
}

// SetData replaces the cached data, for screens patching their list after a mutation.
func (q *Query[P, T]) SetData(data T) {
	q.mu.Lock()
	q.state.Data = data
	q.mu.Unlock()
}

// Runs reports how many times fetch was invoked.
func (q *Query[P, T]) Runs() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.runs
}

// Close marks the consumer gone; in-flight results are discarded.
func (q *Query[P, T]) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
}

type MutationState struct {
	Loading bool
	Err     error
}

// Mutation wraps one write. It never retries and never refetches anything.
type Mutation[A, R any] struct {
	mu    sync.Mutex
	fn    func(ctx context.Context, args A) (R, error)
	state MutationState
}

func NewMutation[A, R any](fn func(ctx context.Context, args A) (R, error)) *Mutation[A, R] {
	return &Mutation[A, R]{fn: fn}
}

func (m *Mutation[A, R]) Call(ctx context.Context, args A) (R, error) {
	m.mu.Lock()
	m.state = MutationState{Loading: true}
	m.mu.Unlock()

	res, err := m.fn(ctx, args)

	m.mu.Lock()
	m.state = MutationState{Err: err}
	m.mu.Unlock()
	return res, err
}

func (m *Mutation[A, R]) State() MutationState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
