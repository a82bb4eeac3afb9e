package queue

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
)

// MemoryQueue is an in-memory implementation of Queue for testing. Units of
// work are executed synchronously by the first worker whose registry knows
// the task name, so tests see side effects as soon as Dispatch returns.
// Failed units are recorded, not redelivered.
type MemoryQueue struct {
	mu      sync.Mutex
	workers []*memoryWorker
	closed  atomic.Bool

	// Dispatched records every envelope in dispatch order.
	Dispatched []Envelope

	// Failed records names of units whose handler returned an error.
	Failed []string
}

// NewMemoryQueue creates a new in-memory queue.
func NewMemoryQueue() *MemoryQueue {
	return &MemoryQueue{}
}

func (q *MemoryQueue) Dispatch(ctx context.Context, name string, args any) error {
	if q.closed.Load() {
		return ErrClosed
	}
	env, _, err := newEnvelope(name, args)
	if err != nil {
		return err
	}

	q.mu.Lock()
	q.Dispatched = append(q.Dispatched, env)
	workers := make([]*memoryWorker, len(q.workers))
	copy(workers, q.workers)
	q.mu.Unlock()

	for _, w := range workers {
		if w.done.Load() {
			continue
		}
		handler, ok := w.reg.Lookup(name)
		if !ok {
			continue
		}
		if err := handler(ctx, env.Args); err != nil {
			q.mu.Lock()
			q.Failed = append(q.Failed, name)
			q.mu.Unlock()
		}
		return nil
	}
	return nil
}

func (q *MemoryQueue) Worker(ctx context.Context, group string, reg *Registry) (Subscription, error) {
	if q.closed.Load() {
		return nil, ErrClosed
	}
	w := &memoryWorker{queue: q, group: group, reg: reg}
	q.mu.Lock()
	q.workers = append(q.workers, w)
	q.mu.Unlock()
	return w, nil
}

func (q *MemoryQueue) Close() error {
	if q.closed.Swap(true) {
		return ErrClosed
	}
	return nil
}

// TaskNames returns the names of all dispatched envelopes in order.
func (q *MemoryQueue) TaskNames() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	names := make([]string, len(q.Dispatched))
	for i, env := range q.Dispatched {
		names[i] = env.Name
	}
	return names
}

// ArgsFor unmarshals the args of the first dispatched envelope with the given
// task name into out, reporting whether one was found.
func (q *MemoryQueue) ArgsFor(name string, out any) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, env := range q.Dispatched {
		if env.Name == name {
			if err := json.Unmarshal(env.Args, out); err != nil {
				return false
			}
			return true
		}
	}
	return false
}

type memoryWorker struct {
	queue *MemoryQueue
	group string
	reg   *Registry
	done  atomic.Bool
}

func (w *memoryWorker) Unsubscribe() error {
	w.done.Store(true)
	return nil
}
