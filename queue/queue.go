// Package queue is the bot's job substrate: named units of work dispatched
// fire-and-forget and executed by queue-group workers. The default
// implementation uses NATS JetStream, with an in-memory option for testing.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned when operating on a closed queue.
	ErrClosed = errors.New("queue closed")

	// ErrNoHandler is returned by workers receiving a task name that was
	// never registered.
	ErrNoHandler = errors.New("no handler registered for task")
)

// Envelope is the wire form of one dispatched unit of work.
type Envelope struct {
	ID   string          `json:"id"`
	Name string          `json:"name"`
	Args json.RawMessage `json:"args"`
}

// Handler executes one unit of work. A non-nil error marks the unit failed;
// whether it is redelivered or dropped is the substrate's policy, not ours.
type Handler func(ctx context.Context, args json.RawMessage) error

// Queue dispatches and executes named units of work. Implementations must be
// safe for concurrent use.
type Queue interface {
	// Dispatch enqueues a unit of work. args is JSON-marshalled into the
	// envelope. Dispatch returns once the envelope is handed to the
	// substrate; it never waits for execution.
	Dispatch(ctx context.Context, name string, args any) error

	// Worker starts consuming units of work for the given queue group.
	// Tasks are load-balanced across workers sharing a group. The handler
	// for each envelope is resolved from reg by task name.
	Worker(ctx context.Context, group string, reg *Registry) (Subscription, error)

	// Close shuts down the queue and all workers.
	Close() error
}

// Subscription is an active worker that can be stopped.
type Subscription interface {
	Unsubscribe() error
}

// Registry maps task names to handlers and to the queue group that runs
// them. The mapping is closed at startup; dispatching a name with no
// registered handler fails at the worker with ErrNoHandler.
type Registry struct {
	handlers map[string]registered
}

type registered struct {
	group   string
	handler Handler
}

// NewRegistry returns an empty task registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]registered)}
}

// Register binds a task name to a handler within a queue group. Registering
// the same name twice panics; it is a wiring error.
func (r *Registry) Register(name, group string, h Handler) {
	if _, dup := r.handlers[name]; dup {
		panic(fmt.Sprintf("queue: task %q registered twice", name))
	}
	r.handlers[name] = registered{group: group, handler: h}
}

// Lookup resolves a task name to its handler.
func (r *Registry) Lookup(name string) (Handler, bool) {
	reg, ok := r.handlers[name]
	if !ok {
		return nil, false
	}
	return reg.handler, true
}

// Names returns the registered task names for the given group.
func (r *Registry) Names(group string) []string {
	var names []string
	for name, reg := range r.handlers {
		if reg.group == group {
			names = append(names, name)
		}
	}
	return names
}

// Groups returns every distinct queue group in the registry.
func (r *Registry) Groups() []string {
	seen := make(map[string]bool)
	var groups []string
	for _, reg := range r.handlers {
		if !seen[reg.group] {
			seen[reg.group] = true
			groups = append(groups, reg.group)
		}
	}
	return groups
}

func newEnvelope(name string, args any) (Envelope, []byte, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return Envelope{}, nil, fmt.Errorf("marshal args for %q: %w", name, err)
	}
	env := Envelope{
		ID:   uuid.NewString(),
		Name: name,
		Args: raw,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return Envelope{}, nil, err
	}
	return env, data, nil
}

// Config holds settings for the NATS-backed queue.
type Config struct {
	// URL is the NATS server URL (e.g. "nats://localhost:4222").
	URL string

	// Name is a client identifier for debugging/monitoring.
	Name string

	// Timeout is the default timeout for connection operations.
	Timeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:     "nats://localhost:4222",
		Name:    "transcriber-bot",
		Timeout: 30 * time.Second,
	}
}
