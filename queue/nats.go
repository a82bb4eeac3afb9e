package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"
)

// NATSQueue implements Queue over NATS JetStream. One stream holds every
// task subject; each queue group gets a durable work-queue consumer, so a
// unit of work is delivered to exactly one worker in the group. Handler
// failures Nak the message and leave redelivery to the server's policy.
type NATSQueue struct {
	conn   *nats.Conn
	js     jetstream.JetStream
	config Config
	log    *zap.Logger
	mu     sync.Mutex
	subs   []*natsWorker
	closed atomic.Bool
}

const (
	streamName    = "TOR_TASKS"
	subjectPrefix = "tor.task."
)

// NewNATSQueue connects to NATS and ensures the task stream exists.
func NewNATSQueue(cfg Config, log *zap.Logger) (*NATSQueue, error) {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.Timeout(cfg.Timeout),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(-1),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      streamName,
		Subjects:  []string{subjectPrefix + ">"},
		Retention: jetstream.InterestPolicy,
		MaxAge:    24 * time.Hour,
		Storage:   jetstream.FileStorage,
		Replicas:  1,
	})
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("ensure task stream: %w", err)
	}

	return &NATSQueue{
		conn:   conn,
		js:     js,
		config: cfg,
		log:    log,
	}, nil
}

func (q *NATSQueue) Dispatch(ctx context.Context, name string, args any) error {
	if q.closed.Load() {
		return ErrClosed
	}
	env, data, err := newEnvelope(name, args)
	if err != nil {
		return err
	}
	if _, err := q.js.Publish(ctx, subjectPrefix+name, data); err != nil {
		return fmt.Errorf("dispatch %q: %w", name, err)
	}
	q.log.Debug("dispatched task", zap.String("task", name), zap.String("id", env.ID))
	return nil
}

func (q *NATSQueue) Worker(ctx context.Context, group string, reg *Registry) (Subscription, error) {
	if q.closed.Load() {
		return nil, ErrClosed
	}

	names := reg.Names(group)
	subjects := make([]string, len(names))
	for i, name := range names {
		subjects[i] = subjectPrefix + name
	}

	stream, err := q.js.Stream(ctx, streamName)
	if err != nil {
		return nil, fmt.Errorf("lookup task stream: %w", err)
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Durable:        "worker_" + group,
		FilterSubjects: subjects,
		AckPolicy:      jetstream.AckExplicitPolicy,
		AckWait:        5 * time.Minute,
		MaxAckPending:  64,
	})
	if err != nil {
		return nil, fmt.Errorf("ensure consumer for group %q: %w", group, err)
	}

	w := &natsWorker{queue: q, group: group}
	w.ctx, w.cancel = context.WithCancel(ctx)

	cc, err := consumer.Consume(func(msg jetstream.Msg) {
		var env Envelope
		if err := json.Unmarshal(msg.Data(), &env); err != nil {
			q.log.Error("malformed task envelope", zap.Error(err))
			_ = msg.Term()
			return
		}
		handler, ok := reg.Lookup(env.Name)
		if !ok {
			q.log.Error("task with no registered handler",
				zap.String("task", env.Name), zap.String("id", env.ID))
			_ = msg.Term()
			return
		}
		if err := handler(w.ctx, env.Args); err != nil {
			q.log.Warn("task failed",
				zap.String("task", env.Name), zap.String("id", env.ID), zap.Error(err))
			_ = msg.Nak()
			return
		}
		_ = msg.Ack()
	})
	if err != nil {
		w.cancel()
		return nil, fmt.Errorf("consume for group %q: %w", group, err)
	}
	w.cc = cc

	q.mu.Lock()
	q.subs = append(q.subs, w)
	q.mu.Unlock()

	return w, nil
}

func (q *NATSQueue) Close() error {
	if q.closed.Swap(true) {
		return ErrClosed
	}
	q.mu.Lock()
	for _, w := range q.subs {
		_ = w.Unsubscribe()
	}
	q.mu.Unlock()
	q.conn.Close()
	return nil
}

type natsWorker struct {
	queue  *NATSQueue
	group  string
	ctx    context.Context
	cancel context.CancelFunc
	cc     jetstream.ConsumeContext
	once   sync.Once
}

func (w *natsWorker) Unsubscribe() error {
	w.once.Do(func() {
		if w.cc != nil {
			w.cc.Stop()
		}
		w.cancel()
	})
	return nil
}
