package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
)

var ErrNoSubscribers = errors.New("no subscribers")

type subscriber struct {
	id      int
	handler Handler
}

// InMemoryBus connects components living in one process. Published commands
// are retried with a linear backoff unless the failure is permanent.
type InMemoryBus struct {
	mu       sync.Mutex
	nextID   int
	handlers map[string][]subscriber
	closed   bool

	MaxRetries int
	Backoff    time.Duration
	Logger     *slog.Logger
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{
		handlers:   make(map[string][]subscriber),
		MaxRetries: 3,
		Backoff:    500 * time.Millisecond,
		Logger:     logging.WithModule("bus"),
	}
}

// job wraps a published command with its retry state.
type job struct {
	topic      string
	cmd        model.Command
	retryCount int
}

func (b *InMemoryBus) subscribers(topic string) ([]subscriber, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("bus closed")
	}
	subs := append([]subscriber(nil), b.handlers[topic]...)
	if len(subs) == 0 {
		return nil, ErrNoSubscribers
	}
	return subs, nil
}

func (b *InMemoryBus) Publish(ctx context.Context, topic string, cmd model.Command) error {
	subs, err := b.subscribers(topic)
	if err != nil {
		return appErrors.NewCommunication(topic, err)
	}
	for _, s := range subs {
		go b.process(context.WithoutCancel(ctx), s.handler, job{topic: topic, cmd: cmd})
	}
	return nil
}

func (b *InMemoryBus) process(ctx context.Context, h Handler, j job) {
	for {
		err := ReplyError(h(ctx, j.cmd))
		if err == nil {
			b.Logger.Debug("command processed", "topic", j.topic, "action", j.cmd.Action)
			return
		}
		if appErrors.IsPermanent(err) || j.retryCount >= b.MaxRetries {
			b.Logger.Warn("command failed", "topic", j.topic, "action", j.cmd.Action, "attempts", j.retryCount+1, "error", err)
			return
		}
		j.retryCount++
		b.Logger.Debug("retrying command", "topic", j.topic, "action", j.cmd.Action, "attempt", j.retryCount, "error", err)
		time.Sleep(time.Duration(j.retryCount) * b.Backoff)
	}
}

func (b *InMemoryBus) Request(ctx context.Context, topic string, cmd model.Command) (model.Reply, error) {
	subs, err := b.subscribers(topic)
	if err != nil {
		return model.Reply{}, appErrors.NewCommunication(topic, err)
	}

	done := make(chan model.Reply, 1)
	go func() { done <- subs[0].handler(ctx, cmd) }()

	select {
	case r := <-done:
		return r, nil
	case <-ctx.Done():
		return model.Reply{}, appErrors.NewCommunication(topic, ctx.Err())
	}
}

func (b *InMemoryBus) Subscribe(topic string, h Handler) (func(), error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers[topic] = append(b.handlers[topic], subscriber{id: id, handler: h})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.handlers[topic]
		for i, s := range subs {
			if s.id == id {
				b.handlers[topic] = append(subs[:i:i], subs[i+1:]...)
				return
			}
		}
	}, nil
}

func (b *InMemoryBus) Close() error {
	b.mu.Lock()
	b.closed = true
	b.handlers = make(map[string][]subscriber)
	b.mu.Unlock()
	return nil
}
