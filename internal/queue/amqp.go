package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"

	appErrors "github.com/unclebandit/linkedin-outreach/internal/errors"
	"github.com/unclebandit/linkedin-outreach/internal/logging"
	"github.com/unclebandit/linkedin-outreach/internal/model"
)

const DefaultRequestTimeout = 10 * time.Second

type result struct {
	reply model.Reply
	err   error
}

// AMQPBus maps every topic to a fanout exchange. Each subscriber binds its
// own exclusive queue, so Publish reaches all of them. Requests carry a
// correlation id and are answered on a private reply queue.
type AMQPBus struct {
	conn *amqp.Connection

	mu       sync.Mutex // guards ch and declared
	ch       *amqp.Channel
	declared map[string]bool

	replyQueue string
	pendingMu  sync.Mutex
	pending    map[string]chan result

	Timeout time.Duration
	Logger  *slog.Logger
}

func DialAMQP(url string) (*AMQPBus, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	b := &AMQPBus{
		conn:     conn,
		ch:       ch,
		declared: make(map[string]bool),
		pending:  make(map[string]chan result),
		Timeout:  DefaultRequestTimeout,
		Logger:   logging.WithModule("amqp"),
	}
	if err := b.listenReplies(); err != nil {
		conn.Close()
		return nil, err
	}
	return b, nil
}

func (b *AMQPBus) listenReplies() error {
	q, err := b.ch.QueueDeclare(
		"",    // server named
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare reply queue: %w", err)
	}
	replies, err := b.ch.Consume(q.Name, "", true, true, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume reply queue: %w", err)
	}
	b.replyQueue = q.Name

	returns := b.ch.NotifyReturn(make(chan amqp.Return, 16))

	go func() {
		for d := range replies {
			var r model.Reply
			if err := json.Unmarshal(d.Body, &r); err != nil {
				b.resolve(d.CorrelationId, result{err: fmt.Errorf("decode reply: %w", err)})
				continue
			}
			b.resolve(d.CorrelationId, result{reply: r})
		}
	}()
	go func() {
		for ret := range returns {
			b.resolve(ret.CorrelationId, result{err: ErrNoSubscribers})
		}
	}()
	return nil
}

func (b *AMQPBus) resolve(correlationID string, r result) {
	b.pendingMu.Lock()
	ch, ok := b.pending[correlationID]
	delete(b.pending, correlationID)
	b.pendingMu.Unlock()
	if ok {
		ch <- r
	}
}

func (b *AMQPBus) declare(ch *amqp.Channel, topic string) error {
	return ch.ExchangeDeclare(
		topic,
		"fanout",
		false, // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
}

func (b *AMQPBus) publish(exchange, key string, mandatory bool, msg amqp.Publishing) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if exchange != "" && !b.declared[exchange] {
		if err := b.declare(b.ch, exchange); err != nil {
			return fmt.Errorf("declare exchange %s: %w", exchange, err)
		}
		b.declared[exchange] = true
	}
	return b.ch.Publish(exchange, key, mandatory, false, msg)
}

func (b *AMQPBus) Publish(_ context.Context, topic string, cmd model.Command) error {
	body, err := json.Marshal(cmd)
	if err != nil {
		return err
	}
	err = b.publish(topic, "", false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		return appErrors.NewCommunication(topic, err)
	}
	return nil
}

func (b *AMQPBus) Request(ctx context.Context, topic string, cmd model.Command) (model.Reply, error) {
	body, err := json.Marshal(cmd)
	if err != nil {
		return model.Reply{}, err
	}

	id := uuid.NewString()
	wait := make(chan result, 1)
	b.pendingMu.Lock()
	b.pending[id] = wait
	b.pendingMu.Unlock()
	defer func() {
		b.pendingMu.Lock()
		delete(b.pending, id)
		b.pendingMu.Unlock()
	}()

	err = b.publish(topic, "", true, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: id,
		ReplyTo:       b.replyQueue,
		Body:          body,
	})
	if err != nil {
		return model.Reply{}, appErrors.NewCommunication(topic, err)
	}

	if _, ok := ctx.Deadline(); !ok && b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	select {
	case r := <-wait:
		if r.err != nil {
			return model.Reply{}, appErrors.NewCommunication(topic, r.err)
		}
		return r.reply, nil
	case <-ctx.Done():
		return model.Reply{}, appErrors.NewCommunication(topic, ctx.Err())
	}
}

func (b *AMQPBus) Subscribe(topic string, h Handler) (func(), error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := b.declare(ch, topic); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", topic, err)
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, "", topic, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("bind %s: %w", topic, err)
	}
	deliveries, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false, acked once handled
		true,
		false,
		false,
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("consume %s: %w", topic, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		for d := range deliveries {
			b.handle(ctx, topic, h, d)
		}
	}()

	return func() {
		cancel()
		ch.Close()
	}, nil
}

func (b *AMQPBus) handle(ctx context.Context, topic string, h Handler, d amqp.Delivery) {
	defer d.Ack(false)

	var cmd model.Command
	var reply model.Reply
	if err := json.Unmarshal(d.Body, &cmd); err != nil {
		b.Logger.Warn("invalid command", "topic", topic, "error", err)
		reply = model.Reply{Error: "invalid command: " + err.Error(), Code: appErrors.CodeInvalid}
	} else {
		reply = h(ctx, cmd)
	}

	if d.ReplyTo == "" {
		if !reply.Success {
			b.Logger.Warn("command failed", "topic", topic, "action", cmd.Action, "error", reply.Error)
		}
		return
	}
	body, err := json.Marshal(reply)
	if err != nil {
		b.Logger.Error("encode reply", "error", err)
		return
	}
	err = b.publish("", d.ReplyTo, false, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: d.CorrelationId,
		Body:          body,
	})
	if err != nil {
		b.Logger.Error("send reply", "topic", topic, "error", err)
	}
}

func (b *AMQPBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ch.Close(); err != nil {
		b.Logger.Debug("close channel", "error", err)
	}
	return b.conn.Close()
}
