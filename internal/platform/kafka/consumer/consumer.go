// Package consumer runs a franz-go consumer group and hands each record to a
// Handler, committing only what was handled.
package consumer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is one consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp time.Time
}

// Handler processes a message. Returning an error retries the same message;
// returning nil lets its offset be committed.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// Config configures a Consumer.
type Config struct {
	Brokers []string
	Group   string
	Topics  []string
	// MaxBackoff caps the delay between retries of a failing message.
	MaxBackoff time.Duration
}

// Consumer delivers records at least once: offsets are committed after the
// records of a poll are all handled.
type Consumer struct {
	client     *kgo.Client
	handler    Handler
	maxBackoff time.Duration
	logger     *slog.Logger
}

// New connects a consumer group client.
func New(cfg Config, handler Handler, logger *slog.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Group == "" {
		return nil, errors.New("kafka consumer group is required")
	}
	if len(cfg.Topics) == 0 {
		return nil, errors.New("at least one topic is required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.Group),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
		kgo.DisableAutoCommit(),
		kgo.BlockRebalanceOnPoll(),
	)
	if err != nil {
		return nil, err
	}

	maxBackoff := cfg.MaxBackoff
	if maxBackoff <= 0 {
		maxBackoff = 30 * time.Second
	}
	return &Consumer{client: client, handler: handler, maxBackoff: maxBackoff, logger: logger}, nil
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			c.client.AllowRebalance()
			return ctx.Err()
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("fetch error", "topic", topic, "partition", partition, "error", err)
		})

		var handleErr error
		fetches.EachRecord(func(r *kgo.Record) {
			if handleErr != nil {
				return
			}
			handleErr = c.handle(ctx, r)
		})
		if handleErr != nil {
			c.client.AllowRebalance()
			return handleErr
		}

		if err := c.client.CommitUncommittedOffsets(ctx); err != nil {
			c.logger.Error("commit failed", "error", err)
		}
		c.client.AllowRebalance()
	}
}

// handle retries r with capped exponential backoff until it succeeds or ctx
// ends, so a later record is never committed past a failed one.
func (c *Consumer) handle(ctx context.Context, r *kgo.Record) error {
	msg := &Message{
		Topic:     r.Topic,
		Partition: r.Partition,
		Offset:    r.Offset,
		Key:       r.Key,
		Value:     r.Value,
		Timestamp: r.Timestamp,
	}

	backoff := 100 * time.Millisecond
	for {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return nil
		}
		c.logger.Warn("handler failed, retrying",
			"topic", msg.Topic,
			"partition", msg.Partition,
			"offset", msg.Offset,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, c.maxBackoff)
	}
}

// Close leaves the group and closes the client.
func (c *Consumer) Close() {
	c.client.Close()
}
