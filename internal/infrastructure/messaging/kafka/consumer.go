package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/DentEMG-Intelligence/internal/config"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// Handler processes one decoded event.  Returning an error leaves the offset
// uncommitted so the message is redelivered.
type Handler func(ctx context.Context, env *EventEnvelope) error

// readerInterface matches kafka.Reader for mocking in tests.
type readerInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer runs a fetch-handle-commit loop over one topic.
type Consumer struct {
	reader     readerInterface
	handler    Handler
	logger     logging.Logger
	maxRetries int
	backoff    time.Duration
}

// NewConsumer builds a group consumer for the given topic.
func NewConsumer(cfg config.KafkaConfig, topic string, handler Handler, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Configuration("kafka brokers not configured")
	}
	if cfg.GroupID == "" {
		return nil, errors.Configuration("kafka consumer group not configured")
	}
	if handler == nil {
		return nil, errors.InvalidParam("kafka handler must not be nil")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	startOffset := kafka.LastOffset
	if cfg.AutoOffsetReset == "earliest" {
		startOffset = kafka.FirstOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       topic,
		StartOffset: startOffset,
		MinBytes:    1,
		MaxBytes:    10 << 20,
		MaxWait:     500 * time.Millisecond,
	})

	return &Consumer{
		reader:     reader,
		handler:    handler,
		logger:     log.Named("kafka-consumer"),
		maxRetries: 3,
		backoff:    time.Second,
	}, nil
}

// Run consumes until the context is cancelled.  Messages that fail decoding
// are committed and dropped; handler failures are retried with backoff and
// only committed after exhausting retries, with the failure logged.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("Failed to fetch message", logging.Err(err))
			continue
		}

		var env EventEnvelope
		if err := json.Unmarshal(msg.Value, &env); err != nil {
			c.logger.Warn("Dropping undecodable message",
				logging.String("topic", msg.Topic),
				logging.Int("partition", msg.Partition),
				logging.Err(err))
			c.commit(ctx, msg)
			continue
		}

		if err := c.handleWithRetry(ctx, &env); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("Handler failed after retries, skipping event",
				logging.String("event_id", env.ID),
				logging.String("event_type", env.Type),
				logging.Err(err))
		}
		c.commit(ctx, msg)
	}
}

func (c *Consumer) handleWithRetry(ctx context.Context, env *EventEnvelope) error {
	var err error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff * time.Duration(attempt)):
			}
		}
		if err = c.handler(ctx, env); err == nil {
			return nil
		}
	}
	return err
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil && ctx.Err() == nil {
		c.logger.Error("Failed to commit offset", logging.Err(err))
	}
}

// Close shuts the reader down.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
