package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/DentEMG-Intelligence/internal/config"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// writerInterface matches kafka.Writer for mocking in tests.
type writerInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes event envelopes to Kafka.
type Producer struct {
	writer writerInterface
	source string
	logger logging.Logger
	mu     sync.Mutex
	closed bool
}

// NewProducer builds a producer against the configured brokers.  source
// identifies this service in the envelopes it emits.
func NewProducer(cfg config.KafkaConfig, source string, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.Configuration("kafka brokers not configured")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}

	retries := cfg.ProducerRetries
	if retries <= 0 {
		retries = 3
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  retries,
		BatchSize:    batchSize,
		BatchTimeout: 10 * time.Millisecond,
		RequiredAcks: kafka.RequireAll,
		Compression:  kafka.Snappy,
	}

	return &Producer{writer: writer, source: source, logger: log.Named("kafka-producer")}, nil
}

// Publish marshals the envelope and writes it to the topic, keyed by envelope
// ID so retries of the same event land on the same partition.
func (p *Producer) Publish(ctx context.Context, topic string, env *EventEnvelope) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return errors.New(errors.ErrCodeInternal, "kafka producer is closed")
	}
	p.mu.Unlock()

	data, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event envelope")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(env.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event-type", Value: []byte(env.Type)},
			{Key: "source", Value: []byte(env.Source)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event",
			logging.String("topic", topic),
			logging.String("event_type", env.Type),
			logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeExternalService, "failed to publish kafka message")
	}

	p.logger.Debug("Published event",
		logging.String("topic", topic),
		logging.String("event_type", env.Type),
		logging.String("event_id", env.ID))
	return nil
}

// PublishArticleIngested is a convenience wrapper for the most common event.
func (p *Producer) PublishArticleIngested(ctx context.Context, topic string, payload ArticleIngestedPayload) error {
	env, err := NewEventEnvelope(EventArticleIngested, p.source, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, env)
}

// PublishTrainingCompleted announces a finished training run.
func (p *Producer) PublishTrainingCompleted(ctx context.Context, topic string, payload TrainingCompletedPayload) error {
	env, err := NewEventEnvelope(EventTrainingCompleted, p.source, payload)
	if err != nil {
		return err
	}
	return p.Publish(ctx, topic, env)
}

// Close flushes and closes the writer.  Safe to call more than once.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
