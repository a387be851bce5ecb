package kafka

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/internal/config"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
)

// fakeWriter records written messages.
type fakeWriter struct {
	messages []kafka.Message
	err      error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestEventEnvelopeRoundTrip(t *testing.T) {
	payload := ArticleIngestedPayload{ArticleID: "a1", Title: "bulk-fill wear", Source: "pubmed"}
	env, err := NewEventEnvelope(EventArticleIngested, "apiserver", payload)
	require.NoError(t, err)
	assert.NotEmpty(t, env.ID)
	assert.Equal(t, EventArticleIngested, env.Type)
	assert.False(t, env.Timestamp.IsZero())

	var decoded ArticleIngestedPayload
	require.NoError(t, env.DecodePayload(&decoded))
	assert.Equal(t, payload, decoded)
}

func TestProducerPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, source: "apiserver", logger: logging.NewNopLogger()}

	require.NoError(t, p.PublishArticleIngested(context.Background(), TopicArticleIngested,
		ArticleIngestedPayload{ArticleID: "a1", Title: "t", Source: "manual"}))

	require.Len(t, w.messages, 1)
	msg := w.messages[0]
	assert.Equal(t, TopicArticleIngested, msg.Topic)
	assert.NotEmpty(t, msg.Key)

	var env EventEnvelope
	require.NoError(t, json.Unmarshal(msg.Value, &env))
	assert.Equal(t, EventArticleIngested, env.Type)
	assert.Equal(t, "apiserver", env.Source)
}

func TestProducerClosedRejectsPublish(t *testing.T) {
	w := &fakeWriter{}
	p := &Producer{writer: w, source: "apiserver", logger: logging.NewNopLogger()}
	require.NoError(t, p.Close())
	require.NoError(t, p.Close()) // idempotent
	assert.True(t, w.closed)

	env, err := NewEventEnvelope(EventArticleIngested, "apiserver", ArticleIngestedPayload{})
	require.NoError(t, err)
	assert.Error(t, p.Publish(context.Background(), TopicArticleIngested, env))
}

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer(config.KafkaConfig{}, "apiserver", nil)
	assert.Error(t, err)
}

// fakeReader serves a fixed message sequence.
type fakeReader struct {
	messages  []kafka.Message
	committed []kafka.Message
	pos       int
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	if r.pos >= len(r.messages) {
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.messages[r.pos]
	r.pos++
	return m, nil
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

func TestConsumerHandlesAndCommits(t *testing.T) {
	env, err := NewEventEnvelope(EventArticleIngested, "test",
		ArticleIngestedPayload{ArticleID: "a1"})
	require.NoError(t, err)
	data, err := json.Marshal(env)
	require.NoError(t, err)

	reader := &fakeReader{messages: []kafka.Message{
		{Topic: TopicArticleIngested, Value: data},
		{Topic: TopicArticleIngested, Value: []byte("not json")},
	}}

	var handled []string
	c := &Consumer{
		reader: reader,
		handler: func(_ context.Context, e *EventEnvelope) error {
			handled = append(handled, e.ID)
			return nil
		},
		logger:     logging.NewNopLogger(),
		maxRetries: 1,
		backoff:    time.Millisecond,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	err = c.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Valid message handled once, broken message dropped, both committed.
	assert.Equal(t, []string{env.ID}, handled)
	assert.Len(t, reader.committed, 2)
}

func TestNewConsumerValidation(t *testing.T) {
	handler := func(context.Context, *EventEnvelope) error { return nil }

	_, err := NewConsumer(config.KafkaConfig{}, TopicArticleIngested, handler, nil)
	assert.Error(t, err)

	_, err = NewConsumer(config.KafkaConfig{Brokers: []string{"localhost:9092"}},
		TopicArticleIngested, handler, nil)
	assert.Error(t, err) // missing group id

	_, err = NewConsumer(config.KafkaConfig{Brokers: []string{"localhost:9092"}, GroupID: "g"},
		TopicArticleIngested, nil, nil)
	assert.Error(t, err) // missing handler
}
