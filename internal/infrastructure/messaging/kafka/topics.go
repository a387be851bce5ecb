// Package kafka publishes and consumes corpus events.  The worker listens for
// newly ingested articles and feeds them through extraction and retraining.
package kafka

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// Topic names.  Overridable through configuration; these are the defaults.
const (
	TopicArticleIngested   = "dentemg.article.ingested"
	TopicTrainingCompleted = "dentemg.training.completed"
)

// Event types carried in the envelope.
const (
	EventArticleIngested   = "article.ingested"
	EventTrainingCompleted = "training.completed"
)

// EventEnvelope is the wire format for every event.  The payload stays raw
// until a consumer decodes it against the concrete type for the event.
type EventEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
}

// ArticleIngestedPayload announces a new corpus article.
type ArticleIngestedPayload struct {
	ArticleID string `json:"article_id"`
	Title     string `json:"title"`
	Source    string `json:"source"`
}

// TrainingCompletedPayload announces a finished training run.
type TrainingCompletedPayload struct {
	SnapshotID      string   `json:"snapshot_id"`
	Examples        int      `json:"examples"`
	Classes         []string `json:"classes"`
	HoldoutAccuracy *float64 `json:"holdout_accuracy,omitempty"`
	UsedEnsemble    bool     `json:"used_ensemble"`
}

// NewEventEnvelope wraps a payload for publication.
func NewEventEnvelope(eventType, source string, payload interface{}) (*EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal event payload")
	}
	return &EventEnvelope{
		ID:        uuid.NewString(),
		Type:      eventType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   data,
	}, nil
}

// DecodePayload unmarshals the payload into target.
func (e *EventEnvelope) DecodePayload(target interface{}) error {
	if err := json.Unmarshal(e.Payload, target); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode event payload")
	}
	return nil
}
