// Package model provides the application-level service that owns the model
// lifecycle: training runs, persistence of the artifact and its metadata,
// and the in-memory slot the recommendation path reads from.
package model

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/DentEMG-Intelligence/internal/config"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/database/postgres/repositories"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/internal/intelligence/synthetic"
	ml "github.com/turtacn/DentEMG-Intelligence/internal/intelligence/training"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Model slot
// ─────────────────────────────────────────────────────────────────────────────

// Slot holds the currently deployed model.  Readers take a snapshot under a
// read lock; a completed training run replaces the whole model atomically, so
// in-flight predictions keep the model they started with.
type Slot struct {
	mu    sync.RWMutex
	model *ml.Model
}

// Current returns the deployed model, or a ModelNotTrained error when no
// training run has completed yet.
func (s *Slot) Current() (*ml.Model, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.model == nil {
		return nil, errors.New(errors.ErrCodeTrainModelNotTrained, "no trained model available")
	}
	return s.model, nil
}

// Replace swaps in a freshly trained model.
func (s *Slot) Replace(m *ml.Model) {
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()
}

// Trained reports whether a model is deployed.
func (s *Slot) Trained() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.model != nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Service
// ─────────────────────────────────────────────────────────────────────────────

// PairSource supplies labeled clinical pairs for training.
type PairSource interface {
	ListLabeled(ctx context.Context) ([]corpus.ClinicalPair, error)
}

// SnapshotStore records metadata about completed training runs.
type SnapshotStore interface {
	Save(ctx context.Context, s *repositories.ModelSnapshot) error
	Latest(ctx context.Context) (*repositories.ModelSnapshot, error)
}

// EventPublisher announces completed training runs.
type EventPublisher interface {
	PublishTrainingCompleted(ctx context.Context, topic string, payload kafka.TrainingCompletedPayload) error
}

// Recorder receives training run metrics.
type Recorder interface {
	RecordTraining(outcome string, duration time.Duration, examples int, accuracy *float64)
}

// TrainInput controls one training run.
type TrainInput struct {
	// SkipSynthetic trains on the stored corpus only, without synthetic
	// expansion.  Mostly useful for evaluating extraction quality.
	SkipSynthetic bool `json:"skip_synthetic"`
}

// TrainResult summarizes one completed training run.
type TrainResult struct {
	SnapshotID       string   `json:"snapshot_id,omitempty"`
	ModelType        string   `json:"model_type"`
	Examples         int      `json:"examples"`
	TestExamples     int      `json:"test_examples"`
	Classes          []string `json:"classes"`
	HoldoutAccuracy  *float64 `json:"holdout_accuracy,omitempty"`
	UsedEnsemble     bool     `json:"used_ensemble"`
	EnsembleFallback bool     `json:"ensemble_fallback"`
	ArtifactPath     string   `json:"artifact_path"`
	DurationMS       int64    `json:"duration_ms"`
}

// Info describes the deployed model, falling back to the most recent
// snapshot when the process has not trained or loaded one yet.
type Info struct {
	Trained         bool       `json:"trained"`
	ModelType       string     `json:"model_type,omitempty"`
	TrainedAt       *time.Time `json:"trained_at,omitempty"`
	Examples        int        `json:"examples,omitempty"`
	Classes         []string   `json:"classes,omitempty"`
	HoldoutAccuracy *float64   `json:"holdout_accuracy,omitempty"`
	UsedEnsemble    bool       `json:"used_ensemble,omitempty"`
	ArtifactPath    string     `json:"artifact_path,omitempty"`
}

// Service manages training runs and the deployed model.
type Service interface {
	Train(ctx context.Context, input *TrainInput) (*TrainResult, error)
	Info(ctx context.Context) (*Info, error)
	LoadArtifact(ctx context.Context) error
	Slot() *Slot
}

type serviceImpl struct {
	trainer   *ml.Trainer
	slot      *Slot
	pairs     PairSource
	snapshots SnapshotStore
	publisher EventPublisher
	metrics   Recorder
	cfg       config.TrainingConfig
	topic     string
	logger    logging.Logger
}

// NewService creates the model service.  pairs, snapshots, publisher and
// metrics may be nil; the service then trains on the curated corpus alone
// and skips the corresponding side effects.
func NewService(
	trainer *ml.Trainer,
	slot *Slot,
	pairs PairSource,
	snapshots SnapshotStore,
	publisher EventPublisher,
	metrics Recorder,
	cfg config.TrainingConfig,
	logger logging.Logger,
) Service {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if slot == nil {
		slot = &Slot{}
	}
	path := cfg.ModelPath
	if path == "" {
		path = "models/model.json"
		cfg.ModelPath = path
	}
	return &serviceImpl{
		trainer:   trainer,
		slot:      slot,
		pairs:     pairs,
		snapshots: snapshots,
		publisher: publisher,
		metrics:   metrics,
		cfg:       cfg,
		topic:     kafka.TopicTrainingCompleted,
		logger:    logger.Named("model-service"),
	}
}

func (s *serviceImpl) Slot() *Slot { return s.slot }

// Train assembles the training corpus, runs the trainer, persists the
// artifact and metadata, and deploys the new model.
func (s *serviceImpl) Train(ctx context.Context, input *TrainInput) (*TrainResult, error) {
	if input == nil {
		input = &TrainInput{}
	}
	start := time.Now()

	base := labeledCurated()
	if s.pairs != nil {
		stored, err := s.pairs.ListLabeled(ctx)
		if err != nil {
			s.recordOutcome("failure", start, 0, nil)
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "load stored training pairs")
		}
		base = append(base, stored...)
	}

	data := base
	if !input.SkipSynthetic {
		genCfg := synthetic.DefaultConfig()
		genCfg.Seed = s.cfg.Seed
		if s.cfg.SyntheticVariations > 0 {
			genCfg.BaseMultiplier = s.cfg.SyntheticVariations
		}
		data = synthetic.NewGenerator(genCfg, s.logger).All(base)
	}

	s.logger.Info("training run started",
		logging.Int("base_pairs", len(base)),
		logging.Int("total_pairs", len(data)),
		logging.String("synthetic", boolWord(!input.SkipSynthetic)),
	)

	model, err := s.trainer.Train(ctx, data)
	if err != nil {
		s.recordOutcome("failure", start, 0, nil)
		return nil, err
	}

	if err := model.Save(s.cfg.ModelPath); err != nil {
		s.recordOutcome("failure", start, 0, nil)
		return nil, err
	}

	result := &TrainResult{
		ModelType:        modelType(model),
		Examples:         model.Metrics.Examples,
		TestExamples:     model.Metrics.TestExamples,
		Classes:          model.Classes,
		HoldoutAccuracy:  model.Metrics.HoldoutAccuracy,
		UsedEnsemble:     model.Metrics.UsedEnsemble,
		EnsembleFallback: model.Metrics.EnsembleFallback,
		ArtifactPath:     s.cfg.ModelPath,
		DurationMS:       time.Since(start).Milliseconds(),
	}

	if s.snapshots != nil {
		snapshot := &repositories.ModelSnapshot{
			ModelType:        result.ModelType,
			TrainedAt:        model.TrainedAt,
			Examples:         model.Metrics.Examples,
			TestExamples:     model.Metrics.TestExamples,
			Classes:          model.Classes,
			HoldoutAccuracy:  model.Metrics.HoldoutAccuracy,
			UsedEnsemble:     model.Metrics.UsedEnsemble,
			EnsembleFallback: model.Metrics.EnsembleFallback,
			ArtifactPath:     s.cfg.ModelPath,
		}
		if err := s.snapshots.Save(ctx, snapshot); err != nil {
			// The model is already deployed locally, so a metadata write
			// failure degrades history rather than the run itself.
			s.logger.Warn("model snapshot not recorded", logging.Err(err))
		} else {
			result.SnapshotID = snapshot.ID
		}
	}

	s.slot.Replace(model)

	if s.publisher != nil {
		payload := kafka.TrainingCompletedPayload{
			SnapshotID:      result.SnapshotID,
			Examples:        result.Examples,
			Classes:         result.Classes,
			HoldoutAccuracy: result.HoldoutAccuracy,
			UsedEnsemble:    result.UsedEnsemble,
		}
		if err := s.publisher.PublishTrainingCompleted(ctx, s.topic, payload); err != nil {
			s.logger.Warn("training completed event not published", logging.Err(err))
		}
	}

	s.recordOutcome("success", start, result.Examples, result.HoldoutAccuracy)
	s.logger.Info("training run completed",
		logging.String("model_type", result.ModelType),
		logging.Int("examples", result.Examples),
		logging.Int("classes", len(result.Classes)),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// Info reports on the deployed model, or on the last recorded snapshot when
// the slot is empty.
func (s *serviceImpl) Info(ctx context.Context) (*Info, error) {
	if m, err := s.slot.Current(); err == nil {
		trainedAt := m.TrainedAt
		return &Info{
			Trained:         true,
			ModelType:       modelType(m),
			TrainedAt:       &trainedAt,
			Examples:        m.Metrics.Examples,
			Classes:         m.Classes,
			HoldoutAccuracy: m.Metrics.HoldoutAccuracy,
			UsedEnsemble:    m.Metrics.UsedEnsemble,
			ArtifactPath:    s.cfg.ModelPath,
		}, nil
	}

	if s.snapshots != nil {
		snap, err := s.snapshots.Latest(ctx)
		if err == nil {
			trainedAt := snap.TrainedAt
			return &Info{
				Trained:         false,
				ModelType:       snap.ModelType,
				TrainedAt:       &trainedAt,
				Examples:        snap.Examples,
				Classes:         snap.Classes,
				HoldoutAccuracy: snap.HoldoutAccuracy,
				UsedEnsemble:    snap.UsedEnsemble,
				ArtifactPath:    snap.ArtifactPath,
			}, nil
		}
		if !errors.IsCode(err, errors.ErrCodeTrainModelNotFound) {
			return nil, err
		}
	}
	return &Info{Trained: false}, nil
}

// LoadArtifact restores a previously persisted model into the slot.  A
// missing artifact is not an error; the process simply starts untrained.
func (s *serviceImpl) LoadArtifact(_ context.Context) error {
	m, err := ml.LoadModel(s.cfg.ModelPath)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeTrainModelNotFound) {
			s.logger.Info("no model artifact on disk, starting untrained",
				logging.String("path", s.cfg.ModelPath))
			return nil
		}
		return err
	}
	s.slot.Replace(m)
	s.logger.Info("model artifact restored",
		logging.String("path", s.cfg.ModelPath),
		logging.String("model_type", modelType(m)),
		logging.Int("examples", m.Metrics.Examples),
	)
	return nil
}

func (s *serviceImpl) recordOutcome(outcome string, start time.Time, examples int, accuracy *float64) {
	if s.metrics == nil {
		return
	}
	s.metrics.RecordTraining(outcome, time.Since(start), examples, accuracy)
}

func labeledCurated() []corpus.ClinicalPair {
	var out []corpus.ClinicalPair
	for _, p := range corpus.CuratedPairs() {
		if p.Labeled() {
			out = append(out, p)
		}
	}
	return out
}

func modelType(m *ml.Model) string {
	switch {
	case m.Ensemble != nil:
		return "voting_ensemble"
	case m.Forest != nil:
		return "random_forest"
	default:
		return "gradient_boosting"
	}
}

func boolWord(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
