package ingest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/DentEMG-Intelligence/internal/application/model"
	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/messaging/kafka"
)

type fakeTrainer struct {
	runs int
	err  error
}

func (f *fakeTrainer) Train(context.Context, *model.TrainInput) (*model.TrainResult, error) {
	f.runs++
	if f.err != nil {
		return nil, f.err
	}
	return &model.TrainResult{Examples: 100}, nil
}

type fakeLock struct {
	available bool
	locks     int
	unlocks   int
}

func (f *fakeLock) TryLock(context.Context) (bool, error) {
	f.locks++
	return f.available, nil
}

func (f *fakeLock) Unlock(context.Context) error {
	f.unlocks++
	return nil
}

func labeledStorePair() corpus.ClinicalPair {
	return corpus.ClinicalPair{
		CompositeName:        "XF",
		MasseterRightChewing: corpus.Float(380),
	}
}

func newTestPipeline(trainer *fakeTrainer, pairs PairStore, lock TrainLock, minNew int) *Pipeline {
	svc := NewService(nil, nil, nil, nil, &fakeHarvester{}, nil, nil, nil)
	return NewPipeline(svc, trainer, pairs, lock, PipelineConfig{MinNewPairs: minNew}, nil)
}

func TestPipelineFirstObservationOnlyPrimes(t *testing.T) {
	trainer := &fakeTrainer{}
	pairs := &fakePairStore{saved: []corpus.ClinicalPair{labeledStorePair()}}
	p := newTestPipeline(trainer, pairs, nil, 1)

	require.NoError(t, p.RetrainIfNeeded(context.Background()))
	assert.Equal(t, 0, trainer.runs)
}

func TestPipelineRetrainsOnGrowth(t *testing.T) {
	trainer := &fakeTrainer{}
	pairs := &fakePairStore{}
	p := newTestPipeline(trainer, pairs, nil, 2)

	// Prime the baseline on an empty store.
	require.NoError(t, p.RetrainIfNeeded(context.Background()))

	// One new pair is below the threshold of two.
	pairs.saved = append(pairs.saved, labeledStorePair())
	require.NoError(t, p.RetrainIfNeeded(context.Background()))
	assert.Equal(t, 0, trainer.runs)

	pairs.saved = append(pairs.saved, labeledStorePair())
	require.NoError(t, p.RetrainIfNeeded(context.Background()))
	assert.Equal(t, 1, trainer.runs)

	// The baseline advanced; no growth, no second run.
	require.NoError(t, p.RetrainIfNeeded(context.Background()))
	assert.Equal(t, 1, trainer.runs)
}

func TestPipelineLostLockSkipsTraining(t *testing.T) {
	trainer := &fakeTrainer{}
	pairs := &fakePairStore{}
	lock := &fakeLock{available: false}
	p := newTestPipeline(trainer, pairs, lock, 1)

	require.NoError(t, p.RetrainIfNeeded(context.Background()))
	pairs.saved = append(pairs.saved, labeledStorePair())
	require.NoError(t, p.RetrainIfNeeded(context.Background()))

	assert.Equal(t, 0, trainer.runs)
	assert.Equal(t, 1, lock.locks)
	assert.Equal(t, 0, lock.unlocks)
}

func TestPipelineReleasesLockAfterTraining(t *testing.T) {
	trainer := &fakeTrainer{}
	pairs := &fakePairStore{}
	lock := &fakeLock{available: true}
	p := newTestPipeline(trainer, pairs, lock, 1)

	require.NoError(t, p.RetrainIfNeeded(context.Background()))
	pairs.saved = append(pairs.saved, labeledStorePair())
	require.NoError(t, p.RetrainIfNeeded(context.Background()))

	assert.Equal(t, 1, trainer.runs)
	assert.Equal(t, 1, lock.unlocks)
}

func TestPipelineHandleEvent(t *testing.T) {
	trainer := &fakeTrainer{}
	pairs := &fakePairStore{saved: []corpus.ClinicalPair{labeledStorePair()}}
	p := newTestPipeline(trainer, pairs, nil, 1)

	env, err := kafka.NewEventEnvelope(kafka.EventArticleIngested, "test",
		kafka.ArticleIngestedPayload{ArticleID: "a1"})
	require.NoError(t, err)

	// First event primes, second one after growth retrains.
	require.NoError(t, p.HandleEvent(context.Background(), env))
	pairs.saved = append(pairs.saved, labeledStorePair())
	require.NoError(t, p.HandleEvent(context.Background(), env))
	assert.Equal(t, 1, trainer.runs)

	// A training completion from another worker resets the baseline.
	pairs.saved = append(pairs.saved, labeledStorePair())
	done, err := kafka.NewEventEnvelope(kafka.EventTrainingCompleted, "test",
		kafka.TrainingCompletedPayload{Examples: 50})
	require.NoError(t, err)
	require.NoError(t, p.HandleEvent(context.Background(), done))
	require.NoError(t, p.HandleEvent(context.Background(), env))
	assert.Equal(t, 1, trainer.runs)
}

func TestPipelineRunHarvestFailureStillChecksRetrain(t *testing.T) {
	trainer := &fakeTrainer{}
	pairs := &fakePairStore{}
	svc := NewService(nil, nil, nil, nil, nil, nil, nil, nil) // no harvester
	p := NewPipeline(svc, trainer, pairs, nil, PipelineConfig{MinNewPairs: 1}, nil)

	require.NoError(t, p.Run(context.Background()))
	pairs.saved = append(pairs.saved, labeledStorePair())
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, 1, trainer.runs)
}
