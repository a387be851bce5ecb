package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/DentEMG-Intelligence/internal/application/model"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
)

// TrainLock serializes retraining across processes.  The Redis mutex
// satisfies it; a nil lock means single-process deployment.
type TrainLock interface {
	TryLock(ctx context.Context) (bool, error)
	Unlock(ctx context.Context) error
}

// ModelTrainer triggers a full training run.
type ModelTrainer interface {
	Train(ctx context.Context, input *model.TrainInput) (*model.TrainResult, error)
}

// PipelineConfig tunes the auto-train pipeline.
type PipelineConfig struct {
	// MinNewPairs is how many labeled pairs must accumulate beyond the last
	// training run before the pipeline retrains.
	MinNewPairs int
	// HarvestInterval is how often the background loop harvests.
	HarvestInterval time.Duration
}

// Pipeline drives the corpus-growth loop: harvest articles, watch the
// labeled pair count, and retrain once enough new material accumulated.
type Pipeline struct {
	ingest Service
	train  ModelTrainer
	pairs  PairStore
	lock   TrainLock
	cfg    PipelineConfig
	logger logging.Logger

	mu          sync.Mutex
	lastLabeled int64
	primed      bool
}

// NewPipeline wires the auto-train pipeline.  pairs may be nil; retraining
// is then triggered on every cycle that ingested at least one pair.
func NewPipeline(ingestSvc Service, trainer ModelTrainer, pairs PairStore, lock TrainLock, cfg PipelineConfig, logger logging.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if cfg.MinNewPairs <= 0 {
		cfg.MinNewPairs = 1
	}
	if cfg.HarvestInterval <= 0 {
		cfg.HarvestInterval = time.Hour
	}
	return &Pipeline{
		ingest: ingestSvc,
		train:  trainer,
		pairs:  pairs,
		lock:   lock,
		cfg:    cfg,
		logger: logger.Named("auto-train"),
	}
}

// Run executes one pipeline cycle: harvest, then retrain if the corpus grew
// enough.  Harvest failures are logged and do not block the retrain check,
// so a flaky upstream cannot starve training on manually ingested articles.
func (p *Pipeline) Run(ctx context.Context) error {
	if _, err := p.ingest.Harvest(ctx); err != nil {
		p.logger.Warn("harvest cycle failed", logging.Err(err))
	}
	return p.RetrainIfNeeded(ctx)
}

// RunLoop runs pipeline cycles until the context is cancelled.
func (p *Pipeline) RunLoop(ctx context.Context) error {
	ticker := time.NewTicker(p.cfg.HarvestInterval)
	defer ticker.Stop()

	for {
		if err := p.Run(ctx); err != nil {
			p.logger.Error("pipeline cycle failed", logging.Err(err))
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// HandleEvent reacts to corpus events from the message bus.  Article
// ingestion triggers a retrain check; training completions refresh the
// growth baseline so every consumer measures from the same point.
func (p *Pipeline) HandleEvent(ctx context.Context, env *kafka.EventEnvelope) error {
	switch env.Type {
	case kafka.EventArticleIngested:
		return p.RetrainIfNeeded(ctx)
	case kafka.EventTrainingCompleted:
		p.resetBaseline(ctx)
		return nil
	default:
		p.logger.Debug("ignoring event", logging.String("event_type", env.Type))
		return nil
	}
}

// RetrainIfNeeded retrains when enough labeled pairs accumulated since the
// last run.  The distributed lock keeps concurrent workers from training
// over each other; losing the race is not an error.
func (p *Pipeline) RetrainIfNeeded(ctx context.Context) error {
	grown, labeled, err := p.corpusGrew(ctx)
	if err != nil {
		return err
	}
	if !grown {
		return nil
	}

	if p.lock != nil {
		acquired, err := p.lock.TryLock(ctx)
		if err != nil {
			return err
		}
		if !acquired {
			p.logger.Info("training already running elsewhere, skipping")
			return nil
		}
		defer func() {
			if err := p.lock.Unlock(ctx); err != nil {
				p.logger.Warn("train lock not released", logging.Err(err))
			}
		}()
	}

	p.logger.Info("corpus grew, retraining", logging.Int("labeled_pairs", int(labeled)))
	if _, err := p.train.Train(ctx, &model.TrainInput{}); err != nil {
		return err
	}

	p.mu.Lock()
	p.lastLabeled = labeled
	p.primed = true
	p.mu.Unlock()
	return nil
}

// corpusGrew reports whether the labeled pair count moved past the retrain
// threshold.  The first observation only establishes the baseline.
func (p *Pipeline) corpusGrew(ctx context.Context) (bool, int64, error) {
	if p.pairs == nil {
		return true, 0, nil
	}
	_, labeled, err := p.pairs.Count(ctx)
	if err != nil {
		return false, 0, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.primed {
		p.lastLabeled = labeled
		p.primed = true
		return false, labeled, nil
	}
	return labeled-p.lastLabeled >= int64(p.cfg.MinNewPairs), labeled, nil
}

func (p *Pipeline) resetBaseline(ctx context.Context) {
	if p.pairs == nil {
		return
	}
	_, labeled, err := p.pairs.Count(ctx)
	if err != nil {
		p.logger.Warn("baseline refresh failed", logging.Err(err))
		return
	}
	p.mu.Lock()
	p.lastLabeled = labeled
	p.primed = true
	p.mu.Unlock()
}
