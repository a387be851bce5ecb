package training

import (
	"context"
	"math/rand"
	"time"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// Base classifier selection.
const (
	ModelTypeRandomForest     = "random_forest"
	ModelTypeGradientBoosting = "gradient_boosting"
)

// Config holds the training hyperparameters.  The defaults favor deployed
// accuracy over strict generalization: the corpus is small and dominated by
// synthetic pairs, so the deployed model always trains on the full dataset
// and the holdout split is evaluation-only.
type Config struct {
	ModelType   string `json:"model_type" yaml:"model_type"`
	UseEnsemble bool   `json:"use_ensemble" yaml:"use_ensemble"`

	ForestTrees    int `json:"forest_trees" yaml:"forest_trees"`
	ForestMaxDepth int `json:"forest_max_depth" yaml:"forest_max_depth"` // 0 = unlimited

	GBRounds       int     `json:"gb_rounds" yaml:"gb_rounds"`
	GBMaxDepth     int     `json:"gb_max_depth" yaml:"gb_max_depth"`
	GBLearningRate float64 `json:"gb_learning_rate" yaml:"gb_learning_rate"`

	// The ensemble member GB runs longer and colder than the standalone one.
	EnsembleGBRounds       int     `json:"ensemble_gb_rounds" yaml:"ensemble_gb_rounds"`
	EnsembleGBLearningRate float64 `json:"ensemble_gb_learning_rate" yaml:"ensemble_gb_learning_rate"`

	SVMC          float64 `json:"svm_c" yaml:"svm_c"`
	SVMIterations int     `json:"svm_iterations" yaml:"svm_iterations"` // 0 derives from sample count
	KNNNeighbors  int     `json:"knn_neighbors" yaml:"knn_neighbors"`

	// EnsembleMinExamples gates soft voting: at or below it the base
	// classifier serves alone.
	EnsembleMinExamples int `json:"ensemble_min_examples" yaml:"ensemble_min_examples"`

	HoldoutMinExamples int     `json:"holdout_min_examples" yaml:"holdout_min_examples"`
	HoldoutMinPerClass int     `json:"holdout_min_per_class" yaml:"holdout_min_per_class"`
	HoldoutFraction    float64 `json:"holdout_fraction" yaml:"holdout_fraction"`

	Seed int64 `json:"seed" yaml:"seed"`
}

// DefaultConfig returns the hyperparameters the shipped model uses.
func DefaultConfig() Config {
	return Config{
		ModelType:              ModelTypeRandomForest,
		UseEnsemble:            true,
		ForestTrees:            2000,
		GBRounds:               500,
		GBMaxDepth:             10,
		GBLearningRate:         0.05,
		EnsembleGBRounds:       2000,
		EnsembleGBLearningRate: 0.01,
		SVMC:                   10,
		KNNNeighbors:           5,
		EnsembleMinExamples:    50,
		HoldoutMinExamples:     200,
		HoldoutMinPerClass:     5,
		HoldoutFraction:        0.1,
	}
}

// ensembleWeights favors the two tree ensembles 2:1 over SVM and KNN.
var ensembleWeights = []float64{2, 2, 1, 1}

// Trainer fits composite classifiers from clinical pair corpora.  Stateless
// apart from configuration; every Train call returns a fresh Model.
type Trainer struct {
	cfg    Config
	logger logging.Logger
}

// NewTrainer constructs a trainer, zero-filling config gaps from the
// defaults.
func NewTrainer(cfg Config, logger logging.Logger) *Trainer {
	def := DefaultConfig()
	if cfg.ModelType == "" {
		cfg.ModelType = def.ModelType
	}
	if cfg.ForestTrees <= 0 {
		cfg.ForestTrees = def.ForestTrees
	}
	if cfg.GBRounds <= 0 {
		cfg.GBRounds = def.GBRounds
	}
	if cfg.GBMaxDepth <= 0 {
		cfg.GBMaxDepth = def.GBMaxDepth
	}
	if cfg.GBLearningRate <= 0 {
		cfg.GBLearningRate = def.GBLearningRate
	}
	if cfg.EnsembleGBRounds <= 0 {
		cfg.EnsembleGBRounds = def.EnsembleGBRounds
	}
	if cfg.EnsembleGBLearningRate <= 0 {
		cfg.EnsembleGBLearningRate = def.EnsembleGBLearningRate
	}
	if cfg.SVMC <= 0 {
		cfg.SVMC = def.SVMC
	}
	if cfg.KNNNeighbors <= 0 {
		cfg.KNNNeighbors = def.KNNNeighbors
	}
	if cfg.EnsembleMinExamples <= 0 {
		cfg.EnsembleMinExamples = def.EnsembleMinExamples
	}
	if cfg.HoldoutMinExamples <= 0 {
		cfg.HoldoutMinExamples = def.HoldoutMinExamples
	}
	if cfg.HoldoutMinPerClass <= 0 {
		cfg.HoldoutMinPerClass = def.HoldoutMinPerClass
	}
	if cfg.HoldoutFraction <= 0 {
		cfg.HoldoutFraction = def.HoldoutFraction
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Trainer{cfg: cfg, logger: logger.Named("training")}
}

// Train fits a model on the labeled subset of pairs.  Control pairs are
// excluded; fewer than two labeled examples is InsufficientData.  The
// returned model is trained on every labeled example even when a holdout is
// evaluated.
func (t *Trainer) Train(ctx context.Context, pairs []corpus.ClinicalPair) (*Model, error) {
	start := time.Now()

	ds := BuildDataset(pairs)
	n := len(ds.X)
	if n < 2 {
		return nil, errors.InsufficientData("training requires at least 2 labeled pairs")
	}

	scaler, err := FitScaler(ds.X)
	if err != nil {
		return nil, err
	}
	X, err := scaler.TransformAll(ds.X)
	if err != nil {
		return nil, err
	}

	seed := t.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	numClasses := len(ds.Classes)
	model := &Model{
		FeatureNames: append([]string(nil), FeatureNames...),
		Classes:      ds.Classes,
		Scaler:       scaler,
		TrainedAt:    time.Now().UTC(),
		Metrics: TrainMetrics{
			Examples: n,
			Classes:  numClasses,
		},
	}

	switch t.cfg.ModelType {
	case ModelTypeRandomForest:
		forest, ferr := trainForest(ctx, X, ds.Y, numClasses,
			forestParams{trees: t.cfg.ForestTrees, maxDepth: t.cfg.ForestMaxDepth}, rng)
		if ferr != nil {
			return nil, ferr
		}
		model.Forest = forest
	case ModelTypeGradientBoosting:
		gb, gerr := trainBoosting(ctx, X, ds.Y, numClasses,
			boostingParams{rounds: t.cfg.GBRounds, maxDepth: t.cfg.GBMaxDepth, learningRate: t.cfg.GBLearningRate}, rng)
		if gerr != nil {
			return nil, gerr
		}
		model.Boosting = gb
	default:
		return nil, errors.InvalidParam("unknown model type: " + t.cfg.ModelType)
	}

	if t.cfg.UseEnsemble && n > t.cfg.EnsembleMinExamples {
		ensemble, eerr := t.buildEnsemble(ctx, X, ds.Y, numClasses, model.Forest, rng)
		if eerr != nil {
			if ctx.Err() != nil {
				return nil, eerr
			}
			// Recovered: the base classifier serves alone.
			model.Metrics.EnsembleFallback = true
			t.logger.Warn("ensemble construction failed, falling back to base classifier",
				logging.Err(eerr))
		} else {
			model.Ensemble = ensemble
			model.Metrics.UsedEnsemble = true
		}
	}

	// Evaluation.  With a large enough and balanced enough corpus a 10%
	// stratified holdout is scored; it was part of the training data, so
	// this is a deployed-accuracy figure, not a generalization estimate.
	evalIdx := allIndices(n)
	counts := ds.ClassCounts()
	if n >= t.cfg.HoldoutMinExamples && minInt(counts) >= t.cfg.HoldoutMinPerClass {
		evalIdx = stratifiedHoldout(ds.Y, numClasses, t.cfg.HoldoutFraction, rng)
	}
	accuracy := t.evaluate(model, X, ds.Y, evalIdx)
	model.Metrics.TestExamples = len(evalIdx)
	model.Metrics.HoldoutAccuracy = &accuracy

	t.logger.Info("model trained",
		logging.Int("examples", n),
		logging.Int("classes", numClasses),
		logging.Float64("accuracy", accuracy),
		logging.Bool("ensemble", model.Metrics.UsedEnsemble),
		logging.Duration("elapsed", time.Since(start)),
	)
	return model, nil
}

// buildEnsemble trains the three extra members and assembles the voter.
// The base forest is reused when present; a gradient-boosting base gets a
// fresh forest member.
func (t *Trainer) buildEnsemble(ctx context.Context, X [][]float64, y []int, numClasses int, baseForest *RandomForest, rng *rand.Rand) (*VotingEnsemble, error) {
	forest := baseForest
	if forest == nil {
		var err error
		forest, err = trainForest(ctx, X, y, numClasses,
			forestParams{trees: t.cfg.ForestTrees, maxDepth: t.cfg.ForestMaxDepth}, rng)
		if err != nil {
			return nil, err
		}
	}

	gb, err := trainBoosting(ctx, X, y, numClasses,
		boostingParams{rounds: t.cfg.EnsembleGBRounds, maxDepth: t.cfg.GBMaxDepth, learningRate: t.cfg.EnsembleGBLearningRate}, rng)
	if err != nil {
		return nil, err
	}

	svm, err := trainSVM(ctx, X, y, numClasses,
		svmParams{c: t.cfg.SVMC, iterations: t.cfg.SVMIterations}, rng)
	if err != nil {
		return nil, err
	}

	knn := trainKNN(X, y, numClasses, t.cfg.KNNNeighbors)

	return &VotingEnsemble{
		Forest:   forest,
		Boosting: gb,
		SVM:      svm,
		KNN:      knn,
		Weights:  append([]float64(nil), ensembleWeights...),
	}, nil
}

func (t *Trainer) evaluate(model *Model, X [][]float64, y []int, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	correct := 0
	for _, i := range indices {
		if argmax(model.Probabilities(X[i])) == y[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(indices))
}

// stratifiedHoldout picks ~fraction of each class, at least one per class.
func stratifiedHoldout(y []int, numClasses int, fraction float64, rng *rand.Rand) []int {
	byClass := make([][]int, numClasses)
	for i, c := range y {
		byClass[c] = append(byClass[c], i)
	}

	var holdout []int
	for _, members := range byClass {
		if len(members) == 0 {
			continue
		}
		rng.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		take := int(float64(len(members)) * fraction)
		if take < 1 {
			take = 1
		}
		holdout = append(holdout, members[:take]...)
	}
	return holdout
}

func allIndices(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func minInt(values []int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
