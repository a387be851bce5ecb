package training

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// VotingEnsemble combines the four member classifiers by weighted
// probability averaging.  The tree ensembles carry double weight.
type VotingEnsemble struct {
	Forest   *RandomForest     `json:"forest"`
	Boosting *GradientBoosting `json:"boosting"`
	SVM      *RBFSVM           `json:"svm"`
	KNN      *KNN              `json:"knn"`
	Weights  []float64         `json:"weights"`
}

// Probabilities averages the member probability vectors with the configured
// weights.
func (e *VotingEnsemble) Probabilities(row []float64) []float64 {
	members := [](interface{ Probabilities([]float64) []float64 }){
		e.Forest, e.Boosting, e.SVM, e.KNN,
	}

	var out []float64
	var totalWeight float64
	for i, m := range members {
		w := e.Weights[i]
		probs := m.Probabilities(row)
		if out == nil {
			out = make([]float64, len(probs))
		}
		for k, p := range probs {
			out[k] += w * p
		}
		totalWeight += w
	}
	for k := range out {
		out[k] /= totalWeight
	}
	return out
}

// TrainMetrics summarizes one training run.
type TrainMetrics struct {
	Examples         int      `json:"examples"`
	TestExamples     int      `json:"test_examples"`
	Classes          int      `json:"classes"`
	HoldoutAccuracy  *float64 `json:"holdout_accuracy,omitempty"`
	UsedEnsemble     bool     `json:"used_ensemble"`
	EnsembleFallback bool     `json:"ensemble_fallback"`
}

// Model is the deployable artifact: classifier, fitted scaler, and the
// feature layout it was trained against.  A Model is immutable after
// training; retraining produces a new Model the caller swaps in.
type Model struct {
	FeatureNames []string          `json:"feature_names"`
	Classes      []string          `json:"classes"`
	Scaler       *Scaler           `json:"scaler"`
	Forest       *RandomForest     `json:"forest,omitempty"`
	Boosting     *GradientBoosting `json:"boosting,omitempty"`
	Ensemble     *VotingEnsemble   `json:"ensemble,omitempty"`
	TrainedAt    time.Time         `json:"trained_at"`
	Metrics      TrainMetrics      `json:"metrics"`
}

// Probabilities evaluates the strongest available classifier on an already
// standardized row.
func (m *Model) Probabilities(row []float64) []float64 {
	switch {
	case m.Ensemble != nil:
		return m.Ensemble.Probabilities(row)
	case m.Forest != nil:
		return m.Forest.Probabilities(row)
	default:
		return m.Boosting.Probabilities(row)
	}
}

// Predict classifies one clinical observation and returns the winning
// composite name with its class probability.
func (m *Model) Predict(pair *corpus.ClinicalPair) (string, float64, error) {
	scaled, err := m.Scaler.Transform(FeatureRow(pair))
	if err != nil {
		return "", 0, err
	}
	probs := m.Probabilities(scaled)
	best := argmax(probs)
	return m.Classes[best], probs[best], nil
}

// ---------------------------------------------------------------------------
// Artifact persistence
// ---------------------------------------------------------------------------

// Save writes the model artifact as JSON, creating parent directories and
// replacing the target atomically.
func (m *Model) Save(path string) error {
	data, err := json.Marshal(m)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "marshal model artifact")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "create model directory")
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "write model artifact")
	}
	if err := os.Rename(tmp, path); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "replace model artifact")
	}
	return nil
}

// LoadModel reads a persisted model artifact and validates it against the
// current feature layout.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Newf(errors.ErrCodeTrainModelNotFound, "model artifact %s does not exist", path)
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternal, "read model artifact")
	}

	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeTrainArtifactCorrupt, "decode model artifact")
	}
	if m.Scaler == nil || len(m.Classes) == 0 || (m.Forest == nil && m.Boosting == nil && m.Ensemble == nil) {
		return nil, errors.Newf(errors.ErrCodeTrainArtifactCorrupt, "model artifact %s is incomplete", path)
	}
	if len(m.FeatureNames) != len(FeatureNames) {
		return nil, errors.Newf(errors.ErrCodeTrainFeatureMismatch,
			"model artifact has %d features, expected %d", len(m.FeatureNames), len(FeatureNames))
	}
	for i, name := range m.FeatureNames {
		if name != FeatureNames[i] {
			return nil, errors.Newf(errors.ErrCodeTrainFeatureMismatch,
				"model artifact feature %d is %q, expected %q", i, name, FeatureNames[i])
		}
	}
	return &m, nil
}
