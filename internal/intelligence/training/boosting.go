package training

import (
	"context"
	"math"
	"math/rand"
)

// GradientBoosting is a multinomial gradient-boosted tree ensemble: each
// round fits one regression tree per class to the softmax residuals and adds
// it to the additive score with the configured learning rate.
type GradientBoosting struct {
	// Rounds[i][k] is the round-i tree for class k.
	Rounds       [][]DecisionTree `json:"rounds"`
	Priors       []float64        `json:"priors"` // initial log-odds per class
	LearningRate float64          `json:"learning_rate"`
	NumClasses   int              `json:"num_classes"`
}

// boostingParams controls gradient boosting training.
type boostingParams struct {
	rounds       int
	maxDepth     int
	learningRate float64
}

// trainBoosting fits the boosted ensemble.  The context is checked between
// rounds.
func trainBoosting(ctx context.Context, X [][]float64, y []int, numClasses int, p boostingParams, rng *rand.Rand) (*GradientBoosting, error) {
	n := len(X)

	gb := &GradientBoosting{
		Priors:       logPriors(y, numClasses),
		LearningRate: p.learningRate,
		NumClasses:   numClasses,
	}

	// Additive scores per sample per class, seeded with the priors.
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = append([]float64(nil), gb.Priors...)
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	params := treeParams{
		minSamplesSplit: 2,
		maxDepth:        p.maxDepth,
	}
	residual := make([]float64, n)

	for round := 0; round < p.rounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		roundTrees := make([]DecisionTree, numClasses)
		for k := 0; k < numClasses; k++ {
			for i := 0; i < n; i++ {
				probs := softmax(scores[i])
				target := 0.0
				if y[i] == k {
					target = 1.0
				}
				residual[i] = target - probs[k]
			}
			roundTrees[k] = growRegressionTree(X, residual, indices, params, rng)
		}
		for i := 0; i < n; i++ {
			for k := 0; k < numClasses; k++ {
				scores[i][k] += p.learningRate * roundTrees[k].PredictValue(X[i])
			}
		}
		gb.Rounds = append(gb.Rounds, roundTrees)
	}
	return gb, nil
}

// Probabilities evaluates the additive model and applies softmax.
func (g *GradientBoosting) Probabilities(row []float64) []float64 {
	scores := append([]float64(nil), g.Priors...)
	for _, round := range g.Rounds {
		for k := range round {
			scores[k] += g.LearningRate * round[k].PredictValue(row)
		}
	}
	return softmax(scores)
}

func logPriors(y []int, numClasses int) []float64 {
	counts := make([]float64, numClasses)
	for _, c := range y {
		counts[c]++
	}
	n := float64(len(y))
	priors := make([]float64, numClasses)
	for k := range priors {
		p := counts[k] / n
		if p <= 0 {
			p = 1e-9
		}
		priors[k] = math.Log(p)
	}
	return priors
}

func softmax(scores []float64) []float64 {
	maxScore := math.Inf(-1)
	for _, s := range scores {
		if s > maxScore {
			maxScore = s
		}
	}
	out := make([]float64, len(scores))
	var sum float64
	for i, s := range scores {
		out[i] = math.Exp(s - maxScore)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}
