package training

import (
	"context"
	"math"
	"math/rand"
)

// RandomForest is a bagged ensemble of CART trees with per-split feature
// subsampling and balanced class weighting.
type RandomForest struct {
	Trees      []DecisionTree `json:"trees"`
	NumClasses int            `json:"num_classes"`
}

// forestParams controls forest training.
type forestParams struct {
	trees    int
	maxDepth int // 0 = unlimited
}

// trainForest fits a random forest.  Sample weights follow the balanced
// scheme n/(k*count) so rare composites are not drowned out by the
// synthetic-majority classes.  The context is checked between trees; a
// cancelled training returns ctx.Err with no partial forest.
func trainForest(ctx context.Context, X [][]float64, y []int, numClasses int, p forestParams, rng *rand.Rand) (*RandomForest, error) {
	n := len(X)
	weights := balancedWeights(y, numClasses)

	featuresPerSplit := int(math.Sqrt(float64(len(X[0]))))
	if featuresPerSplit < 1 {
		featuresPerSplit = 1
	}
	params := treeParams{
		minSamplesSplit:  2,
		maxDepth:         p.maxDepth,
		featuresPerSplit: featuresPerSplit,
		numClasses:       numClasses,
	}

	forest := &RandomForest{
		Trees:      make([]DecisionTree, 0, p.trees),
		NumClasses: numClasses,
	}
	for t := 0; t < p.trees; t++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		indices := make([]int, n)
		for i := range indices {
			indices[i] = rng.Intn(n)
		}
		forest.Trees = append(forest.Trees, growClassificationTree(X, y, weights, indices, params, rng))
	}
	return forest, nil
}

// Probabilities averages the leaf class distributions across all trees.
func (f *RandomForest) Probabilities(row []float64) []float64 {
	probs := make([]float64, f.NumClasses)
	if len(f.Trees) == 0 {
		return probs
	}
	for i := range f.Trees {
		for k, p := range f.Trees[i].PredictDistribution(row) {
			probs[k] += p
		}
	}
	for k := range probs {
		probs[k] /= float64(len(f.Trees))
	}
	return probs
}

// balancedWeights assigns each sample the weight n/(k*count(class)).
func balancedWeights(y []int, numClasses int) []float64 {
	counts := make([]float64, numClasses)
	for _, c := range y {
		counts[c]++
	}
	n := float64(len(y))
	k := float64(numClasses)

	weights := make([]float64, len(y))
	for i, c := range y {
		weights[i] = n / (k * counts[c])
	}
	return weights
}
