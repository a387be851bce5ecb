package training

import (
	"math"
	"math/rand"
	"sort"
)

// TreeNode is one node of a serialized CART tree.  Internal nodes route on
// Feature/Threshold; leaves carry either a class distribution
// (classification) or a single value (regression).
type TreeNode struct {
	Feature      int       `json:"feature"` // -1 marks a leaf
	Threshold    float64   `json:"threshold,omitempty"`
	Left         int       `json:"left"`
	Right        int       `json:"right"`
	Distribution []float64 `json:"distribution,omitempty"`
	Value        float64   `json:"value,omitempty"`
}

// DecisionTree is a flat-array CART tree; node 0 is the root.
type DecisionTree struct {
	Nodes []TreeNode `json:"nodes"`
}

const leafFeature = -1

// traverse walks the tree for one sample and returns the leaf node.
func (t *DecisionTree) traverse(row []float64) *TreeNode {
	idx := 0
	for {
		node := &t.Nodes[idx]
		if node.Feature == leafFeature {
			return node
		}
		if row[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

// PredictDistribution returns the leaf class distribution for a sample.
func (t *DecisionTree) PredictDistribution(row []float64) []float64 {
	return t.traverse(row).Distribution
}

// PredictValue returns the leaf regression value for a sample.
func (t *DecisionTree) PredictValue(row []float64) float64 {
	return t.traverse(row).Value
}

// ---------------------------------------------------------------------------
// Tree growing
// ---------------------------------------------------------------------------

// treeParams controls CART growth.
type treeParams struct {
	maxDepth         int // 0 = unlimited
	minSamplesSplit  int
	featuresPerSplit int // 0 = all features
	numClasses       int // classification only
}

type splitResult struct {
	feature   int
	threshold float64
	left      []int
	right     []int
	gain      float64
}

// growClassificationTree builds a CART tree minimizing weighted Gini
// impurity.  The rng drives per-split feature subsampling; weights implement
// balanced class weighting.
func growClassificationTree(X [][]float64, y []int, weights []float64, indices []int, p treeParams, rng *rand.Rand) DecisionTree {
	tree := DecisionTree{}
	tree.growNode(X, y, weights, indices, p, rng, 0)
	return tree
}

// growRegressionTree builds a CART tree minimizing weighted variance over a
// continuous target.
func growRegressionTree(X [][]float64, target []float64, indices []int, p treeParams, rng *rand.Rand) DecisionTree {
	tree := DecisionTree{}
	weights := make([]float64, len(target))
	for i := range weights {
		weights[i] = 1
	}
	tree.growNodeRegression(X, target, weights, indices, p, rng, 0)
	return tree
}

func (t *DecisionTree) growNode(X [][]float64, y []int, weights []float64, indices []int, p treeParams, rng *rand.Rand, depth int) int {
	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, TreeNode{Feature: leafFeature, Left: -1, Right: -1})

	dist := classDistribution(y, weights, indices, p.numClasses)
	if pure(dist) || len(indices) < p.minSamplesSplit || (p.maxDepth > 0 && depth >= p.maxDepth) {
		t.Nodes[nodeIdx].Distribution = dist
		return nodeIdx
	}

	split := bestGiniSplit(X, y, weights, indices, p, rng)
	if split == nil {
		t.Nodes[nodeIdx].Distribution = dist
		return nodeIdx
	}

	left := t.growNode(X, y, weights, split.left, p, rng, depth+1)
	right := t.growNode(X, y, weights, split.right, p, rng, depth+1)

	t.Nodes[nodeIdx].Feature = split.feature
	t.Nodes[nodeIdx].Threshold = split.threshold
	t.Nodes[nodeIdx].Left = left
	t.Nodes[nodeIdx].Right = right
	t.Nodes[nodeIdx].Distribution = nil
	return nodeIdx
}

func (t *DecisionTree) growNodeRegression(X [][]float64, target, weights []float64, indices []int, p treeParams, rng *rand.Rand, depth int) int {
	nodeIdx := len(t.Nodes)
	t.Nodes = append(t.Nodes, TreeNode{Feature: leafFeature, Left: -1, Right: -1})

	mean, variance := weightedMeanVar(target, weights, indices)
	if variance <= 1e-12 || len(indices) < p.minSamplesSplit || (p.maxDepth > 0 && depth >= p.maxDepth) {
		t.Nodes[nodeIdx].Value = mean
		return nodeIdx
	}

	split := bestVarianceSplit(X, target, weights, indices, p, rng)
	if split == nil {
		t.Nodes[nodeIdx].Value = mean
		return nodeIdx
	}

	left := t.growNodeRegression(X, target, weights, split.left, p, rng, depth+1)
	right := t.growNodeRegression(X, target, weights, split.right, p, rng, depth+1)

	t.Nodes[nodeIdx].Feature = split.feature
	t.Nodes[nodeIdx].Threshold = split.threshold
	t.Nodes[nodeIdx].Left = left
	t.Nodes[nodeIdx].Right = right
	return nodeIdx
}

// ---------------------------------------------------------------------------
// Split search
// ---------------------------------------------------------------------------

func candidateFeatures(numFeatures, perSplit int, rng *rand.Rand) []int {
	all := make([]int, numFeatures)
	for i := range all {
		all[i] = i
	}
	if perSplit <= 0 || perSplit >= numFeatures || rng == nil {
		return all
	}
	rng.Shuffle(len(all), func(i, j int) { all[i], all[j] = all[j], all[i] })
	return all[:perSplit]
}

func bestGiniSplit(X [][]float64, y []int, weights []float64, indices []int, p treeParams, rng *rand.Rand) *splitResult {
	parent := giniImpurity(y, weights, indices, p.numClasses)
	var best *splitResult

	for _, feature := range candidateFeatures(len(X[0]), p.featuresPerSplit, rng) {
		for _, threshold := range thresholds(X, indices, feature) {
			left, right := partition(X, indices, feature, threshold)
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			wl := totalWeight(weights, left)
			wr := totalWeight(weights, right)
			gain := parent -
				(wl*giniImpurity(y, weights, left, p.numClasses)+
					wr*giniImpurity(y, weights, right, p.numClasses))/(wl+wr)
			if gain > 1e-12 && (best == nil || gain > best.gain) {
				best = &splitResult{feature: feature, threshold: threshold, left: left, right: right, gain: gain}
			}
		}
	}
	return best
}

func bestVarianceSplit(X [][]float64, target, weights []float64, indices []int, p treeParams, rng *rand.Rand) *splitResult {
	_, parent := weightedMeanVar(target, weights, indices)
	var best *splitResult

	for _, feature := range candidateFeatures(len(X[0]), p.featuresPerSplit, rng) {
		for _, threshold := range thresholds(X, indices, feature) {
			left, right := partition(X, indices, feature, threshold)
			if len(left) == 0 || len(right) == 0 {
				continue
			}
			wl := totalWeight(weights, left)
			wr := totalWeight(weights, right)
			_, vl := weightedMeanVar(target, weights, left)
			_, vr := weightedMeanVar(target, weights, right)
			gain := parent - (wl*vl+wr*vr)/(wl+wr)
			if gain > 1e-12 && (best == nil || gain > best.gain) {
				best = &splitResult{feature: feature, threshold: threshold, left: left, right: right, gain: gain}
			}
		}
	}
	return best
}

// thresholds returns midpoints between consecutive distinct feature values.
func thresholds(X [][]float64, indices []int, feature int) []float64 {
	values := make([]float64, 0, len(indices))
	for _, i := range indices {
		values = append(values, X[i][feature])
	}
	sort.Float64s(values)

	var out []float64
	for i := 1; i < len(values); i++ {
		if values[i] != values[i-1] {
			out = append(out, (values[i]+values[i-1])/2)
		}
	}
	return out
}

func partition(X [][]float64, indices []int, feature int, threshold float64) (left, right []int) {
	for _, i := range indices {
		if X[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	return left, right
}

// ---------------------------------------------------------------------------
// Impurity helpers
// ---------------------------------------------------------------------------

func classDistribution(y []int, weights []float64, indices []int, numClasses int) []float64 {
	dist := make([]float64, numClasses)
	var total float64
	for _, i := range indices {
		dist[y[i]] += weights[i]
		total += weights[i]
	}
	if total > 0 {
		for k := range dist {
			dist[k] /= total
		}
	}
	return dist
}

func giniImpurity(y []int, weights []float64, indices []int, numClasses int) float64 {
	dist := classDistribution(y, weights, indices, numClasses)
	impurity := 1.0
	for _, p := range dist {
		impurity -= p * p
	}
	return impurity
}

func pure(dist []float64) bool {
	for _, p := range dist {
		if p > 1-1e-12 {
			return true
		}
	}
	return false
}

func weightedMeanVar(target, weights []float64, indices []int) (mean, variance float64) {
	var sum, total float64
	for _, i := range indices {
		sum += target[i] * weights[i]
		total += weights[i]
	}
	if total == 0 {
		return 0, 0
	}
	mean = sum / total
	for _, i := range indices {
		d := target[i] - mean
		variance += weights[i] * d * d
	}
	variance /= total
	return mean, variance
}

func totalWeight(weights []float64, indices []int) float64 {
	var total float64
	for _, i := range indices {
		total += weights[i]
	}
	return total
}

func argmax(values []float64) int {
	best := 0
	bestVal := math.Inf(-1)
	for i, v := range values {
		if v > bestVal {
			best = i
			bestVal = v
		}
	}
	return best
}
