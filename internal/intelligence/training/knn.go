package training

import (
	"sort"
)

// KNN is a distance-weighted k-nearest-neighbor classifier.  It memorizes
// the standardized training set; an exact-match neighbor takes the whole
// vote, mirroring inverse-distance weighting in the limit.
type KNN struct {
	X          [][]float64 `json:"x"`
	Y          []int       `json:"y"`
	K          int         `json:"k"`
	NumClasses int         `json:"num_classes"`
}

func trainKNN(X [][]float64, y []int, numClasses, k int) *KNN {
	if k > len(X) {
		k = len(X)
	}
	return &KNN{X: X, Y: y, K: k, NumClasses: numClasses}
}

// Probabilities computes inverse-distance-weighted votes over the k nearest
// neighbors.
func (m *KNN) Probabilities(row []float64) []float64 {
	type neighbor struct {
		dist  float64
		class int
	}
	neighbors := make([]neighbor, len(m.X))
	for i, x := range m.X {
		var sq float64
		for j := range x {
			d := x[j] - row[j]
			sq += d * d
		}
		neighbors[i] = neighbor{dist: sq, class: m.Y[i]}
	}
	sort.Slice(neighbors, func(i, j int) bool { return neighbors[i].dist < neighbors[j].dist })

	k := m.K
	if k > len(neighbors) {
		k = len(neighbors)
	}
	nearest := neighbors[:k]

	probs := make([]float64, m.NumClasses)

	// Exact matches dominate: split the whole vote among them.
	var exact int
	for _, nb := range nearest {
		if nb.dist == 0 {
			exact++
		}
	}
	if exact > 0 {
		for _, nb := range nearest {
			if nb.dist == 0 {
				probs[nb.class] += 1.0 / float64(exact)
			}
		}
		return probs
	}

	var total float64
	for _, nb := range nearest {
		w := 1.0 / nb.dist
		probs[nb.class] += w
		total += w
	}
	for c := range probs {
		probs[c] /= total
	}
	return probs
}
