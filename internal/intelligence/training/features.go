// Package training builds the supervised dataset from clinical pairs and
// trains the composite classifier.  The base model is a random forest; with
// enough examples a soft-voting ensemble of forest, gradient boosting, RBF
// SVM and distance-weighted KNN takes over.  Training is a blocking batch
// job: callers run it off the request path and swap the resulting model in
// atomically.
package training

import (
	"sort"

	"github.com/turtacn/DentEMG-Intelligence/internal/domain/corpus"
)

// FeatureNames is the fixed feature layout of the classifier: the eight raw
// EMG channels, four per-muscle averages, age, and MVC hyperfunction.  The
// order is part of the model artifact; a persisted model refuses to load
// against a different layout.
var FeatureNames = []string{
	"masseter_right_chewing",
	"masseter_left_chewing",
	"temporalis_right_chewing",
	"temporalis_left_chewing",
	"masseter_right_max_clench",
	"masseter_left_max_clench",
	"temporalis_right_max_clench",
	"temporalis_left_max_clench",
	"masseter_avg_chewing",
	"temporalis_avg_chewing",
	"masseter_avg_max",
	"temporalis_avg_max",
	"age",
	"mvc_hyperfunction_percent",
}

// NumFeatures is the classifier input width.
const NumFeatures = 14

// FeatureRow converts one clinical pair into the 14-dimensional feature
// vector.  Channels the source article did not report enter as zero.
func FeatureRow(p *corpus.ClinicalPair) []float64 {
	mrc := corpus.Deref(p.MasseterRightChewing)
	mlc := corpus.Deref(p.MasseterLeftChewing)
	trc := corpus.Deref(p.TemporalisRightChewing)
	tlc := corpus.Deref(p.TemporalisLeftChewing)
	mrm := corpus.Deref(p.MasseterRightMVC)
	mlm := corpus.Deref(p.MasseterLeftMVC)
	trm := corpus.Deref(p.TemporalisRightMVC)
	tlm := corpus.Deref(p.TemporalisLeftMVC)

	return []float64{
		mrc, mlc, trc, tlc,
		mrm, mlm, trm, tlm,
		(mrc + mlc) / 2,
		(trc + tlc) / 2,
		(mrm + mlm) / 2,
		(trm + tlm) / 2,
		float64(corpus.DerefInt(p.Age)),
		corpus.Deref(p.MVCHyperfunctionPercent),
	}
}

// Dataset is the assembled training matrix.
type Dataset struct {
	X       [][]float64
	Y       []int    // class index per row
	Classes []string // sorted class labels; Y indexes into this
}

// BuildDataset filters to labeled pairs and assembles the feature matrix and
// class index vector.  The class list is sorted for a stable label order
// across retrains.
func BuildDataset(pairs []corpus.ClinicalPair) Dataset {
	var labeled []*corpus.ClinicalPair
	classSet := make(map[string]struct{})
	for i := range pairs {
		if pairs[i].Labeled() {
			labeled = append(labeled, &pairs[i])
			classSet[pairs[i].CompositeName] = struct{}{}
		}
	}

	classes := make([]string, 0, len(classSet))
	for name := range classSet {
		classes = append(classes, name)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, name := range classes {
		index[name] = i
	}

	ds := Dataset{
		X:       make([][]float64, 0, len(labeled)),
		Y:       make([]int, 0, len(labeled)),
		Classes: classes,
	}
	for _, p := range labeled {
		ds.X = append(ds.X, FeatureRow(p))
		ds.Y = append(ds.Y, index[p.CompositeName])
	}
	return ds
}

// ClassCounts returns the number of examples per class index.
func (d Dataset) ClassCounts() []int {
	counts := make([]int, len(d.Classes))
	for _, y := range d.Y {
		counts[y]++
	}
	return counts
}
