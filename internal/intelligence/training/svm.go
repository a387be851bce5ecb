package training

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"
)

// RBFSVM is a one-vs-rest kernel support-vector classifier with an RBF
// kernel, trained with the kernelized Pegasos sub-gradient method.  Class
// scores are turned into probabilities with a softmax, which is sufficient
// calibration for soft voting.
type RBFSVM struct {
	SupportVectors [][]float64 `json:"support_vectors"`
	// Coefficients[k][i] is the weight of support vector i for class k.
	Coefficients [][]float64 `json:"coefficients"`
	Gamma        float64     `json:"gamma"`
	NumClasses   int         `json:"num_classes"`
}

// svmParams controls SVM training.
type svmParams struct {
	c          float64
	iterations int // 0 derives from the sample count
}

// trainSVM fits one binary Pegasos problem per class.  Gamma follows the
// common "scale" heuristic 1/(d * var(X)).
func trainSVM(ctx context.Context, X [][]float64, y []int, numClasses int, p svmParams, rng *rand.Rand) (*RBFSVM, error) {
	n := len(X)
	iterations := p.iterations
	if iterations <= 0 {
		iterations = 20 * n
		if iterations < 1000 {
			iterations = 1000
		}
	}
	lambda := 1.0 / (p.c * float64(n))
	gamma := scaleGamma(X)

	kernel := make([][]float64, n)
	for i := range kernel {
		kernel[i] = make([]float64, n)
		for j := range kernel[i] {
			kernel[i][j] = rbfKernel(X[i], X[j], gamma)
		}
	}

	svm := &RBFSVM{
		SupportVectors: X,
		Coefficients:   make([][]float64, numClasses),
		Gamma:          gamma,
		NumClasses:     numClasses,
	}

	for k := 0; k < numClasses; k++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sign := make([]float64, n)
		for i := range sign {
			if y[i] == k {
				sign[i] = 1
			} else {
				sign[i] = -1
			}
		}

		alpha := make([]float64, n)
		for t := 1; t <= iterations; t++ {
			i := rng.Intn(n)
			var margin float64
			for j := 0; j < n; j++ {
				if alpha[j] != 0 {
					margin += alpha[j] * sign[j] * kernel[j][i]
				}
			}
			margin *= sign[i] / (lambda * float64(t))
			if margin < 1 {
				alpha[i]++
			}
		}

		coef := make([]float64, n)
		scale := 1.0 / (lambda * float64(iterations))
		for i := range coef {
			coef[i] = alpha[i] * sign[i] * scale
		}
		svm.Coefficients[k] = coef
	}
	return svm, nil
}

// Probabilities computes the per-class decision values and softmaxes them.
func (s *RBFSVM) Probabilities(row []float64) []float64 {
	kernels := make([]float64, len(s.SupportVectors))
	for i, sv := range s.SupportVectors {
		kernels[i] = rbfKernel(sv, row, s.Gamma)
	}

	scores := make([]float64, s.NumClasses)
	for k := 0; k < s.NumClasses; k++ {
		var decision float64
		for i, c := range s.Coefficients[k] {
			if c != 0 {
				decision += c * kernels[i]
			}
		}
		scores[k] = decision
	}
	return softmax(scores)
}

func rbfKernel(a, b []float64, gamma float64) float64 {
	var sq float64
	for i := range a {
		d := a[i] - b[i]
		sq += d * d
	}
	return math.Exp(-gamma * sq)
}

// scaleGamma returns 1/(d * var) over all feature values, with a unit
// fallback for constant inputs.
func scaleGamma(X [][]float64) float64 {
	flat := make([]float64, 0, len(X)*len(X[0]))
	for _, row := range X {
		flat = append(flat, row...)
	}
	v := stat.PopVariance(flat, nil)
	if v <= 0 {
		v = 1
	}
	return 1.0 / (float64(len(X[0])) * v)
}
