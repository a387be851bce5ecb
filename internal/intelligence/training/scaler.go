package training

import (
	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/DentEMG-Intelligence/pkg/errors"
)

// Scaler standardizes features to zero mean and unit variance using
// statistics fit on the training set.  It is persisted inside the model
// artifact so predictions reuse the exact training-time statistics.
type Scaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// FitScaler computes column statistics over X.  Constant columns keep a unit
// divisor so standardization never divides by zero.
func FitScaler(X [][]float64) (*Scaler, error) {
	if len(X) == 0 {
		return nil, errors.InvalidParam("cannot fit scaler on an empty matrix")
	}
	width := len(X[0])
	s := &Scaler{
		Mean: make([]float64, width),
		Std:  make([]float64, width),
	}

	col := make([]float64, len(X))
	for j := 0; j < width; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		s.Mean[j] = stat.Mean(col, nil)
		s.Std[j] = stat.PopStdDev(col, nil)
		if s.Std[j] == 0 {
			s.Std[j] = 1
		}
	}
	return s, nil
}

// Transform standardizes one row into a fresh slice.
func (s *Scaler) Transform(row []float64) ([]float64, error) {
	if len(row) != len(s.Mean) {
		return nil, errors.Newf(errors.ErrCodeTrainFeatureMismatch,
			"feature row has %d values, scaler expects %d", len(row), len(s.Mean))
	}
	out := make([]float64, len(row))
	for j, v := range row {
		out[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return out, nil
}

// TransformAll standardizes a whole matrix.
func (s *Scaler) TransformAll(X [][]float64) ([][]float64, error) {
	out := make([][]float64, len(X))
	for i, row := range X {
		scaled, err := s.Transform(row)
		if err != nil {
			return nil, err
		}
		out[i] = scaled
	}
	return out, nil
}
