package model

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Scaler standardizes features to zero mean and unit variance. The fitted
// means and deviations are persisted in the model artifact so prediction
// applies the exact training-time transform.
type Scaler struct {
	Means  []float64 `json:"means"`
	Stds   []float64 `json:"stds"`
	fitted bool
}

// FitScaler computes column statistics from a design matrix.
func FitScaler(x [][]float64) (*Scaler, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, errors.New("empty design matrix")
	}

	cols := len(x[0])
	s := &Scaler{
		Means:  make([]float64, cols),
		Stds:   make([]float64, cols),
		fitted: true,
	}

	col := make([]float64, len(x))
	for j := 0; j < cols; j++ {
		for i, row := range x {
			if len(row) != cols {
				return nil, fmt.Errorf("ragged design matrix: row %d has %d columns, want %d", i, len(row), cols)
			}
			col[i] = row[j]
		}
		mean, std := stat.MeanStdDev(col, nil)
		if std == 0 || len(x) < 2 {
			// Constant column: leave it centered but unscaled.
			std = 1
		}
		s.Means[j] = mean
		s.Stds[j] = std
	}

	return s, nil
}

// Transform returns a standardized copy of the matrix.
func (s *Scaler) Transform(x [][]float64) ([][]float64, error) {
	if len(s.Means) == 0 {
		return nil, errors.New("scaler not fitted")
	}
	out := make([][]float64, len(x))
	for i, row := range x {
		if len(row) != len(s.Means) {
			return nil, fmt.Errorf("row %d has %d features, scaler fitted on %d", i, len(row), len(s.Means))
		}
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = (v - s.Means[j]) / s.Stds[j]
		}
		out[i] = scaled
	}
	return out, nil
}
