package model

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	logisticEpochs    = 400
	logisticLearnRate = 0.5
	logisticL2        = 1e-3
)

// Logistic is a multinomial logistic regression classifier trained with
// batch gradient descent on the softmax cross-entropy loss.
type Logistic struct {
	// Weights is (features+1) x classes, bias row last.
	Weights [][]float64 `json:"weights,omitempty"`
}

// NewLogistic returns an untrained logistic regression classifier.
func NewLogistic() *Logistic {
	return &Logistic{}
}

func (l *Logistic) Name() string {
	return AlgorithmLogistic
}

func (l *Logistic) Fit(x [][]float64, y []int) error {
	n := len(x)
	if n == 0 || len(y) != n {
		return errors.New("design matrix and labels must be non-empty and aligned")
	}
	d := len(x[0])

	xa := augment(x)      // n x (d+1)
	w := mat.NewDense(d+1, numClasses, nil)
	yh := mat.NewDense(n, numClasses, nil)
	for i, c := range y {
		if c < 0 || c >= numClasses {
			return errors.New("label out of class range")
		}
		yh.Set(i, c, 1)
	}

	var z, grad mat.Dense
	for epoch := 0; epoch < logisticEpochs; epoch++ {
		z.Mul(xa, w) // n x K
		softmaxRows(&z)

		z.Sub(&z, yh)
		grad.Mul(xa.T(), &z) // (d+1) x K
		grad.Scale(1/float64(n), &grad)

		var reg mat.Dense
		reg.Scale(logisticL2, w)
		grad.Add(&grad, &reg)

		grad.Scale(logisticLearnRate, &grad)
		w.Sub(w, &grad)
	}

	l.Weights = make([][]float64, d+1)
	for j := 0; j <= d; j++ {
		l.Weights[j] = mat.Row(nil, j, w)
	}
	return nil
}

func (l *Logistic) PredictProba(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		logits := make([]float64, numClasses)
		for k := 0; k < numClasses; k++ {
			v := l.Weights[len(row)][k] // bias
			for j, f := range row {
				v += l.Weights[j][k] * f
			}
			logits[k] = v
		}
		out[i] = softmax(logits)
	}
	return out
}

// FeatureImportance returns mean absolute per-class weight per feature,
// excluding the bias row.
func (l *Logistic) FeatureImportance() []float64 {
	if len(l.Weights) < 2 {
		return nil
	}
	imp := make([]float64, len(l.Weights)-1)
	for j := 0; j < len(imp); j++ {
		var sum float64
		for _, wv := range l.Weights[j] {
			sum += math.Abs(wv)
		}
		imp[j] = sum / float64(numClasses)
	}
	return imp
}

// augment appends a constant bias column.
func augment(x [][]float64) *mat.Dense {
	n, d := len(x), len(x[0])
	xa := mat.NewDense(n, d+1, nil)
	for i, row := range x {
		for j, v := range row {
			xa.Set(i, j, v)
		}
		xa.Set(i, d, 1)
	}
	return xa
}

func softmaxRows(m *mat.Dense) {
	r, _ := m.Dims()
	for i := 0; i < r; i++ {
		row := m.RawRowView(i)
		copy(row, softmax(row))
	}
}

func softmax(logits []float64) []float64 {
	out := make([]float64, len(logits))
	max := floats.Max(logits)
	var sum float64
	for k, v := range logits {
		out[k] = math.Exp(v - max)
		sum += out[k]
	}
	floats.Scale(1/sum, out)
	return out
}
