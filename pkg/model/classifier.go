// Package model implements the learned risk classifiers: a fixed registry
// of candidate algorithms, stratified cross-validated model selection,
// artifact persistence, and a predictor with rule-based fallback.
package model

import (
	"github.com/dropsafe/dropsafe/pkg/risk"
)

// numClasses is the size of the risk tier space (Safe, Medium, High).
var numClasses = len(risk.Labels)

// Classifier is a trainable multi-class probability estimator.
type Classifier interface {
	// Name identifies the algorithm in artifacts and reports.
	Name() string
	// Fit trains on a row-major design matrix and class indexes.
	Fit(x [][]float64, y []int) error
	// PredictProba returns one probability row per input row. Rows sum
	// to one across classes. Must only be called after a successful Fit.
	PredictProba(x [][]float64) [][]float64
}

// Algorithm names, in registry order. Registry order is the final
// selection tie-break, so it must stay deterministic.
const (
	AlgorithmLogistic         = "logistic"
	AlgorithmRandomForest     = "random_forest"
	AlgorithmGradientBoosting = "gradient_boosting"
)

// Registry returns fresh candidate classifiers in fixed order, seeded so
// repeated training runs are reproducible.
func Registry(seed int64) []Classifier {
	return []Classifier{
		NewLogistic(),
		NewRandomForest(seed),
		NewGradientBoosting(seed),
	}
}

// newClassifier builds an untrained classifier by algorithm name.
func newClassifier(name string, seed int64) Classifier {
	for _, c := range Registry(seed) {
		if c.Name() == name {
			return c
		}
	}
	return nil
}
