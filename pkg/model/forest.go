package model

import (
	"errors"
	"math"
	"math/rand"
)

const (
	forestTrees    = 60
	forestMaxDepth = 8
	forestMinLeaf  = 2
)

// RandomForest is a bagged ensemble of gini CART trees with per-node
// feature subsampling (sqrt of the feature count).
type RandomForest struct {
	Trees []*treeNode `json:"trees,omitempty"`
	seed  int64
}

// NewRandomForest returns an untrained forest with a fixed seed so
// repeated training runs produce the same ensemble.
func NewRandomForest(seed int64) *RandomForest {
	return &RandomForest{seed: seed}
}

func (f *RandomForest) Name() string {
	return AlgorithmRandomForest
}

func (f *RandomForest) Fit(x [][]float64, y []int) error {
	n := len(x)
	if n == 0 || len(y) != n {
		return errors.New("design matrix and labels must be non-empty and aligned")
	}

	rng := rand.New(rand.NewSource(f.seed))
	maxFeatures := int(math.Ceil(math.Sqrt(float64(len(x[0])))))

	f.Trees = make([]*treeNode, 0, forestTrees)
	for t := 0; t < forestTrees; t++ {
		// Bootstrap sample.
		idx := make([]int, n)
		for i := range idx {
			idx[i] = rng.Intn(n)
		}

		cfg := treeConfig{
			maxDepth:    forestMaxDepth,
			minLeaf:     forestMinLeaf,
			maxFeatures: maxFeatures,
			rng:         rng,
		}
		f.Trees = append(f.Trees, buildClassTree(x, y, idx, 0, cfg))
	}
	return nil
}

func (f *RandomForest) PredictProba(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		probs := make([]float64, numClasses)
		for _, t := range f.Trees {
			for k, p := range t.classify(row) {
				probs[k] += p
			}
		}
		for k := range probs {
			probs[k] /= float64(len(f.Trees))
		}
		out[i] = probs
	}
	return out
}

// FeatureImportance returns normalized split-frequency importance.
func (f *RandomForest) FeatureImportance(features int) []float64 {
	acc := make([]float64, features)
	for _, t := range f.Trees {
		t.importance(acc)
	}
	return normalizeImportance(acc)
}

func normalizeImportance(acc []float64) []float64 {
	var total float64
	for _, v := range acc {
		total += v
	}
	if total == 0 {
		return acc
	}
	for i := range acc {
		acc[i] /= total
	}
	return acc
}
