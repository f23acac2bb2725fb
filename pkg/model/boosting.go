package model

import (
	"errors"
	"math/rand"
)

const (
	boostingRounds    = 60
	boostingLearnRate = 0.1
	boostingMaxDepth  = 3
	boostingMinLeaf   = 3
	boostingSubsample = 0.8
)

// GradientBoosting is a multi-class gradient boosted tree ensemble. Each
// round fits one regression tree per class to the softmax gradient, with
// row subsampling for variance reduction.
type GradientBoosting struct {
	// Rounds[r][k] is the round-r tree for class k.
	Rounds [][]*treeNode `json:"rounds,omitempty"`
	seed   int64
}

// NewGradientBoosting returns an untrained seeded boosting ensemble.
func NewGradientBoosting(seed int64) *GradientBoosting {
	return &GradientBoosting{seed: seed}
}

func (g *GradientBoosting) Name() string {
	return AlgorithmGradientBoosting
}

func (g *GradientBoosting) Fit(x [][]float64, y []int) error {
	n := len(x)
	if n == 0 || len(y) != n {
		return errors.New("design matrix and labels must be non-empty and aligned")
	}

	rng := rand.New(rand.NewSource(g.seed))

	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, numClasses)
	}

	grad := make([]float64, n)
	g.Rounds = make([][]*treeNode, 0, boostingRounds)

	for r := 0; r < boostingRounds; r++ {
		sample := subsample(n, boostingSubsample, rng)

		round := make([]*treeNode, numClasses)
		for k := 0; k < numClasses; k++ {
			// Negative gradient of softmax cross-entropy: y_k - p_k.
			for i := 0; i < n; i++ {
				p := softmax(scores[i])
				target := 0.0
				if y[i] == k {
					target = 1
				}
				grad[i] = target - p[k]
			}

			cfg := treeConfig{
				maxDepth: boostingMaxDepth,
				minLeaf:  boostingMinLeaf,
			}
			round[k] = buildRegTree(x, grad, sample, 0, cfg)
		}

		for i := 0; i < n; i++ {
			for k := 0; k < numClasses; k++ {
				scores[i][k] += boostingLearnRate * round[k].regress(x[i])
			}
		}
		g.Rounds = append(g.Rounds, round)
	}
	return nil
}

func (g *GradientBoosting) PredictProba(x [][]float64) [][]float64 {
	out := make([][]float64, len(x))
	for i, row := range x {
		scores := make([]float64, numClasses)
		for _, round := range g.Rounds {
			for k, t := range round {
				scores[k] += boostingLearnRate * t.regress(row)
			}
		}
		out[i] = softmax(scores)
	}
	return out
}

// FeatureImportance returns normalized split-frequency importance across
// all rounds and classes.
func (g *GradientBoosting) FeatureImportance(features int) []float64 {
	acc := make([]float64, features)
	for _, round := range g.Rounds {
		for _, t := range round {
			t.importance(acc)
		}
	}
	return normalizeImportance(acc)
}

func subsample(n int, frac float64, rng *rand.Rand) []int {
	size := int(frac * float64(n))
	if size < 1 {
		size = n
	}
	perm := rng.Perm(n)
	return perm[:size]
}
