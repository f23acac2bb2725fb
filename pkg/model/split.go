package model

import (
	"fmt"
	"math/rand"
)

// InsufficientDataError is returned when the training batch cannot be
// stratified: some class has fewer samples than the fold count.
type InsufficientDataError struct {
	Class   int
	Samples int
	Needed  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: class %d has %d samples, need at least %d for stratification",
		e.Class, e.Samples, e.Needed)
}

// byClass groups row indexes by class, shuffled with the given rng.
func byClass(y []int, rng *rand.Rand) [][]int {
	groups := make([][]int, numClasses)
	for i, c := range y {
		groups[c] = append(groups[c], i)
	}
	for _, g := range groups {
		rng.Shuffle(len(g), func(a, b int) { g[a], g[b] = g[b], g[a] })
	}
	return groups
}

// stratifiedSplit partitions rows into train/validation index sets so
// each class is proportionally represented. ratio is the train share.
func stratifiedSplit(y []int, ratio float64, rng *rand.Rand) (train, val []int) {
	for _, g := range byClass(y, rng) {
		cut := int(ratio * float64(len(g)))
		if cut == len(g) && len(g) > 1 {
			cut--
		}
		train = append(train, g[:cut]...)
		val = append(val, g[cut:]...)
	}
	return train, val
}

// stratifiedFolds partitions rows into k folds with proportional class
// representation. Fails with InsufficientDataError when any present
// class has fewer than k samples.
func stratifiedFolds(y []int, k int, rng *rand.Rand) ([][]int, error) {
	groups := byClass(y, rng)
	for c, g := range groups {
		if len(g) > 0 && len(g) < k {
			return nil, &InsufficientDataError{Class: c, Samples: len(g), Needed: k}
		}
	}

	folds := make([][]int, k)
	for _, g := range groups {
		for i, idx := range g {
			f := i % k
			folds[f] = append(folds[f], idx)
		}
	}
	return folds, nil
}

// trainFold returns all indexes not in the holdout fold.
func trainFold(folds [][]int, holdout int) []int {
	var train []int
	for f, fold := range folds {
		if f == holdout {
			continue
		}
		train = append(train, fold...)
	}
	return train
}

func subset(x [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
