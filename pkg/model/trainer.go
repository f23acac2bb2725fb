package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dropsafe/dropsafe/pkg/feature"
)

// TrainerOptions control splitting, cross-validation, and persistence.
type TrainerOptions struct {
	// Seed drives every random operation in a run so training is
	// reproducible.
	Seed int64 `json:"seed" yaml:"seed"`
	// Folds is the stratified cross-validation fold count.
	Folds int `json:"folds" yaml:"folds"`
	// SplitRatio is the train share of the train/validation split.
	SplitRatio float64 `json:"split_ratio" yaml:"splitRatio"`
	// Output, when set, is where the trained artifact is persisted.
	Output string `json:"output,omitempty" yaml:"output,omitempty"`
}

// DefaultTrainerOptions returns the declared defaults: seed 42, 5 folds,
// 80/20 split.
func DefaultTrainerOptions() TrainerOptions {
	return TrainerOptions{Seed: 42, Folds: 5, SplitRatio: 0.8}
}

// CandidateResult reports one candidate's cross-validation outcome.
type CandidateResult struct {
	Algorithm string   `json:"algorithm" yaml:"algorithm"`
	CV        *Metrics `json:"cv,omitempty" yaml:"cv,omitempty"`
	Error     string   `json:"error,omitempty" yaml:"error,omitempty"`
	Selected  bool     `json:"selected,omitempty" yaml:"selected,omitempty"`
}

// AllCandidatesFailedError is returned when every candidate algorithm
// failed to fit. It carries the per-candidate reasons so the caller can
// report them before falling back to the rule-based scorer.
type AllCandidatesFailedError struct {
	Failures map[string]string
}

func (e *AllCandidatesFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, name := range []string{AlgorithmLogistic, AlgorithmRandomForest, AlgorithmGradientBoosting} {
		if reason, ok := e.Failures[name]; ok {
			parts = append(parts, fmt.Sprintf("%s: %s", name, reason))
		}
	}
	return "all candidate algorithms failed: " + strings.Join(parts, "; ")
}

// Train fits every registered candidate, selects the best by stratified
// cross-validated weighted F1 (AUC-ROC, then registry order as
// tie-breaks), refits the winner on the full training partition, and
// reports held-out validation metrics. When opts.Output is set the
// artifact is persisted via atomic rename.
func Train(ctx context.Context, vecs []*feature.Vector, y []int, opts TrainerOptions) (*Artifact, error) {
	if len(vecs) == 0 || len(vecs) != len(y) {
		return nil, errors.New("feature vectors and labels must be non-empty and aligned")
	}
	if opts.Folds < 2 {
		return nil, fmt.Errorf("fold count must be at least 2, got %d", opts.Folds)
	}
	if opts.SplitRatio <= 0 || opts.SplitRatio >= 1 {
		return nil, fmt.Errorf("split ratio must be in (0,1), got %.2f", opts.SplitRatio)
	}

	counts := make([]int, numClasses)
	for _, c := range y {
		if c < 0 || c >= numClasses {
			return nil, fmt.Errorf("label %d out of class range", c)
		}
		counts[c]++
	}
	for class, n := range counts {
		if n > 0 && n < opts.Folds {
			return nil, &InsufficientDataError{Class: class, Samples: n, Needed: opts.Folds}
		}
	}

	raw := feature.Matrix(vecs)

	rng := rand.New(rand.NewSource(opts.Seed))
	trainIdx, valIdx := stratifiedSplit(y, opts.SplitRatio, rng)
	sort.Ints(trainIdx)
	sort.Ints(valIdx)

	xTrainRaw, yTrain := subset(raw, y, trainIdx)
	xValRaw, yVal := subset(raw, y, valIdx)

	folds, err := stratifiedFolds(yTrain, opts.Folds, rand.New(rand.NewSource(opts.Seed)))
	if err != nil {
		return nil, err
	}

	scaler, err := FitScaler(xTrainRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to fit scaler: %w", err)
	}
	xTrain, err := scaler.Transform(xTrainRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to scale training partition: %w", err)
	}
	xVal, err := scaler.Transform(xValRaw)
	if err != nil {
		return nil, fmt.Errorf("failed to scale validation partition: %w", err)
	}

	slog.Info("training candidates",
		"samples", len(vecs),
		"train", len(trainIdx),
		"validation", len(valIdx),
		"folds", opts.Folds,
	)

	// Candidates are independent, so cross-validate them concurrently.
	// Results are gathered by registry position to keep selection
	// deterministic.
	names := make([]string, 0, numCandidates())
	for _, c := range Registry(opts.Seed) {
		names = append(names, c.Name())
	}

	candidates := make([]*CandidateResult, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for pos, name := range names {
		pos, name := pos, name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := crossValidate(name, xTrain, yTrain, folds, opts.Seed)
			candidates[pos] = res
			if res.Error != "" {
				slog.Warn("candidate failed", "algorithm", name, "error", res.Error)
			} else {
				slog.Info("candidate evaluated", "algorithm", name,
					"cv_f1", fmt.Sprintf("%.3f", res.CV.F1),
					"cv_auc", fmt.Sprintf("%.3f", res.CV.AUC),
				)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("candidate evaluation interrupted: %w", err)
	}

	best := selectBest(candidates)
	if best == nil {
		failures := make(map[string]string, len(candidates))
		for _, c := range candidates {
			failures[c.Algorithm] = c.Error
		}
		return nil, &AllCandidatesFailedError{Failures: failures}
	}
	best.Selected = true

	winner := newClassifier(best.Algorithm, opts.Seed)
	if err := winner.Fit(xTrain, yTrain); err != nil {
		return nil, fmt.Errorf("failed to refit selected algorithm %s: %w", best.Algorithm, err)
	}

	val := evaluate(winner.PredictProba(xVal), yVal)

	slog.Info("selected algorithm", "algorithm", best.Algorithm,
		"val_f1", fmt.Sprintf("%.3f", val.F1),
		"val_auc", fmt.Sprintf("%.3f", val.AUC),
	)

	art := &Artifact{
		Algorithm:    best.Algorithm,
		FeatureNames: append([]string(nil), feature.Names...),
		Scaler:       scaler,
		CV:           *best.CV,
		Validation:   val,
		Candidates:   candidates,
		Samples:      len(vecs),
		Seed:         opts.Seed,
		TrainedAt:    time.Now().UTC(),
	}
	art.setClassifier(winner)
	art.Importance = importanceFor(winner)

	if opts.Output != "" {
		if err := art.Save(opts.Output); err != nil {
			return nil, err
		}
	}

	return art, nil
}

func numCandidates() int {
	return len(Registry(0))
}

// crossValidate runs stratified k-fold CV for one algorithm, returning
// fold-averaged metrics or the failure reason.
func crossValidate(name string, x [][]float64, y []int, folds [][]int, seed int64) *CandidateResult {
	res := &CandidateResult{Algorithm: name}

	var agg Metrics
	evaluated := 0

	for holdout := range folds {
		trainIdx := trainFold(folds, holdout)
		xt, yt := subset(x, y, trainIdx)
		xh, yh := subset(x, y, folds[holdout])
		if len(yh) == 0 {
			continue
		}

		c := newClassifier(name, seed)
		if err := c.Fit(xt, yt); err != nil {
			res.Error = err.Error()
			return res
		}

		m := evaluate(c.PredictProba(xh), yh)
		agg.F1 += m.F1
		agg.AUC += m.AUC
		agg.Accuracy += m.Accuracy
		evaluated++
	}

	if evaluated == 0 {
		res.Error = "no folds evaluated"
		return res
	}

	agg.F1 /= float64(evaluated)
	agg.AUC /= float64(evaluated)
	agg.Accuracy /= float64(evaluated)
	res.CV = &agg
	return res
}

// selectBest picks the highest primary metric; ties go to the higher
// secondary metric, then to the earlier registry position.
func selectBest(candidates []*CandidateResult) *CandidateResult {
	var best *CandidateResult
	for _, c := range candidates {
		if c == nil || c.Error != "" {
			continue
		}
		if best == nil ||
			c.CV.F1 > best.CV.F1 ||
			(c.CV.F1 == best.CV.F1 && c.CV.AUC > best.CV.AUC) {
			best = c
		}
	}
	return best
}

// importanceFor extracts per-feature importance from the winner.
func importanceFor(c Classifier) []*FeatureImportance {
	var raw []float64
	switch m := c.(type) {
	case *Logistic:
		raw = m.FeatureImportance()
	case *RandomForest:
		raw = m.FeatureImportance(len(feature.Names))
	case *GradientBoosting:
		raw = m.FeatureImportance(len(feature.Names))
	}
	if len(raw) != len(feature.Names) {
		return nil
	}

	list := make([]*FeatureImportance, len(raw))
	for i, v := range raw {
		list[i] = &FeatureImportance{Feature: feature.Names[i], Weight: v}
	}
	sort.SliceStable(list, func(a, b int) bool { return list[a].Weight > list[b].Weight })
	return list
}
