package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/dropsafe/dropsafe/pkg/data"
	"github.com/dropsafe/dropsafe/pkg/feature"
	"github.com/dropsafe/dropsafe/pkg/model"
)

var (
	seedFlag = &cli.Int64Flag{
		Name:  "seed",
		Usage: "Random seed override for reproducible runs (optional)",
	}

	trainCmd = &cli.Command{
		Name:    "train",
		Aliases: []string{"t"},
		Usage:   "Train and select the best risk classifier",
		UsageText: `dropsafe train                        # train on all stored students
   dropsafe train --file students.csv    # train on a CSV batch
   dropsafe train --seed 7               # override the configured seed`,
		Action: cmdTrain,
		Flags: []cli.Flag{
			fileFlag,
			seedFlag,
		},
	}
)

// TrainResult is the training summary written to stdout. The fitted
// parameters live in the artifact file, not here.
type TrainResult struct {
	Algorithm  string                     `json:"algorithm" yaml:"algorithm"`
	CV         model.Metrics              `json:"cv" yaml:"cv"`
	Validation model.Metrics              `json:"validation" yaml:"validation"`
	Candidates []*model.CandidateResult   `json:"candidates" yaml:"candidates"`
	Importance []*model.FeatureImportance `json:"importance,omitempty" yaml:"importance,omitempty"`
	Samples    int                        `json:"samples" yaml:"samples"`
	Artifact   string                     `json:"artifact" yaml:"artifact"`
}

func cmdTrain(c *cli.Context) error {
	recs, _, err := loadRecords(c, c.String(fileFlag.Name))
	if err != nil {
		return err
	}

	vecs, err := feature.EngineerAll(recs)
	if err != nil {
		return fmt.Errorf("failed to engineer features: %w", err)
	}

	cfg := getConfig(c)

	// Self-supervised target: the rule-based policy labels the batch.
	classes, err := cfg.Scorer.Classes(vecs)
	if err != nil {
		return fmt.Errorf("failed to label batch: %w", err)
	}

	opts := cfg.Conf.Trainer
	if c.IsSet(seedFlag.Name) {
		opts.Seed = c.Int64(seedFlag.Name)
	}
	opts.Output = cfg.ModelPath

	art, err := model.Train(c.Context, vecs, classes, opts)
	if err != nil {
		var insufficient *model.InsufficientDataError
		var allFailed *model.AllCandidatesFailedError
		switch {
		case errors.As(err, &insufficient):
			return fmt.Errorf("training batch too small or imbalanced, import more data: %w", err)
		case errors.As(err, &allFailed):
			slog.Error("training failed, rule-based scoring remains available", "error", err)
			return err
		default:
			return fmt.Errorf("training failed: %w", err)
		}
	}

	if err := data.SaveTrainingRun(cfg.DB, art); err != nil {
		return fmt.Errorf("failed to record training run: %w", err)
	}

	slog.Info("model trained", "algorithm", art.Algorithm, "artifact", cfg.ModelPath)

	res := &TrainResult{
		Algorithm:  art.Algorithm,
		CV:         art.CV,
		Validation: art.Validation,
		Candidates: art.Candidates,
		Importance: art.Importance,
		Samples:    art.Samples,
		Artifact:   cfg.ModelPath,
	}
	if err := getEncoder().Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
