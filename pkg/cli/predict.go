package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dropsafe/dropsafe/pkg/data"
	"github.com/dropsafe/dropsafe/pkg/ingest"
	"github.com/dropsafe/dropsafe/pkg/model"
	"github.com/dropsafe/dropsafe/pkg/risk"
)

var (
	predictCmd = &cli.Command{
		Name:    "predict",
		Aliases: []string{"p"},
		Usage:   "Predict dropout risk with the trained model",
		UsageText: `dropsafe predict                                  # predict for all stored students
   dropsafe predict --file students.csv              # predict for a CSV batch
   dropsafe predict --file students.csv --out out.csv`,
		Action: cmdPredict,
		Flags: []cli.Flag{
			fileFlag,
			outFlag,
		},
	}
)

// PredictResult is the prediction batch plus its provenance.
type PredictResult struct {
	Source      string             `json:"source" yaml:"source"`
	Degraded    bool               `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	Assessments []*risk.Assessment `json:"assessments" yaml:"assessments"`
	Rejected    []*ingest.RowError `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

func cmdPredict(c *cli.Context) error {
	recs, rejected, err := loadRecords(c, c.String(fileFlag.Name))
	if err != nil {
		return err
	}

	cfg := getConfig(c)

	p, err := model.NewPredictor(cfg.ModelPath, cfg.Scorer)
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	list, err := p.Predict(recs)
	if err != nil {
		return fmt.Errorf("failed to predict batch: %w", err)
	}

	if err := data.SaveAssessments(cfg.DB, list, nameIndex(recs), p.Algorithm()); err != nil {
		return fmt.Errorf("failed to save assessments: %w", err)
	}

	slog.Info("predicted students", "count", len(list), "source", p.Algorithm(), "degraded", p.Degraded())

	if out := c.String(outFlag.Name); out != "" {
		return writeFileOrStdout(out, func(f *os.File) error {
			return risk.WriteCSV(f, list)
		})
	}

	res := &PredictResult{
		Source:      p.Algorithm(),
		Degraded:    p.Degraded(),
		Assessments: list,
		Rejected:    rejected,
	}
	if err := getEncoder().Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
