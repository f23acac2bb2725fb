package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dropsafe/dropsafe/pkg/data"
	"github.com/dropsafe/dropsafe/pkg/feature"
	"github.com/dropsafe/dropsafe/pkg/ingest"
	"github.com/dropsafe/dropsafe/pkg/risk"
)

// ruleBasedSource marks assessments produced without a trained model.
const ruleBasedSource = "rule_based"

var (
	scoreCmd = &cli.Command{
		Name:    "score",
		Aliases: []string{"s"},
		Usage:   "Score students with the rule-based weighted policy",
		UsageText: `dropsafe score                        # score all stored students
   dropsafe score --file students.csv    # score a CSV batch`,
		Action: cmdScore,
		Flags: []cli.Flag{
			fileFlag,
			outFlag,
		},
	}
)

// ScoreResult is the scored batch plus ingestion rejections.
type ScoreResult struct {
	Source      string             `json:"source" yaml:"source"`
	Assessments []*risk.Assessment `json:"assessments" yaml:"assessments"`
	Rejected    []*ingest.RowError `json:"rejected,omitempty" yaml:"rejected,omitempty"`
}

func cmdScore(c *cli.Context) error {
	recs, rejected, err := loadRecords(c, c.String(fileFlag.Name))
	if err != nil {
		return err
	}

	vecs, err := feature.EngineerAll(recs)
	if err != nil {
		return fmt.Errorf("failed to engineer features: %w", err)
	}

	cfg := getConfig(c)
	list, err := cfg.Scorer.ScoreAll(vecs)
	if err != nil {
		return fmt.Errorf("failed to score batch: %w", err)
	}

	if err := data.SaveAssessments(cfg.DB, list, nameIndex(recs), ruleBasedSource); err != nil {
		return fmt.Errorf("failed to save assessments: %w", err)
	}

	slog.Info("scored students", "count", len(list), "source", ruleBasedSource)

	if out := c.String(outFlag.Name); out != "" {
		return writeFileOrStdout(out, func(f *os.File) error {
			return risk.WriteCSV(f, list)
		})
	}

	res := &ScoreResult{
		Source:      ruleBasedSource,
		Assessments: list,
		Rejected:    rejected,
	}
	if err := getEncoder().Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}

func nameIndex(recs []*ingest.StudentRecord) map[string]string {
	names := make(map[string]string, len(recs))
	for _, r := range recs {
		names[r.ID] = r.Name
	}
	return names
}
