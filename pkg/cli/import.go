package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/dropsafe/dropsafe/pkg/data"
	"github.com/dropsafe/dropsafe/pkg/ingest"
)

var (
	fileFlag = &cli.StringFlag{
		Name:  "file",
		Usage: "Path to a CSV file of student records",
	}

	outFlag = &cli.StringFlag{
		Name:  "out",
		Usage: "Path to write the CSV output (optional, default: stdout encoding)",
	}

	importCmd = &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import student records from a CSV file",
		UsageText: `dropsafe import --file students.csv   # validate and store a batch
   dropsafe --format yaml import --file students.csv`,
		Action: cmdImport,
		Flags: []cli.Flag{
			fileFlag,
		},
	}
)

// ImportResult summarizes an ingestion run.
type ImportResult struct {
	Imported int                `json:"imported" yaml:"imported"`
	Rejected int                `json:"rejected" yaml:"rejected"`
	Errors   []*ingest.RowError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

func cmdImport(c *cli.Context) error {
	file := c.String(fileFlag.Name)
	if file == "" {
		return cli.ShowSubcommandHelp(c)
	}

	res, err := ingest.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", file, err)
	}

	cfg := getConfig(c)
	if err := data.SaveStudents(cfg.DB, res.Records); err != nil {
		return fmt.Errorf("failed to save students: %w", err)
	}

	slog.Info("imported students", "file", file, "imported", len(res.Records), "rejected", len(res.Errors))

	out := &ImportResult{
		Imported: len(res.Records),
		Rejected: len(res.Errors),
		Errors:   res.Errors,
	}
	if err := getEncoder().Encode(out); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}

// loadRecords returns records from the given file, or every stored
// student when no file is specified.
func loadRecords(c *cli.Context, file string) ([]*ingest.StudentRecord, []*ingest.RowError, error) {
	if file != "" {
		res, err := ingest.ReadFile(file)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		return res.Records, res.Errors, nil
	}

	cfg := getConfig(c)
	recs, err := data.GetAllStudents(cfg.DB)
	if err != nil {
		return nil, nil, err
	}
	if len(recs) == 0 {
		return nil, nil, fmt.Errorf("no students in database %s, import a batch first", cfg.DBPath)
	}
	return recs, nil, nil
}

// writeFileOrStdout writes with fn to the path, or stdout when empty.
func writeFileOrStdout(path string, fn func(f *os.File) error) error {
	if path == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return fn(f)
}
