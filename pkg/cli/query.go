package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/dropsafe/dropsafe/pkg/data"
)

const queryResultLimitDefault = 100

var (
	queryLimitFlag = &cli.IntFlag{
		Name:  "limit",
		Usage: "Limits number of results returned",
		Value: queryResultLimitDefault,
	}

	studentLikeFlag = &cli.StringFlag{
		Name:     "like",
		Usage:    "Fuzzy search students by id or name",
		Required: true,
	}

	studentIDFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "Student id",
		Required: true,
	}

	topFlag = &cli.IntFlag{
		Name:  "top",
		Usage: "Number of top at-risk students to include",
		Value: 10,
	}

	queryCmd = &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "List data query operations",
		Subcommands: []*cli.Command{
			{
				Name:    "students",
				Usage:   "List students matching a fuzzy query",
				Aliases: []string{"s"},
				Action:  cmdQueryStudents,
				Flags: []cli.Flag{
					studentLikeFlag,
					queryLimitFlag,
				},
			},
			{
				Name:    "student",
				Usage:   "Get one student's record and latest assessment",
				Aliases: []string{"d"},
				Action:  cmdQueryStudent,
				Flags: []cli.Flag{
					studentIDFlag,
				},
			},
			{
				Name:    "at-risk",
				Usage:   "List High and Medium risk students by descending score",
				Aliases: []string{"r"},
				Action:  cmdQueryAtRisk,
				Flags: []cli.Flag{
					queryLimitFlag,
				},
			},
			{
				Name:    "distribution",
				Usage:   "Summarize assessed risk across the cohort",
				Aliases: []string{"dist"},
				Action:  cmdQueryDistribution,
				Flags: []cli.Flag{
					topFlag,
				},
			},
			{
				Name:    "runs",
				Usage:   "List recorded training runs, newest first",
				Action:  cmdQueryRuns,
				Flags: []cli.Flag{
					queryLimitFlag,
				},
			},
		},
	}
)

func limitOf(c *cli.Context) int {
	limit := c.Int(queryLimitFlag.Name)
	if limit <= 0 || limit > queryResultLimitDefault {
		limit = queryResultLimitDefault
	}
	return limit
}

func cmdQueryStudents(c *cli.Context) error {
	val := c.String(studentLikeFlag.Name)
	if val == "" {
		return cli.ShowSubcommandHelp(c)
	}

	cfg := getConfig(c)

	list, err := data.QueryStudents(cfg.DB, val, limitOf(c))
	if err != nil {
		return fmt.Errorf("failed to query students: %w", err)
	}

	return getEncoder().Encode(list)
}

// StudentDetail pairs a record with its stored assessment.
type StudentDetail struct {
	Student    any `json:"student" yaml:"student"`
	Assessment any `json:"assessment,omitempty" yaml:"assessment,omitempty"`
}

func cmdQueryStudent(c *cli.Context) error {
	id := c.String(studentIDFlag.Name)
	if id == "" {
		return cli.ShowSubcommandHelp(c)
	}

	cfg := getConfig(c)

	rec, err := data.GetStudent(cfg.DB, id)
	if err != nil {
		return fmt.Errorf("failed to query student: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("student %s not found", id)
	}

	a, err := data.GetAssessment(cfg.DB, id)
	if err != nil {
		return fmt.Errorf("failed to query assessment: %w", err)
	}

	return getEncoder().Encode(&StudentDetail{Student: rec, Assessment: a})
}

func cmdQueryAtRisk(c *cli.Context) error {
	cfg := getConfig(c)

	list, err := data.GetAtRisk(cfg.DB, limitOf(c))
	if err != nil {
		return fmt.Errorf("failed to query at-risk students: %w", err)
	}

	return getEncoder().Encode(list)
}

func cmdQueryDistribution(c *cli.Context) error {
	cfg := getConfig(c)

	d, err := data.GetDistribution(cfg.DB, c.Int(topFlag.Name))
	if err != nil {
		return fmt.Errorf("failed to query distribution: %w", err)
	}

	return getEncoder().Encode(d)
}

func cmdQueryRuns(c *cli.Context) error {
	cfg := getConfig(c)

	list, err := data.GetTrainingRuns(cfg.DB, limitOf(c))
	if err != nil {
		return fmt.Errorf("failed to query training runs: %w", err)
	}

	return getEncoder().Encode(list)
}
