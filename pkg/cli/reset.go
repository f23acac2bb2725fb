package cli

import (
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/dropsafe/dropsafe/pkg/data"
)

var (
	resetCmd = &cli.Command{
		Name:   "reset",
		Usage:  "Delete all stored students, assessments, and training runs",
		Action: cmdReset,
	}
)

func cmdReset(c *cli.Context) error {
	cfg := getConfig(c)

	if err := data.Reset(cfg.DB); err != nil {
		return fmt.Errorf("failed to reset data: %w", err)
	}

	slog.Info("data reset", "db", cfg.DBPath)
	return nil
}
