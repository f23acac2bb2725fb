// Package cli implements the dropsafe command line application.
package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/dropsafe/dropsafe/pkg/config"
	"github.com/dropsafe/dropsafe/pkg/data"
	"github.com/dropsafe/dropsafe/pkg/logging"
	"github.com/dropsafe/dropsafe/pkg/model"
	"github.com/dropsafe/dropsafe/pkg/risk"
)

const (
	appName      = "dropsafe"
	appConfigKey = "app-config"

	formatJSON = "json"
	formatYAML = "yaml"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	outputFormat = formatJSON

	debugFlag = &urfave.BoolFlag{
		Name:  "debug",
		Usage: "Prints verbose logs (optional, default: false)",
	}

	dbFilePathFlag = &urfave.StringFlag{
		Name:  "db",
		Usage: "Path to the sqlite database file (optional, defaults to $HOME/.dropsafe/data.db)",
	}

	modelPathFlag = &urfave.StringFlag{
		Name:  "model",
		Usage: "Path to the model artifact (optional, defaults to $HOME/.dropsafe/model.json)",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefaultCLILogger("info")

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	Home      string
	DBPath    string
	ModelPath string
	Debug     bool
	DB        *sql.DB
	Conf      *config.Config
	Scorer    *risk.Scorer
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:                 appName,
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "CLI for student dropout risk scoring and prediction",
		Flags: []urfave.Flag{
			debugFlag,
			dbFilePathFlag,
			modelPathFlag,
			formatFlag,
		},
		Commands: []*urfave.Command{
			importCmd,
			scoreCmd,
			trainCmd,
			predictCmd,
			queryCmd,
			generateCmd,
			resetCmd,
		},
		Before: func(c *urfave.Context) error {
			if c.Bool(debugFlag.Name) {
				logging.SetDefaultCLILogger("debug")
			}

			f := c.String(formatFlag.Name)
			if f == formatYAML || f == "yml" {
				outputFormat = formatYAML
			}

			home, created, err := config.GetOrCreateHomeDir(appName)
			if err != nil {
				return fmt.Errorf("resolving app home: %w", err)
			}
			if created {
				slog.Debug("created app home", "path", home)
			}

			conf, err := config.ReadOrCreate(home)
			if err != nil {
				return fmt.Errorf("reading config: %w", err)
			}

			scorer, err := risk.NewScorer(conf.Scoring)
			if err != nil {
				return fmt.Errorf("invalid scoring policy: %w", err)
			}

			dbPath := c.String(dbFilePathFlag.Name)
			if dbPath == "" {
				dbPath = path.Join(home, data.DataFileName)
			}

			if err := data.Init(dbPath); err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}

			db, err := data.GetDB(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}

			modelPath := c.String(modelPathFlag.Name)
			if modelPath == "" {
				modelPath = path.Join(home, model.DefaultArtifactName)
			}

			c.App.Metadata[appConfigKey] = &appConfig{
				Home:      home,
				DBPath:    dbPath,
				ModelPath: modelPath,
				Debug:     c.Bool(debugFlag.Name),
				DB:        db,
				Conf:      conf,
				Scorer:    scorer,
			}
			return nil
		},
		After: func(c *urfave.Context) error {
			if cfg, ok := c.App.Metadata[appConfigKey].(*appConfig); ok && cfg.DB != nil {
				cfg.DB.Close()
			}
			return nil
		},
	}
}

type encoder interface {
	Encode(v any) error
}

func getEncoder() encoder {
	if outputFormat == formatYAML {
		return yaml.NewEncoder(os.Stdout)
	}
	e := json.NewEncoder(os.Stdout)
	e.SetIndent("", "  ")
	return e
}
