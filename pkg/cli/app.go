package cli

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"time"

	"github.com/coderunners/reprod/pkg/config"
	"github.com/coderunners/reprod/pkg/data"
	"github.com/coderunners/reprod/pkg/logging"
	"github.com/coderunners/reprod/pkg/scorecard"
	urfave "github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

const (
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
		Usage: "Path to the Sqlite database file",
	}

	formatFlag = &urfave.StringFlag{
		Name:  "format",
		Usage: "Output format [json, yaml]",
		Value: formatJSON,
	}

	rubricFileFlag = &urfave.StringFlag{
		Name:  "rubric",
		Usage: "Path to a rubric YAML file (optional, default: built-in rubric)",
	}
)

// Execute creates and runs the CLI application.
func Execute(ver, com, dat string) {
	if ver != "" {
		version = ver
		commit = com
		date = dat
	}

	initLogging(false)

	app := newApp()
	if err := app.Run(os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	DBPath string
	Debug  bool
	DB     *sql.DB
	Rubric *scorecard.Rubric
}

func getConfig(c *urfave.Context) *appConfig {
	return c.App.Metadata[appConfigKey].(*appConfig)
}

func newApp() *urfave.App {
	return &urfave.App{
		Name:                 "reprod",
		Version:              fmt.Sprintf("%s (%s - %s)", version, commit, date),
		Compiled:             time.Now(),
		EnableBashCompletion: true,
		HideHelpCommand:      true,
		Usage:                "CLI for browsing reproducibility assessments of research papers",
		Flags: []urfave.Flag{
			debugFlag,
			dbFilePathFlag,
			formatFlag,
			rubricFileFlag,
		},
		Commands: []*urfave.Command{
			authCmd,
			importCmd,
			queryCmd,
			enrichCmd,
			serverCmd,
		},
		Before: func(c *urfave.Context) error {
			home := getHomeDir()
			fileCfg, err := config.ReadOrCreate(home)
			if err != nil {
				return fmt.Errorf("reading config: %w", err)
			}

			if c.Bool(debugFlag.Name) {
				initLogging(true)
			} else if fileCfg.LogLevel != "" {
				logging.SetDefaultCLILogger(fileCfg.LogLevel)
			}

			f := c.String(formatFlag.Name)
			if f == formatYAML || f == "yml" {
				outputFormat = formatYAML
			}

			dbPath := c.String(dbFilePathFlag.Name)
			if dbPath == "" {
				dbPath = path.Join(home, fileCfg.DataFile)
			}

			if err := data.Init(dbPath); err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}

			db, err := data.GetDB(dbPath)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}

			rubricPath := c.String(rubricFileFlag.Name)
			if rubricPath == "" {
				rubricPath = fileCfg.RubricFile
			}

			ru, err := scorecard.LoadRubric(rubricPath)
			if err != nil {
				return fmt.Errorf("loading rubric: %w", err)
			}

			c.App.Metadata[appConfigKey] = &appConfig{
				DBPath: dbPath,
				Debug:  c.Bool(debugFlag.Name),
				DB:     db,
				Rubric: ru,
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

func initLogging(debug bool) {
	level := "info"
	if debug {
		level = "debug"
	}
	logging.SetDefaultCLILogger(level)
}

func getHomeDir() string {
	dir, created, err := config.GetOrCreateHomeDir("reprod")
	if err != nil {
		slog.Debug("error getting home dir, using current dir instead", "error", err)
		return "."
	}
	if created {
		slog.Debug("created home dir", "path", dir)
	}
	return dir
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
