package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/coderunners/reprod/pkg/data"
	"github.com/coderunners/reprod/pkg/scorecard"
	"github.com/urfave/cli/v2"
)

var (
	csvFileFlag = &cli.StringFlag{
		Name:     "file",
		Aliases:  []string{"f"},
		Usage:    "Path to the assessment CSV file",
		Required: true,
	}

	freshFlag = &cli.BoolFlag{
		Name:  "fresh",
		Usage: "Clear import state and re-import even when the file is unchanged",
	}

	importCmd = &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import paper assessments from a CSV file",
		UsageText: `reprod import --file scores.csv                     # import, skipped when unchanged
   reprod import --file scores.csv --fresh             # force re-import
   reprod import --file scores.csv --rubric my.yaml    # import with a custom rubric`,
		Action: cmdImport,
		Flags: []cli.Flag{
			csvFileFlag,
			freshFlag,
			rubricFileFlag,
		},
	}
)

type ImportResult struct {
	File      string `json:"file" yaml:"file"`
	Papers    int    `json:"papers" yaml:"papers"`
	Defaulted int    `json:"defaulted_fields" yaml:"defaultedFields"`
	Skipped   bool   `json:"skipped" yaml:"skipped"`
	Duration  string `json:"duration" yaml:"duration"`
}

func cmdImport(c *cli.Context) error {
	start := time.Now()
	file := c.String(csvFileFlag.Name)
	cfg := getConfig(c)

	if c.Bool(freshFlag.Name) {
		if err := data.ClearSourceState(cfg.DB, file); err != nil {
			return fmt.Errorf("clearing import state: %w", err)
		}
		slog.Info("cleared import state", "file", file)
	}

	fresh, err := data.SourceFresh(cfg.DB, file)
	if err != nil {
		return fmt.Errorf("checking import state: %w", err)
	}

	res := &ImportResult{File: file}

	if fresh {
		slog.Info("source unchanged since last import, skipping", "file", file)
		res.Skipped = true
		res.Papers, err = data.CountPapers(cfg.DB)
		if err != nil {
			return fmt.Errorf("counting papers: %w", err)
		}
		res.Duration = time.Since(start).String()
		return getEncoder().Encode(res)
	}

	ru := cfg.Rubric
	if p := c.String(rubricFileFlag.Name); p != "" {
		ru, err = scorecard.LoadRubric(p)
		if err != nil {
			return fmt.Errorf("loading rubric: %w", err)
		}
	}

	slog.Info("importing assessments", "file", file)
	papers, err := scorecard.LoadPapers(file, ru)
	if err != nil {
		return fmt.Errorf("loading papers from %s: %w", file, err)
	}

	if err := data.ReplacePapers(cfg.DB, papers); err != nil {
		return fmt.Errorf("saving papers: %w", err)
	}

	if err := data.SaveSourceState(cfg.DB, file, len(papers)); err != nil {
		return fmt.Errorf("saving import state: %w", err)
	}

	res.Papers = len(papers)
	for _, p := range papers {
		res.Defaulted += p.DefaultedFields
	}
	if res.Defaulted > 0 {
		slog.Warn("some criterion cells were defaulted", "fields", res.Defaulted)
	}

	res.Duration = time.Since(start).String()

	if err := getEncoder().Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
