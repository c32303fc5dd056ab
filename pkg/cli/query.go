package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/coderunners/reprod/pkg/data"
	"github.com/coderunners/reprod/pkg/scorecard"
	"github.com/urfave/cli/v2"
)

const (
	queryResultLimitDefault = 500
)

var (
	queryLimitFlag = &cli.IntFlag{
		Name:     "limit",
		Usage:    "Limits number of result returned",
		Value:    queryResultLimitDefault,
		Required: false,
	}

	minScoreFlag = &cli.Float64Flag{
		Name:     "min-score",
		Usage:    "Minimum normalized score (0-100)",
		Required: false,
	}

	statusFlag = &cli.StringSliceFlag{
		Name:     "status",
		Usage:    fmt.Sprintf("Status filter, can be repeated (%s)", strings.Join(scorecard.Statuses, ", ")),
		Required: false,
	}

	conferenceFlag = &cli.StringSliceFlag{
		Name:     "conference",
		Usage:    "Conference filter, can be repeated",
		Required: false,
	}

	titleQueryFlag = &cli.StringFlag{
		Name:     "query",
		Aliases:  []string{"q"},
		Usage:    "Fuzzy search on paper title or ID",
		Required: false,
	}

	paperIDFlag = &cli.StringFlag{
		Name:     "id",
		Usage:    "Paper ID",
		Required: true,
	}

	queryCmd = &cli.Command{
		Name:    "query",
		Aliases: []string{"q"},
		Usage:   "List data query operations",
		Subcommands: []*cli.Command{
			{
				Name:    "papers",
				Usage:   "List papers matching the given filters",
				Aliases: []string{"p"},
				Action:  cmdQueryPapers,
				Flags: []cli.Flag{
					minScoreFlag,
					statusFlag,
					conferenceFlag,
					titleQueryFlag,
					queryLimitFlag,
				},
			},
			{
				Name:    "paper",
				Usage:   "Get one paper with its criterion and category detail",
				Aliases: []string{"d"},
				Action:  cmdQueryPaper,
				Flags: []cli.Flag{
					paperIDFlag,
				},
			},
			{
				Name:    "stats",
				Usage:   "Summary metrics over the imported assessments",
				Aliases: []string{"s"},
				Action:  cmdQueryStats,
			},
		},
	}
)

// PaperList is the papers query result. FellBack is set when active
// filters matched nothing and the full set was returned instead.
type PaperList struct {
	Papers   []*scorecard.Paper `json:"papers" yaml:"papers"`
	Count    int                `json:"count" yaml:"count"`
	FellBack bool               `json:"fell_back,omitempty" yaml:"fellBack,omitempty"`
}

func cmdQueryPapers(c *cli.Context) error {
	limit := c.Int(queryLimitFlag.Name)
	if limit == 0 || limit > queryResultLimitDefault {
		limit = queryResultLimitDefault
	}

	q := &data.PaperSearchCriteria{
		MinScore:    c.Float64(minScoreFlag.Name),
		Statuses:    c.StringSlice(statusFlag.Name),
		Conferences: c.StringSlice(conferenceFlag.Name),
		Query:       c.String(titleQueryFlag.Name),
		Limit:       limit,
	}

	for _, s := range q.Statuses {
		if !data.Contains(scorecard.Statuses, s) {
			return fmt.Errorf("unknown status: %s (expected one of: %s)",
				s, strings.Join(scorecard.Statuses, ", "))
		}
	}

	slog.Debug("query papers",
		"min_score", q.MinScore,
		"statuses", q.Statuses,
		"conferences", q.Conferences,
		"query", q.Query,
		"limit", q.Limit,
	)

	cfg := getConfig(c)

	papers, fellBack, err := data.SearchPapersWithFallback(cfg.DB, q)
	if err != nil {
		return fmt.Errorf("failed to query papers: %w", err)
	}

	if fellBack {
		slog.Warn("no papers matched the filters, showing all")
	}

	res := &PaperList{
		Papers:   papers,
		Count:    len(papers),
		FellBack: fellBack,
	}

	if err := getEncoder().Encode(res); err != nil {
		return fmt.Errorf("error encoding list: %w", err)
	}

	return nil
}

func cmdQueryPaper(c *cli.Context) error {
	id := c.String(paperIDFlag.Name)
	if id == "" {
		return cli.ShowSubcommandHelp(c)
	}

	cfg := getConfig(c)

	slog.Debug("query paper detail", "id", id)
	p, err := data.GetPaper(cfg.DB, id)
	if err != nil {
		return fmt.Errorf("failed to query paper: %w", err)
	}

	if p == nil {
		fmt.Fprint(os.Stdout, "{}")
		return nil
	}

	if err := getEncoder().Encode(p); err != nil {
		return fmt.Errorf("error encoding: %+v: %w", p, err)
	}

	return nil
}

// QueryStats bundles the summary views that the stats command prints.
type QueryStats struct {
	Summary      *data.Summary           `json:"summary" yaml:"summary"`
	Statuses     []*data.CountedItem     `json:"statuses" yaml:"statuses"`
	Distribution *data.ScoreDistribution `json:"distribution" yaml:"distribution"`
}

func cmdQueryStats(c *cli.Context) error {
	cfg := getConfig(c)

	s, err := data.GetSummary(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to query summary: %w", err)
	}

	b, err := data.GetStatusBreakdown(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to query status breakdown: %w", err)
	}

	d, err := data.GetScoreDistribution(cfg.DB)
	if err != nil {
		return fmt.Errorf("failed to query score distribution: %w", err)
	}

	res := &QueryStats{
		Summary:      s,
		Statuses:     b,
		Distribution: d,
	}

	if err := getEncoder().Encode(res); err != nil {
		return fmt.Errorf("error encoding stats: %w", err)
	}

	return nil
}
