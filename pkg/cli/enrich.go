package cli

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coderunners/reprod/pkg/data"
	"github.com/coderunners/reprod/pkg/net"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
)

const (
	enrichWorkersDefault   = 4
	enrichStalenessDefault = 24
)

var (
	stalenessFlag = &cli.IntFlag{
		Name:     "staleness",
		Usage:    "Re-fetch metadata older than this many hours",
		Value:    enrichStalenessDefault,
		Required: false,
	}

	workersFlag = &cli.IntFlag{
		Name:     "workers",
		Usage:    "Number of concurrent GitHub requests",
		Value:    enrichWorkersDefault,
		Required: false,
	}

	enrichCmd = &cli.Command{
		Name:    "enrich",
		Aliases: []string{"e"},
		Usage:   "Fetch GitHub metadata for papers with a GitHub code link",
		UsageText: `reprod enrich                    # enrich papers with stale or missing metadata
   reprod enrich --staleness 1      # re-fetch anything older than an hour`,
		Action: cmdEnrich,
		Flags: []cli.Flag{
			stalenessFlag,
			workersFlag,
		},
	}
)

func cmdEnrich(c *cli.Context) error {
	start := time.Now()
	cfg := getConfig(c)

	token, err := getGitHubToken()
	if err != nil {
		return fmt.Errorf("failed to get GitHub token: %w", err)
	}
	if token == "" {
		return cli.ShowSubcommandHelp(c)
	}

	staleness := time.Duration(c.Int(stalenessFlag.Name)) * time.Hour
	targets, err := data.GetEnrichTargets(cfg.DB, staleness)
	if err != nil {
		return fmt.Errorf("failed to list enrichment targets: %w", err)
	}

	res := &data.EnrichSummary{Targets: len(targets)}

	if len(targets) == 0 {
		slog.Info("nothing to enrich")
		res.Duration = time.Since(start).String()
		return getEncoder().Encode(res)
	}

	ctx := context.Background()
	client := net.GetOAuthClient(ctx, token)

	workers := c.Int(workersFlag.Name)
	if workers < 1 {
		workers = enrichWorkersDefault
	}

	var enriched, failed atomic.Int64

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, t := range targets {
		g.Go(func() error {
			slog.Info("enriching", "paper", t.PaperID, "org", t.Org, "repo", t.Repo)

			m, fetchErr := data.FetchRepoMeta(ctx, client, t)
			if fetchErr != nil {
				slog.Error("failed to fetch repo metadata", "paper", t.PaperID, "error", fetchErr)
				failed.Add(1)
				return nil
			}

			rep, repErr := data.FetchOwnerReputation(ctx, client, t.Org)
			if repErr != nil {
				slog.Warn("failed to compute owner reputation", "org", t.Org, "error", repErr)
			} else {
				m.OwnerReputation = rep
			}

			if saveErr := data.SaveRepoMeta(cfg.DB, m); saveErr != nil {
				slog.Error("failed to save repo metadata", "paper", t.PaperID, "error", saveErr)
				failed.Add(1)
				return nil
			}

			enriched.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("enrichment failed: %w", err)
	}

	res.Enriched = int(enriched.Load())
	res.Errors = int(failed.Load())
	res.Duration = time.Since(start).String()

	if err := getEncoder().Encode(res); err != nil {
		return fmt.Errorf("error encoding result: %w", err)
	}

	return nil
}
