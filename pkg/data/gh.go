package data

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/google/go-github/v83/github"
	"github.com/mchmarny/reputer/pkg/score"
)

const rateLimitThreshold = 10

// FetchRepoMeta gathers repository metadata for one enrich target via
// the GitHub API. The owner reputation is filled in separately.
func FetchRepoMeta(ctx context.Context, client *http.Client, t *EnrichTarget) (*RepoMeta, error) {
	if t == nil || t.Org == "" || t.Repo == "" {
		return nil, fmt.Errorf("enrich target with org and repo is required")
	}

	r, resp, err := github.NewClient(client).Repositories.Get(ctx, t.Org, t.Repo)
	if err != nil {
		return nil, fmt.Errorf("error getting repo %s/%s: %w", t.Org, t.Repo, err)
	}
	checkRateLimit(resp)

	slog.Debug("got repo metadata", "org", t.Org, "repo", t.Repo, "rate", rateInfo(&resp.Rate))

	m := &RepoMeta{
		PaperID:     t.PaperID,
		Org:         t.Org,
		Repo:        t.Repo,
		Description: r.GetDescription(),
		Stars:       r.GetStargazersCount(),
		Forks:       r.GetForksCount(),
		OpenIssues:  r.GetOpenIssuesCount(),
		Language:    r.GetLanguage(),
		Archived:    r.GetArchived(),
		PushedAt:    toDate(r.PushedAt),
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if r.License != nil {
		m.License = r.License.GetSPDXID()
	}

	return m, nil
}

// FetchOwnerReputation scores the repository owner from their public
// profile signals: account age, follower graph, repo count, and how
// filled-out the profile is. No commit history is gathered.
func FetchOwnerReputation(ctx context.Context, client *http.Client, owner string) (float64, error) {
	if owner == "" {
		return 0, fmt.Errorf("owner is required")
	}

	usr, resp, err := github.NewClient(client).Users.Get(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("error getting user %s: %w", owner, err)
	}
	checkRateLimit(resp)

	var s score.Signals
	if usr.CreatedAt != nil {
		s.AgeDays = int64(time.Since(usr.CreatedAt.Time).Hours() / 24)
	}
	s.Followers = int64(usr.GetFollowers())
	s.Following = int64(usr.GetFollowing())
	s.PublicRepos = int64(usr.GetPublicRepos())
	s.Suspended = usr.SuspendedAt != nil
	s.HasBio = usr.GetBio() != ""
	s.HasCompany = usr.GetCompany() != ""
	s.HasLocation = usr.GetLocation() != ""
	s.HasWebsite = usr.GetBlog() != ""

	return score.Compute(s), nil
}

func toDate(t *github.Timestamp) string {
	if t == nil {
		return ""
	}
	return t.Time.Format("2006-01-02")
}

func rateInfo(r *github.Rate) string {
	if r == nil {
		return ""
	}
	return fmt.Sprintf("rate:%d/%d until:%s", r.Remaining, r.Limit, r.Reset.Format("15:04"))
}

// checkRateLimit sleeps through an imminent GitHub rate-limit reset so
// bulk enrichment degrades to waiting instead of erroring out.
func checkRateLimit(resp *github.Response) {
	if resp == nil {
		return
	}

	if resp.Rate.Remaining > rateLimitThreshold {
		return
	}

	resetAt := resp.Rate.Reset.Time
	wait := time.Until(resetAt)
	if wait <= 0 {
		return
	}

	jitter := time.Duration(rand.IntN(2000)) * time.Millisecond
	total := wait + jitter

	slog.Info("rate limit approaching, waiting",
		"remaining", resp.Rate.Remaining,
		"reset_at", resetAt.Format(time.RFC3339),
		"wait", total.String(),
	)

	time.Sleep(total)
}
