package data

import (
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const (
	upsertRepoMetaSQL = `INSERT INTO repo_meta (
			paper_id, org, repo, description, stars, forks, open_issues,
			language, license, archived, pushed_at, owner_reputation, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(paper_id) DO UPDATE SET
			org = excluded.org,
			repo = excluded.repo,
			description = excluded.description,
			stars = excluded.stars,
			forks = excluded.forks,
			open_issues = excluded.open_issues,
			language = excluded.language,
			license = excluded.license,
			archived = excluded.archived,
			pushed_at = excluded.pushed_at,
			owner_reputation = excluded.owner_reputation,
			updated_at = excluded.updated_at
	`

	selectRepoMetaSQL = `SELECT paper_id, org, repo, description, stars, forks, open_issues,
			language, license, archived, pushed_at, owner_reputation, updated_at
		FROM repo_meta WHERE paper_id = ?
	`

	// Papers with a GitHub code link whose metadata is missing or
	// older than the staleness threshold.
	selectEnrichableSQL = `SELECT p.id, p.code_link
		FROM paper p
		LEFT JOIN repo_meta m ON m.paper_id = p.id
		WHERE p.code_link LIKE 'http%github.com/%'
		  AND (m.paper_id IS NULL OR m.updated_at < ?)
		ORDER BY p.position
	`
)

// RepoMeta is GitHub metadata gathered for one paper's code link.
// Display-only enrichment: it never feeds the reproducibility scores.
type RepoMeta struct {
	PaperID         string  `json:"paper_id" yaml:"paperId"`
	Org             string  `json:"org" yaml:"org"`
	Repo            string  `json:"repo" yaml:"repo"`
	Description     string  `json:"description,omitempty" yaml:"description,omitempty"`
	Stars           int     `json:"stars" yaml:"stars"`
	Forks           int     `json:"forks" yaml:"forks"`
	OpenIssues      int     `json:"open_issues" yaml:"openIssues"`
	Language        string  `json:"language,omitempty" yaml:"language,omitempty"`
	License         string  `json:"license,omitempty" yaml:"license,omitempty"`
	Archived        bool    `json:"archived" yaml:"archived"`
	PushedAt        string  `json:"pushed_at,omitempty" yaml:"pushedAt,omitempty"`
	OwnerReputation float64 `json:"owner_reputation" yaml:"ownerReputation"`
	UpdatedAt       string  `json:"updated_at" yaml:"updatedAt"`
}

// EnrichTarget is one paper whose code link should be enriched.
type EnrichTarget struct {
	PaperID string
	Org     string
	Repo    string
}

// SaveRepoMeta upserts one enrichment record.
func SaveRepoMeta(db *sql.DB, m *RepoMeta) error {
	if db == nil {
		return errDBNotInitialized
	}
	if m == nil || m.PaperID == "" {
		return errors.New("repo meta with paper id is required")
	}

	archived := 0
	if m.Archived {
		archived = 1
	}
	if m.UpdatedAt == "" {
		m.UpdatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	_, err := db.Exec(upsertRepoMetaSQL,
		m.PaperID, m.Org, m.Repo, m.Description, m.Stars, m.Forks, m.OpenIssues,
		m.Language, m.License, archived, m.PushedAt, m.OwnerReputation, m.UpdatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "failed to upsert repo meta for %s", m.PaperID)
	}

	return nil
}

// GetRepoMeta returns the enrichment record for a paper, or nil.
func GetRepoMeta(db *sql.DB, paperID string) (*RepoMeta, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var m RepoMeta
	var archived int
	err := db.QueryRow(selectRepoMetaSQL, paperID).Scan(
		&m.PaperID, &m.Org, &m.Repo, &m.Description, &m.Stars, &m.Forks, &m.OpenIssues,
		&m.Language, &m.License, &archived, &m.PushedAt, &m.OwnerReputation, &m.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to scan repo meta for %s", paperID)
	}
	m.Archived = archived == 1

	return &m, nil
}

// GetEnrichTargets lists papers with a parseable GitHub code link and
// missing or stale metadata.
func GetEnrichTargets(db *sql.DB, staleness time.Duration) ([]*EnrichTarget, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	threshold := time.Now().UTC().Add(-staleness).Format(time.RFC3339)

	rows, err := db.Query(selectEnrichableSQL, threshold)
	if err != nil {
		return nil, errors.Wrap(err, "failed to query enrich targets")
	}
	defer rows.Close()

	list := make([]*EnrichTarget, 0)
	for rows.Next() {
		var id, link string
		if err := rows.Scan(&id, &link); err != nil {
			return nil, errors.Wrap(err, "failed to scan enrich target")
		}
		org, repo, ok := ParseGitHubRepo(link)
		if !ok {
			continue
		}
		list = append(list, &EnrichTarget{PaperID: id, Org: org, Repo: repo})
	}

	return list, rows.Err()
}

// ParseGitHubRepo extracts owner and repository from a GitHub URL.
// Links pointing elsewhere (gists, orgs, non-GitHub hosts) report not ok.
func ParseGitHubRepo(link string) (org, repo string, ok bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", "", false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	if host != "github.com" {
		return "", "", false
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}

	repo = strings.TrimSuffix(parts[1], ".git")
	repo = strings.TrimRight(repo, ").,")
	if repo == "" {
		return "", "", false
	}

	return parts[0], repo, true
}

// EnrichSummary is returned by the enrich command.
type EnrichSummary struct {
	Targets  int    `json:"targets" yaml:"targets"`
	Enriched int    `json:"enriched" yaml:"enriched"`
	Errors   int    `json:"errors" yaml:"errors"`
	Duration string `json:"duration" yaml:"duration"`
}

func (s *EnrichSummary) String() string {
	return fmt.Sprintf("targets:%d enriched:%d errors:%d", s.Targets, s.Enriched, s.Errors)
}
