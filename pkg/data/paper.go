package data

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/coderunners/reprod/pkg/scorecard"
)

const (
	insertPaperSQL = `INSERT INTO paper (
			id, position, title, conference, raw_score, score, status,
			paper_link, code_link, defaulted_fields, criteria, categories
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			position = excluded.position,
			title = excluded.title,
			conference = excluded.conference,
			raw_score = excluded.raw_score,
			score = excluded.score,
			status = excluded.status,
			paper_link = excluded.paper_link,
			code_link = excluded.code_link,
			defaulted_fields = excluded.defaulted_fields,
			criteria = excluded.criteria,
			categories = excluded.categories
	`

	selectPaperSQL = `SELECT id, title, conference, raw_score, score, status,
			paper_link, code_link, defaulted_fields, criteria, categories
		FROM paper
	`
)

// PaperSearchCriteria holds the dashboard filter predicates. Predicate
// kinds combine with AND; the text query matches title OR id.
type PaperSearchCriteria struct {
	MinScore    float64  `json:"min_score,omitempty" yaml:"min_score,omitempty"`
	Statuses    []string `json:"statuses,omitempty" yaml:"statuses,omitempty"`
	Conferences []string `json:"conferences,omitempty" yaml:"conferences,omitempty"`
	Query       string   `json:"query,omitempty" yaml:"query,omitempty"`
	Limit       int      `json:"limit,omitempty" yaml:"limit,omitempty"`
}

// HasFilters reports whether any narrowing predicate is active.
func (c *PaperSearchCriteria) HasFilters() bool {
	return c.MinScore > 0 || len(c.Statuses) > 0 || len(c.Conferences) > 0 ||
		strings.TrimSpace(c.Query) != ""
}

// CountedItem is a name/count pair used by breakdown queries.
type CountedItem struct {
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`
	Count int    `json:"count,omitempty" yaml:"count,omitempty"`
}

// ReplacePapers swaps the full derived record set in one transaction.
// Import is the only mutation point; readers always see either the old
// or the new table.
func ReplacePapers(db *sql.DB, papers []*scorecard.Paper) error {
	if db == nil {
		return errDBNotInitialized
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error starting paper tx: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM paper"); err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("error clearing papers: %w", err)
	}

	stmt, err := tx.Prepare(insertPaperSQL)
	if err != nil {
		rollbackTransaction(tx)
		return fmt.Errorf("error preparing paper insert: %w", err)
	}

	for i, p := range papers {
		criteria, err := json.Marshal(p.Criteria)
		if err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error marshalling criteria for %s: %w", p.ID, err)
		}
		categories, err := json.Marshal(p.Categories)
		if err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error marshalling categories for %s: %w", p.ID, err)
		}

		if _, err := stmt.Exec(
			p.ID, i, p.Title, p.Conference, p.RawScore, p.Score, p.Status,
			p.PaperLink, p.CodeLink, p.DefaultedFields, string(criteria), string(categories),
		); err != nil {
			rollbackTransaction(tx)
			return fmt.Errorf("error inserting paper %s: %w", p.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing paper tx: %w", err)
	}

	return nil
}

// SearchPapers returns papers matching all active predicates, in
// source row order.
func SearchPapers(db *sql.DB, c *PaperSearchCriteria) ([]*scorecard.Paper, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if c == nil {
		c = &PaperSearchCriteria{}
	}

	q := selectPaperSQL
	where := make([]string, 0, 4)
	args := make([]any, 0, 8)

	if c.MinScore > 0 {
		where = append(where, "score >= ?")
		args = append(args, c.MinScore)
	}
	if len(c.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(c.Statuses))+")")
		for _, s := range c.Statuses {
			args = append(args, s)
		}
	}
	if len(c.Conferences) > 0 {
		where = append(where, "conference IN ("+placeholders(len(c.Conferences))+")")
		for _, s := range c.Conferences {
			args = append(args, s)
		}
	}
	if s := strings.TrimSpace(c.Query); s != "" {
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(id) LIKE ?)")
		like := "%" + strings.ToLower(s) + "%"
		args = append(args, like, like)
	}

	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY position"
	if c.Limit > 0 {
		q += " LIMIT ?"
		args = append(args, c.Limit)
	}

	rows, err := db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute paper search: %w", err)
	}
	defer rows.Close()

	list := make([]*scorecard.Paper, 0)
	for rows.Next() {
		p, err := scanPaper(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}

	return list, rows.Err()
}

// SearchPapersWithFallback applies the empty-set usability guard: when
// active filters match nothing, the filters are discarded and the full
// table returned with fellBack set, rather than rendering nothing.
func SearchPapersWithFallback(db *sql.DB, c *PaperSearchCriteria) (papers []*scorecard.Paper, fellBack bool, err error) {
	papers, err = SearchPapers(db, c)
	if err != nil {
		return nil, false, err
	}

	if len(papers) == 0 && c != nil && c.HasFilters() {
		papers, err = SearchPapers(db, &PaperSearchCriteria{Limit: c.Limit})
		if err != nil {
			return nil, false, err
		}
		return papers, true, nil
	}

	return papers, false, nil
}

// GetPaper returns one derived record by id, or nil when not found.
func GetPaper(db *sql.DB, id string) (*scorecard.Paper, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectPaperSQL+" WHERE id = ?", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query paper %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanPaper(rows)
}

// CountPapers returns the size of the full table.
func CountPapers(db *sql.DB) (int, error) {
	if db == nil {
		return 0, errDBNotInitialized
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM paper").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count papers: %w", err)
	}
	return n, nil
}

// GetStatuses lists the distinct statuses present in the loaded data.
func GetStatuses(db *sql.DB) ([]string, error) {
	return listDistinct(db, "status")
}

// GetConferences lists the distinct conference labels present.
func GetConferences(db *sql.DB) ([]string, error) {
	return listDistinct(db, "conference")
}

func listDistinct(db *sql.DB, col string) ([]string, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query("SELECT DISTINCT " + col + " FROM paper ORDER BY " + col) //nolint:gosec // col is a compile-time constant
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", col, err)
	}
	defer rows.Close()

	list := make([]string, 0)
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan %s: %w", col, err)
		}
		if v != "" {
			list = append(list, v)
		}
	}

	return list, rows.Err()
}

func scanPaper(rows *sql.Rows) (*scorecard.Paper, error) {
	var p scorecard.Paper
	var criteria, categories string

	if err := rows.Scan(
		&p.ID, &p.Title, &p.Conference, &p.RawScore, &p.Score, &p.Status,
		&p.PaperLink, &p.CodeLink, &p.DefaultedFields, &criteria, &categories,
	); err != nil {
		return nil, fmt.Errorf("failed to scan paper row: %w", err)
	}

	if err := json.Unmarshal([]byte(criteria), &p.Criteria); err != nil {
		return nil, fmt.Errorf("failed to unmarshal criteria for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(categories), &p.Categories); err != nil {
		return nil, fmt.Errorf("failed to unmarshal categories for %s: %w", p.ID, err)
	}

	return &p, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
