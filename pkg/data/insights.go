package data

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	"github.com/coderunners/reprod/pkg/scorecard"
)

const scoreBuckets = 10

// Summary is the dashboard metrics row.
type Summary struct {
	Total        int     `json:"total" yaml:"total"`
	AverageScore float64 `json:"average_score" yaml:"averageScore"`
	Highly       int     `json:"highly_reproducible" yaml:"highlyReproducible"`
	Enriched     int     `json:"enriched" yaml:"enriched"`
}

// ScoreDistribution is histogram chart data: one bucket per 10 points.
type ScoreDistribution struct {
	Labels []string `json:"labels" yaml:"labels"`
	Data   []int    `json:"data" yaml:"data"`
}

// GetSummary computes the headline numbers over the full table.
func GetSummary(db *sql.DB) (*Summary, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	s := &Summary{}
	err := db.QueryRow(`SELECT COUNT(*), COALESCE(AVG(score), 0) FROM paper`).
		Scan(&s.Total, &s.AverageScore)
	if err != nil {
		return nil, fmt.Errorf("failed to query summary: %w", err)
	}
	s.AverageScore = math.Round(s.AverageScore*10) / 10

	err = db.QueryRow(`SELECT COUNT(*) FROM paper WHERE status = ?`, scorecard.StatusHighlyReproducible).
		Scan(&s.Highly)
	if err != nil {
		return nil, fmt.Errorf("failed to count highly reproducible papers: %w", err)
	}

	err = db.QueryRow(`SELECT COUNT(*) FROM repo_meta`).Scan(&s.Enriched)
	if err != nil {
		return nil, fmt.Errorf("failed to count enriched papers: %w", err)
	}

	return s, nil
}

// GetScoreDistribution buckets normalized scores into ten ranges.
// Scores of exactly 100 land in the top bucket.
func GetScoreDistribution(db *sql.DB) (*ScoreDistribution, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(`SELECT score FROM paper`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	d := &ScoreDistribution{
		Labels: make([]string, scoreBuckets),
		Data:   make([]int, scoreBuckets),
	}
	for i := 0; i < scoreBuckets; i++ {
		d.Labels[i] = fmt.Sprintf("%d-%d", i*10, i*10+10)
	}

	for rows.Next() {
		var score float64
		if err := rows.Scan(&score); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		b := int(score / 10)
		if b >= scoreBuckets {
			b = scoreBuckets - 1
		}
		d.Data[b]++
	}

	return d, rows.Err()
}

// GetStatusBreakdown counts papers per status, largest first.
func GetStatusBreakdown(db *sql.DB) ([]*CountedItem, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(`SELECT status, COUNT(*) AS c FROM paper GROUP BY status ORDER BY c DESC`)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to query status breakdown: %w", err)
	}
	defer rows.Close()

	list := make([]*CountedItem, 0)
	for rows.Next() {
		var item CountedItem
		if err := rows.Scan(&item.Name, &item.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status row: %w", err)
		}
		list = append(list, &item)
	}

	return list, rows.Err()
}
