package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coderunners/reprod/pkg/scorecard"
)

func TestGetSummary(t *testing.T) {
	db := setupTestDB(t)
	seedPapers(t, db)

	s, err := GetSummary(db)
	require.NoError(t, err)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Highly)
	assert.Zero(t, s.Enriched)
	// Scores are 90, 30, 0.
	assert.Equal(t, 40.0, s.AverageScore)
}

func TestGetSummaryEmpty(t *testing.T) {
	db := setupTestDB(t)

	s, err := GetSummary(db)
	require.NoError(t, err)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.AverageScore)
}

func TestGetScoreDistribution(t *testing.T) {
	db := setupTestDB(t)
	seedPapers(t, db)

	d, err := GetScoreDistribution(db)
	require.NoError(t, err)
	require.Len(t, d.Labels, 10)
	require.Len(t, d.Data, 10)

	assert.Equal(t, "0-10", d.Labels[0])
	assert.Equal(t, "90-100", d.Labels[9])
	assert.Equal(t, 1, d.Data[0]) // score 0
	assert.Equal(t, 1, d.Data[3]) // score 30
	assert.Equal(t, 1, d.Data[9]) // score 90

	total := 0
	for _, n := range d.Data {
		total += n
	}
	assert.Equal(t, 3, total)
}

func TestGetStatusBreakdown(t *testing.T) {
	db := setupTestDB(t)
	seedPapers(t, db)

	list, err := GetStatusBreakdown(db)
	require.NoError(t, err)
	require.Len(t, list, 3)

	counts := make(map[string]int, len(list))
	for _, item := range list {
		counts[item.Name] = item.Count
	}
	assert.Equal(t, 1, counts[scorecard.StatusHighlyReproducible])
	assert.Equal(t, 1, counts[scorecard.StatusIssuesPresent])
	assert.Equal(t, 1, counts[scorecard.StatusNotReproducible])
}
