package scorecard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scorecard_summary.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestLoadCSVUnparsable(t *testing.T) {
	path := writeCSV(t, "a,b\n\"unterminated")
	_, err := LoadCSV(path)
	assert.Error(t, err)
}

func TestLoadCSVEmpty(t *testing.T) {
	path := writeCSV(t, "")
	_, err := LoadCSV(path)
	assert.Error(t, err)
}

func TestLoadCSVShortRows(t *testing.T) {
	path := writeCSV(t, "Paper File,Overall Rating\np1.pdf\n")
	tab, err := LoadCSV(path)
	require.NoError(t, err)
	require.Len(t, tab.Rows, 1)

	_, ok := tab.Rows[0]["Overall Rating"]
	assert.False(t, ok)
	assert.True(t, tab.HasColumn("Paper File"))
	assert.False(t, tab.HasColumn("Bogus"))
}

func TestLoadPapers(t *testing.T) {
	path := writeCSV(t,
		"Paper File,Availability of Code and Software,Availability of Datasets\n"+
			"Great_Paper.pdf,Score: 3 | Notes: https://github.com/org/repo,Score: 2 | Notes: public\n"+
			"Weak_Paper.pdf,Score: 0 | Notes: none,garbage\n")

	papers, err := LoadPapers(path, DefaultRubric())
	require.NoError(t, err)
	require.Len(t, papers, 2)

	assert.Equal(t, "Great_Paper", papers[0].ID)
	assert.Equal(t, 3, papers[0].Criterion(CriterionCodeAvailability).Score)
	assert.Equal(t, "https://github.com/org/repo", papers[0].CodeLink)
	assert.Equal(t, 2, papers[0].Category(CategoryDataModelReuse).Score)

	// Unparsable cell in a present column: parsed as zero, not
	// counted as defaulted.
	ds := papers[1].Criterion(CriterionDatasetAvailability)
	assert.Zero(t, ds.Score)
	assert.False(t, ds.Defaulted)

	// Columns absent from the header are defaulted.
	assert.True(t, papers[1].Criterion(CriterionGPURequirements).Defaulted)
}
