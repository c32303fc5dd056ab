package data

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceState(t *testing.T) {
	db := setupTestDB(t)

	src := filepath.Join(t.TempDir(), "scorecard_summary.csv")
	require.NoError(t, os.WriteFile(src, []byte("Paper File\np1.pdf\n"), 0600))

	// Never imported.
	s, err := GetSourceState(db, src)
	require.NoError(t, err)
	assert.Nil(t, s)

	fresh, err := SourceFresh(db, src)
	require.NoError(t, err)
	assert.False(t, fresh)

	// Imported and unchanged: cache hit.
	require.NoError(t, SaveSourceState(db, src, 1))
	fresh, err = SourceFresh(db, src)
	require.NoError(t, err)
	assert.True(t, fresh)

	s, err = GetSourceState(db, src)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, 1, s.RowCount)

	// Modified on disk: cache miss.
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(src, future, future))
	fresh, err = SourceFresh(db, src)
	require.NoError(t, err)
	assert.False(t, fresh)

	// Explicit invalidation.
	require.NoError(t, SaveSourceState(db, src, 1))
	require.NoError(t, ClearSourceState(db, src))
	fresh, err = SourceFresh(db, src)
	require.NoError(t, err)
	assert.False(t, fresh)
}

func TestSaveSourceStateMissingFile(t *testing.T) {
	db := setupTestDB(t)
	assert.Error(t, SaveSourceState(db, filepath.Join(t.TempDir(), "nope.csv"), 0))
	assert.Error(t, SaveSourceState(db, "", 0))
}
