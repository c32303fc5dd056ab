package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigRoundTrip(t *testing.T) {
	dir := t.TempDir()

	c1, err := ReadOrCreate(dir)
	require.NoError(t, err)
	require.NotNil(t, c1)
	assert.Equal(t, "data.db", c1.DataFile)

	c1.DataFile = "other.db"
	c1.RubricFile = "/tmp/rubric.yaml"
	c1.LogLevel = "debug"

	require.NoError(t, Save(dir, c1))

	c2, err := ReadOrCreate(dir)
	require.NoError(t, err)
	require.NotNil(t, c2)
	assert.Equal(t, c1.DataFile, c2.DataFile)
	assert.Equal(t, c1.RubricFile, c2.RubricFile)
	assert.Equal(t, c1.LogLevel, c2.LogLevel)
}

func TestConfigEmptyDir(t *testing.T) {
	_, err := ReadOrCreate("")
	assert.Error(t, err)

	err = Save("", &Config{})
	assert.Error(t, err)

	err = Save(t.TempDir(), nil)
	assert.Error(t, err)
}

func TestGetOrCreateHomeDir(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir, created, err := GetOrCreateHomeDir("reprod")
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, filepath.Join(home, ".reprod"), dir)

	fi, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, fi.IsDir())

	dir2, created2, err := GetOrCreateHomeDir("reprod")
	require.NoError(t, err)
	assert.False(t, created2)
	assert.Equal(t, dir, dir2)
}

func TestGetOrCreateHomeDirEmptyName(t *testing.T) {
	_, _, err := GetOrCreateHomeDir("")
	assert.Error(t, err)
}
