package data

import (
	"database/sql"
	"os"
	"time"

	"github.com/pkg/errors"
)

const (
	upsertSourceSQL = `INSERT INTO source (path, modified_at, row_count, imported_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			modified_at = excluded.modified_at,
			row_count = excluded.row_count,
			imported_at = excluded.imported_at
	`

	selectSourceSQL = `SELECT path, modified_at, row_count, imported_at
		FROM source WHERE path = ?
	`
)

// SourceState is the cache key for a loaded scorecard file: identity
// (path) plus modification time. A re-import of an unchanged source is
// a cache hit and skips the pipeline.
type SourceState struct {
	Path       string `json:"path" yaml:"path"`
	ModifiedAt string `json:"modified_at" yaml:"modifiedAt"`
	RowCount   int    `json:"row_count" yaml:"rowCount"`
	ImportedAt string `json:"imported_at" yaml:"importedAt"`
}

// GetSourceState returns the recorded state for a source path, or nil
// when the path was never imported.
func GetSourceState(db *sql.DB, path string) (*SourceState, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	var s SourceState
	err := db.QueryRow(selectSourceSQL, path).Scan(&s.Path, &s.ModifiedAt, &s.RowCount, &s.ImportedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to scan source state")
	}

	return &s, nil
}

// SaveSourceState records the cache key after a successful import.
func SaveSourceState(db *sql.DB, path string, rowCount int) error {
	if db == nil {
		return errDBNotInitialized
	}
	if path == "" {
		return errors.New("source path is required")
	}

	mod, err := sourceModTime(path)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := db.Exec(upsertSourceSQL, path, mod, rowCount, now); err != nil {
		return errors.Wrapf(err, "failed to save source state: %s", path)
	}

	return nil
}

// ClearSourceState is the explicit cache invalidation: it forgets the
// recorded key so the next import reloads unconditionally.
func ClearSourceState(db *sql.DB, path string) error {
	if db == nil {
		return errDBNotInitialized
	}

	if _, err := db.Exec("DELETE FROM source WHERE path = ?", path); err != nil {
		return errors.Wrapf(err, "failed to clear source state: %s", path)
	}

	return nil
}

// SourceFresh reports whether the recorded cache key still matches the
// file on disk. Any stat error means not fresh; the subsequent load
// surfaces the real diagnostic.
func SourceFresh(db *sql.DB, path string) (bool, error) {
	s, err := GetSourceState(db, path)
	if err != nil {
		return false, err
	}
	if s == nil {
		return false, nil
	}

	mod, err := sourceModTime(path)
	if err != nil {
		return false, nil //nolint:nilerr // missing file is just a stale cache
	}

	return s.ModifiedAt == mod, nil
}

func sourceModTime(path string) (string, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return "", errors.Wrapf(err, "failed to stat source: %s", path)
	}
	return fi.ModTime().UTC().Format(time.RFC3339Nano), nil
}
