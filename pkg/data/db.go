// Package data persists derived scorecard records in a local SQLite
// database and provides the query surface used by the CLI and the
// dashboard server. The paper table is the process cache of the
// normalization pipeline: written only by import, read-only after.
package data

import (
	"database/sql"
	"embed"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// DataFileName is the default database file name under the app home dir.
const DataFileName string = "data.db"

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")
)

// Init creates the database schema if needed. Safe to call repeatedly.
func Init(dbFilePath string) error {
	if dbFilePath == "" {
		return errors.New("dbFilePath not specified")
	}

	db, err := GetDB(dbFilePath)
	if err != nil {
		return errors.Wrapf(err, "error opening database: %s", dbFilePath)
	}
	defer db.Close()

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := db.Exec(string(b)); err != nil {
		return errors.Wrapf(err, "failed to create database schema in: %s", dbFilePath)
	}

	return nil
}

func GetDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", path)
	}
	return conn, nil
}

// Contains checks for val in list.
func Contains[T comparable](list []T, val T) bool {
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}

func rollbackTransaction(tx *sql.Tx) {
	_ = tx.Rollback()
}
