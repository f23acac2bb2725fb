// Package data persists students, risk assessments, and training runs in
// a local sqlite database shared by the dashboard processes.
package data

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

// DataFileName is the sqlite file name under the app home dir.
const DataFileName = "data.db"

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")
)

// timeFormat is how timestamps are stored, sortable lexicographically.
const timeFormat = "2006-01-02T15:04:05Z"

// Init ensures the database schema exists at the given path.
func Init(dbFilePath string) error {
	if dbFilePath == "" {
		return errors.New("dbFilePath not specified")
	}

	db, err := GetDB(dbFilePath)
	if err != nil {
		return err
	}
	defer db.Close()

	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return fmt.Errorf("failed to read the schema creation file: %w", err)
	}
	if _, err := db.Exec(string(b)); err != nil {
		return fmt.Errorf("failed to create database schema in %s: %w", dbFilePath, err)
	}

	return nil
}

// GetDB opens a connection to the sqlite database at path.
func GetDB(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return conn, nil
}

func rollbackTransaction(tx *sql.Tx) {
	_ = tx.Rollback()
}
