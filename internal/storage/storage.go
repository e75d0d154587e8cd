// Package storage persists pipeline runs, their rosters and enrichment
// outcomes in SQLite.
package storage

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrRunNotFound is returned when no stored run matches an id or prefix.
var ErrRunNotFound = errors.New("run not found")

// ErrPlayerNotFound is returned when a run has no player with the given id.
var ErrPlayerNotFound = errors.New("player not found")

// DB wraps a sqlx.DB for the run store.
type DB struct {
	conn *sqlx.DB
}

// Open opens (or creates) the SQLite database at the given path and applies the schema.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise see its own empty database.
		conn.SetMaxOpenConns(1)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
