package db

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// migrationsSQL creates the triple table. The UNIQUE constraint gives the store
// set semantics: asserting an existing statement again is a no-op.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS triples (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	subject TEXT NOT NULL,
	predicate TEXT NOT NULL,
	object TEXT NOT NULL,
	object_kind INTEGER NOT NULL DEFAULT 0,
	lang TEXT NOT NULL DEFAULT '',
	datatype TEXT NOT NULL DEFAULT '',
	UNIQUE(subject, predicate, object, object_kind, lang, datatype)
);
CREATE INDEX IF NOT EXISTS idx_triples_predicate_subject ON triples(predicate, subject);
CREATE INDEX IF NOT EXISTS idx_triples_predicate_object ON triples(predicate, object);
`

// InitDB runs migrations on the given DB connection using the embedded SQL.
func InitDB(db *sql.DB) error {
	stmts := strings.Split(migrationsSQL, ";")
	for _, s := range stmts {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Open opens (creating if needed) the sqlite database at path and migrates it.
func Open(path string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent and serializes writers.
	conn.SetMaxOpenConns(1)
	if err := InitDB(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}
