package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/japaniel/ownsync/pkg/graph"
	"github.com/sirupsen/logrus"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

const insertTripleSQL = `INSERT OR IGNORE INTO triples (subject, predicate, object, object_kind, lang, datatype)
	VALUES (?, ?, ?, ?, ?, ?)`

// InsertTriple asserts a statement and reports whether it was new.
func InsertTriple(ctx context.Context, db DBExecutor, t graph.Triple) (bool, error) {
	if strings.TrimSpace(t.Subject) == "" || strings.TrimSpace(t.Predicate) == "" {
		return false, fmt.Errorf("triple subject and predicate must be non-empty")
	}
	r := rowFromTriple(t)
	res, err := db.ExecContext(ctx, insertTripleSQL, r.Subject, r.Predicate, r.Object, int(r.Kind), r.Lang, r.Datatype)
	if err != nil {
		return false, fmt.Errorf("insert triple: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Count returns the number of stored statements.
func Count(ctx context.Context, db DBExecutor) (int64, error) {
	var n int64
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM triples`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// All streams every stored statement to fn in insertion order.
func All(ctx context.Context, db DBExecutor, fn func(graph.Triple) error) error {
	rows, err := db.QueryContext(ctx, `SELECT id, subject, predicate, object, object_kind, lang, datatype FROM triples ORDER BY id`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r tripleRow
		var kind int
		if err := rows.Scan(&r.ID, &r.Subject, &r.Predicate, &r.Object, &kind, &r.Lang, &r.Datatype); err != nil {
			return err
		}
		r.Kind = graph.TermKind(kind)
		if err := fn(r.Triple()); err != nil {
			return err
		}
	}
	return rows.Err()
}

// Store is the sqlite-backed graph.Store. Pattern queries are SQL over the
// triples table; every bound value is returned as a string.
type Store struct {
	conn      *sql.DB
	BatchSize int
	Logger    *logrus.Logger
}

// NewStore wraps a migrated connection.
func NewStore(conn *sql.DB) *Store {
	return &Store{conn: conn, BatchSize: 500}
}

// Conn exposes the underlying connection.
func (s *Store) Conn() *sql.DB { return s.conn }

// Query runs a pattern query and materializes all rows. NULL bindings are "".
func (s *Store) Query(ctx context.Context, query string, args ...any) ([]graph.Row, error) {
	rows, err := s.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	var out []graph.Row
	for rows.Next() {
		vals := make([]sql.NullString, len(cols))
		dest := make([]any, len(cols))
		for i := range vals {
			dest[i] = &vals[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		row := make(graph.Row, len(cols))
		for i, v := range vals {
			if v.Valid {
				row[i] = v.String
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Exec runs a parameterized update and returns the number of affected triples.
func (s *Store) Exec(ctx context.Context, stmt string, args ...any) (int64, error) {
	res, err := s.conn.ExecContext(ctx, stmt, args...)
	if err != nil {
		return 0, fmt.Errorf("exec: %w", err)
	}
	return res.RowsAffected()
}

// Insert asserts the triples in transactional batches of BatchSize.
func (s *Store) Insert(ctx context.Context, triples []graph.Triple) error {
	w := NewTripleWriter(s.conn, s.BatchSize)
	for _, t := range triples {
		if err := w.Write(ctx, t); err != nil {
			_ = w.Close(ctx)
			return err
		}
	}
	if err := w.Close(ctx); err != nil {
		return err
	}
	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{
			"submitted": len(triples),
			"inserted":  w.Inserted(),
		}).Debug("triples inserted")
	}
	return nil
}

var _ graph.Store = (*Store)(nil)
