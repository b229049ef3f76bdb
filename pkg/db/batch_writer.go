package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/japaniel/ownsync/pkg/graph"
)

// TripleWriter buffers statements and flushes them in batches inside a transaction.
// It is not safe for concurrent use; the graph updater is its single writer.
type TripleWriter struct {
	buf      []graph.Triple
	cap      int
	closed   bool
	db       *sql.DB
	inserted int64
}

// NewTripleWriter creates a new TripleWriter.
// db: the database connection to use for transactions.
// bufferSize: flush when buffer reaches this size.
func NewTripleWriter(db *sql.DB, bufferSize int) *TripleWriter {
	if bufferSize <= 0 {
		bufferSize = 10
	}
	return &TripleWriter{
		buf: make([]graph.Triple, 0, bufferSize),
		cap: bufferSize,
		db:  db,
	}
}

// Write enqueues a statement, flushing when the buffer is full.
func (w *TripleWriter) Write(ctx context.Context, t graph.Triple) error {
	if w.closed {
		return ErrTripleWriterClosed
	}
	w.buf = append(w.buf, t)
	if len(w.buf) >= w.cap {
		return w.Flush(ctx)
	}
	return nil
}

// Flush commits the buffered statements in one transaction.
func (w *TripleWriter) Flush(ctx context.Context) error {
	if len(w.buf) == 0 {
		return nil
	}
	batch := w.buf
	w.buf = make([]graph.Triple, 0, w.cap)
	return w.executeBatch(ctx, batch)
}

func (w *TripleWriter) executeBatch(ctx context.Context, batch []graph.Triple) error {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	var inserted int64
	for _, t := range batch {
		ok, err := InsertTriple(ctx, tx, t)
		if err != nil {
			return err
		}
		if ok {
			inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch (%d items): %w", len(batch), err)
	}
	w.inserted += inserted
	return nil
}

// Inserted returns how many statements were new to the store.
func (w *TripleWriter) Inserted() int64 { return w.inserted }

// Close flushes remaining statements and stops accepting writes.
func (w *TripleWriter) Close(ctx context.Context) error {
	if w.closed {
		return ErrTripleWriterClosed
	}
	w.closed = true
	return w.Flush(ctx)
}

var ErrTripleWriterClosed = &TripleWriterError{"triple writer closed"}

type TripleWriterError struct{ msg string }

func (e *TripleWriterError) Error() string { return e.msg }
