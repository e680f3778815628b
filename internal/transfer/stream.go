package transfer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"golang.org/x/text/transform"

	"github.com/uoy-im/mysql-to-postgresql/internal/pgcopy"
	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
)

// stream moves all rows of spec from source to destination without ever
// holding the result set in memory. The MySQL driver yields rows off the
// wire one at a time; each row is encoded to COPY text format, passed
// through the UTF-8 sanitizer, and fed to COPY FROM STDIN over a single
// pipe. Backpressure is the pipe: a slow COPY consumer suspends the
// producer.
func (r *Runner) stream(ctx context.Context, spec schema.TableSpec) (rows, dropped int64, err error) {
	srcRows, err := r.Source.QueryContext(ctx, r.my.StreamQuery(spec))
	if err != nil {
		return 0, 0, fmt.Errorf("source query: %w", err)
	}
	defer srcRows.Close()

	types := make([]schema.ColumnType, len(spec.Columns))
	for i, c := range spec.Columns {
		types[i] = c.Type
	}

	san := &pgcopy.Sanitizer{}
	pr, pw := io.Pipe()

	prodDone := make(chan error, 1)
	go func() {
		prodDone <- produce(srcRows, types, transform.NewWriter(pw, san), pw, &rows, r.OnRow)
	}()

	_, copyErr := r.Dest.CopyFrom(ctx, pr, r.pg.CopyQuery(r.DestSchema, spec))
	if copyErr != nil {
		// Unblock the producer if COPY stopped reading mid-stream.
		pr.CloseWithError(copyErr)
	}
	prodErr := <-prodDone

	// A producer failure that is just the COPY error echoed back through
	// the pipe is a COPY failure, not a read failure.
	if prodErr != nil && !errors.Is(prodErr, copyErr) {
		return rows, san.Dropped(), fmt.Errorf("read: %w", prodErr)
	}
	if copyErr != nil {
		return rows, san.Dropped(), fmt.Errorf("copy: %w", copyErr)
	}
	return rows, san.Dropped(), nil
}

// rowScanner is the subset of *sql.Rows the producer needs.
type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

// produce scans source rows and writes encoded lines until the result set
// is exhausted or either side fails. It always closes pw so the COPY
// reader observes EOF or the producer's error.
func produce(srcRows rowScanner, types []schema.ColumnType, w io.WriteCloser, pw *io.PipeWriter, rows *int64, onRow func()) error {
	vals := make([]sql.RawBytes, len(types))
	ptrs := make([]any, len(types))
	for i := range vals {
		ptrs[i] = &vals[i]
	}

	var line []byte
	for srcRows.Next() {
		if err := srcRows.Scan(ptrs...); err != nil {
			pw.CloseWithError(err)
			return err
		}
		line = pgcopy.AppendRow(line[:0], vals, types)
		if _, err := w.Write(line); err != nil {
			pw.CloseWithError(err)
			return err
		}
		*rows++
		if onRow != nil {
			onRow()
		}
	}

	err := srcRows.Err()
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	pw.CloseWithError(err)
	return err
}
