package transfer

import (
	"bytes"
	"database/sql"
	"errors"
	"io"
	"strings"
	"testing"

	"golang.org/x/text/transform"

	"github.com/uoy-im/mysql-to-postgresql/internal/pgcopy"
	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
)

// fakeRows feeds canned rows to the producer the way *sql.Rows would.
type fakeRows struct {
	rows [][]sql.RawBytes
	pos  int
	err  error
}

func (f *fakeRows) Next() bool {
	return f.pos < len(f.rows)
}

func (f *fakeRows) Scan(dest ...any) error {
	row := f.rows[f.pos]
	f.pos++
	for i, d := range dest {
		*(d.(*sql.RawBytes)) = row[i]
	}
	return nil
}

func (f *fakeRows) Err() error {
	return f.err
}

func rawRow(fields ...string) []sql.RawBytes {
	out := make([]sql.RawBytes, len(fields))
	for i, s := range fields {
		out[i] = sql.RawBytes(s)
	}
	return out
}

func runProduce(t *testing.T, src *fakeRows, types []schema.ColumnType) (string, int64, int64, error) {
	t.Helper()
	san := &pgcopy.Sanitizer{}
	pr, pw := io.Pipe()

	var out bytes.Buffer
	consumed := make(chan struct{})
	go func() {
		io.Copy(&out, pr)
		close(consumed)
	}()

	var rows int64
	err := produce(src, types, transform.NewWriter(pw, san), pw, &rows, nil)
	<-consumed
	return out.String(), rows, san.Dropped(), err
}

func TestProduce_EncodesAndCounts(t *testing.T) {
	src := &fakeRows{rows: [][]sql.RawBytes{
		rawRow("1", "a"),
		rawRow("2", "b"),
	}}
	out, rows, dropped, err := runProduce(t, src, []schema.ColumnType{schema.TypeBigInt, schema.TypeText})
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\ta\n2\tb\n" {
		t.Errorf("stream = %q", out)
	}
	if rows != 2 {
		t.Errorf("rows = %d, want 2", rows)
	}
	if dropped != 0 {
		t.Errorf("dropped = %d, want 0", dropped)
	}
}

func TestProduce_SanitizesMidStream(t *testing.T) {
	src := &fakeRows{rows: [][]sql.RawBytes{
		rawRow("1", "\xffAbc"),
	}}
	out, _, dropped, err := runProduce(t, src, []schema.ColumnType{schema.TypeBigInt, schema.TypeText})
	if err != nil {
		t.Fatal(err)
	}
	if out != "1\tAbc\n" {
		t.Errorf("stream = %q", out)
	}
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}

func TestProduce_NullField(t *testing.T) {
	row := rawRow("7", "x")
	row[1] = nil
	src := &fakeRows{rows: [][]sql.RawBytes{row}}
	out, _, _, err := runProduce(t, src, []schema.ColumnType{schema.TypeBigInt, schema.TypeText})
	if err != nil {
		t.Fatal(err)
	}
	if out != "7\t\\N\n" {
		t.Errorf("stream = %q", out)
	}
}

func TestProduce_PropagatesIterationError(t *testing.T) {
	want := errors.New("connection reset")
	src := &fakeRows{rows: [][]sql.RawBytes{rawRow("1")}, err: want}
	_, _, _, err := runProduce(t, src, []schema.ColumnType{schema.TypeBigInt})
	if !errors.Is(err, want) {
		t.Errorf("err = %v, want %v", err, want)
	}
}

func TestProduce_StopsWhenConsumerAborts(t *testing.T) {
	// Simulates COPY failing mid-stream: the reader side closes with an
	// error and the producer must bail out instead of blocking.
	san := &pgcopy.Sanitizer{}
	pr, pw := io.Pipe()
	abort := errors.New("copy aborted")
	pr.CloseWithError(abort)

	// Rows must be large enough to force flushes through the pipe rather
	// than sit in the transform writer's buffer.
	payload := strings.Repeat("x", 4096)
	rows := make([][]sql.RawBytes, 100)
	for i := range rows {
		rows[i] = rawRow("1", payload)
	}
	var n int64
	err := produce(&fakeRows{rows: rows}, []schema.ColumnType{schema.TypeBigInt, schema.TypeText},
		transform.NewWriter(pw, san), pw, &n, nil)
	if !errors.Is(err, abort) {
		t.Errorf("err = %v, want %v", err, abort)
	}
	if n == 100 {
		t.Error("producer consumed the whole stream after the consumer aborted")
	}
}
