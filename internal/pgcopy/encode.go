// Package pgcopy produces the text stream PostgreSQL's COPY FROM STDIN
// protocol consumes: tab-separated fields, newline-terminated rows, \N for
// NULL, backslash escapes for the delimiter characters.
package pgcopy

import (
	"database/sql"
	"encoding/hex"

	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
)

// AppendRow appends one encoded row to dst and returns the extended slice.
// fields come straight from the MySQL driver as raw bytes; types must
// match the fields positionally. A nil field encodes as NULL.
func AppendRow(dst []byte, fields []sql.RawBytes, types []schema.ColumnType) []byte {
	for i, f := range fields {
		if i > 0 {
			dst = append(dst, '\t')
		}
		if f == nil {
			dst = append(dst, '\\', 'N')
			continue
		}
		if types[i] == schema.TypeBinary {
			dst = appendBytea(dst, f)
			continue
		}
		dst = appendEscaped(dst, f)
	}
	return append(dst, '\n')
}

// appendEscaped escapes the bytes that carry meaning in the COPY text
// format. Everything else passes through untouched, including bytes that
// are not valid UTF-8; those are the sanitizer's problem.
func appendEscaped(dst, f []byte) []byte {
	for _, b := range f {
		switch b {
		case '\\':
			dst = append(dst, '\\', '\\')
		case '\t':
			dst = append(dst, '\\', 't')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		default:
			dst = append(dst, b)
		}
	}
	return dst
}

// appendBytea encodes a binary field as bytea hex input. The leading
// backslash is doubled so COPY delivers the literal \x form to the bytea
// parser.
func appendBytea(dst, f []byte) []byte {
	dst = append(dst, '\\', '\\', 'x')
	n := len(dst)
	dst = append(dst, make([]byte, hex.EncodedLen(len(f)))...)
	hex.Encode(dst[n:], f)
	return dst
}
