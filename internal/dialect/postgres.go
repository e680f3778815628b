package dialect

import (
	"fmt"
	"strings"

	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
)

// Postgres builds the destination DDL, sequence and COPY SQL.
type Postgres struct{}

// TypeDDL maps a semantic column type to its PostgreSQL type.
func (d Postgres) TypeDDL(t schema.ColumnType) string {
	switch t {
	case schema.TypeInteger:
		return "integer"
	case schema.TypeBigInt:
		return "bigint"
	case schema.TypeFloat:
		return "double precision"
	case schema.TypeBoolean:
		return "boolean"
	case schema.TypeText:
		return "text"
	case schema.TypeTimestamp:
		return "timestamp(3) without time zone"
	case schema.TypeDate:
		return "date"
	case schema.TypeBinary:
		return "bytea"
	}
	return "text"
}

func (d Postgres) CreateSchemaDDL(schemaName string) string {
	return fmt.Sprintf("CREATE SCHEMA IF NOT EXISTS %s", d.QuoteIdent(schemaName))
}

// DropTableDDL drops the prior table and everything depending on it. The
// destination table is owned exclusively by the migration run; reload is
// by destructive replacement.
func (d Postgres) DropTableDDL(schemaName, table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s CASCADE", d.QualifiedName(schemaName, table))
}

func (d Postgres) CreateTableDDL(schemaName string, spec schema.TableSpec) string {
	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = fmt.Sprintf("%s %s", d.QuoteIdent(c.Name), d.TypeDDL(c.Type))
	}
	return fmt.Sprintf("CREATE TABLE %s (%s)", d.QualifiedName(schemaName, spec.Name), strings.Join(cols, ", "))
}

func (d Postgres) CreateSequenceDDL(schemaName string, spec schema.TableSpec) string {
	return fmt.Sprintf("CREATE SEQUENCE %s OWNED BY %s.%s",
		d.QualifiedName(schemaName, d.SequenceName(spec)),
		d.QualifiedName(schemaName, spec.Name),
		d.QuoteIdent(spec.IdentityColumn))
}

func (d Postgres) SetDefaultDDL(schemaName string, spec schema.TableSpec) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT nextval('%s')",
		d.QualifiedName(schemaName, spec.Name),
		d.QuoteIdent(spec.IdentityColumn),
		d.QualifiedName(schemaName, d.SequenceName(spec)))
}

// SyncSequenceQuery advances the sequence past the maximum loaded key.
// On an empty table setval's is_called flag is cleared so the first
// generated value is 1, not 2.
func (d Postgres) SyncSequenceQuery(schemaName string, spec schema.TableSpec) string {
	seq := d.QualifiedName(schemaName, d.SequenceName(spec))
	col := d.QuoteIdent(spec.IdentityColumn)
	return fmt.Sprintf("SELECT CASE WHEN MAX(%s) IS NULL THEN setval('%s', 1, false) ELSE setval('%s', MAX(%s)) END FROM %s",
		col, seq, seq, col,
		d.QualifiedName(schemaName, spec.Name))
}

func (d Postgres) NextvalQuery(schemaName string, spec schema.TableSpec) string {
	return fmt.Sprintf("SELECT nextval('%s')", d.QualifiedName(schemaName, d.SequenceName(spec)))
}

// CopyQuery returns the COPY FROM STDIN statement for the text-format bulk
// stream. Column order mirrors the spec, matching the read-side SELECT.
func (d Postgres) CopyQuery(schemaName string, spec schema.TableSpec) string {
	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = d.QuoteIdent(c.Name)
	}
	return fmt.Sprintf("COPY %s (%s) FROM STDIN",
		d.QualifiedName(schemaName, spec.Name), strings.Join(cols, ", "))
}

func (d Postgres) CountQuery(schemaName, table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QualifiedName(schemaName, table))
}

func (d Postgres) SequenceName(spec schema.TableSpec) string {
	return fmt.Sprintf("%s_%s_seq", spec.Name, spec.IdentityColumn)
}

func (d Postgres) QualifiedName(schemaName, name string) string {
	return d.QuoteIdent(schemaName) + "." + d.QuoteIdent(name)
}

func (d Postgres) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
