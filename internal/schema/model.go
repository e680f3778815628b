package schema

// ColumnType is the semantic destination type of a column. The dialect
// package maps it to concrete PostgreSQL DDL.
type ColumnType int

const (
	TypeInteger ColumnType = iota
	TypeBigInt
	TypeFloat
	TypeBoolean
	TypeText
	TypeTimestamp // millisecond precision
	TypeDate
	TypeBinary
)

func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeBigInt:
		return "bigint"
	case TypeFloat:
		return "float"
	case TypeBoolean:
		return "boolean"
	case TypeText:
		return "text"
	case TypeTimestamp:
		return "timestamp"
	case TypeDate:
		return "date"
	case TypeBinary:
		return "binary"
	}
	return "unknown"
}

type Column struct {
	Name string
	Type ColumnType
}

// TableSpec is one unit of transfer. Columns order is the positional
// contract: it defines both the source SELECT projection and the COPY
// column list. Reordering silently corrupts data.
type TableSpec struct {
	Name           string
	Columns        []Column
	IdentityColumn string // empty when the table has no sequence-backed key
}

// ColumnNames returns the column names in declaration order.
func (t TableSpec) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// HasIdentity reports whether the table carries a sequence-backed key.
func (t TableSpec) HasIdentity() bool {
	return t.IdentityColumn != ""
}

// TransferResult is the per-table report line.
type TransferResult struct {
	TableName    string
	SourceRows   int64
	DestRows     int64
	DroppedBytes int64
	Status       string
	ErrorMsg     string
}
