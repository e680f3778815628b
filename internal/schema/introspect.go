package schema

import (
	"database/sql"
	"fmt"
	"strings"
)

const (
	sourceTablesQuery = `SELECT TABLE_NAME FROM information_schema.TABLES WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'`

	sourceColumnsQuery = `SELECT COLUMN_NAME FROM information_schema.COLUMNS WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ? ORDER BY ORDINAL_POSITION`
)

// SourceTables lists the base tables of the source database.
func SourceTables(db *sql.DB, schemaName string) ([]string, error) {
	rows, err := db.Query(sourceTablesQuery, schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tables: %w", err)
	}
	return tables, nil
}

// SourceColumns returns the column names of one source table in ordinal
// order.
func SourceColumns(db *sql.DB, schemaName, table string) ([]string, error) {
	rows, err := db.Query(sourceColumnsQuery, schemaName, table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns for %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name (table: %s): %w", table, err)
		}
		cols = append(cols, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("table %s not found in source schema %s", table, schemaName)
	}
	return cols, nil
}

// CheckSpec verifies that every column the spec declares exists in the
// source table. The transfer is positional, so a renamed or dropped source
// column must fail here rather than corrupt the stream.
func CheckSpec(db *sql.DB, schemaName string, spec TableSpec) error {
	live, err := SourceColumns(db, schemaName, spec.Name)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(live))
	for _, c := range live {
		have[strings.ToLower(c)] = true
	}
	var missing []string
	for _, c := range spec.Columns {
		if !have[strings.ToLower(c.Name)] {
			missing = append(missing, c.Name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("table %s: columns %s not present in source", spec.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Uncovered returns source tables that are neither cataloged nor excluded.
// The catalog is maintained by hand and can drift out of sync with the
// live schema; the driver surfaces these as warnings.
func Uncovered(catalog *Catalog, f *Filter, live []string) []string {
	var out []string
	for _, name := range live {
		if f.Excludes(name) {
			continue
		}
		if _, ok := catalog.Lookup(name); !ok {
			out = append(out, name)
		}
	}
	return out
}
