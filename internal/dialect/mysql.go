package dialect

import (
	"fmt"
	"strings"

	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
)

// MySQL builds the read-side SQL. The driver streams result rows off the
// wire as they are fetched, so the SELECT here never materializes the full
// table in client memory.
type MySQL struct{}

// StreamQuery returns the projection SELECT for one table. Column order
// follows the spec exactly; the destination COPY column list is built from
// the same spec, so the two sides stay positionally aligned.
func (d MySQL) StreamQuery(spec schema.TableSpec) string {
	cols := make([]string, len(spec.Columns))
	for i, c := range spec.Columns {
		cols[i] = d.QuoteIdent(c.Name)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(cols, ", "), d.QuoteIdent(spec.Name))
}

func (d MySQL) CountQuery(table string) string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s", d.QuoteIdent(table))
}

func (d MySQL) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
