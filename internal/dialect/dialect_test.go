package dialect_test

import (
	"strings"
	"testing"

	"github.com/uoy-im/mysql-to-postgresql/internal/dialect"
	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
)

var userSpec = schema.TableSpec{
	Name: "account",
	Columns: []schema.Column{
		{Name: "id", Type: schema.TypeBigInt},
		{Name: "email", Type: schema.TypeText},
		{Name: "active", Type: schema.TypeBoolean},
		{Name: "created_at", Type: schema.TypeTimestamp},
	},
	IdentityColumn: "id",
}

func TestMySQLStreamQuery_PreservesColumnOrder(t *testing.T) {
	my := dialect.MySQL{}
	got := my.StreamQuery(userSpec)
	want := "SELECT `id`, `email`, `active`, `created_at` FROM `account`"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestMySQLQuoteIdent(t *testing.T) {
	my := dialect.MySQL{}
	if got := my.QuoteIdent("weird`name"); got != "`weird``name`" {
		t.Errorf("got %q", got)
	}
}

func TestPostgresCreateTableDDL(t *testing.T) {
	pg := dialect.Postgres{}
	got := pg.CreateTableDDL("migrated", userSpec)
	want := `CREATE TABLE "migrated"."account" ("id" bigint, "email" text, "active" boolean, "created_at" timestamp(3) without time zone)`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPostgresDropIsCascading(t *testing.T) {
	pg := dialect.Postgres{}
	got := pg.DropTableDDL("migrated", "account")
	if got != `DROP TABLE IF EXISTS "migrated"."account" CASCADE` {
		t.Errorf("got %q", got)
	}
}

func TestPostgresSequenceDDL(t *testing.T) {
	pg := dialect.Postgres{}

	if got := pg.CreateSequenceDDL("migrated", userSpec); got !=
		`CREATE SEQUENCE "migrated"."account_id_seq" OWNED BY "migrated"."account"."id"` {
		t.Errorf("create sequence: got %q", got)
	}
	if got := pg.SetDefaultDDL("migrated", userSpec); got !=
		`ALTER TABLE "migrated"."account" ALTER COLUMN "id" SET DEFAULT nextval('"migrated"."account_id_seq"')` {
		t.Errorf("set default: got %q", got)
	}
}

func TestPostgresSyncSequenceQuery_EmptyTableStartsAtOne(t *testing.T) {
	pg := dialect.Postgres{}
	got := pg.SyncSequenceQuery("migrated", userSpec)
	// Empty table: is_called=false so the first nextval yields 1, not 2.
	if !strings.Contains(got, `WHEN MAX("id") IS NULL THEN setval('"migrated"."account_id_seq"', 1, false)`) {
		t.Errorf("missing empty-table branch: %q", got)
	}
	// Loaded table: sequence lands on MAX(id), next insert gets MAX+1.
	if !strings.Contains(got, `ELSE setval('"migrated"."account_id_seq"', MAX("id"))`) {
		t.Errorf("missing loaded-table branch: %q", got)
	}
	if !strings.HasSuffix(got, `FROM "migrated"."account"`) {
		t.Errorf("wrong source table: %q", got)
	}
}

func TestPostgresCopyQuery_MatchesStreamProjection(t *testing.T) {
	pg := dialect.Postgres{}
	got := pg.CopyQuery("migrated", userSpec)
	want := `COPY "migrated"."account" ("id", "email", "active", "created_at") FROM STDIN`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestPostgresTypeDDL(t *testing.T) {
	pg := dialect.Postgres{}
	cases := map[schema.ColumnType]string{
		schema.TypeInteger:   "integer",
		schema.TypeBigInt:    "bigint",
		schema.TypeFloat:     "double precision",
		schema.TypeBoolean:   "boolean",
		schema.TypeText:      "text",
		schema.TypeTimestamp: "timestamp(3) without time zone",
		schema.TypeDate:      "date",
		schema.TypeBinary:    "bytea",
	}
	for ct, want := range cases {
		if got := pg.TypeDDL(ct); got != want {
			t.Errorf("TypeDDL(%s) = %q, want %q", ct, got, want)
		}
	}
}
