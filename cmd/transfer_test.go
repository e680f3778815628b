package cmd

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/viper"

	"github.com/uoy-im/mysql-to-postgresql/internal/schema"
)

func setFullViperConfig(t *testing.T) {
	t.Helper()
	for key, val := range map[string]string{
		"source.host":     "db.example.ac.uk",
		"source.user":     "migrator",
		"source.password": "secret",
		"source.database": "identity",
		"target.host":     "ep-example.eu-west-2.aws.neon.tech",
		"target.user":     "neondb_owner",
		"target.password": "secret",
		"target.database": "identity",
	} {
		viper.Set(key, val)
	}
	t.Cleanup(viper.Reset)
}

func TestTransferDryRun_OpensNoConnections(t *testing.T) {
	setFullViperConfig(t)

	dryRun = true
	allTbl = true
	t.Cleanup(func() { dryRun = false; allTbl = false })

	var dialed bool
	orig := connectFn
	connectFn = func(ctx context.Context, cfg *Config) (*sql.DB, *pgxpool.Pool, error) {
		dialed = true
		return orig(ctx, cfg)
	}
	t.Cleanup(func() { connectFn = orig })

	if err := transferCmd.RunE(transferCmd, nil); err != nil {
		t.Fatal(err)
	}
	if dialed {
		t.Error("dry run opened database connections")
	}
}

func TestResolveSpecs_IgnoresFlagGlobals(t *testing.T) {
	catalog := schema.DefaultCatalog()
	filter, err := schema.NewFilter(nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	// Flag state left over from another command must not leak into an
	// explicit selection.
	batchID = "large"
	allTbl = true
	t.Cleanup(func() { batchID = ""; allTbl = false })

	specs, err := resolveSpecs(catalog, filter, []string{"account"}, "", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(specs) != 1 || specs[0].Name != "account" {
		t.Errorf("selected %v, want just account", specs)
	}
}

func TestResolveSpecs_RejectsMixedSelection(t *testing.T) {
	catalog := schema.DefaultCatalog()
	filter, err := schema.NewFilter(nil, nil)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := resolveSpecs(catalog, filter, []string{"account"}, "core", false); err == nil {
		t.Error("named tables plus --batch should be rejected")
	}
	if _, err := resolveSpecs(catalog, filter, nil, "core", true); err == nil {
		t.Error("--batch plus --all should be rejected")
	}
}
